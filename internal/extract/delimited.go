package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/hyperjump/latsearch/internal/models"
)

// extractDelimited reads every field of every record in order. Empty fields are skipped so a
// trailing separator does not add a component.
func extractDelimited(content []byte, sep rune) (models.Vector, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = sep
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var v models.Vector
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewMalformedVector("", err.Error())
		}
		for _, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			x, err := parseComponent(field)
			if err != nil {
				return nil, err
			}
			v = append(v, x)
		}
	}
	return v, nil
}
