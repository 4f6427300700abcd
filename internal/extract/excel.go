package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/latsearch/internal/models"
)

// extractExcel reads the non-empty cells of the first sheet, row by row.
func extractExcel(content []byte) (models.Vector, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewMalformedVector("", fmt.Sprintf("open Excel: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.NewMalformedVector("", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, models.NewMalformedVector("", fmt.Sprintf("get rows for sheet %q: %v", sheets[0], err))
	}

	var v models.Vector
	for _, row := range rows {
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			x, err := parseComponent(cell)
			if err != nil {
				return nil, err
			}
			v = append(v, x)
		}
	}
	return v, nil
}
