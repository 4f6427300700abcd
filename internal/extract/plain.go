package extract

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/hyperjump/latsearch/internal/models"
)

// extractPlain parses whitespace-delimited reals over any number of lines.
// '#' starts a comment that runs to the end of the line.
func extractPlain(content []byte) (models.Vector, error) {
	var v models.Vector
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, tok := range strings.Fields(line) {
			x, err := parseComponent(tok)
			if err != nil {
				return nil, err
			}
			v = append(v, x)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, models.NewMalformedVector("", err.Error())
	}
	return v, nil
}
