// Package extract parses numeric vectors from files in the supported formats.
package extract

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/latsearch/internal/models"
)

// Extractor reads one vector per file.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and parses its vector. The format is chosen by extension.
// Parse failures are *models.MalformedVectorError naming path.
func (e *Extractor) Extract(path string) (models.Vector, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vector file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	v, err := e.ExtractBytes(content, ext)
	if err != nil {
		var mv *models.MalformedVectorError
		if errors.As(err, &mv) && mv.Source == "" {
			return nil, models.NewMalformedVector(path, mv.Reason)
		}
		return nil, err
	}
	return v, nil
}

// ExtractBytes parses a vector from content based on the given extension.
// ext should include the leading dot (e.g. ".csv").
// .txt, .dat, .vec and unknown extensions are whitespace-delimited.
func (e *Extractor) ExtractBytes(content []byte, ext string) (models.Vector, error) {
	var (
		v   models.Vector
		err error
	)
	switch ext {
	case ".csv":
		v, err = extractDelimited(content, ',')
	case ".tsv":
		v, err = extractDelimited(content, '\t')
	case ".xlsx":
		v, err = extractExcel(content)
	default:
		v, err = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, models.NewMalformedVector("", "no components")
	}
	return v, nil
}

// SupportedExtensions lists the extensions with a dedicated parser.
func SupportedExtensions() []string {
	return []string{".txt", ".dat", ".vec", ".csv", ".tsv", ".xlsx"}
}

// parseComponent parses one finite real.
func parseComponent(tok string) (float64, error) {
	x, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, models.NewMalformedVector("", fmt.Sprintf("invalid number %q", tok))
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, models.NewMalformedVector("", fmt.Sprintf("non-finite component %q", tok))
	}
	return x, nil
}
