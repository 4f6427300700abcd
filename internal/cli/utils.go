// Package cli provides result reporting for latsearch.
package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/latsearch/internal/models"
)

// OutputFormat is the format for search result output.
type OutputFormat string

const (
	// OutputText is one human-readable sentence per result (default).
	OutputText OutputFormat = "text"
	// OutputCSV is one "query,metric,closest,distance" record per result.
	OutputCSV OutputFormat = "csv"
	// OutputJSON is one JSON object per line, for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format name. Empty selects OutputText.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCSV, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, csv or json)", s)
	}
}

// WriteMode selects how an output file is opened.
type WriteMode string

const (
	// ModeAppend appends to the file (default).
	ModeAppend WriteMode = "a"
	// ModeOverwrite truncates the file first.
	ModeOverwrite WriteMode = "w"
)

// ParseWriteMode validates a mode name. Empty selects ModeAppend.
func ParseWriteMode(s string) (WriteMode, error) {
	switch m := WriteMode(strings.TrimSpace(s)); m {
	case "":
		return ModeAppend, nil
	case ModeAppend, ModeOverwrite:
		return m, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (want a or w)", s)
	}
}

// FormatDistance renders d the way Python's repr(float) does: the shortest round-trip digits,
// always with a fractional part in positional form, and exponent form outside [1e-4, 1e16).
func FormatDistance(d float64) string {
	switch {
	case math.IsNaN(d):
		return "nan"
	case math.IsInf(d, 1):
		return "inf"
	case math.IsInf(d, -1):
		return "-inf"
	case d == 0:
		if math.Signbit(d) {
			return "-0.0"
		}
		return "0.0"
	}
	if a := math.Abs(d); a < 1e-4 || a >= 1e16 {
		return strconv.FormatFloat(d, 'e', -1, 64)
	}
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// WriteResult writes one search result to w in the given format.
func WriteResult(w io.Writer, res *models.SearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return json.NewEncoder(w).Encode(res)
	case OutputCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{res.QueryLabel, res.Metric, res.ClosestLabel, FormatDistance(res.Distance)}); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	default:
		_, err := fmt.Fprintf(w, "The closest reference to %s is %s with %s distance: %s\n",
			res.QueryLabel, res.ClosestLabel, res.Metric, FormatDistance(res.Distance))
		return err
	}
}

// OpenOutput returns the destination for results: stdout when path is empty, else the file at
// path opened for appending or overwriting. The caller closes it.
func OpenOutput(path string, mode WriteMode) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if mode == ModeOverwrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return f, nil
}

// Report writes res to path (stdout when empty) and closes the destination.
func Report(res *models.SearchResult, path string, format OutputFormat, mode WriteMode) error {
	out, err := OpenOutput(path, mode)
	if err != nil {
		return err
	}
	if err := WriteResult(out, res, format); err != nil {
		_ = out.Close()
		return fmt.Errorf("write result: %w", err)
	}
	return out.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// WriteNames writes corpus labels, one per line, or as a JSON array.
func WriteNames(w io.Writer, labels []string, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(labels)
	}
	for _, l := range labels {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// WriteHistory writes stored results, newest first as given.
func WriteHistory(w io.Writer, records []*models.HistoryRecord, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []*models.HistoryRecord{}
		}
		return enc.Encode(records)
	case OutputCSV:
		cw := csv.NewWriter(w)
		for _, r := range records {
			if err := cw.Write([]string{r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.QueryLabel, r.Metric, r.ClosestLabel, FormatDistance(r.Distance)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "No results recorded.")
			return err
		}
		for _, r := range records {
			if _, err := fmt.Fprintf(w, "%s  %s  %s -> %s (%s %s)\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.QueryLabel, r.ClosestLabel, r.Metric, FormatDistance(r.Distance)); err != nil {
				return err
			}
		}
		return nil
	}
}

// FormatBytes renders n bytes with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
