// Package corpus loads the labelled reference vectors that searches compare against.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/latsearch/internal/extract"
	"github.com/hyperjump/latsearch/internal/models"
)

// Corpus is an immutable, non-empty set of reference entries sorted by label.
type Corpus struct {
	dir     string
	entries []models.ReferenceEntry
}

type loadOptions struct {
	extensions []string
	logger     *zap.Logger
	extractor  *extract.Extractor
}

// Option configures Load.
type Option func(*loadOptions)

// WithExtensions restricts loading to files with one of the given extensions (case-insensitive,
// leading dot optional). Empty means every file.
func WithExtensions(exts []string) Option {
	return func(o *loadOptions) { o.extensions = exts }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *loadOptions) { o.logger = l }
}

// Load reads every regular file directly inside dir as one reference entry. Subdirectories and
// dot-files are skipped. The label of an entry is its filename without the extension.
func Load(ctx context.Context, dir string, opts ...Option) (*Corpus, error) {
	o := &loadOptions{logger: zap.NewNop(), extractor: extract.NewExtractor()}
	for _, opt := range opts {
		opt(o)
	}
	if dir == "" {
		return nil, fmt.Errorf("corpus directory not configured")
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	dirEntries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	entries := make([]models.ReferenceEntry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := d.Name()
		if d.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if len(o.extensions) > 0 && !ExtensionAllowed(filepath.Ext(name), o.extensions) {
			continue
		}
		path := filepath.Join(absDir, name)
		// Follow symlinks; a dangling one is an error, not a silently missing entry.
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		v, err := o.extractor.Extract(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.ReferenceEntry{Label: Label(name), Vector: v})
		o.logger.Debug("corpus entry loaded", zap.String("path", path), zap.Int("dim", len(v)))
	}

	c, err := New(entries)
	if err != nil {
		if errors.Is(err, models.ErrCorpusEmpty) {
			return nil, fmt.Errorf("%w: no reference files in %s", models.ErrCorpusEmpty, absDir)
		}
		return nil, err
	}
	c.dir = absDir
	o.logger.Debug("corpus loaded", zap.String("dir", absDir), zap.Int("entries", c.Len()))
	return c, nil
}

// New builds a corpus from in-memory entries under the same rules as Load: at least one entry,
// unique labels, label order. Vectors are copied.
func New(entries []models.ReferenceEntry) (*Corpus, error) {
	if len(entries) == 0 {
		return nil, models.ErrCorpusEmpty
	}
	sorted := make([]models.ReferenceEntry, len(entries))
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return nil, models.NewMalformedVector(e.Label, "no components")
		}
		sorted[i] = models.ReferenceEntry{Label: e.Label, Vector: e.Vector.Clone()}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Label == sorted[i-1].Label {
			return nil, fmt.Errorf("%w: %q", models.ErrDuplicateLabel, sorted[i].Label)
		}
	}
	return &Corpus{entries: sorted}, nil
}

// Entries returns the entries in label order. The slice must not be modified.
func (c *Corpus) Entries() []models.ReferenceEntry {
	if c == nil {
		return nil
	}
	return c.entries
}

// Len returns the number of entries; 0 for a nil corpus.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Labels returns the entry labels in corpus order.
func (c *Corpus) Labels() []string {
	labels := make([]string, c.Len())
	for i, e := range c.Entries() {
		labels[i] = e.Label
	}
	return labels
}

// Dimensions returns the distinct vector dimensions present, ascending.
func (c *Corpus) Dimensions() []int {
	seen := make(map[int]struct{})
	for _, e := range c.Entries() {
		seen[len(e.Vector)] = struct{}{}
	}
	dims := make([]int, 0, len(seen))
	for d := range seen {
		dims = append(dims, d)
	}
	sort.Ints(dims)
	return dims
}

// Dir returns the absolute directory the corpus was loaded from, or "" for an in-memory corpus.
func (c *Corpus) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Label derives an entry label from a filename by stripping the extension.
func Label(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExtensionAllowed reports whether ext matches one of allowed, ignoring case and the leading dot.
func ExtensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
