package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/latsearch/internal/corpus"
	"github.com/hyperjump/latsearch/internal/embedding"
	"github.com/hyperjump/latsearch/internal/extract"
	"github.com/hyperjump/latsearch/internal/metric"
	"github.com/hyperjump/latsearch/internal/models"
)

// Strategy names.
const (
	VectorStrategyName   = "lat"
	SequenceStrategyName = "seq"
)

// Strategy turns a query file into a query vector.
type Strategy interface {
	Name() string
	Query(ctx context.Context, path string) (models.Query, error)
}

// VectorStrategy reads the query file as a numeric vector.
type VectorStrategy struct {
	extractor *extract.Extractor
}

// NewVectorStrategy returns the strategy for latent-vector query files.
func NewVectorStrategy() *VectorStrategy {
	return &VectorStrategy{extractor: extract.NewExtractor()}
}

// Name returns "lat".
func (v *VectorStrategy) Name() string { return VectorStrategyName }

// Query parses path; the query label is path as given.
func (v *VectorStrategy) Query(ctx context.Context, path string) (models.Query, error) {
	if err := ctx.Err(); err != nil {
		return models.Query{}, err
	}
	vec, err := v.extractor.Extract(path)
	if err != nil {
		return models.Query{}, err
	}
	return models.Query{Label: path, Vector: vec}, nil
}

// SequenceStrategy reads a protein sequence and encodes it into a latent vector.
type SequenceStrategy struct {
	encoder embedding.Encoder
}

// NewSequenceStrategy returns the strategy for protein sequence files.
func NewSequenceStrategy(enc embedding.Encoder) *SequenceStrategy {
	return &SequenceStrategy{encoder: enc}
}

// Name returns "seq".
func (s *SequenceStrategy) Name() string { return SequenceStrategyName }

// Query reads and encodes the sequence at path.
func (s *SequenceStrategy) Query(ctx context.Context, path string) (models.Query, error) {
	if s.encoder == nil {
		return models.Query{}, models.ErrSequenceUnsupported
	}
	seq, err := embedding.ReadSequence(path)
	if err != nil {
		return models.Query{}, err
	}
	vec, err := s.encoder.Encode(ctx, seq)
	if err != nil {
		return models.Query{}, fmt.Errorf("encode sequence: %w", err)
	}
	return models.Query{Label: path, Vector: vec}, nil
}

// Strategies holds the strategies available in this process, keyed by name.
type Strategies map[string]Strategy

// NewStrategies indexes the given strategies by name.
func NewStrategies(strategies ...Strategy) Strategies {
	m := make(Strategies, len(strategies))
	for _, st := range strategies {
		m[st.Name()] = st
	}
	return m
}

// Get returns the strategy registered under name. A missing sequence strategy is
// ErrSequenceUnsupported since it is only registered when enabled.
func (s Strategies) Get(name string) (Strategy, error) {
	if st, ok := s[name]; ok {
		return st, nil
	}
	if name == SequenceStrategyName {
		return nil, fmt.Errorf("%w: enable sequence search in the configuration", models.ErrSequenceUnsupported)
	}
	return nil, fmt.Errorf("unknown search strategy %q", name)
}

// Names returns the registered strategy names, sorted.
func (s Strategies) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SearchFile builds the query for path with st, then searches c.
func (s *Searcher) SearchFile(ctx context.Context, st Strategy, path string, spec metric.Spec, c *corpus.Corpus) (*models.SearchResult, error) {
	q, err := st.Query(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, q, spec, c)
}
