// Package search provides the linear-scan nearest-neighbor searcher.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/latsearch/internal/corpus"
	"github.com/hyperjump/latsearch/internal/metric"
	"github.com/hyperjump/latsearch/internal/models"
)

// Recorder receives one observation per finished search.
type Recorder interface {
	ObserveSearch(metric, status string, elapsed time.Duration)
}

// Searcher compares a query against every corpus entry and keeps the closest.
// It holds no per-search state and is safe for concurrent use.
type Searcher struct {
	workers     int
	binaryCheck bool
	logger      *zap.Logger
	recorder    Recorder
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithWorkers computes distances on up to n goroutines. n <= 1 scans sequentially.
func WithWorkers(n int) SearcherOption {
	return func(s *Searcher) { s.workers = n }
}

// WithBinaryCheck toggles the 0/1 check applied under boolean metrics (on by default).
func WithBinaryCheck(enabled bool) SearcherOption {
	return func(s *Searcher) { s.binaryCheck = enabled }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) SearcherOption {
	return func(s *Searcher) { s.logger = l }
}

// WithRecorder sets where search outcomes are reported.
func WithRecorder(r Recorder) SearcherOption {
	return func(s *Searcher) { s.recorder = r }
}

// NewSearcher creates a searcher.
func NewSearcher(opts ...SearcherOption) *Searcher {
	s := &Searcher{workers: 1, binaryCheck: true, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the entry of c closest to query under spec.
// Entries are visited in corpus order and only a strictly smaller distance replaces the
// current best, so on ties the earliest entry wins. Any failing entry aborts the search.
func (s *Searcher) Search(ctx context.Context, query models.Query, spec metric.Spec, c *corpus.Corpus) (*models.SearchResult, error) {
	start := time.Now()
	res, err := s.search(ctx, query, spec, c)
	elapsed := time.Since(start)
	if s.recorder != nil {
		s.recorder.ObserveSearch(spec.Name(), Status(err), elapsed)
	}
	if err != nil {
		s.logger.Debug("search failed", zap.String("query", query.Label), zap.String("metric", spec.Name()), zap.Error(err))
		return nil, err
	}
	s.logger.Debug("search done",
		zap.String("query", res.QueryLabel),
		zap.String("metric", res.Metric),
		zap.String("closest", res.ClosestLabel),
		zap.Float64("distance", res.Distance),
		zap.Int("entries", c.Len()),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (s *Searcher) search(ctx context.Context, query models.Query, spec metric.Spec, c *corpus.Corpus) (*models.SearchResult, error) {
	if !spec.Kind().IsValid() {
		return nil, fmt.Errorf("%w: metric not resolved", models.ErrInvalidMetric)
	}
	if c.Len() == 0 {
		return nil, models.ErrCorpusEmpty
	}
	if len(query.Vector) == 0 {
		return nil, models.NewMalformedVector(query.Label, "query vector has no components")
	}
	if s.checksBinary(spec) && !query.Vector.IsBinary() {
		return nil, fmt.Errorf("%w: query %q under %s", models.ErrNonBinaryVector, query.Label, spec.Name())
	}

	entries := c.Entries()
	var (
		best     = -1
		bestDist float64
	)
	consider := func(i int, d float64) {
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}

	if s.workers <= 1 || len(entries) < 2 {
		for i := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			d, err := s.distance(query.Vector, entries[i], spec)
			if err != nil {
				return nil, err
			}
			consider(i, d)
		}
	} else {
		dists, errs, err := s.parallelDistances(ctx, query.Vector, entries, spec)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			if errs[i] != nil {
				return nil, errs[i]
			}
			consider(i, dists[i])
		}
	}

	return &models.SearchResult{
		QueryLabel:   query.Label,
		Metric:       spec.Name(),
		ClosestLabel: entries[best].Label,
		Distance:     bestDist,
	}, nil
}

// parallelDistances splits entries into contiguous ranges, one per worker. Per-entry errors are
// kept by position so the caller reports the first one in corpus order.
func (s *Searcher) parallelDistances(ctx context.Context, q models.Vector, entries []models.ReferenceEntry, spec metric.Spec) ([]float64, []error, error) {
	n := len(entries)
	workers := s.workers
	if workers > n {
		workers = n
	}
	dists := make([]float64, n)
	errs := make([]error, n)
	size := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += size {
		lo, hi := lo, min(lo+size, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				dists[i], errs[i] = s.distance(q, entries[i], spec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return dists, errs, nil
}

func (s *Searcher) distance(q models.Vector, e models.ReferenceEntry, spec metric.Spec) (float64, error) {
	if len(q) != len(e.Vector) {
		return 0, &models.DimensionMismatchError{Label: e.Label, Query: len(q), Entry: len(e.Vector)}
	}
	if s.checksBinary(spec) && !e.Vector.IsBinary() {
		return 0, fmt.Errorf("%w: reference %q under %s", models.ErrNonBinaryVector, e.Label, spec.Name())
	}
	d, err := spec.Distance(q, e.Vector)
	if err != nil {
		return 0, fmt.Errorf("reference %q: %w", e.Label, err)
	}
	return d, nil
}

func (s *Searcher) checksBinary(spec metric.Spec) bool {
	return s.binaryCheck && spec.Binary()
}

// Status classifies a search error into a short label for metrics and history.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidMetric):
		return "invalid_metric"
	case errors.Is(err, models.ErrCorpusEmpty):
		return "corpus_empty"
	case errors.Is(err, models.ErrMalformedVector):
		return "malformed_vector"
	case errors.Is(err, models.ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, models.ErrNonBinaryVector):
		return "non_binary"
	case errors.Is(err, models.ErrUndefinedDistance):
		return "undefined_distance"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
