package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/latsearch/internal/models"
)

func benchCorpus(b *testing.B, n, dim int) []models.ReferenceEntry {
	b.Helper()
	entries := make([]models.ReferenceEntry, n)
	for i := range entries {
		v := make(models.Vector, dim)
		v[0] = float64(i) / float64(n)
		v[dim-1] = 1
		entries[i] = models.ReferenceEntry{Label: fmt.Sprintf("ref-%05d", i), Vector: v}
	}
	return entries
}

func BenchmarkSearch(b *testing.B) {
	c := mustCorpus(b, benchCorpus(b, 1000, 384)...)
	query := make(models.Vector, 384)
	query[0] = 1.0
	q := models.Query{Label: "bench", Vector: query}
	for _, name := range []string{"euclidean", "cosine", "cityblock"} {
		spec := mustSpec(b, name, 0)
		for _, workers := range []int{1, 4} {
			s := NewSearcher(WithWorkers(workers))
			b.Run(fmt.Sprintf("%s/workers=%d", name, workers), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					_, _ = s.Search(context.Background(), q, spec, c)
				}
			})
		}
	}
}
