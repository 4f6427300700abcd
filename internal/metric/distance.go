package metric

import (
	"math"

	"github.com/viterin/vek"

	"github.com/hyperjump/latsearch/internal/models"
)

func euclidean(u, v models.Vector, _ float64) float64 {
	return vek.Distance(u, v)
}

func sqeuclidean(u, v models.Vector, _ float64) float64 {
	diff := vek.Sub(u, v)
	return vek.Dot(diff, diff)
}

func cityblock(u, v models.Vector, _ float64) float64 {
	return vek.ManhattanDistance(u, v)
}

func minkowski(u, v models.Vector, p float64) float64 {
	if p == 1 {
		return cityblock(u, v, p)
	}
	// Scale by the largest difference so large p cannot overflow the sum.
	diff := vek.Abs(vek.Sub(u, v))
	m := vek.Max(diff)
	if m == 0 {
		return 0
	}
	var sum float64
	for _, d := range diff {
		sum += math.Pow(d/m, p)
	}
	return m * math.Pow(sum, 1/p)
}

func chebyshev(u, v models.Vector, _ float64) float64 {
	return vek.Max(vek.Abs(vek.Sub(u, v)))
}

// cosine is clipped to [0, 2] so identical vectors give exactly 0 despite rounding.
func cosine(u, v models.Vector, _ float64) float64 {
	return clip(1 - vek.CosineSimilarity(u, v))
}

func correlation(u, v models.Vector, _ float64) float64 {
	uc := vek.SubNumber(u, vek.Mean(u))
	vc := vek.SubNumber(v, vek.Mean(v))
	return clip(1 - vek.Dot(uc, vc)/(vek.Norm(uc)*vek.Norm(vc)))
}

func clip(d float64) float64 {
	if math.IsNaN(d) {
		return d
	}
	return math.Max(0, math.Min(2, d))
}

// hamming is the fraction of components that differ.
func hamming(u, v models.Vector, _ float64) float64 {
	var diff int
	for i := range u {
		if u[i] != v[i] {
			diff++
		}
	}
	return float64(diff) / float64(len(u))
}

// jaccard is the fraction of differing components among those where either vector is non-zero.
// Two all-zero vectors are at distance 0.
func jaccard(u, v models.Vector, _ float64) float64 {
	var nonzero, unequal int
	for i := range u {
		if u[i] == 0 && v[i] == 0 {
			continue
		}
		nonzero++
		if u[i] != v[i] {
			unequal++
		}
	}
	if nonzero == 0 {
		return 0
	}
	return float64(unequal) / float64(nonzero)
}

// canberra skips 0/0 terms.
func canberra(u, v models.Vector, _ float64) float64 {
	var sum float64
	for i := range u {
		den := math.Abs(u[i]) + math.Abs(v[i])
		if den == 0 {
			continue
		}
		sum += math.Abs(u[i]-v[i]) / den
	}
	return sum
}

func braycurtis(u, v models.Vector, _ float64) float64 {
	var num, den float64
	for i := range u {
		num += math.Abs(u[i] - v[i])
		den += math.Abs(u[i] + v[i])
	}
	return num / den
}
