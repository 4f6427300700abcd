package metric

import (
	"math"

	"github.com/hyperjump/latsearch/internal/models"
)

// truthTable counts component pairs of two boolean vectors; a component is true when non-zero.
type truthTable struct {
	tt, tf, ft, ff float64
}

func (t truthTable) n() float64 { return t.tt + t.tf + t.ft + t.ff }

func countTruth(u, v models.Vector) truthTable {
	var t truthTable
	for i := range u {
		a, b := u[i] != 0, v[i] != 0
		switch {
		case a && b:
			t.tt++
		case a:
			t.tf++
		case b:
			t.ft++
		default:
			t.ff++
		}
	}
	return t
}

func yule(u, v models.Vector, _ float64) float64 {
	t := countTruth(u, v)
	halfR := t.tf * t.ft
	if halfR == 0 {
		return 0
	}
	return 2 * halfR / (t.tt*t.ff + halfR)
}

// dice is undefined for two all-false vectors.
func dice(u, v models.Vector, _ float64) float64 {
	t := countTruth(u, v)
	den := 2*t.tt + t.tf + t.ft
	if den == 0 {
		return math.NaN()
	}
	return (t.tf + t.ft) / den
}

func kulsinski(u, v models.Vector, _ float64) float64 {
	t := countTruth(u, v)
	n := t.n()
	return (t.tf + t.ft - t.tt + n) / (t.tf + t.ft + n)
}

func rogerstanimoto(u, v models.Vector, _ float64) float64 {
	t := countTruth(u, v)
	r := 2 * (t.tf + t.ft)
	return r / (t.tt + t.ff + r)
}

func russellrao(u, v models.Vector, _ float64) float64 {
	t := countTruth(u, v)
	n := t.n()
	return (n - t.tt) / n
}

func sokalmichener(u, v models.Vector, _ float64) float64 {
	t := countTruth(u, v)
	r := 2 * (t.tf + t.ft)
	s := t.tt + t.ff
	return r / (s + r)
}

// sokalsneath is undefined for two all-false vectors.
func sokalsneath(u, v models.Vector, _ float64) float64 {
	t := countTruth(u, v)
	r := 2 * (t.tf + t.ft)
	den := t.tt + r
	if den == 0 {
		return math.NaN()
	}
	return r / den
}
