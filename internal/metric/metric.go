// Package metric provides the closed set of distance metrics and resolves metric names into specs.
package metric

import (
	"fmt"
	"math"
	"strings"

	"github.com/hyperjump/latsearch/internal/models"
)

// DefaultP is the Minkowski order used when none is given.
const DefaultP = 2

// Kind identifies one supported distance metric.
type Kind int

// Supported metric kinds, in the order they are listed to users.
const (
	Euclidean Kind = iota + 1
	Minkowski
	CityBlock
	SqEuclidean
	Cosine
	Correlation
	Hamming
	Jaccard
	Chebyshev
	Canberra
	BrayCurtis
	Yule
	Dice
	Kulsinski
	RogersTanimoto
	RussellRao
	SokalMichener
	SokalSneath
)

type distanceFunc func(u, v models.Vector, p float64) float64

// definition pairs a kind with its canonical name and computation.
type definition struct {
	name   string
	binary bool
	fn     distanceFunc
}

var definitions = map[Kind]definition{
	Euclidean:      {name: "euclidean", fn: euclidean},
	Minkowski:      {name: "minkowski", fn: minkowski},
	CityBlock:      {name: "cityblock", fn: cityblock},
	SqEuclidean:    {name: "sqeuclidean", fn: sqeuclidean},
	Cosine:         {name: "cosine", fn: cosine},
	Correlation:    {name: "correlation", fn: correlation},
	Hamming:        {name: "hamming", fn: hamming},
	Jaccard:        {name: "jaccard", fn: jaccard},
	Chebyshev:      {name: "chebyshev", fn: chebyshev},
	Canberra:       {name: "canberra", fn: canberra},
	BrayCurtis:     {name: "braycurtis", fn: braycurtis},
	Yule:           {name: "yule", binary: true, fn: yule},
	Dice:           {name: "dice", binary: true, fn: dice},
	Kulsinski:      {name: "kulsinski", binary: true, fn: kulsinski},
	RogersTanimoto: {name: "rogerstanimoto", binary: true, fn: rogerstanimoto},
	RussellRao:     {name: "russellrao", binary: true, fn: russellrao},
	SokalMichener:  {name: "sokalmichener", binary: true, fn: sokalmichener},
	SokalSneath:    {name: "sokalsneath", binary: true, fn: sokalsneath},
}

var aliases = map[string]Kind{
	"manhattan": CityBlock,
}

// Kinds returns every supported kind in listing order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(definitions))
	for k := Euclidean; k <= SokalSneath; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Names returns the canonical names of every supported metric in listing order.
func Names() []string {
	kinds := Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

// String returns the canonical metric name, which is also its display name.
func (k Kind) String() string {
	if d, ok := definitions[k]; ok {
		return d.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	_, ok := definitions[k]
	return ok
}

// ParseKind looks up a metric by name. Matching ignores case and surrounding whitespace.
func ParseKind(name string) (Kind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, d := range definitions {
		if d.name == n {
			return k, true
		}
	}
	k, ok := aliases[n]
	return k, ok
}

// Spec is a resolved metric: its kind plus the Minkowski order when the kind uses one.
type Spec struct {
	kind Kind
	p    float64
}

// Resolve returns the spec for name. p is the Minkowski order and must be at least 1; it is
// ignored for every other metric.
func Resolve(name string, p float64) (Spec, error) {
	kind, ok := ParseKind(name)
	if !ok {
		if s, found := Suggest(name); found {
			return Spec{}, fmt.Errorf("%w: %q (did you mean %q?)", models.ErrInvalidMetric, name, s)
		}
		return Spec{}, fmt.Errorf("%w: %q (supported: %s)", models.ErrInvalidMetric, name, strings.Join(Names(), ", "))
	}
	return New(kind, p)
}

// New returns the spec for a known kind. p follows the same rules as in Resolve.
func New(kind Kind, p float64) (Spec, error) {
	if !kind.IsValid() {
		return Spec{}, fmt.Errorf("%w: %s", models.ErrInvalidMetric, kind)
	}
	if kind != Minkowski {
		return Spec{kind: kind}, nil
	}
	if p < 1 || math.IsNaN(p) || math.IsInf(p, 0) {
		return Spec{}, fmt.Errorf("%w: minkowski order must be >= 1, got %v", models.ErrInvalidMetric, p)
	}
	return Spec{kind: kind, p: p}, nil
}

// Kind returns the metric kind.
func (s Spec) Kind() Kind { return s.kind }

// Name returns the display name used in reports.
func (s Spec) Name() string { return s.kind.String() }

// P returns the Minkowski order, or 0 for other metrics.
func (s Spec) P() float64 { return s.p }

// Binary reports whether the metric is defined on 0/1 vectors.
func (s Spec) Binary() bool { return definitions[s.kind].binary }

// Distance computes the distance between u and v. Both must have the same, non-zero length.
// A NaN or infinite result is reported as ErrUndefinedDistance.
func (s Spec) Distance(u, v models.Vector) (float64, error) {
	d, ok := definitions[s.kind]
	if !ok {
		return 0, fmt.Errorf("%w: unresolved spec", models.ErrInvalidMetric)
	}
	if len(u) != len(v) {
		return 0, fmt.Errorf("%w: %d != %d", models.ErrDimensionMismatch, len(u), len(v))
	}
	if len(u) == 0 {
		return 0, models.NewMalformedVector("", "empty vector")
	}
	dist := d.fn(u, v, s.p)
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		return 0, fmt.Errorf("%w: %s", models.ErrUndefinedDistance, d.name)
	}
	return dist, nil
}
