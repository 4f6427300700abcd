package metric

import (
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/latsearch/internal/models"
)

func TestResolve_AllNames(t *testing.T) {
	u := models.Vector{1, 0, 1, 0}
	v := models.Vector{1, 1, 0, 0}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			first, err := Resolve(name, DefaultP)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", name, err)
			}
			second, err := Resolve(name, DefaultP)
			if err != nil {
				t.Fatalf("second Resolve(%q): %v", name, err)
			}
			if first.Name() != name || second.Name() != name {
				t.Errorf("display names = %q, %q; want %q", first.Name(), second.Name(), name)
			}
			d1, err1 := first.Distance(u, v)
			d2, err2 := second.Distance(u, v)
			if err1 != nil || err2 != nil {
				t.Fatalf("Distance errors: %v, %v", err1, err2)
			}
			if d1 != d2 {
				t.Errorf("resolution not idempotent: %v != %v", d1, d2)
			}
			if d1 < 0 {
				t.Errorf("negative distance %v", d1)
			}
		})
	}
}

func TestResolve_Names(t *testing.T) {
	want := []string{
		"euclidean", "minkowski", "cityblock", "sqeuclidean", "cosine", "correlation", "hamming",
		"jaccard", "chebyshev", "canberra", "braycurtis", "yule", "dice", "kulsinski",
		"rogerstanimoto", "russellrao", "sokalmichener", "sokalsneath",
	}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Names() has %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolve_Invalid(t *testing.T) {
	for _, name := range []string{"foo", "", "mahalanobis"} {
		if _, err := Resolve(name, 2); !errors.Is(err, models.ErrInvalidMetric) {
			t.Errorf("Resolve(%q) err = %v, want ErrInvalidMetric", name, err)
		}
	}
}

func TestResolve_CaseAndAlias(t *testing.T) {
	s, err := Resolve("  Cosine ", 0)
	if err != nil || s.Kind() != Cosine {
		t.Errorf("Resolve(Cosine) = %v, %v", s.Kind(), err)
	}
	s, err = Resolve("manhattan", 0)
	if err != nil || s.Name() != "cityblock" {
		t.Errorf("Resolve(manhattan) = %q, %v", s.Name(), err)
	}
}

func TestResolve_MinkowskiParameter(t *testing.T) {
	s, err := Resolve("minkowski", DefaultP)
	if err != nil {
		t.Fatal(err)
	}
	if s.P() != DefaultP {
		t.Errorf("p = %v, want %v", s.P(), DefaultP)
	}
	// Zero is not a default here; callers fill in DefaultP themselves.
	for _, p := range []float64{-1, 0, 0.5, math.NaN(), math.Inf(1)} {
		if _, err := Resolve("minkowski", p); !errors.Is(err, models.ErrInvalidMetric) {
			t.Errorf("Resolve(minkowski, %v) err = %v, want ErrInvalidMetric", p, err)
		}
	}
	// The parameter is ignored, not rejected, for other metrics.
	s, err = Resolve("euclidean", -3)
	if err != nil {
		t.Fatalf("Resolve(euclidean, -3): %v", err)
	}
	if s.P() != 0 {
		t.Errorf("euclidean P() = %v, want 0", s.P())
	}
}

func TestSpec_Binary(t *testing.T) {
	binary := map[string]bool{
		"yule": true, "dice": true, "kulsinski": true, "rogerstanimoto": true,
		"russellrao": true, "sokalmichener": true, "sokalsneath": true,
	}
	for _, name := range Names() {
		s, _ := Resolve(name, DefaultP)
		if s.Binary() != binary[name] {
			t.Errorf("%s Binary() = %v", name, s.Binary())
		}
	}
}

func TestKind_String(t *testing.T) {
	if Euclidean.String() != "euclidean" {
		t.Errorf("Euclidean.String() = %q", Euclidean.String())
	}
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("unknown kind String() = %q", Kind(99).String())
	}
	if Kind(0).IsValid() {
		t.Error("zero kind should be invalid")
	}
	if _, err := New(Kind(0), 0); !errors.Is(err, models.ErrInvalidMetric) {
		t.Errorf("New(0) err = %v", err)
	}
}

func TestSpec_DistanceErrors(t *testing.T) {
	s, _ := Resolve("euclidean", 0)
	if _, err := s.Distance(models.Vector{1, 2}, models.Vector{1}); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("mismatch err = %v", err)
	}
	if _, err := s.Distance(models.Vector{}, models.Vector{}); !errors.Is(err, models.ErrMalformedVector) {
		t.Errorf("empty err = %v", err)
	}
	cos, _ := Resolve("cosine", 0)
	if _, err := cos.Distance(models.Vector{0, 0}, models.Vector{1, 0}); !errors.Is(err, models.ErrUndefinedDistance) {
		t.Errorf("cosine zero vector err = %v", err)
	}
	var zero Spec
	if _, err := zero.Distance(models.Vector{1}, models.Vector{1}); !errors.Is(err, models.ErrInvalidMetric) {
		t.Errorf("zero spec err = %v", err)
	}
}
