package metric

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/latsearch/internal/models"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "dice", 4},
		{"dice", "", 4},
		{"cosine", "cosine", 0},
		{"cosin", "cosine", 1},
		{"eucledian", "euclidean", 2},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"eucledian", "euclidean", true},
		{"Cosin", "cosine", true},
		{"manhatan", "manhattan", true},
		{"jacard", "jaccard", true},
		{"foo", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Suggest(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Suggest(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolve_suggestsClosestName(t *testing.T) {
	_, err := Resolve("eucledian", 0)
	if !errors.Is(err, models.ErrInvalidMetric) {
		t.Fatalf("err = %v, want ErrInvalidMetric", err)
	}
	if !strings.Contains(err.Error(), `did you mean "euclidean"`) {
		t.Errorf("err = %v, want a suggestion", err)
	}
}
