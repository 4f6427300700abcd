// Package models defines core data structures for vectors, reference entries, queries, and search results.
package models

// Vector is an ordered, fixed-length sequence of reals. Its dimension is its length.
type Vector []float64

// Dim returns the number of components.
func (v Vector) Dim() int {
	return len(v)
}

// IsBinary reports whether every component is exactly 0 or 1.
func (v Vector) IsBinary() bool {
	for _, x := range v {
		if x != 0 && x != 1 {
			return false
		}
	}
	return true
}

// Clone returns a copy of v that shares no memory with it.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// ReferenceEntry is one labelled vector of the reference corpus.
// Label is the source filename with its extension stripped.
type ReferenceEntry struct {
	Label  string `json:"label"`
	Vector Vector `json:"vector"`
}

// Query is the input of a single search: the vector to classify and the label used in reports
// (the query file path as given by the user, or a caller-chosen name).
type Query struct {
	Label  string `json:"label"`
	Vector Vector `json:"vector"`
}
