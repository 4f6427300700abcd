package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMetric signals a metric name outside the supported set, or a bad metric parameter.
	ErrInvalidMetric = errors.New("invalid metric")
	// ErrCorpusEmpty signals that there are no reference entries to search.
	ErrCorpusEmpty = errors.New("corpus is empty")
	// ErrMalformedVector signals a file or payload that is not a numeric vector.
	ErrMalformedVector = errors.New("malformed vector")
	// ErrDimensionMismatch signals a query and reference vector of different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUndefinedDistance signals a distance that is NaN or infinite for the given pair
	// (e.g. cosine against a zero vector).
	ErrUndefinedDistance = errors.New("distance is undefined")
	// ErrNonBinaryVector signals a component other than 0 or 1 under a boolean metric.
	ErrNonBinaryVector = errors.New("vector is not binary")
	// ErrDuplicateLabel signals two corpus files that map to the same label.
	ErrDuplicateLabel = errors.New("duplicate reference label")
	// ErrSequenceUnsupported signals that sequence search is disabled or unavailable in this build.
	ErrSequenceUnsupported = errors.New("sequence search unsupported")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the offending entry.
type DimensionMismatchError struct {
	Label string
	Query int
	Entry int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: query has %d components, %q has %d", ErrDimensionMismatch.Error(), e.Query, e.Label, e.Entry)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// MalformedVectorError wraps ErrMalformedVector with the source and the reason.
type MalformedVectorError struct {
	Source string
	Reason string
}

func (e *MalformedVectorError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedVector.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformedVector.Error(), e.Source, e.Reason)
}

func (e *MalformedVectorError) Unwrap() error { return ErrMalformedVector }

// NewMalformedVector creates a malformed vector error for source.
func NewMalformedVector(source, reason string) error {
	return &MalformedVectorError{Source: source, Reason: reason}
}
