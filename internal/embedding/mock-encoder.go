package embedding

import (
	"context"
	"math"

	"github.com/hyperjump/latsearch/internal/models"
)

// MockEncoder is a deterministic encoder for tests. It returns a fixed-dimension
// vector derived from the sequence hash so that the same sequence always gets the same vector.
type MockEncoder struct {
	dimensions int
}

// NewMockEncoder returns an encoder that produces deterministic vectors of the given dimensions.
func NewMockEncoder(dimensions int) *MockEncoder {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &MockEncoder{dimensions: dimensions}
}

// Encode returns a deterministic vector based on the sequence hash.
func (e *MockEncoder) Encode(ctx context.Context, sequence string) (models.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := HashString(sequence)
	v := make(models.Vector, e.dimensions)
	for i := range v {
		v[i] = math.Sin(float64(h*(i+1)))*0.1 + 0.01
	}
	return v, nil
}

// Dimensions returns the vector dimension.
func (e *MockEncoder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEncoder.
func (e *MockEncoder) Close() error {
	return nil
}
