//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/latsearch/internal/models"
)

// ONNXEncoder stub type when built without CGO (see onnx.go for real implementation).
type ONNXEncoder struct{}

// NewONNXEncoder returns an error when built without CGO (ONNX not available).
func NewONNXEncoder(_ ONNXConfig) (*ONNXEncoder, error) {
	return nil, fmt.Errorf("%w: ONNX encoder requires CGO; build with CGO_ENABLED=1 and onnxruntime", models.ErrSequenceUnsupported)
}

// Encode always fails in builds without CGO.
func (e *ONNXEncoder) Encode(_ context.Context, _ string) (models.Vector, error) {
	return nil, models.ErrSequenceUnsupported
}

// Dimensions returns 0.
func (e *ONNXEncoder) Dimensions() int { return 0 }

// Close is a no-op.
func (e *ONNXEncoder) Close() error { return nil }
