// Package embedding encodes protein sequences into latent vectors via ONNX and caching.
package embedding

import (
	"context"

	"github.com/hyperjump/latsearch/internal/models"
)

// Encoder produces a latent vector for a protein sequence.
type Encoder interface {
	Encode(ctx context.Context, sequence string) (models.Vector, error)
	Dimensions() int
	Close() error
}

// ONNXConfig configures NewONNXEncoder.
type ONNXConfig struct {
	ModelPath  string
	MaxLength  int
	Dimensions int
	InputName  string
	OutputName string
	CacheSize  int
}
