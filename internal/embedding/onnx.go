//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/latsearch/internal/models"
)

// ONNXEncoder uses ONNX Runtime to encode sequences. It requires CGO and the onnxruntime shared library.
// The model takes token ids shaped [1, MaxLength] and yields a pooled latent shaped [1, Dimensions].
type ONNXEncoder struct {
	session    *ort.AdvancedSession
	dimensions int
	maxLength  int
	cache      *Cache
	tokenizer  Tokenizer
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputTensor  *ort.Tensor[int64]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewONNXEncoder creates an ONNX encoder. InitializeEnvironment is called if not already done.
func NewONNXEncoder(cfg ONNXConfig) (*ONNXEncoder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("%w: no model path configured", models.ErrSequenceUnsupported)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("sequence encoder dimensions must be positive, got %d", cfg.Dimensions)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	tokenizer := &AminoTokenizer{}
	inputIDs, _ := tokenizer.Tokenize("", cfg.MaxLength)
	maxLength := len(inputIDs)

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxLength)), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tensor: %w", cfg.InputName, err)
	}
	outputData := make([]float32, cfg.Dimensions)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(cfg.Dimensions)), outputData)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXEncoder{
		session:      session,
		dimensions:   cfg.Dimensions,
		maxLength:    maxLength,
		cache:        NewCache(cfg.CacheSize),
		tokenizer:    tokenizer,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Encode returns the latent vector for sequence, using cache when available.
func (e *ONNXEncoder) Encode(ctx context.Context, sequence string) (models.Vector, error) {
	if cached, ok := e.cache.Get(sequence); ok {
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inputIDs, _ := e.tokenizer.Tokenize(sequence, e.maxLength)
	copy(e.inputTensor.GetData(), inputIDs)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := e.outputTensor.GetData()
	v := make(models.Vector, e.dimensions)
	for i := range v {
		v[i] = float64(out[i])
	}
	e.cache.Set(sequence, v)
	return v, nil
}

// Dimensions returns the latent dimension.
func (e *ONNXEncoder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors.
func (e *ONNXEncoder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.inputTensor != nil {
		_ = e.inputTensor.Destroy()
		e.inputTensor = nil
	}
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return err
}
