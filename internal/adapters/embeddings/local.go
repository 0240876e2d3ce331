package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalProvider produces deterministic embeddings without any network
// dependency. Token hashes are accumulated into a fixed-size vector and
// L2-normalized, so similar texts land near each other while the whole
// memory path stays runnable in mock mode and in tests.
type LocalProvider struct {
	dimensions int
}

// NewLocalProvider creates a local hashing embedder.
func NewLocalProvider(dimensions int) *LocalProvider {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &LocalProvider{dimensions: dimensions}
}

// GenerateEmbedding hashes tokens into a normalized vector.
func (p *LocalProvider) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dimensions)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum32()

		idx := int(sum) % p.dimensions
		if idx < 0 {
			idx += p.dimensions
		}
		// Sign from a high bit keeps the distribution roughly centered.
		if sum&0x80000000 != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// Dimensions returns the vector size.
func (p *LocalProvider) Dimensions() int {
	return p.dimensions
}

// Name identifies the embedder.
func (p *LocalProvider) Name() string {
	return "local-fnv"
}
