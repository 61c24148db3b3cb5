// Package hash implements a local, dependency-free embedder using feature
// hashing. It exists so the system runs (and tests run) without any external
// embedding service; retrieval quality is lexical rather than semantic.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const DefaultDimension = 256

// Embedder hashes tokens into a fixed number of buckets and L2-normalizes
// the resulting term-frequency vector. The dimension is fixed at
// construction, so vectors compose with incremental ingest.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
}

func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
	}
}

func (e *Embedder) Name() string { return "hash" }

// Embed computes the feature-hashed embedding for the given text.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	tokens := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dimension))
		// Use one hash bit as the sign so collisions cancel rather than
		// pile up.
		sign := 1.0
		if sum&0x80000000 != 0 {
			sign = -1.0
		}
		vec[idx] += sign
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}
