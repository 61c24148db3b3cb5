package memory

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"ragchat/internal/domain"
)

// Store is an in-memory vector store using brute-force cosine similarity.
// Exact linear scan is a deliberate choice: it is simple, deterministic and
// fast enough for corpora in the low tens of thousands of chunks. Beyond
// that an ANN index would replace this type behind the same Storage
// interface.
type Store struct {
	mu        sync.RWMutex
	dimension int
	nextID    uint64
	chunks    []domain.Chunk
	norms     []float64
}

func NewStore() *Store { return &Store{} }

// Upsert appends a batch of chunks to the corpus. The whole batch is
// validated before anything is written, so a search running concurrently
// observes either none or all of it. The store's dimension is fixed by the
// first vector ever stored; any later disagreement is corpus corruption.
func (s *Store) Upsert(chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	dim := len(chunks[0].Embedding)
	if dim == 0 {
		return 0, fmt.Errorf("%w: chunk with empty embedding", domain.ErrProviderError)
	}
	for i := range chunks {
		if len(chunks[i].Embedding) != dim {
			return 0, fmt.Errorf("%w: batch mixes dimensions %d and %d",
				domain.ErrDimensionMismatch, dim, len(chunks[i].Embedding))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		s.dimension = dim
	} else if dim != s.dimension {
		return 0, fmt.Errorf("%w: store holds %d-dimensional vectors, got %d",
			domain.ErrDimensionMismatch, s.dimension, dim)
	}
	for _, c := range chunks {
		stored := c.Clone()
		s.nextID++
		stored.ID = s.nextID
		s.chunks = append(s.chunks, stored)
		s.norms = append(s.norms, norm(stored.Embedding))
	}
	return len(chunks), nil
}

// Search scans the corpus and returns the top min(k, n) chunks by cosine
// similarity, optionally restricted to a namespace. Equal scores rank
// earlier-inserted chunks first. Returned chunks are copies.
func (s *Store) Search(vector []float64, k int, namespace string) ([]domain.SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidConfiguration, k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, corpus has %d",
			domain.ErrDimensionMismatch, len(vector), s.dimension)
	}

	qnorm := norm(vector)
	type scored struct {
		idx   int
		score float64
	}
	candidates := make([]scored, 0, len(s.chunks))
	for i := range s.chunks {
		if namespace != "" && s.chunks[i].Namespace != namespace {
			continue
		}
		candidates = append(candidates, scored{i, cosine(vector, s.chunks[i].Embedding, qnorm, s.norms[i])})
	}
	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[c.idx].Clone(), Score: c.score})
	}
	return results, nil
}

// Len reports the number of chunks in the corpus.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot(a, b) / (normA * normB)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
