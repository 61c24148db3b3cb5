package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func chunk(ns, content string, vec ...float64) domain.Chunk {
	return domain.Chunk{Content: content, Embedding: vec, Namespace: ns}
}

func TestUpsertAssignsMonotonicIDs(t *testing.T) {
	s := NewStore()

	added, err := s.Upsert([]domain.Chunk{
		chunk("default", "a", 1, 0),
		chunk("default", "b", 0, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, s.Len())

	results, err := s.Search([]float64{1, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Less(t, results[1].Chunk.ID, uint64(3))
	assert.NotZero(t, results[0].Chunk.ID)
}

func TestUpsertRejectsMixedDimensions(t *testing.T) {
	s := NewStore()

	_, err := s.Upsert([]domain.Chunk{chunk("default", "a", 1, 0)})
	require.NoError(t, err)

	_, err = s.Upsert([]domain.Chunk{chunk("default", "b", 1, 0, 0)})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, s.Len())
}

func TestUpsertRejectsEmptyEmbedding(t *testing.T) {
	s := NewStore()

	_, err := s.Upsert([]domain.Chunk{{Content: "a"}})
	require.ErrorIs(t, err, domain.ErrProviderError)
}

func TestSearchReturnsMinKN(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		_, err := s.Upsert([]domain.Chunk{chunk("default", fmt.Sprintf("c%d", i), float64(i+1), 1)})
		require.NoError(t, err)
	}

	results, err := s.Search([]float64{1, 0}, 3, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = s.Search([]float64{1, 0}, 50, "")
	require.NoError(t, err)
	assert.Len(t, results, 5)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchExactMatchScoresOne(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert([]domain.Chunk{
		chunk("default", "target", 0.3, 0.4, 0.5),
		chunk("default", "other", -1, 0, 0),
	})
	require.NoError(t, err)

	results, err := s.Search([]float64{0.3, 0.4, 0.5}, 1, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "target", results[0].Chunk.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearchTieBreakByInsertionOrder(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert([]domain.Chunk{
		chunk("default", "first", 1, 0),
		chunk("default", "second", 2, 0), // same direction, same cosine
	})
	require.NoError(t, err)

	results, err := s.Search([]float64{1, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Chunk.Content)
	assert.Equal(t, "second", results[1].Chunk.Content)
}

func TestSearchZeroVectorScoresZero(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert([]domain.Chunk{chunk("default", "zero", 0, 0)})
	require.NoError(t, err)

	results, err := s.Search([]float64{1, 1}, 1, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].Score)
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert([]domain.Chunk{chunk("default", "a", 1, 0)})
	require.NoError(t, err)

	_, err = s.Search([]float64{1, 0, 0}, 1, "")
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearchNamespaceFilter(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert([]domain.Chunk{
		chunk("laws", "law text", 1, 0),
		chunk("faqs", "faq text", 1, 0),
	})
	require.NoError(t, err)

	results, err := s.Search([]float64{1, 0}, 10, "laws")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "law text", results[0].Chunk.Content)

	results, err = s.Search([]float64{1, 0}, 10, "")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchRejectsInvalidK(t *testing.T) {
	s := NewStore()
	_, err := s.Search([]float64{1}, 0, "")
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestDuplicateIngestProducesIndependentChunks(t *testing.T) {
	s := NewStore()
	for i := 0; i < 2; i++ {
		_, err := s.Upsert([]domain.Chunk{chunk("default", "same text", 1, 1)})
		require.NoError(t, err)
	}

	results, err := s.Search([]float64{1, 1}, 10, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].Chunk.ID, results[1].Chunk.ID)
}

func TestResultsAreCopies(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert([]domain.Chunk{chunk("default", "a", 1, 0)})
	require.NoError(t, err)

	results, err := s.Search([]float64{1, 0}, 1, "")
	require.NoError(t, err)
	results[0].Chunk.Embedding[0] = 42

	again, err := s.Search([]float64{1, 0}, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0].Chunk.Embedding[0])
}

// Concurrent upserts and searches must never observe a partially applied
// batch or a short vector.
func TestConcurrentUpsertAndSearch(t *testing.T) {
	s := NewStore()
	const writers, batches = 4, 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for b := 0; b < batches; b++ {
				batch := []domain.Chunk{
					chunk("default", fmt.Sprintf("w%d-b%d-0", w, b), 1, 0, 0),
					chunk("default", fmt.Sprintf("w%d-b%d-1", w, b), 0, 1, 0),
				}
				_, err := s.Upsert(batch)
				assert.NoError(t, err)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				results, err := s.Search([]float64{1, 1, 0}, 10, "")
				assert.NoError(t, err)
				for _, res := range results {
					assert.Len(t, res.Chunk.Embedding, 3)
					assert.NotEmpty(t, res.Chunk.Content)
				}
				// Batches are atomic: the corpus size is always even.
				assert.Zero(t, s.Len()%2)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, writers*batches*2, s.Len())
}
