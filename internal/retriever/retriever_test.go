package retriever

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
	"ragchat/internal/embedding/hash"
	"ragchat/internal/vectorstore/memory"
)

type failingEmbedder struct{}

func (failingEmbedder) Name() string { return "failing" }

func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, fmt.Errorf("%w: boom", domain.ErrProviderUnavailable)
}

func (f failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return nil, fmt.Errorf("%w: boom", domain.ErrProviderUnavailable)
}

func seedStore(t *testing.T, emb domain.Embedder, texts ...string) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for _, text := range texts {
		vec, err := emb.Embed(context.Background(), text)
		require.NoError(t, err)
		_, err = store.Upsert([]domain.Chunk{{
			Content:   text,
			Embedding: vec,
			Namespace: domain.DefaultNamespace,
			Metadata:  map[string]string{"namespace": domain.DefaultNamespace},
		}})
		require.NoError(t, err)
	}
	return store
}

func TestRetrieveReturnsContentAndMetadata(t *testing.T) {
	emb := hash.NewEmbedder(64)
	store := seedStore(t, emb,
		"tenants may not be evicted without a court order",
		"overtime work must be compensated at 125 percent",
	)
	r := New(emb, store)

	docs, err := r.Retrieve(context.Background(), "when can tenants be evicted without a court order", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "tenants may not be evicted without a court order", docs[0].Content)
	assert.Equal(t, domain.DefaultNamespace, docs[0].Metadata["namespace"])
}

func TestRetrieveCapsAtCorpusSize(t *testing.T) {
	emb := hash.NewEmbedder(64)
	store := seedStore(t, emb, "only one passage")
	r := New(emb, store)

	docs, err := r.Retrieve(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestRetrievePropagatesEmbedderFailure(t *testing.T) {
	store := memory.NewStore()
	r := New(failingEmbedder{}, store)

	docs, err := r.Retrieve(context.Background(), "query", 3)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Empty(t, docs)
}

func TestRetrievePropagatesDimensionMismatch(t *testing.T) {
	emb := hash.NewEmbedder(64)
	store := seedStore(t, emb, "passage")
	// Query with a different dimension than the corpus.
	r := New(hash.NewEmbedder(32), store)

	_, err := r.Retrieve(context.Background(), "query", 3)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestBuildContextEmpty(t *testing.T) {
	assert.Empty(t, BuildContext(nil))
	assert.Empty(t, BuildContext([]domain.RetrievedDoc{}))
}

func TestBuildContextNumbersBlocks(t *testing.T) {
	out := BuildContext([]domain.RetrievedDoc{
		{Content: "first passage"},
		{Content: "second passage"},
	})
	assert.Contains(t, out, "--- Passage 1 ---")
	assert.Contains(t, out, "first passage")
	assert.Contains(t, out, "--- Passage 2 ---")
	assert.Contains(t, out, "second passage")
	assert.Contains(t, out, "Use them if they help")
}
