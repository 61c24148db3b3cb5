// Package retriever turns a query into a context block for prompt
// augmentation: embed the query, search the corpus, format the matches.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"ragchat/internal/domain"
	"ragchat/internal/vectorstore"
)

const DefaultTopK = 6

// Retriever answers similarity queries against the corpus. Failures are
// returned to the caller rather than swallowed here; the service decides
// that provider failures degrade to "no context" while corpus integrity
// errors do not.
type Retriever struct {
	embedder domain.Embedder
	store    vectorstore.Storage
}

func New(embedder domain.Embedder, store vectorstore.Storage) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds the query and returns the content and metadata of the top
// k matches. Scores are an internal ranking signal and are not exposed.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedDoc, error) {
	if k < 1 {
		k = DefaultTopK
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.store.Search(vec, k, "")
	if err != nil {
		return nil, fmt.Errorf("search corpus: %w", err)
	}
	docs := make([]domain.RetrievedDoc, 0, len(results))
	for _, res := range results {
		docs = append(docs, domain.RetrievedDoc{
			Content:  res.Chunk.Content,
			Metadata: res.Chunk.Metadata,
		})
	}
	return docs, nil
}

// BuildContext renders retrieved documents as numbered, delimited blocks
// wrapped in "use if relevant" framing. No documents means no context block
// at all: the empty string must never end up in a prompt.
func BuildContext(docs []domain.RetrievedDoc) string {
	if len(docs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Relevant reference passages are listed below. Use them if they help answer the question; ignore any that do not apply.\n")
	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("\n--- Passage %d ---\n", i+1))
		sb.WriteString(strings.TrimSpace(doc.Content))
		sb.WriteString("\n")
	}
	return sb.String()
}
