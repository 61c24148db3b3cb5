package domain

import "context"

// DefaultNamespace is applied when an ingest request carries no namespace.
const DefaultNamespace = "default"

// Chunk is an immutable unit of retrievable text held by the vector store.
// The ID is assigned by the store when the chunk is appended and is strictly
// increasing, so it doubles as the insertion-order tie-breaker for search.
type Chunk struct {
	ID        uint64
	Content   string
	Embedding []float64
	Namespace string
	Metadata  map[string]string
}

// Clone returns a deep copy so callers never hold references into the
// store's internal slices.
func (c Chunk) Clone() Chunk {
	out := c
	out.Embedding = append([]float64(nil), c.Embedding...)
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// SearchResult is a matching chunk with its cosine similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// RetrievedDoc is the retriever's public view of a match: content and
// metadata only, scores stay internal to ranking.
type RetrievedDoc struct {
	Content  string
	Metadata map[string]string
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Embedder converts free text into a numeric vector representation.
// The vector dimension is a property of the backing model; callers learn it
// from the first successfully produced vector rather than assuming one.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits raw text into bounded, overlapping segments suitable for
// retrieval indexing.
type Chunker interface {
	Split(text string) ([]string, error)
}

// ChatClient produces a reply for a conversation using a named model and
// reports which models the backend has installed.
type ChatClient interface {
	Chat(ctx context.Context, model string, messages []Message) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}
