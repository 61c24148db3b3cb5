package qdrant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ragchat/internal/domain"
)

// Store is a minimal REST client to Qdrant implementing the same contract
// as the in-memory store. It exists to prove the search contract survives a
// backend swap; the in-memory store remains the default.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu        sync.Mutex
	dimension int
	nextID    uint64
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "ragchat"
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Upsert appends the batch to the collection, creating it on first use with
// the dimension of the first vector seen.
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
	if s.dimension == 0 {
		if err := s.ensureCollection(dim); err != nil {
			s.mu.Unlock()
			return 0, err
		}
		s.dimension = dim
	} else if dim != s.dimension {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: collection holds %d-dimensional vectors, got %d",
			domain.ErrDimensionMismatch, s.dimension, dim)
	}
	ids := make([]uint64, len(chunks))
	for i := range chunks {
		s.nextID++
		ids[i] = s.nextID
	}
	s.mu.Unlock()

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		payload := map[string]any{
			"content":   c.Content,
			"namespace": c.Namespace,
		}
		for k, v := range c.Metadata {
			payload["meta_"+k] = v
		}
		points[i] = map[string]any{
			"id":      ids[i],
			"vector":  c.Embedding,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	if err := s.do(http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body, nil); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Search runs a cosine top-k query, optionally filtered by namespace.
func (s *Store) Search(vector []float64, k int, namespace string) ([]domain.SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidConfiguration, k)
	}
	s.mu.Lock()
	dim := s.dimension
	s.mu.Unlock()
	if dim != 0 && len(vector) != dim {
		return nil, fmt.Errorf("%w: query has dimension %d, collection has %d",
			domain.ErrDimensionMismatch, len(vector), dim)
	}
	if dim == 0 {
		return nil, nil
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if namespace != "" {
		body["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "namespace", "match": map[string]any{"value": namespace}},
			},
		}
	}
	var out struct {
		Result []struct {
			ID      uint64         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), body, &out); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(out.Result))
	for _, r := range out.Result {
		c := domain.Chunk{ID: r.ID}
		meta := make(map[string]string)
		for key, val := range r.Payload {
			str, ok := val.(string)
			if !ok {
				continue
			}
			switch {
			case key == "content":
				c.Content = str
			case key == "namespace":
				c.Namespace = str
			case len(key) > 5 && key[:5] == "meta_":
				meta[key[5:]] = str
			}
		}
		if len(meta) > 0 {
			c.Metadata = meta
		}
		results = append(results, domain.SearchResult{Chunk: c, Score: r.Score})
	}
	return results, nil
}

// Len reports the point count of the collection, 0 when unreachable.
func (s *Store) Len() int {
	var out struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(http.MethodPost, fmt.Sprintf("/collections/%s/points/count", s.collection), map[string]any{"exact": true}, &out)
	if err != nil {
		return 0
	}
	return out.Result.Count
}

func (s *Store) ensureCollection(dimension int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 200 when the collection already exists with the same schema.
	return s.do(http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil)
}

func (s *Store) do(method, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, s.url+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: qdrant returned %s", domain.ErrProviderError, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
