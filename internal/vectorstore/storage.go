package vectorstore

import "ragchat/internal/domain"

// Storage owns the chunk corpus and answers similarity queries.
//
// Upsert is an atomic batch append: either every chunk in the batch becomes
// visible to Search, or none does. Despite the name there is no identity
// matching yet, so re-ingesting identical text creates duplicate chunks;
// this is a documented limitation, not a defect.
//
// Search returns at most min(k, corpus size) results ordered by descending
// cosine similarity, ties broken by insertion order. An empty namespace
// searches the whole corpus. A query vector whose length disagrees with the
// stored dimension fails with domain.ErrDimensionMismatch.
type Storage interface {
	Upsert(chunks []domain.Chunk) (int, error)
	Search(vector []float64, k int, namespace string) ([]domain.SearchResult, error)
	Len() int
}
