package domain

import "errors"

// Error taxonomy shared across the retrieval subsystem. Components wrap
// these sentinels with fmt.Errorf("...: %w", ...) so callers can classify
// failures with errors.Is without depending on message text.
var (
	// ErrInvalidConfiguration marks bad construction parameters, e.g. a
	// chunk overlap not smaller than the chunk size. Fatal, never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptyInput is returned when an ingest request contains no usable
	// text after whitespace-only entries are dropped.
	ErrEmptyInput = errors.New("empty input")

	// ErrProviderUnavailable means the embedding or generation backend
	// could not be reached at all.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderError covers any other non-success provider response,
	// including a nominally successful call that produced an empty vector.
	ErrProviderError = errors.New("provider error")

	// ErrDimensionMismatch signals corpus corruption: a vector whose length
	// disagrees with the store's dimension. Must halt, never degrade.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
