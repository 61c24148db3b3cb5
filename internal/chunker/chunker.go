package chunker

import (
	"fmt"

	"ragchat/internal/domain"
)

// Recommended defaults, tuned so prose boundaries rarely split a relevant
// sentence without repeated context.
const (
	DefaultChunkSize = 800
	DefaultOverlap   = 120
)

// CharacterChunker splits text into fixed-size character windows where
// consecutive windows share exactly `overlap` characters. Characters are
// runes, so multi-byte text never gets cut mid-encoding.
type CharacterChunker struct {
	chunkSize int
	overlap   int
}

// NewCharacterChunker validates the window parameters. chunkSize must be
// positive and overlap must satisfy 0 <= overlap < chunkSize.
func NewCharacterChunker(chunkSize, overlap int) (*CharacterChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfiguration, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidConfiguration, chunkSize, overlap)
	}
	return &CharacterChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split produces consecutive substrings of at most chunkSize characters.
// Removing the first `overlap` characters of every chunk after the first
// reconstructs the input exactly; no text is dropped and no chunk is empty.
// Empty input yields an empty result.
func (c *CharacterChunker) Split(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= c.chunkSize {
		return []string{text}, nil
	}
	step := c.chunkSize - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
