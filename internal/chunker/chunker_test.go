package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func TestNewCharacterChunkerValidation(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		wantErr   bool
	}{
		{"valid defaults", DefaultChunkSize, DefaultOverlap, false},
		{"zero overlap", 100, 0, false},
		{"zero chunk size", 0, 0, true},
		{"negative chunk size", -1, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals chunk size", 100, 100, true},
		{"overlap exceeds chunk size", 100, 150, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCharacterChunker(tt.chunkSize, tt.overlap)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c, err := NewCharacterChunker(10, 2)
	require.NoError(t, err)

	chunks, err := c.Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitShortInputIsSingleChunk(t *testing.T) {
	c, err := NewCharacterChunker(100, 20)
	require.NoError(t, err)

	chunks, err := c.Split("short text")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitOverlapAndBounds(t *testing.T) {
	c, err := NewCharacterChunker(10, 3)
	require.NoError(t, err)

	text := "abcdefghijklmnopqrstuvwxyz"
	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)

	for i, ch := range chunks {
		assert.NotEmpty(t, ch, "chunk %d", i)
		assert.LessOrEqual(t, len([]rune(ch)), 10, "chunk %d", i)
	}
	// Consecutive chunks share exactly 3 trailing/leading characters.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		assert.Equal(t, string(prev[len(prev)-3:]), string(cur[:3]), "boundary %d", i)
	}
}

// Concatenating chunks with the leading overlap removed must reconstruct
// the original text exactly.
func TestSplitReconstruction(t *testing.T) {
	inputs := []string{
		"abcdefghijklmnopqrstuvwxyz",
		strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40),
		"короткий текст с юникодом и ещё немного текста для разбиения на куски",
		strings.Repeat("x", 1000),
	}
	configs := []struct{ size, overlap int }{
		{10, 3}, {10, 0}, {800, 120}, {7, 6},
	}
	for _, cfg := range configs {
		c, err := NewCharacterChunker(cfg.size, cfg.overlap)
		require.NoError(t, err)
		for _, text := range inputs {
			chunks, err := c.Split(text)
			require.NoError(t, err)

			var sb strings.Builder
			for i, ch := range chunks {
				runes := []rune(ch)
				if i == 0 {
					sb.WriteString(ch)
					continue
				}
				require.Greater(t, len(runes), cfg.overlap, "chunk shorter than overlap")
				sb.WriteString(string(runes[cfg.overlap:]))
			}
			assert.Equal(t, text, sb.String(), "size=%d overlap=%d", cfg.size, cfg.overlap)
		}
	}
}
