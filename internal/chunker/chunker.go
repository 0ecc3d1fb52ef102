// Package chunker splits extracted document text into overlapping
// word-windows for embedding.
package chunker

import (
	"fmt"
	"strings"
)

// ErrInvalidChunking is returned when overlap >= chunk size. An
// unguarded window of that shape never shrinks, so the configuration
// is rejected up front.
var ErrInvalidChunking = fmt.Errorf("chunk overlap must be smaller than chunk size")

// Chunker produces overlapping word-windows of a fixed size. The
// trailing Overlap words of each emitted window are carried into the
// next one so context spanning a boundary is not lost.
type Chunker struct {
	Size    int
	Overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidChunking, size, overlap)
	}
	return &Chunker{Size: size, Overlap: overlap}, nil
}

// Chunk splits text on whitespace and accumulates words into windows.
// Empty or whitespace-only input yields an empty slice. A final
// partially filled window is emitted unless it holds nothing beyond the
// carried-over overlap, so no trailing words are lost and none are
// stored twice.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var window []string
	for _, word := range words {
		window = append(window, word)
		if len(window) >= c.Size {
			chunks = append(chunks, strings.Join(window, " "))
			// Retain the trailing overlap words for the next window.
			window = append([]string(nil), window[c.Size-c.Overlap:]...)
		}
	}
	// Emit the remainder, unless it is only the carried-over overlap,
	// which is already fully contained in the previous chunk.
	if len(window) > 0 && (len(chunks) == 0 || len(window) > c.Overlap) {
		chunks = append(chunks, strings.Join(window, " "))
	}
	return chunks
}
