package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewRejectsInvalidOverlap(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 500, 50, false},
		{"zero overlap", 10, 0, false},
		{"overlap equals size", 10, 10, true},
		{"overlap exceeds size", 10, 20, true},
		{"negative overlap", 10, -1, true},
		{"zero size", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%d, %d) error = %v, wantErr %v", tt.size, tt.overlap, err, tt.wantErr)
			}
		})
	}
}

func TestChunkEmptyInput(t *testing.T) {
	c, err := New(500, 50)
	if err != nil {
		t.Fatal(err)
	}
	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if got := c.Chunk(input); len(got) != 0 {
			t.Errorf("Chunk(%q) = %v, want empty", input, got)
		}
	}
}

func TestChunkOverlapWindows(t *testing.T) {
	c, err := New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	got := c.Chunk("a b c d e f")
	want := []string{"a b c d", "c d e f"}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkShortInputSingleChunk(t *testing.T) {
	c, _ := New(100, 10)
	got := c.Chunk("just a few words")
	if len(got) != 1 || got[0] != "just a few words" {
		t.Fatalf("got %v, want single chunk with full text", got)
	}
}

func TestChunkTrailingRemainder(t *testing.T) {
	c, _ := New(4, 2)
	// 7 words: second window carries "c d", fills to "c d e f", then "e f g" trails.
	got := c.Chunk("a b c d e f g")
	want := []string{"a b c d", "c d e f", "e f g"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkSizesAndReconstruction(t *testing.T) {
	const n, size, overlap = 137, 20, 5
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	c, _ := New(size, overlap)
	chunks := c.Chunk(strings.Join(words, " "))

	for i, chunk := range chunks[:len(chunks)-1] {
		if got := len(strings.Fields(chunk)); got != size {
			t.Errorf("chunk %d has %d words, want %d", i, got, size)
		}
	}

	// Dropping each chunk's overlapping prefix reconstructs the input.
	var rebuilt []string
	for i, chunk := range chunks {
		cw := strings.Fields(chunk)
		if i > 0 {
			cw = cw[overlap:]
		}
		rebuilt = append(rebuilt, cw...)
	}
	if len(rebuilt) != n {
		t.Fatalf("rebuilt %d words, want %d", len(rebuilt), n)
	}
	for i := range words {
		if rebuilt[i] != words[i] {
			t.Fatalf("word %d = %q, want %q", i, rebuilt[i], words[i])
		}
	}
}
