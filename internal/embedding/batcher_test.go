package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEmbedChunksAlignment(t *testing.T) {
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text))}, nil
	}
	b := NewBatcher(embed, 2, 20, 512)

	texts := []string{"one", "two two", "three three three"}
	report, err := b.EmbedChunks(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if len(report.Texts) != 3 || len(report.Embeddings) != 3 {
		t.Fatalf("got %d texts, %d embeddings, want 3 each", len(report.Texts), len(report.Embeddings))
	}
	for i := range report.Texts {
		if report.Embeddings[i][0] != float32(len(report.Texts[i])) {
			t.Errorf("embedding %d does not correspond to its text", i)
		}
	}
}

func TestEmbedChunksDropsFailures(t *testing.T) {
	embed := func(ctx context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, errors.New("model error")
		}
		return []float32{1}, nil
	}
	b := NewBatcher(embed, 2, 20, 512)

	report, err := b.EmbedChunks(context.Background(), []string{"ok1", "bad", "ok2"})
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if len(report.Texts) != 2 {
		t.Fatalf("got %d surviving texts, want 2", len(report.Texts))
	}
	if report.Texts[0] != "ok1" || report.Texts[1] != "ok2" {
		t.Errorf("surviving texts out of order: %v", report.Texts)
	}
	if len(report.Failures) != 1 || report.Failures[0].Index != 1 {
		t.Errorf("unexpected failure report: %+v", report.Failures)
	}
}

func TestEmbedChunksAllFail(t *testing.T) {
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model down")
	}
	b := NewBatcher(embed, 2, 20, 512)

	_, err := b.EmbedChunks(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrAllEmbeddingsFailed) {
		t.Fatalf("got err %v, want ErrAllEmbeddingsFailed", err)
	}
}

func TestEmbedChunksCapsChunkCount(t *testing.T) {
	var calls int
	embed := func(ctx context.Context, text string) ([]float32, error) {
		calls++
		return []float32{1}, nil
	}
	b := NewBatcher(embed, 2, 5, 512)

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}
	report, err := b.EmbedChunks(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if calls != 5 {
		t.Errorf("embed called %d times, want 5", calls)
	}
	if report.Truncated != 7 {
		t.Errorf("Truncated = %d, want 7", report.Truncated)
	}
}

func TestEmbedChunksTruncatesText(t *testing.T) {
	var seen string
	embed := func(ctx context.Context, text string) ([]float32, error) {
		seen = text
		return []float32{1}, nil
	}
	b := NewBatcher(embed, 2, 20, 10)

	long := strings.Repeat("x", 100)
	report, err := b.EmbedChunks(context.Background(), []string{long})
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if len(seen) != 10 {
		t.Errorf("embedded text length %d, want 10", len(seen))
	}
	if report.Texts[0] != seen {
		t.Error("report must carry the truncated text actually embedded")
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	tests := []struct {
		text     string
		maxChars int
		want     string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},       // é is 2 bytes starting at index 1
		{"日本語", 4, "日"},         // each rune is 3 bytes
		{"日本語", 6, "日本"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		got := Truncate(tt.text, tt.maxChars)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.maxChars, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tt.text, tt.maxChars)
		}
	}
}

func TestEmbedChunksReclaimHook(t *testing.T) {
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1}, nil
	}
	b := NewBatcher(embed, 2, 20, 512)
	var reclaims int
	b.Reclaim = func() { reclaims++ }

	if _, err := b.EmbedChunks(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	if reclaims != 2 {
		t.Errorf("reclaim ran %d times, want once per batch (2)", reclaims)
	}
}

func TestEmbedChunksEmptyInput(t *testing.T) {
	b := NewBatcher(func(ctx context.Context, text string) ([]float32, error) {
		t.Fatal("embed must not be called")
		return nil, nil
	}, 2, 20, 512)

	report, err := b.EmbedChunks(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if len(report.Texts) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}
