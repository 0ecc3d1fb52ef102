package embedding

import (
	"context"
	"testing"
)

type stubEmbedder struct {
	calls *int
}

func (s stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	*s.calls++
	return []float32{0.5}, nil
}

func TestManagerLazyInit(t *testing.T) {
	var built, calls int
	m := &Manager{factory: func() (queryEmbedder, error) {
		built++
		return stubEmbedder{calls: &calls}, nil
	}}

	if built != 0 {
		t.Fatal("handle built before first use")
	}
	if _, err := m.Embed(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Embed(context.Background(), "again"); err != nil {
		t.Fatal(err)
	}
	if built != 1 {
		t.Errorf("handle built %d times, want 1", built)
	}
	if calls != 2 {
		t.Errorf("embed called %d times, want 2", calls)
	}
}

func TestManagerReleaseRebuilds(t *testing.T) {
	var built, calls int
	m := &Manager{factory: func() (queryEmbedder, error) {
		built++
		return stubEmbedder{calls: &calls}, nil
	}}

	if _, err := m.Embed(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	m.Release()
	if _, err := m.Embed(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	if built != 2 {
		t.Errorf("handle built %d times after release, want 2", built)
	}
}
