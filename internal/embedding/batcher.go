package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrAllEmbeddingsFailed is returned when every chunk of a document
// failed to embed.
var ErrAllEmbeddingsFailed = errors.New("embedding failed for all chunks")

// ChunkFailure records one chunk dropped during embedding, by its
// pre-drop index.
type ChunkFailure struct {
	Index int
	Err   error
}

// Report is the outcome of embedding one document's chunks. Texts and
// Embeddings stay index-aligned after drops; downstream metadata must
// be built from Texts, never from the original chunk list.
type Report struct {
	Texts      []string
	Embeddings [][]float32
	Truncated  int
	Failures   []ChunkFailure
}

// Batcher embeds chunk texts in small sequential batches to bound peak
// memory on a constrained deployment.
type Batcher struct {
	embed     EmbedFunc
	batchSize int
	maxChunks int
	maxChars  int

	// Reclaim, if set, runs after each batch. It is a resource
	// management hook, not a correctness requirement.
	Reclaim func()
}

func NewBatcher(embed EmbedFunc, batchSize, maxChunks, maxChars int) *Batcher {
	if batchSize <= 0 {
		batchSize = 2
	}
	return &Batcher{
		embed:     embed,
		batchSize: batchSize,
		maxChunks: maxChunks,
		maxChars:  maxChars,
	}
}

// EmbedChunks embeds texts in order. Chunks past the per-document cap
// are discarded up front. A chunk whose embedding call fails is dropped
// and recorded; only when every chunk fails does the whole call fail.
func (b *Batcher) EmbedChunks(ctx context.Context, texts []string) (*Report, error) {
	report := &Report{}
	if len(texts) == 0 {
		return report, nil
	}

	if b.maxChunks > 0 && len(texts) > b.maxChunks {
		report.Truncated = len(texts) - b.maxChunks
		log.Warn().
			Int("chunks", len(texts)).
			Int("max_chunks", b.maxChunks).
			Msg("Document exceeds chunk cap, dropping trailing content")
		texts = texts[:b.maxChunks]
	}

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		for i := start; i < end; i++ {
			text := Truncate(texts[i], b.maxChars)
			vec, err := b.embed(ctx, text)
			if err != nil {
				log.Error().Err(err).Int("chunk", i).Msg("Failed to embed chunk, dropping it")
				report.Failures = append(report.Failures, ChunkFailure{Index: i, Err: err})
				continue
			}
			report.Texts = append(report.Texts, text)
			report.Embeddings = append(report.Embeddings, vec)
		}
		if b.Reclaim != nil {
			b.Reclaim()
		}
	}

	if len(report.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: %d chunks", ErrAllEmbeddingsFailed, len(texts))
	}
	return report, nil
}
