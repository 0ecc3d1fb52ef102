// Package ingest drives one document through extraction, chunking,
// embedding and storage.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"kbchat/internal/chunker"
	"kbchat/internal/embedding"
	"kbchat/internal/models"
	"kbchat/internal/parser"
)

// TextExtractor extracts plain text from document bytes. An empty
// result means no text could be extracted.
type TextExtractor interface {
	Extract(data []byte, formatHint string) (string, error)
}

// VectorStore is the slice of the store contract ingestion needs.
type VectorStore interface {
	Add(ctx context.Context, texts []string, embeddings [][]float32, metadatas []models.ChunkMetadata) error
}

// Request is one document to ingest. StorageLocation describes where
// the caller put the durable copy; the orchestrator records it as-is.
type Request struct {
	Data            []byte
	Filename        string
	Source          string
	StorageLocation string
	BlobName        string
	BlobURL         string
}

// Result summarizes a successful ingestion.
type Result struct {
	Filename      string
	ChunksStored  int
	ChunksFailed  int
	ChunksDropped int
}

// Orchestrator runs the per-document pipeline. A failure at any stage
// fails that document only, tagged with the stage that lost it.
type Orchestrator struct {
	extractor TextExtractor
	chunker   *chunker.Chunker
	batcher   *embedding.Batcher
	store     VectorStore
	now       func() time.Time
}

func NewOrchestrator(extractor TextExtractor, c *chunker.Chunker, batcher *embedding.Batcher, store VectorStore) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		chunker:   c,
		batcher:   batcher,
		store:     store,
		now:       time.Now,
	}
}

// Ingest processes one document end to end. The whole surviving chunk
// set is written with a single store call, so a document's records
// become visible together.
func (o *Orchestrator) Ingest(ctx context.Context, req Request) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !parser.IsSupported(req.Filename) {
		return nil, fmt.Errorf("%w: %s (only %s)", ErrUnsupportedFormat, ext,
			strings.Join(parser.SupportedExtensions, ", "))
	}

	text, err := o.extractor.Extract(req.Data, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, req.Filename)
	}

	chunks := o.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChunkingFailed, req.Filename)
	}

	report, err := o.batcher.EmbedChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(report.Failures) > 0 {
		log.Warn().
			Str("filename", req.Filename).
			Int("failed", len(report.Failures)).
			Int("survived", len(report.Texts)).
			Msg("Partial embedding, continuing with surviving chunks")
	}

	// Chunk indices are renumbered over the survivors, so stored
	// indices stay contiguous after drops.
	uploadedAt := o.now().UTC()
	metadatas := make([]models.ChunkMetadata, len(report.Texts))
	for i := range report.Texts {
		metadatas[i] = models.ChunkMetadata{
			Filename:        req.Filename,
			ChunkIndex:      i,
			Source:          req.Source,
			StorageLocation: req.StorageLocation,
			BlobName:        req.BlobName,
			BlobURL:         req.BlobURL,
			UploadTimestamp: uploadedAt,
		}
	}

	if err := o.store.Add(ctx, report.Texts, report.Embeddings, metadatas); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	log.Info().
		Str("filename", req.Filename).
		Str("source", req.Source).
		Int("chunks", len(report.Texts)).
		Msg("Document processed and added to vector DB")

	return &Result{
		Filename:      req.Filename,
		ChunksStored:  len(report.Texts),
		ChunksFailed:  len(report.Failures),
		ChunksDropped: report.Truncated,
	}, nil
}
