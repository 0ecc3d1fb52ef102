package ingest

import "errors"

// Stage-tagged ingestion failures. Each document fails with exactly one
// of these so callers can tell which stage lost it.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailed  = errors.New("could not extract text from document")
	ErrChunkingFailed    = errors.New("could not chunk document text")
	ErrEmbeddingFailed   = errors.New("could not embed document chunks")
	ErrStoreWrite        = errors.New("could not store document chunks")
)
