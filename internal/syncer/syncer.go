// Package syncer reconciles the vector index with an external object
// store: an idempotent catch-up job, not a stream processor.
package syncer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"

	"kbchat/internal/ingest"
	"kbchat/internal/models"
	"kbchat/internal/parser"
	"kbchat/internal/storage"
)

// DuplicateChecker is the slice of the store contract the reconciler
// needs to detect already-synced objects.
type DuplicateChecker interface {
	GetBySourceFilter(ctx context.Context, key, value string) ([]models.ChunkMetadata, error)
}

// Ingestor runs the per-document ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
}

// Report aggregates one reconciliation run.
type Report struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Reconciler ingests every object in the store that no stored record
// references yet. Identity is name-based: a re-uploaded object with a
// new stored name is treated as new content.
type Reconciler struct {
	objects  storage.ObjectStore
	ingestor Ingestor
	store    DuplicateChecker
	source   string
	location string
}

func NewReconciler(objects storage.ObjectStore, ingestor Ingestor, store DuplicateChecker, source, location string) *Reconciler {
	return &Reconciler{
		objects:  objects,
		ingestor: ingestor,
		store:    store,
		source:   source,
		location: location,
	}
}

// timestampPrefix matches the synthetic name prefix the storage layer
// adds to stored objects.
var timestampPrefix = regexp.MustCompile(`^\d{8}_\d{6}_`)

// OriginalFilename recovers the uploaded filename from a stored object
// name.
func OriginalFilename(objectName string) string {
	return timestampPrefix.ReplaceAllString(objectName, "")
}

// Sync enumerates the object store and ingests the delta. Per-object
// failures are counted and logged, never aborting the remainder;
// re-running after a partial run only processes what is still missing.
func (r *Reconciler) Sync(ctx context.Context) (*Report, error) {
	objects, err := r.objects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate object store: %w", err)
	}

	report := &Report{Total: len(objects)}
	for _, obj := range objects {
		filename := OriginalFilename(obj.Name)
		if !parser.IsSupported(filename) {
			log.Debug().Str("object", obj.Name).Msg("Unsupported object format, skipping")
			report.Skipped++
			continue
		}

		existing, err := r.store.GetBySourceFilter(ctx, models.MetaBlobName, obj.Name)
		if err != nil {
			log.Error().Err(err).Str("object", obj.Name).Msg("Duplicate check failed, skipping object")
			report.Failed++
			continue
		}
		if len(existing) > 0 {
			log.Debug().Str("object", obj.Name).Msg("Object already synced, skipping")
			report.Skipped++
			continue
		}

		data, err := r.objects.Fetch(ctx, obj.Name)
		if err != nil {
			log.Error().Err(err).Str("object", obj.Name).Msg("Failed to fetch object")
			report.Failed++
			continue
		}

		result, err := r.ingestor.Ingest(ctx, ingest.Request{
			Data:            data,
			Filename:        filename,
			Source:          r.source,
			StorageLocation: r.location,
			BlobName:        obj.Name,
			BlobURL:         obj.URL,
		})
		if err != nil {
			log.Error().Err(err).Str("object", obj.Name).Msg("Failed to ingest object")
			report.Failed++
			continue
		}
		log.Info().Str("object", obj.Name).Int("chunks", result.ChunksStored).Msg("Synced object")
		report.Processed++
	}

	log.Info().
		Int("total", report.Total).
		Int("processed", report.Processed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Sync run complete")
	return report, nil
}
