// Package vectordb owns the persistent collection of stored chunk
// records: text, embedding and metadata. Vectors live in a chromem-go
// collection on disk; the metadata catalog answers filtered fetches
// the collection itself cannot serve.
package vectordb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"kbchat/internal/catalog"
	"kbchat/internal/helper"
	"kbchat/internal/models"
)

const compress = false

// Store is the vector store adapter.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	catalog    *catalog.Catalog
	name       string
}

// NewStore opens (or creates) the persistent collection at path.
func NewStore(path, collectionName string, cat *catalog.Catalog) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}
	return newStore(db, collectionName, cat)
}

// NewMemoryStore creates a non-persistent store, mainly for tests.
func NewMemoryStore(collectionName string, cat *catalog.Catalog) (*Store, error) {
	return newStore(chromem.NewDB(), collectionName, cat)
}

func newStore(db *chromem.DB, collectionName string, cat *catalog.Catalog) (*Store, error) {
	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return &Store{db: db, collection: c, catalog: cat, name: collectionName}, nil
}

// Add stores one batch of chunks. All three slices must be aligned;
// each record gets a fresh random id. The whole call fails if the
// underlying write fails, with no partial-batch guarantee.
func (s *Store) Add(ctx context.Context, texts []string, embeddings [][]float32, metadatas []models.ChunkMetadata) error {
	if len(texts) != len(embeddings) || len(texts) != len(metadatas) {
		return fmt.Errorf("texts (%d), embeddings (%d) and metadatas (%d) must be the same length",
			len(texts), len(embeddings), len(metadatas))
	}
	if len(texts) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(texts))
	records := make([]catalog.ChunkRecord, len(texts))
	for i := range texts {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   texts[i],
			Metadata:  metadatas[i].ToMap(),
			Embedding: embeddings[i],
		}
		m := metadatas[i]
		records[i] = catalog.ChunkRecord{
			ID:              id,
			Filename:        m.Filename,
			ChunkIndex:      m.ChunkIndex,
			Source:          m.Source,
			StorageLocation: m.StorageLocation,
			BlobName:        m.BlobName,
			BlobURL:         m.BlobURL,
			UploadTimestamp: m.UploadTimestamp,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	if err := s.catalog.Insert(ctx, records); err != nil {
		return fmt.Errorf("failed to catalog documents: %v", err)
	}
	log.Debug().Int("chunks", len(docs)).Msg("Added document chunks to vector database")
	return nil
}

// Query returns the k most similar records by cosine similarity. k is
// clamped to the collection size; an empty collection yields an empty
// result, never an error.
func (s *Store) Query(ctx context.Context, queryEmbedding []float32, k int) ([]models.SearchResult, error) {
	n := s.collection.Count()
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	results, err := s.collection.QueryEmbedding(ctx, queryEmbedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]models.SearchResult, len(results))
	for i, r := range results {
		out[i] = models.SearchResult{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   models.MetadataFromMap(r.Metadata),
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

// GetBySourceFilter returns the metadata of all records whose metadata
// entry key equals value.
func (s *Store) GetBySourceFilter(ctx context.Context, key, value string) ([]models.ChunkMetadata, error) {
	records, err := s.catalog.FindByMeta(ctx, key, value)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChunkMetadata, len(records))
	for i, r := range records {
		out[i] = r.Metadata()
	}
	return out, nil
}

// Count returns the total number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// CountBySource reports stored record counts per provenance tag.
func (s *Store) CountBySource(ctx context.Context) (map[string]int, error) {
	return s.catalog.CountBySource(ctx)
}

// DeleteBySourceFile cascades deletion of every chunk of one document,
// in both the collection and the catalog.
func (s *Store) DeleteBySourceFile(ctx context.Context, filename string) error {
	ids, err := s.catalog.DeleteByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete documents: %v", err)
	}
	return nil
}

// Reset drops the whole collection and its catalog records.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	c, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %v", err)
	}
	s.collection = c
	return s.catalog.Reset(ctx)
}
