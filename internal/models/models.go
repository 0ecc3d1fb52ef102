package models

import (
	"strconv"
	"time"
)

// ChunkMetadata is the closed record stamped on every stored chunk.
// BlobName and BlobURL are only set for documents that live in the
// object store.
type ChunkMetadata struct {
	Filename        string
	ChunkIndex      int
	Source          string
	StorageLocation string
	BlobName        string
	BlobURL         string
	UploadTimestamp time.Time
}

// ToMap flattens the metadata for the vector collection, which only
// stores string values. Empty optional fields are omitted.
func (m ChunkMetadata) ToMap() map[string]string {
	out := map[string]string{
		MetaFilename:        m.Filename,
		MetaChunkIndex:      strconv.Itoa(m.ChunkIndex),
		MetaSource:          m.Source,
		MetaStorageLocation: m.StorageLocation,
		MetaUploadTimestamp: m.UploadTimestamp.UTC().Format(time.RFC3339),
	}
	if m.BlobName != "" {
		out[MetaBlobName] = m.BlobName
	}
	if m.BlobURL != "" {
		out[MetaBlobURL] = m.BlobURL
	}
	return out
}

// MetadataFromMap rebuilds a ChunkMetadata from a stored string map.
// Unparseable optional fields are left at their zero value.
func MetadataFromMap(m map[string]string) ChunkMetadata {
	meta := ChunkMetadata{
		Filename:        m[MetaFilename],
		Source:          m[MetaSource],
		StorageLocation: m[MetaStorageLocation],
		BlobName:        m[MetaBlobName],
		BlobURL:         m[MetaBlobURL],
	}
	if v, err := strconv.Atoi(m[MetaChunkIndex]); err == nil {
		meta.ChunkIndex = v
	}
	if t, err := time.Parse(time.RFC3339, m[MetaUploadTimestamp]); err == nil {
		meta.UploadTimestamp = t
	}
	return meta
}

// SearchResult is one similarity hit from the vector collection.
// Similarity is the raw cosine score so callers can apply their own
// relevance threshold.
type SearchResult struct {
	ID         string
	Content    string
	Metadata   ChunkMetadata
	Similarity float32
}

// PromptResponse is the assembled answer for one chat query.
type PromptResponse struct {
	Query       string
	Content     string
	Sources     []string
	UsedContext bool
}
