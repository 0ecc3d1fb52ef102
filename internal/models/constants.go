package models

// Metadata keys recognized on stored records.
const (
	MetaFilename        = "filename"
	MetaChunkIndex      = "chunk_index"
	MetaSource          = "source"
	MetaStorageLocation = "storage_location"
	MetaBlobName        = "blob_name"
	MetaBlobURL         = "blob_url"
	MetaUploadTimestamp = "upload_timestamp"
)

// Provenance tags marking how a chunk entered the system.
const (
	SourceUserUpload    = "user_upload"
	SourceBlobSync      = "blob_sync"
	SourceFileShareSync = "file_share_sync"
)

const (
	ContextSeparator = "\n---\n"
	ThinkTag         = `(?s)<think>.*?</think>`

	// ObjectNameTimeFormat is the timestamp prefix the object store puts
	// in front of stored names to avoid collisions.
	ObjectNameTimeFormat = "20060102_150405"
)

var (
	RAGPromptTemplate = `Based on the following context, answer the user's question. If the answer is not in the context, state that you don't have enough information.

Context:
%s

User: %s
AI:`

	DirectPromptTemplate = `User: %s
AI:`
)
