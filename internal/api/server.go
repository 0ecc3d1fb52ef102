// Package api exposes the ingestion and chat pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"kbchat/internal/ingest"
	"kbchat/internal/models"
	"kbchat/internal/parser"
	"kbchat/internal/storage"
	"kbchat/internal/syncer"
)

// Ingestor runs the per-document ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
}

// Chatter answers one user query.
type Chatter interface {
	Query(ctx context.Context, query string) (*models.PromptResponse, error)
}

// Syncer reconciles the vector index with the object store.
type Syncer interface {
	Sync(ctx context.Context) (*syncer.Report, error)
}

// StatusStore reports stored record counts.
type StatusStore interface {
	Count(ctx context.Context) (int, error)
	CountBySource(ctx context.Context) (map[string]int, error)
}

// Server wires the HTTP handlers to the pipeline.
type Server struct {
	ingestor Ingestor
	chatter  Chatter
	syncer   Syncer
	status   StatusStore
	objects  storage.ObjectStore
	location string
	addr     string
}

func NewServer(ingestor Ingestor, chatter Chatter, sync Syncer, status StatusStore, objects storage.ObjectStore, location, addr string) *Server {
	return &Server{
		ingestor: ingestor,
		chatter:  chatter,
		syncer:   sync,
		status:   status,
		objects:  objects,
		location: location,
		addr:     addr,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload_document", s.handleUpload)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/sync", s.handleSync)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	return corsMiddleware(mux)
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.addr).Msg("HTTP server starting")
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	// Reject unsupported extensions before anything touches the object
	// store, so rejected uploads leave no stored object behind for the
	// reconciler to retry forever.
	if !parser.IsSupported(header.Filename) {
		writeError(w, http.StatusBadRequest, ingest.ErrUnsupportedFormat.Error()+": "+header.Filename)
		return
	}

	// The upload is buffered in memory, never written next to the
	// object store: a reconciler pass must not see a half-written
	// spool file as a new object.
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	info, err := s.objects.Store(r.Context(), data, header.Filename)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to store upload")
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), ingest.Request{
		Data:            data,
		Filename:        header.Filename,
		Source:          models.SourceUserUpload,
		StorageLocation: s.location,
		BlobName:        info.Name,
		BlobURL:         info.URL,
	})
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to process document")
		status := http.StatusInternalServerError
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Document '" + header.Filename + "' processed and added to vector DB successfully.",
		"chunks_stored": result.ChunksStored,
		"chunks_failed": result.ChunksFailed,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.FormValue("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query field")
		return
	}

	resp, err := s.chatter.Query(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Msg("Chat query failed")
		writeError(w, http.StatusInternalServerError, "failed to get response")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response":     resp.Content,
		"sources":      resp.Sources,
		"used_context": resp.UsedContext,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	report, err := s.syncer.Sync(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Sync run failed")
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	total, err := s.status.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count records")
		return
	}
	bySource, err := s.status.CountBySource(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count records")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     total,
		"by_source": bySource,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
