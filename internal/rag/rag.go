// Package rag assembles retrieval-grounded prompts and produces
// answers. The retrieval path never hard-fails on missing context: an
// ungrounded answer beats a hard error in a chat assistant.
package rag

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"kbchat/internal/config"
	"kbchat/internal/embedding"
	"kbchat/internal/llmservice"
	"kbchat/internal/models"
)

// ErrGenerationFailed wraps failures of the generative model call.
var ErrGenerationFailed = errors.New("failed to generate answer")

// SearchStore is the slice of the store contract retrieval needs.
type SearchStore interface {
	Query(ctx context.Context, queryEmbedding []float32, k int) ([]models.SearchResult, error)
}

var thinkRe = regexp.MustCompile(models.ThinkTag)

// RAG embeds a query, retrieves nearest chunks and drives generation.
// The query is truncated with the same policy as ingested chunks so
// both sides live in the same embedding space.
type RAG struct {
	store           SearchStore
	embed           embedding.EmbedFunc
	generate        llmservice.GenerateFunc
	topK            int
	maxEmbedChars   int
	maxContextChars int
}

func NewRAG(store SearchStore, embed embedding.EmbedFunc, generate llmservice.GenerateFunc, cfg *config.RAGConfig) *RAG {
	return &RAG{
		store:           store,
		embed:           embed,
		generate:        generate,
		topK:            cfg.TopK,
		maxEmbedChars:   cfg.MaxEmbedChars,
		maxContextChars: cfg.MaxContextChars,
	}
}

// Query answers one user question. Retrieval failures degrade to an
// ungrounded direct prompt; only generation failures surface as errors.
func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	results := r.retrieve(ctx, query)
	prompt, sources := r.Assemble(query, results)

	answer, err := r.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	answer = strings.TrimSpace(thinkRe.ReplaceAllString(answer, ""))

	return &models.PromptResponse{
		Query:       query,
		Content:     answer,
		Sources:     sources,
		UsedContext: len(results) > 0,
	}, nil
}

// Assemble builds the generation prompt from retrieved chunks. With no
// results it falls back to the direct prompt. Each chunk's text is
// capped to bound total prompt size; the distinct source filenames are
// returned for citation display.
func (r *RAG) Assemble(query string, results []models.SearchResult) (string, []string) {
	if len(results) == 0 {
		return fmt.Sprintf(models.DirectPromptTemplate, query), nil
	}

	parts := make([]string, len(results))
	var sources []string
	seen := map[string]bool{}
	for i, res := range results {
		parts[i] = embedding.Truncate(res.Content, r.maxContextChars)
		if name := res.Metadata.Filename; name != "" && !seen[name] {
			seen[name] = true
			sources = append(sources, name)
		}
	}
	context := strings.Join(parts, models.ContextSeparator)
	return fmt.Sprintf(models.RAGPromptTemplate, context, query), sources
}

func (r *RAG) retrieve(ctx context.Context, query string) []models.SearchResult {
	queryEmbedding, err := r.embed(ctx, embedding.Truncate(query, r.maxEmbedChars))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to embed query, answering without context")
		return nil
	}
	results, err := r.store.Query(ctx, queryEmbedding, r.topK)
	if err != nil {
		log.Warn().Err(err).Msg("Vector store query failed, answering without context")
		return nil
	}
	return results
}
