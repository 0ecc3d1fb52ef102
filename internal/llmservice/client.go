// Package llmservice wraps the generative model behind a plain
// prompt-in, completion-out function.
package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"kbchat/internal/config"
)

// GenerateFunc returns a completion for a prompt.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// NewGenerator builds the configured generation model once and returns
// the call wrapper.
func NewGenerator(cfg *config.LLMConfig) (GenerateFunc, error) {
	var model llms.Model
	var err error
	switch cfg.Provider {
	case "ollama", "":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation model: %w", err)
	}

	return func(ctx context.Context, prompt string) (string, error) {
		log.Debug().Int("prompt_chars", len(prompt)).Msg("Generating content")
		messages := []llms.MessageContent{
			{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
			},
		}
		res, err := model.GenerateContent(ctx, messages)
		if err != nil {
			return "", err
		}
		if len(res.Choices) == 0 {
			return "", fmt.Errorf("model returned no choices")
		}
		return res.Choices[0].Content, nil
	}, nil
}
