package embedding

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"kbchat/internal/config"
)

type queryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Manager owns a lazily-initialized embedder handle. Release drops the
// handle under memory pressure; the next Embed call recreates it.
type Manager struct {
	mu      sync.Mutex
	factory func() (queryEmbedder, error)
	handle  queryEmbedder
}

func NewManager(cfg *config.LLMConfig) *Manager {
	return &Manager{
		factory: func() (queryEmbedder, error) {
			return NewEmbedder(cfg)
		},
	}
}

// Embed acquires the embedder, initializing it on first use, and
// embeds one text. Safe for concurrent callers.
func (m *Manager) Embed(ctx context.Context, text string) ([]float32, error) {
	handle, err := m.acquire()
	if err != nil {
		return nil, err
	}
	return handle.EmbedQuery(ctx, text)
}

// Release drops the cached handle so its memory can be reclaimed. The
// manager stays usable; the handle is rebuilt on the next Embed.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle != nil {
		m.handle = nil
		log.Debug().Msg("Released embedder handle")
	}
}

func (m *Manager) acquire() (queryEmbedder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		handle, err := m.factory()
		if err != nil {
			return nil, err
		}
		m.handle = handle
		log.Debug().Msg("Initialized embedder handle")
	}
	return m.handle, nil
}
