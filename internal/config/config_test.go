package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "embed_llm:\n  provider: ollama\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("Addr = %q, want :8000", cfg.Server.Addr)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 50 {
		t.Errorf("chunking defaults = %d/%d, want 500/50", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.BatchSize != 2 || cfg.RAG.MaxChunksPerDocument != 20 {
		t.Errorf("batch defaults = %d/%d, want 2/20", cfg.RAG.BatchSize, cfg.RAG.MaxChunksPerDocument)
	}
	if cfg.VectorDB.Collection != "document_chunks" {
		t.Errorf("Collection = %q, want document_chunks", cfg.VectorDB.Collection)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
}

func TestLoadConfigExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9001"
rag:
  chunk_size: 100
  chunk_overlap: 10
  top_k: 5
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != ":9001" {
		t.Errorf("Addr = %q, want :9001", cfg.Server.Addr)
	}
	if cfg.RAG.ChunkSize != 100 || cfg.RAG.ChunkOverlap != 10 || cfg.RAG.TopK != 5 {
		t.Errorf("rag = %+v, want 100/10/5", cfg.RAG)
	}
}

func TestLoadConfigKeyFromEnv(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "secret-token")
	path := writeConfig(t, `
answer_llm:
  provider: openai
  key_env: TEST_LLM_KEY
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AnswerLLM.Key != "secret-token" {
		t.Errorf("Key = %q, want secret-token", cfg.AnswerLLM.Key)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
