package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures one model endpoint (embedding or generation).
// Provider is either "ollama" or "openai" (any OpenAI-compatible API).
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	KeyEnv   string `yaml:"key_env"`
	Model    string `yaml:"model"`
}

// RAGConfig holds the chunking, batching and retrieval knobs. The
// defaults are sized for a memory-constrained deployment target.
type RAGConfig struct {
	ChunkSize            int `yaml:"chunk_size"`
	ChunkOverlap         int `yaml:"chunk_overlap"`
	BatchSize            int `yaml:"batch_size"`
	MaxChunksPerDocument int `yaml:"max_chunks_per_document"`
	MaxEmbedChars        int `yaml:"max_embed_chars"`
	TopK                 int `yaml:"top_k"`
	MaxContextChars      int `yaml:"max_context_chars"`
}

// DatabaseConfig configures the metadata catalog. Driver is "sqlite"
// or "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

// VectorDBConfig points at the persistent vector collection.
type VectorDBConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	UploadDir string `yaml:"upload_dir"`
}

type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Database  DatabaseConfig `yaml:"database"`
	VectorDB  VectorDBConfig `yaml:"vector_db"`
	RAG       RAGConfig      `yaml:"rag"`
	EmbedLLM  LLMConfig      `yaml:"embed_llm"`
	AnswerLLM LLMConfig      `yaml:"answer_llm"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "./uploaded_docs"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:./chroma_db/catalog.db"
	}
	if cfg.VectorDB.Path == "" {
		cfg.VectorDB.Path = "./chroma_db"
	}
	if cfg.VectorDB.Collection == "" {
		cfg.VectorDB.Collection = "document_chunks"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 500
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 50
	}
	if cfg.RAG.BatchSize == 0 {
		cfg.RAG.BatchSize = 2
	}
	if cfg.RAG.MaxChunksPerDocument == 0 {
		cfg.RAG.MaxChunksPerDocument = 20
	}
	if cfg.RAG.MaxEmbedChars == 0 {
		cfg.RAG.MaxEmbedChars = 512
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 3
	}
	if cfg.RAG.MaxContextChars == 0 {
		cfg.RAG.MaxContextChars = 500
	}
}

// applyEnv pulls API keys from the environment when the config names a
// key_env instead of embedding the secret in the file.
func applyEnv(cfg *Config) {
	for _, llm := range []*LLMConfig{&cfg.EmbedLLM, &cfg.AnswerLLM} {
		if llm.Key == "" && llm.KeyEnv != "" {
			llm.Key = os.Getenv(llm.KeyEnv)
		}
	}
}
