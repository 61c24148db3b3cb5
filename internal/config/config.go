package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OllamaConfig holds connection details for a local Ollama instance.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIConfig holds connection details for the OpenAI API. The key is read
// from the named environment variable, never stored in the file.
type OpenAIConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// HashConfig configures the local feature-hashing embedder.
type HashConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type   string        `yaml:"type"`
	Ollama *OllamaConfig `yaml:"ollama,omitempty"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
	Hash   *HashConfig   `yaml:"hash,omitempty"`
}

// ChatConfig selects and configures the generation backend.
type ChatConfig struct {
	Type          string        `yaml:"type"`
	Model         string        `yaml:"model"`
	FallbackModel string        `yaml:"fallback_model"`
	SystemPrompt  string        `yaml:"system_prompt,omitempty"`
	Temperature   float64       `yaml:"temperature"`
	Ollama        *OllamaConfig `yaml:"ollama,omitempty"`
	OpenAI        *OpenAIConfig `yaml:"openai,omitempty"`
}

// RetrievalConfig configures chunking and search.
type RetrievalConfig struct {
	TopK         int `yaml:"top_k"`
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SummaryConfig configures the ingest digest.
type SummaryConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chat        ChatConfig        `yaml:"chat"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Summary     SummaryConfig     `yaml:"summary"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragchat/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server:      ServerConfig{Addr: ":8080"},
		Embedder:    EmbedderConfig{Type: "ollama"},
		Chat:        ChatConfig{Type: "ollama"},
		VectorStore: VectorStoreConfig{Type: "memory"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 6
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 800
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 120
	}
	if cfg.Summary.MaxSentences == 0 {
		cfg.Summary.MaxSentences = 3
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}

	// The original deployment configured Ollama via environment variables;
	// keep honoring them when the file leaves fields empty.
	ollamaHost := os.Getenv("OLLAMA_HOST")

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = ollamaHost
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = os.Getenv("OLLAMA_EMBED_MODEL")
		}
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
	}

	if cfg.Chat.Type == "" {
		cfg.Chat.Type = "ollama"
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.2
	}
	switch cfg.Chat.Type {
	case "ollama":
		if cfg.Chat.Ollama == nil {
			cfg.Chat.Ollama = &OllamaConfig{}
		}
		if cfg.Chat.Ollama.BaseURL == "" {
			cfg.Chat.Ollama.BaseURL = ollamaHost
		}
		if cfg.Chat.Model == "" {
			cfg.Chat.Model = "llama3.2"
		}
	case "openai":
		if cfg.Chat.OpenAI == nil {
			cfg.Chat.OpenAI = &OpenAIConfig{}
		}
		if cfg.Chat.OpenAI.APIKeyEnv == "" {
			cfg.Chat.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Chat.Model == "" {
			cfg.Chat.Model = "gpt-4o-mini"
		}
	}
	if cfg.Chat.FallbackModel == "" {
		cfg.Chat.FallbackModel = cfg.Chat.Model
	}
}
