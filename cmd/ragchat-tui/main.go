package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	embhash "ragchat/internal/embedding/hash"
	embollama "ragchat/internal/embedding/ollama"
	embopenai "ragchat/internal/embedding/openai"
	llmollama "ragchat/internal/llm/ollama"
	llmopenai "ragchat/internal/llm/openai"
	"ragchat/internal/service"
	"ragchat/internal/summarizer"
	"ragchat/internal/tui"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var namespace string
	flag.StringVar(&cfgPath, "config", "", "path to YAML config (default: ./config.yaml, then ~/.config/ragchat/config.yaml)")
	flag.StringVar(&namespace, "namespace", "", "namespace for documents ingested from the command line")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	emb, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	chat, err := buildChatClient(cfg)
	if err != nil {
		log.Fatalf("chat client init failed: %v", err)
	}
	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}
	ch, err := chunker.NewCharacterChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		log.Fatalf("chunker init failed: %v", err)
	}

	// zap would write into the alternate screen, so the TUI runs quiet.
	svc := service.New(ch, emb, store, chat,
		summarizer.NewFrequencySummarizer(cfg.Summary.MaxSentences), zap.NewNop(), service.Config{
			DefaultModel:  cfg.Chat.Model,
			FallbackModel: cfg.Chat.FallbackModel,
			SystemPrompt:  cfg.Chat.SystemPrompt,
			TopK:          cfg.Retrieval.TopK,
		})

	banner, err := ingestFiles(svc, namespace, flag.Args())
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	m := tui.New(svc, banner)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}

// ingestFiles loads any text files named on the command line into the store
// before the chat starts. Returns a status line for the TUI.
func ingestFiles(svc *service.Service, namespace string, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		texts = append(texts, string(data))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	result, err := svc.Ingest(ctx, namespace, texts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Loaded %d chunks from %d files.", result.Added, len(paths)), nil
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "ollama", "":
		c := cfg.Embedder.Ollama
		if c == nil {
			c = &config.OllamaConfig{}
		}
		return embollama.NewClient(embollama.Config{
			BaseURL: c.BaseURL,
			Model:   c.Model,
			Timeout: time.Duration(c.TimeoutSecs) * time.Second,
		}), nil
	case "openai":
		c := cfg.Embedder.OpenAI
		if c == nil {
			c = &config.OpenAIConfig{}
		}
		return embopenai.NewClient(embopenai.Config{
			APIKey:  os.Getenv(c.APIKeyEnv),
			BaseURL: c.BaseURL,
			Model:   c.Model,
		})
	case "hash":
		dim := 0
		if cfg.Embedder.Hash != nil {
			dim = cfg.Embedder.Hash.Dimension
		}
		return embhash.NewEmbedder(dim), nil
	default:
		return nil, fmt.Errorf("unknown embedder type: %s", cfg.Embedder.Type)
	}
}

func buildChatClient(cfg *config.AppConfig) (domain.ChatClient, error) {
	switch cfg.Chat.Type {
	case "ollama", "":
		c := cfg.Chat.Ollama
		if c == nil {
			c = &config.OllamaConfig{}
		}
		return llmollama.NewClient(llmollama.Config{
			BaseURL:     c.BaseURL,
			Timeout:     time.Duration(c.TimeoutSecs) * time.Second,
			Temperature: cfg.Chat.Temperature,
		}), nil
	case "openai":
		c := cfg.Chat.OpenAI
		if c == nil {
			c = &config.OpenAIConfig{}
		}
		return llmopenai.NewClient(llmopenai.Config{
			APIKey:      os.Getenv(c.APIKeyEnv),
			BaseURL:     c.BaseURL,
			Temperature: float32(cfg.Chat.Temperature),
		})
	default:
		return nil, fmt.Errorf("unknown chat type: %s", cfg.Chat.Type)
	}
}

func buildStore(cfg *config.AppConfig) (vectorstore.Storage, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.NewStore(), nil
	case "qdrant":
		c := cfg.VectorStore.Qdrant
		if c == nil {
			return nil, fmt.Errorf("qdrant store selected but not configured")
		}
		return qdrant.NewStore(qdrant.Config{
			URL:        c.URL,
			APIKey:     c.APIKey,
			Collection: c.Collection,
			Timeout:    time.Duration(c.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store type: %s", cfg.VectorStore.Type)
	}
}
