package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"ragchat/internal/logger"
	"ragchat/internal/server"
	"ragchat/internal/service"
	"ragchat/internal/summarizer"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to YAML config (default: ./config.yaml, then ~/.config/ragchat/config.yaml)")
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

	zlog, err := logger.New()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	emb, err := buildEmbedder(cfg)
	if err != nil {
		zlog.Fatal("embedder init failed", zap.Error(err))
	}
	chat, err := buildChatClient(cfg)
	if err != nil {
		zlog.Fatal("chat client init failed", zap.Error(err))
	}
	store, err := buildStore(cfg)
	if err != nil {
		zlog.Fatal("vector store init failed", zap.Error(err))
	}

	ch, err := chunker.NewCharacterChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		zlog.Fatal("chunker init failed", zap.Error(err))
	}

	svc := service.New(ch, emb, store, chat,
		summarizer.NewFrequencySummarizer(cfg.Summary.MaxSentences), zlog, service.Config{
			DefaultModel:  cfg.Chat.Model,
			FallbackModel: cfg.Chat.FallbackModel,
			SystemPrompt:  cfg.Chat.SystemPrompt,
			TopK:          cfg.Retrieval.TopK,
		})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info("starting ragchat",
		zap.String("embedder", emb.Name()),
		zap.String("chat_model", cfg.Chat.Model),
		zap.String("vector_store", cfg.VectorStore.Type))

	srv := server.New(svc, chat, zlog)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
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
