// Package service wires the retrieval subsystem into the two operations the
// outside world sees: ingest documents and answer chat requests with
// retrieval-augmented prompts.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/modelguard"
	"ragchat/internal/retriever"
	"ragchat/internal/summarizer"
	"ragchat/internal/vectorstore"
)

// DefaultSystemPrompt is the assistant persona shipped by default: a legal
// information assistant for Philippine law. Overridable via configuration.
const DefaultSystemPrompt = `You are an AI legal information assistant focused on Philippine law.
Goals:
- Provide accessible explanations of Philippine laws, rights, and procedures using plain language.
- When users have grievances, outline practical options, steps, agencies to contact, and documentation needed.
- Always cite the relevant law or regulation name and, when possible, the section/article.

Critical rules:
- You are NOT a lawyer and do NOT provide legal representation. Include a short disclaimer when a response might be interpreted as legal advice.
- Encourage users to consult a licensed Philippine lawyer for complex or urgent matters.
- If the question is outside Philippine jurisdiction, state the limitation and ask clarifying questions.
- If information may be outdated or varies by LGU/agency, say so and suggest verifying with the appropriate office.

Tone:
- Respectful, concise, and structured with bullet points where helpful.
- Use Filipino/Tagalog terms sparingly for clarity, but default to English unless the user writes in Filipino.`

// Config holds the service's construction-time settings.
type Config struct {
	DefaultModel  string
	FallbackModel string
	SystemPrompt  string
	TopK          int
}

// Service owns an explicitly constructed store and embedder; there are no
// process-wide singletons, so tests and multi-corpus setups can run
// independent instances.
type Service struct {
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     vectorstore.Storage
	chat      domain.ChatClient
	retriever *retriever.Retriever
	digest    *summarizer.FrequencySummarizer
	log       *zap.Logger

	defaultModel  string
	fallbackModel string
	systemPrompt  string
	topK          int
}

func New(chunker domain.Chunker, embedder domain.Embedder, store vectorstore.Storage,
	chat domain.ChatClient, digest *summarizer.FrequencySummarizer, log *zap.Logger, cfg Config) *Service {
	if cfg.TopK < 1 {
		cfg.TopK = retriever.DefaultTopK
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		chunker:       chunker,
		embedder:      embedder,
		store:         store,
		chat:          chat,
		retriever:     retriever.New(embedder, store),
		digest:        digest,
		log:           log,
		defaultModel:  cfg.DefaultModel,
		fallbackModel: cfg.FallbackModel,
		systemPrompt:  cfg.SystemPrompt,
		topK:          cfg.TopK,
	}
}

// IngestResult reports what an ingest call added to the corpus.
type IngestResult struct {
	Added   int    `json:"added"`
	Summary string `json:"summary,omitempty"`
}

// Ingest chunks, embeds and stores the given texts under a namespace.
// Whitespace-only texts are silently dropped; if nothing remains the call
// fails with domain.ErrEmptyInput. Embedding happens before the store is
// touched, so no store lock is held across network calls and the batch
// lands atomically.
func (s *Service) Ingest(ctx context.Context, namespace string, texts []string) (IngestResult, error) {
	kept := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return IngestResult{}, fmt.Errorf("%w: texts must contain at least one non-empty string", domain.ErrEmptyInput)
	}
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}

	// Chunk order follows input order, then intra-text order; search
	// tie-breaking depends on it.
	var contents []string
	for _, t := range kept {
		chunks, err := s.chunker.Split(t)
		if err != nil {
			return IngestResult{}, err
		}
		contents = append(contents, chunks...)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return IngestResult{}, fmt.Errorf("embed chunks: %w", err)
	}

	chunks := make([]domain.Chunk, len(contents))
	for i := range contents {
		chunks[i] = domain.Chunk{
			Content:   contents[i],
			Embedding: vectors[i],
			Namespace: namespace,
			Metadata:  map[string]string{"namespace": namespace},
		}
	}
	added, err := s.store.Upsert(chunks)
	if err != nil {
		return IngestResult{}, err
	}

	result := IngestResult{Added: added}
	if s.digest != nil {
		result.Summary = s.digest.Summarize(kept)
	}
	s.log.Info("ingested documents",
		zap.String("namespace", namespace),
		zap.Int("texts", len(kept)),
		zap.Int("chunks", added))
	return result, nil
}

// Augment returns the context block for a query, or the empty string when
// there is nothing usable. Provider failures degrade to "no context" so the
// system keeps its ability to answer; a dimension mismatch is corpus
// corruption and is returned.
func (s *Service) Augment(ctx context.Context, query string, k int) (string, error) {
	if k < 1 {
		k = s.topK
	}
	docs, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return "", err
		}
		s.log.Warn("retrieval failed, answering without context", zap.Error(err))
		return "", nil
	}
	return retriever.BuildContext(docs), nil
}

// ChatRequest is a validated chat turn: conversation history plus optional
// per-request model and retrieval depth overrides.
type ChatRequest struct {
	Messages []domain.Message
	Model    string
	TopK     int
}

// Chat resolves the generation model, augments the prompt with retrieved
// context for the latest user message, and asks the chat backend for a
// reply. Generation errors are surfaced as-is.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (string, error) {
	requested := strings.TrimSpace(req.Model)
	if requested == "" {
		requested = s.defaultModel
	}
	resolved, err := modelguard.Resolve(ctx, requested, s.fallbackModel, s.chat)
	if err != nil {
		return "", err
	}
	if !resolved.Verified {
		s.log.Warn("could not verify model availability, proceeding",
			zap.String("model", resolved.Name))
	}

	system := s.systemPrompt
	if query := lastUserMessage(req.Messages); query != "" {
		contextBlock, err := s.Augment(ctx, query, req.TopK)
		if err != nil {
			return "", err
		}
		if contextBlock != "" {
			system = system + "\n\n" + contextBlock
		}
	}

	messages := make([]domain.Message, 0, len(req.Messages)+1)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	messages = append(messages, req.Messages...)

	reply, err := s.chat.Chat(ctx, resolved.Name, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	s.log.Debug("chat turn completed",
		zap.String("model", resolved.Name),
		zap.Int("history", len(req.Messages)))
	return reply, nil
}

func lastUserMessage(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
