package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/chunker"
	"ragchat/internal/domain"
	"ragchat/internal/embedding/hash"
	"ragchat/internal/service"
	"ragchat/internal/summarizer"
	"ragchat/internal/vectorstore/memory"
)

type stubChat struct {
	models  []string
	reply   string
	listErr error
}

func (s *stubChat) Chat(context.Context, string, []domain.Message) (string, error) {
	return s.reply, nil
}

func (s *stubChat) ListModels(context.Context) ([]string, error) {
	return s.models, s.listErr
}

func newTestServer(t *testing.T) (*Server, *stubChat) {
	t.Helper()
	ch, err := chunker.NewCharacterChunker(200, 40)
	require.NoError(t, err)
	chat := &stubChat{models: []string{"llama3.2"}, reply: "hello from the model"}
	svc := service.New(ch, hash.NewEmbedder(64), memory.NewStore(), chat,
		summarizer.NewFrequencySummarizer(2), nil, service.Config{
			DefaultModel:  "llama3.2",
			FallbackModel: "llama3.2",
		})
	return New(svc, chat, nil), chat
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpsertEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/rag/upsert", map[string]any{
		"namespace": "laws",
		"texts":     []string{"the minimum wage is set by regional wage boards"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var out service.IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Added)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestUpsertRejectsEmptyTexts(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/rag/upsert", map[string]any{"texts": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/rag/upsert", map[string]any{"texts": []string{"   "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty input")
}

func TestUpsertRejectsMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/rag/upsert", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/rag/upsert", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "what is the minimum wage"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var out chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "hello from the model", out.Content)
}

func TestChatValidatesPayload(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/chat", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "messages[] required")

	rec = doJSON(t, h, http.MethodPost, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "wizard", "content": "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown role")

	rec = doJSON(t, h, http.MethodPost, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": ""}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUninstalledModelIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/chat", map[string]any{
		"model":    "mistral",
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mistral")
	assert.Contains(t, rec.Body.String(), "llama3.2")
}

func TestModelsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out modelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []string{"llama3.2"}, out.Models)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpsertThenChatUsesContext(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/rag/upsert", map[string]any{
		"texts": []string{"holiday pay is double the daily rate on regular holidays"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "how much is holiday pay"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
}
