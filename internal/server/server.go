// Package server is the HTTP boundary. It validates request payloads into
// typed structs before the core sees them and maps the core's error
// taxonomy onto status codes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/modelguard"
	"ragchat/internal/service"
)

// Server serves the ingest and chat endpoints.
type Server struct {
	svc  *service.Service
	chat domain.ChatClient
	log  *zap.Logger
}

func New(svc *service.Service, chat domain.ChatClient, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, chat: chat, log: log}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rag/upsert", s.withRequestID(s.handleUpsert))
	mux.HandleFunc("/api/chat", s.withRequestID(s.handleChat))
	mux.HandleFunc("/api/models", s.withRequestID(s.handleModels))
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe blocks until the context is cancelled or the listener
// fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("http server listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func (s *Server) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	}
}

func (s *Server) requestLog(r *http.Request) *zap.Logger {
	id, _ := r.Context().Value(requestIDKey).(string)
	return s.log.With(zap.String("request_id", id), zap.String("path", r.URL.Path))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	var notInstalled *modelguard.ModelNotInstalledError
	switch {
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrInvalidConfiguration),
		errors.As(err, &notInstalled):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
