package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/service"
)

type upsertRequest struct {
	Namespace string   `json:"namespace"`
	Texts     []string `json:"texts"`
}

type chatRequest struct {
	Messages []domain.Message `json:"messages"`
	Model    string           `json:"model,omitempty"`
	K        int              `json:"k,omitempty"`
}

type chatResponse struct {
	Content string `json:"content"`
}

type modelsResponse struct {
	Models []string `json:"models"`
}

// handleUpsert implements POST /api/rag/upsert.
func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "texts must be a non-empty array of strings")
		return
	}

	result, err := s.svc.Ingest(r.Context(), req.Namespace, req.Texts)
	if err != nil {
		log.Warn("ingest failed", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	log.Info("ingest ok", zap.Int("added", result.Added))
	writeJSON(w, http.StatusOK, result)
}

// handleChat implements POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid payload: messages[] required")
		return
	}
	for i, m := range req.Messages {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			writeError(w, http.StatusBadRequest, "invalid payload: unknown role in messages["+strconv.Itoa(i)+"]")
			return
		}
		if m.Content == "" {
			writeError(w, http.StatusBadRequest, "invalid payload: empty content in messages["+strconv.Itoa(i)+"]")
			return
		}
	}

	reply, err := s.svc.Chat(r.Context(), service.ChatRequest{
		Messages: req.Messages,
		Model:    req.Model,
		TopK:     req.K,
	})
	if err != nil {
		log.Error("chat failed", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Content: reply})
}

// handleModels implements GET /api/models.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	models, err := s.chat.ListModels(r.Context())
	if err != nil {
		log.Warn("model listing failed", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: models})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
