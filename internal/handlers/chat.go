package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/llm"
	"dealflow-ai/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message string        `json:"message"`
	History []llm.Message `json:"conversation_history"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Response string `json:"response"`
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.chat.Chat(ctx, req.Message, req.History)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "Message must not be empty")
			return
		}
		logger.ErrorContext(ctx, "chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Chat service error")
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}
