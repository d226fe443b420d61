package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/notes"
)

// NoteHandler serves per-card note reads and writes.
type NoteHandler struct {
	notes *notes.Service
}

func NewNoteHandler(noteSvc *notes.Service) *NoteHandler {
	return &NoteHandler{notes: noteSvc}
}

// NoteRequest represents the note save payload.
type NoteRequest struct {
	Note string `json:"note"`
}

// NoteResponse represents the note payload returned to clients.
type NoteResponse struct {
	Note string `json:"note"`
}

// Get handles GET /api/cards/{card_id}/note. A card without a note returns an empty
// note rather than 404.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	cardID := chi.URLParam(r, "cardID")
	note, err := h.notes.Get(ctx, cardID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get note", "card_id", cardID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get note")
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{Note: note})
}

// Save handles POST /api/cards/{card_id}/note. Saving a blank note deletes it.
func (h *NoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	cardID := chi.URLParam(r, "cardID")

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.notes.Save(ctx, cardID, req.Note); err != nil {
		logger.ErrorContext(ctx, "failed to save note", "card_id", cardID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save note")
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{Note: req.Note})
}
