package handlers

import (
	"net/http"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/rag"
)

// suggestLimit caps autocomplete candidates per request.
const suggestLimit = 10

// SuggestHandler serves search-bar autocompletion.
type SuggestHandler struct {
	engine *rag.Engine
}

func NewSuggestHandler(engine *rag.Engine) *SuggestHandler {
	return &SuggestHandler{engine: engine}
}

// ServeHTTP handles GET /api/suggest. Prefixes shorter than two characters return an
// empty list without searching.
func (h *SuggestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	query := r.URL.Query().Get("query")
	if len(query) < 2 {
		writeJSON(w, http.StatusOK, []string{})
		return
	}

	suggestions, err := h.engine.Suggest(ctx, query, suggestLimit)
	if err != nil {
		logger.ErrorContext(ctx, "autocomplete failed", "error", err)
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}
