package handlers

import (
	"net/http"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/index"
	"dealflow-ai/internal/seed"
)

// RebuildHandler triggers a full index rebuild from the seed datasets.
type RebuildHandler struct {
	gateway   index.Gateway
	rebuilder *seed.Rebuilder
}

func NewRebuildHandler(gateway index.Gateway, rebuilder *seed.Rebuilder) *RebuildHandler {
	return &RebuildHandler{gateway: gateway, rebuilder: rebuilder}
}

// RebuildResponse represents the rebuild outcome.
type RebuildResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Stats   seed.Stats `json:"stats"`
}

func (h *RebuildHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := h.gateway.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "search engine unreachable, rebuild refused", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Elasticsearch not available")
		return
	}

	stats, err := h.rebuilder.Rebuild(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "index rebuild failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to rebuild index")
		return
	}
	writeJSON(w, http.StatusOK, RebuildResponse{
		Success: true,
		Message: "Index rebuilt successfully",
		Stats:   stats,
	})
}
