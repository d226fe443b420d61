package handlers

import (
	"net/http"

	"dealflow-ai/internal/contextutil"
	"dealflow-ai/internal/index"
)

// HealthHandler reports service liveness and search-engine reachability.
type HealthHandler struct {
	gateway index.Gateway
}

func NewHealthHandler(gateway index.Gateway) *HealthHandler {
	return &HealthHandler{gateway: gateway}
}

// HealthResponse represents the health check payload.
type HealthResponse struct {
	Status        string `json:"status"`
	Elasticsearch bool   `json:"elasticsearch"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	resp := HealthResponse{Status: "ok", Elasticsearch: true}
	if err := h.gateway.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "search engine unreachable", "error", err)
		resp.Elasticsearch = false
	}
	writeJSON(w, http.StatusOK, resp)
}
