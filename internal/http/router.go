// Package http wires the API surface onto a chi router.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dealflow-ai/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Logger  *slog.Logger
	Cards   *handlers.CardsHandler
	Note    *handlers.NoteHandler
	Upload  *handlers.UploadHandler
	Chat    *handlers.ChatHandler
	Suggest *handlers.SuggestHandler
	Rebuild *handlers.RebuildHandler
	Health  *handlers.HealthHandler
}

// NewRouter creates the HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORS)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", deps.Health)
		r.Method(http.MethodPost, "/chat", deps.Chat)
		r.Method(http.MethodGet, "/suggest", deps.Suggest)

		r.Get("/cards", deps.Cards.List)
		r.Get("/cards/search", deps.Cards.Search)

		r.Route("/cards/{cardID}", func(r chi.Router) {
			r.Get("/note", deps.Note.Get)
			r.Post("/note", deps.Note.Save)
			r.Post("/upload", deps.Upload.Upload)
			r.Get("/files", deps.Upload.Files)
		})

		r.Get("/upload/status/{statusID}", deps.Upload.Status)
		r.Method(http.MethodPost, "/search/index/rebuild", deps.Rebuild)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"Dealflow Knowledge API","version":"1.0.0"}`))
	})

	return r
}
