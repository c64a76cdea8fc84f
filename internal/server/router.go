package server

import (
	"net/http"

	"github.com/docsmith-ai/docsmith/internal/api"
	"github.com/docsmith-ai/docsmith/internal/api/handlers"
	"github.com/docsmith-ai/docsmith/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	IngestHandler     *handlers.IngestHandler
	AskHandler        *handlers.AskHandler
	CollectionHandler *handlers.CollectionHandler
	EmbeddingHandler  *handlers.EmbeddingHandler
	ChatHandler       http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/ingest", func(r chi.Router) {
		r.Post("/", cfg.IngestHandler.Ingest)
		r.Post("/jobs", cfg.IngestHandler.CreateJob)
		r.Get("/jobs/{id}", cfg.IngestHandler.GetJob)
	})

	r.Post("/ask", cfg.AskHandler.Ask)

	r.Route("/collection", func(r chi.Router) {
		r.Post("/", cfg.CollectionHandler.Ensure)
		r.Get("/exists", cfg.CollectionHandler.Exists)
		r.Get("/count", cfg.CollectionHandler.Count)
		r.Get("/items", cfg.CollectionHandler.ListItems)
		r.Delete("/items/{id}", cfg.CollectionHandler.DeleteItem)
	})

	r.Post("/embeddings", cfg.EmbeddingHandler.Generate)

	if cfg.ChatHandler != nil {
		r.Handle("/ws/chat", cfg.ChatHandler)
	}

	return r
}
