package httpserver

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/attachments"
	"taskhub/internal/auth"
	"taskhub/internal/tasks"
)

func NewRouter(
	logger *slog.Logger,
	authSvc *auth.Service,
	validator *auth.TokenValidator,
	taskStore tasks.Store,
	attachmentStore attachments.Store,
	storage *attachments.DiskStorage,
) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	r.Post("/api/v1/auth/register", registerHandler(authSvc, logger))
	r.Post("/api/v1/auth/login", loginHandler(authSvc, logger))

	taskHandler := &tasks.Handler{Store: taskStore, Logger: logger}
	attachmentHandler := &attachments.Handler{
		Store:   attachmentStore,
		Tasks:   taskStore,
		Storage: storage,
		Logger:  logger,
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(validator))

		r.Get("/api/v1/tasks", taskHandler.List)
		r.Post("/api/v1/tasks", taskHandler.Create)
		r.Put("/api/v1/tasks/{id}", taskHandler.Update)
		r.Delete("/api/v1/tasks/{id}", taskHandler.Delete)
		r.Get("/api/v1/stats", taskHandler.Stats)

		r.Post("/api/v1/tasks/{id}/attachments", attachmentHandler.Upload)
		r.Get("/api/v1/tasks/{id}/attachments", attachmentHandler.ListForTask)
		r.Get("/api/v1/attachments/{id}", attachmentHandler.Download)
		r.Delete("/api/v1/attachments/{id}", attachmentHandler.Delete)
	})

	// CORS wrapper (simple, for local UI/tools).
	return withCORS(r)
}
