package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docqa/internal/handlers"
	"docqa/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QAService       *service.QAService
	ProjectService  *service.ProjectService
	DocumentService *service.DocumentService
	Logger          *slog.Logger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.QAService)
	projectHandler := handlers.NewProjectHandler(deps.ProjectService)
	documentHandler := handlers.NewDocumentHandler(deps.DocumentService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ask", askHandler.Ask)

		r.Post("/projects", projectHandler.Create)
		r.Get("/projects/{projectID}", projectHandler.Get)

		r.Route("/projects/{projectID}/documents", func(r chi.Router) {
			r.Post("/", documentHandler.Upload)
			r.Get("/", documentHandler.List)
			r.Delete("/{documentID}", documentHandler.Delete)
		})
	})

	r.Get("/health", handlers.Health)

	return r
}
