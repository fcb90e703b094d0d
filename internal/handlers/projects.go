package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docqa/internal/contextutil"
	"docqa/internal/service"
)

// ProjectHandler handles project management requests.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProjectRequest represents the payload for project creation.
type CreateProjectRequest struct {
	OwnerID      string `json:"owner_id"`
	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ProjectResponse represents a project in HTTP responses.
type ProjectResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Create registers a new project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := h.projects.Create(ctx, req.OwnerID, req.Name, req.SystemPrompt)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create project", "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ProjectResponse{
		ID:           project.ID,
		OwnerID:      project.OwnerID,
		Name:         project.Name,
		SystemPrompt: project.SystemPrompt,
		CreatedAt:    project.CreatedAt,
	})
}

// Get returns a project by ID.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "projectID")

	project, err := h.projects.Get(ctx, projectID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get project", "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProjectResponse{
		ID:           project.ID,
		OwnerID:      project.OwnerID,
		Name:         project.Name,
		SystemPrompt: project.SystemPrompt,
		CreatedAt:    project.CreatedAt,
	})
}
