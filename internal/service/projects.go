package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/storage"
)

// ProjectService manages tenant projects.
type ProjectService struct {
	projects storage.ProjectStore
}

// NewProjectService creates a project service.
func NewProjectService(projects storage.ProjectStore) *ProjectService {
	return &ProjectService{projects: projects}
}

// Create registers a project for an owner.
func (s *ProjectService) Create(ctx context.Context, ownerID, name, systemPrompt string) (*storage.Project, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, &ValidationError{Field: "owner_id", Message: "cannot be empty"}
	}
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Message: "cannot be empty"}
	}

	project := &storage.Project{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Name:         name,
		SystemPrompt: systemPrompt,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, WrapError(err, "failed to create project")
	}
	return project, nil
}

// Get returns a project by ID.
func (s *ProjectService) Get(ctx context.Context, id string) (*storage.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, WrapError(ErrNotFound, "project "+id)
		}
		return nil, WrapError(err, "failed to get project")
	}
	return project, nil
}
