package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// ProjectStore defines the interface for project storage operations.
type ProjectStore interface {
	// Create inserts a new project. The project.ID must be set (UUID).
	Create(ctx context.Context, project *Project) error
	// GetByID gets a project by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Project, error)
	// GetByOwner gets the project owned by the given user. Returns ErrNotFound if not found.
	GetByOwner(ctx context.Context, ownerID string) (*Project, error)
}

// ProjectRepo provides methods for project operations.
type ProjectRepo struct {
	db *sql.DB
}

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create inserts a new project.
func (r *ProjectRepo) Create(ctx context.Context, project *Project) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (id, owner_id, name, system_prompt) VALUES (?, ?, ?, ?)",
		project.ID, project.OwnerID, project.Name, project.SystemPrompt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// GetByID gets a project by its ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*Project, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, system_prompt, created_at FROM projects WHERE id = ?", id))
}

// GetByOwner gets the project owned by the given user.
func (r *ProjectRepo) GetByOwner(ctx context.Context, ownerID string) (*Project, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, system_prompt, created_at FROM projects WHERE owner_id = ?", ownerID))
}

func (r *ProjectRepo) scanOne(row *sql.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.SystemPrompt, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return &p, nil
}
