package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Create inserts a new document with pending status. The document.ID must be set (UUID).
	Create(ctx context.Context, doc *Document) error
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Document, error)
	// ListByProject returns all documents for a project, ordered by creation time.
	ListByProject(ctx context.Context, projectID string) ([]*Document, error)
	// SetReady stores the extracted text and marks the document ready.
	SetReady(ctx context.Context, id, content string) error
	// SetError records a parse failure and marks the document errored.
	SetError(ctx context.Context, id, errMsg string) error
	// Delete removes a document. Chunks cascade via foreign key.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Create inserts a new document with pending status.
func (r *DocumentRepo) Create(ctx context.Context, doc *Document) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (id, project_id, filename, file_type, status) VALUES (?, ?, ?, ?, ?)",
		doc.ID, doc.ProjectID, doc.Filename, doc.FileType, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID gets a document by its ID.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*Document, error) {
	var d Document
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, filename, file_type, content, status, error, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.ProjectID, &d.Filename, &d.FileType, &d.Content, &d.Status, &d.Error, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return &d, nil
}

// ListByProject returns all documents for a project, ordered by creation time.
func (r *DocumentRepo) ListByProject(ctx context.Context, projectID string) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, filename, file_type, content, status, error, created_at, updated_at
		 FROM documents WHERE project_id = ? ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.FileType, &d.Content, &d.Status, &d.Error, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// SetReady stores the extracted text and marks the document ready.
func (r *DocumentRepo) SetReady(ctx context.Context, id, content string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE documents SET content = ?, status = ?, error = '', updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		content, StatusReady, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document ready: %w", err)
	}
	return nil
}

// SetError records a parse failure and marks the document errored.
func (r *DocumentRepo) SetError(ctx context.Context, id, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		StatusError, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document errored: %w", err)
	}
	return nil
}

// Delete removes a document. Chunks cascade via foreign key.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
