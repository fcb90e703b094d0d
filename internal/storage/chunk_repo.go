package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Insert inserts a single chunk. The chunk.ID must be set (UUID).
	Insert(ctx context.Context, chunk *Chunk) error
	// SetPointID records the vector point reference for a chunk.
	SetPointID(ctx context.Context, chunkID, pointID string) error
	// DeleteByDocument deletes all chunks for a given document ID.
	DeleteByDocument(ctx context.Context, documentID string) error
	// ListByProject returns all chunks for a project, ordered by document then chunk_index.
	ListByProject(ctx context.Context, projectID string) ([]*Chunk, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Chunk, error)
}

// ChunkRepo provides methods for chunk operations.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single chunk.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *Chunk) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chunks (id, document_id, chunk_index, section, section_title, text, point_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Section, chunk.SectionTitle, chunk.Text, chunk.PointID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// SetPointID records the vector point reference for a chunk.
func (r *ChunkRepo) SetPointID(ctx context.Context, chunkID, pointID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE chunks SET point_id = ? WHERE id = ?", pointID, chunkID)
	if err != nil {
		return fmt.Errorf("failed to set chunk point id: %w", err)
	}
	return nil
}

// DeleteByDocument deletes all chunks for a given document ID.
// Used when re-processing a document to remove old chunks before inserting new ones.
func (r *ChunkRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by document: %w", err)
	}
	return nil
}

// ListByProject returns all chunks for a project, ordered by document then chunk_index.
// This is the corpus the lexical index and the keyword fallback scan over.
func (r *ChunkRepo) ListByProject(ctx context.Context, projectID string) ([]*Chunk, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.document_id, c.chunk_index, c.section, c.section_title, c.text, c.point_id
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE d.project_id = ?
		 ORDER BY c.document_id, c.chunk_index`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []*Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Section, &c.SectionTitle, &c.Text, &c.PointID); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chunks, nil
}

// GetByID gets a chunk by its ID.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*Chunk, error) {
	var c Chunk
	err := r.db.QueryRowContext(ctx,
		"SELECT id, document_id, chunk_index, section, section_title, text, point_id FROM chunks WHERE id = ?", id,
	).Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Section, &c.SectionTitle, &c.Text, &c.PointID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}
	return &c, nil
}
