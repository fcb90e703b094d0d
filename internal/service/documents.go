package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/contextutil"
	"docqa/internal/extract"
	"docqa/internal/storage"
)

// Processor runs document ingestion in the background.
type Processor interface {
	Submit(ctx context.Context, documentID string, raw []byte, filename string)
	DeleteDocument(ctx context.Context, projectID, documentID string) error
}

// DocumentService manages document uploads within a project.
type DocumentService struct {
	projects  storage.ProjectStore
	docs      storage.DocumentStore
	processor Processor
	maxBytes  int64
}

// NewDocumentService creates a document service.
func NewDocumentService(projects storage.ProjectStore, docs storage.DocumentStore, processor Processor, maxBytes int64) *DocumentService {
	return &DocumentService{
		projects:  projects,
		docs:      docs,
		processor: processor,
		maxBytes:  maxBytes,
	}
}

// Upload registers a document and queues it for processing. The call returns
// as soon as the pending record exists; extraction and indexing run in the
// background.
func (s *DocumentService) Upload(ctx context.Context, projectID, filename string, raw []byte) (*storage.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(filename) == "" {
		return nil, &ValidationError{Field: "filename", Message: "cannot be empty"}
	}
	// An empty file is accepted: the pipeline records it on the document as
	// a parse failure rather than bouncing the upload.
	if s.maxBytes > 0 && int64(len(raw)) > s.maxBytes {
		return nil, &ValidationError{Field: "file", Message: "exceeds maximum size"}
	}

	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, WrapError(ErrNotFound, "project "+projectID)
		}
		return nil, WrapError(err, "failed to resolve project")
	}

	doc := &storage.Document{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Filename:  filepath.Base(filename),
		FileType:  extract.DetectType(raw, filename),
		Status:    storage.StatusPending,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, WrapError(err, "failed to create document")
	}

	s.processor.Submit(ctx, doc.ID, raw, doc.Filename)

	logger.InfoContext(ctx, "document queued",
		"document_id", doc.ID, "project_id", projectID, "filename", doc.Filename)
	return doc, nil
}

// List returns the project's documents.
func (s *DocumentService) List(ctx context.Context, projectID string) ([]*storage.Document, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, WrapError(ErrNotFound, "project "+projectID)
		}
		return nil, WrapError(err, "failed to resolve project")
	}

	docs, err := s.docs.ListByProject(ctx, projectID)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

// Delete removes a document and its derived chunks and vectors.
func (s *DocumentService) Delete(ctx context.Context, projectID, documentID string) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return WrapError(ErrNotFound, "document "+documentID)
		}
		return WrapError(err, "failed to resolve document")
	}
	if doc.ProjectID != projectID {
		return WrapError(ErrNotFound, "document "+documentID)
	}

	if err := s.processor.DeleteDocument(ctx, projectID, documentID); err != nil {
		return WrapError(err, "failed to delete document")
	}
	return nil
}
