package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docqa/internal/contextutil"
	"docqa/internal/service"
	"docqa/internal/storage"
)

// uploadMemoryLimit bounds multipart form buffering in memory.
const uploadMemoryLimit = 10 << 20

// DocumentHandler handles document upload and management requests.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// DocumentResponse represents a document in HTTP responses.
type DocumentResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	FileType  string    `json:"file_type"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toDocumentResponse(doc *storage.Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID,
		Filename:  doc.Filename,
		FileType:  doc.FileType,
		Status:    string(doc.Status),
		Error:     doc.Error,
		CreatedAt: doc.CreatedAt,
	}
}

// Upload accepts a multipart file upload and queues it for processing.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	projectID := chi.URLParam(r, "projectID")

	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	doc, err := h.documents.Upload(ctx, projectID, header.Filename, raw)
	if err != nil {
		logger.ErrorContext(ctx, "failed to upload document", "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toDocumentResponse(doc))
}

// List returns the project's documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "projectID")

	docs, err := h.documents.List(ctx, projectID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list documents", "error", err)
		writeServiceError(w, err)
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toDocumentResponse(doc))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a document and its index entries.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "projectID")
	documentID := chi.URLParam(r, "documentID")

	if err := h.documents.Delete(ctx, projectID, documentID); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete document", "error", err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
