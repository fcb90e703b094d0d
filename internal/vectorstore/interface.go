package vectorstore

import (
	"context"
	"fmt"
)

// Point represents a vector point with payload metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a single match from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector index operations.
// Collections are tenant-scoped: one collection per project.
type VectorStore interface {
	// EnsureCollection creates the collection if missing and validates its vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Upsert inserts or updates points in the collection. Upserts are keyed by
	// point ID, so re-processing a document converges instead of duplicating.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with an optional score threshold.
	Search(ctx context.Context, collection string, query []float32, limit int, scoreThreshold float32) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteByDocument removes all points whose payload references the given document.
	DeleteByDocument(ctx context.Context, collection, documentID string) error
}

// CollectionName returns the tenant-scoped collection name for a project.
// Naming the collection after the project id is what enforces tenant isolation.
func CollectionName(projectID string) string {
	return fmt.Sprintf("proj_%s", projectID)
}
