package storage

import "time"

// DocumentStatus is the explicit processing state of a document.
// The raw content never doubles as a status sentinel.
type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusReady   DocumentStatus = "ready"
	StatusError   DocumentStatus = "error"
)

// Project is the tenant boundary. Documents, chunks and the vector
// collection are all scoped to one project.
type Project struct {
	ID           string // UUID
	OwnerID      string // external user identifier, unique per project
	Name         string
	SystemPrompt string
	CreatedAt    time.Time
}

// Document identifies one uploaded file within a project.
type Document struct {
	ID        string // UUID
	ProjectID string
	Filename  string
	FileType  string
	Content   string // extracted text; empty until processing finishes
	Status    DocumentStatus
	Error     string // parse error detail when Status is error
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is a contiguous passage of a document's text.
// ChunkIndex is unique per document and preserves original document order.
type Chunk struct {
	ID           string // UUID, shared with the vector point when one exists
	DocumentID   string
	ChunkIndex   int
	Section      int    // section index in hierarchical mode, 0 otherwise
	SectionTitle string // section title in hierarchical mode
	Text         string
	PointID      string // vector point reference; empty if embedding failed
}

// Message is one turn of conversation history, append-only.
type Message struct {
	ID        int64
	UserID    string
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}
