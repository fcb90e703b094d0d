package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// MessageStore defines the interface for conversation history operations.
type MessageStore interface {
	// Append stores one conversation turn.
	Append(ctx context.Context, userID, role, content string) error
	// Recent returns the most recent n messages for a user in chronological order.
	Recent(ctx context.Context, userID string, n int) ([]*Message, error)
}

// MessageRepo provides methods for conversation history operations.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores one conversation turn.
func (r *MessageRepo) Append(ctx context.Context, userID, role, content string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (user_id, role, content) VALUES (?, ?, ?)",
		userID, role, content,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Recent returns the most recent n messages for a user in chronological order.
func (r *MessageRepo) Recent(ctx context.Context, userID string, n int) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, role, content, created_at FROM messages
		 WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
