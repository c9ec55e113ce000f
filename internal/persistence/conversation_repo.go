package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"connectgo/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Upsert(ctx context.Context, c domain.Conversation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations(thread_id, phone_number, contact_name, last_message, timestamp, unread)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			phone_number = excluded.phone_number,
			contact_name = excluded.contact_name,
			last_message = excluded.last_message,
			timestamp = excluded.timestamp,
			unread = excluded.unread
	`, c.ThreadID, c.PhoneNumber, c.ContactName, c.LastMessage, c.Timestamp, boolToInt(c.Unread))
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	return nil
}

func (r *ConversationRepo) ListSortedByTimestamp(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT thread_id, phone_number, contact_name, last_message, timestamp, unread
		FROM conversations
		ORDER BY timestamp DESC, thread_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make([]domain.Conversation, 0)
	for rows.Next() {
		var (
			conv   domain.Conversation
			unread int
		)
		if err := rows.Scan(&conv.ThreadID, &conv.PhoneNumber, &conv.ContactName, &conv.LastMessage, &conv.Timestamp, &unread); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conv.Unread = unread != 0
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return out, nil
}
