package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"connectgo/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert stores a message once; re-delivered ids are ignored, matching the
// in-memory dedup policy.
func (r *MessageRepo) Insert(ctx context.Context, m domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages(id, thread_id, body, address, date, direction, is_read)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ThreadID, m.Body, m.Address, m.Date, int(m.Direction), boolToInt(m.Read))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// LoadRecentPerThread returns up to limit most recent messages per known
// thread, each list in ascending date order.
func (r *MessageRepo) LoadRecentPerThread(ctx context.Context, limit int) (map[string][]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT thread_id FROM conversations`)
	if err != nil {
		return nil, fmt.Errorf("list thread ids: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var threadIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan thread id: %w", err)
		}
		threadIDs = append(threadIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread ids: %w", err)
	}

	out := make(map[string][]domain.Message, len(threadIDs))
	for _, threadID := range threadIDs {
		msgs, err := r.listRecentByThread(ctx, threadID, limit)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			out[threadID] = msgs
		}
	}

	return out, nil
}

func (r *MessageRepo) listRecentByThread(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, body, address, date, direction, is_read
		FROM messages
		WHERE thread_id = ?
		ORDER BY date DESC
		LIMIT ?
	`, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages by thread: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []domain.Message
	for rows.Next() {
		var (
			m         domain.Message
			direction int
			isRead    int
		)
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Body, &m.Address, &m.Date, &direction, &isRead); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Direction = domain.MessageDirection(direction)
		m.Read = isRead != 0
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages by thread: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}
