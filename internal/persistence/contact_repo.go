package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"connectgo/internal/domain"
)

type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (r *ContactRepo) UpsertAll(ctx context.Context, contacts domain.ContactsMap) error {
	if len(contacts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin contacts tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for phone, name := range contacts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contacts(phone_number, name)
			VALUES(?, ?)
			ON CONFLICT(phone_number) DO UPDATE SET name = excluded.name
		`, phone, name); err != nil {
			return fmt.Errorf("upsert contact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit contacts tx: %w", err)
	}

	return nil
}

func (r *ContactRepo) LoadAll(ctx context.Context) (domain.ContactsMap, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT phone_number, name FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make(domain.ContactsMap)
	for rows.Next() {
		var phone, name string
		if err := rows.Scan(&phone, &name); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out[phone] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}

	return out, nil
}
