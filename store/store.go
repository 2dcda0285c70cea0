// Package store persists the submission collection. The collection is
// deliberately wholesale: loaded in full at startup, rewritten in full
// after every mutating action, with no incremental update API.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/formwise/formwise/log"
	"github.com/formwise/formwise/model"
)

// Repository is the explicit home of the submission collection, injected
// into whatever orchestrates upload, delete and aggregation.
type Repository interface {
	Load(ctx context.Context) ([]model.SubmissionRecord, error)
	SaveAll(ctx context.Context, submissions []model.SubmissionRecord) error
}

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

// Load returns every stored submission in insertion order. A payload that
// no longer parses is logged and skipped rather than failing the whole
// read: a corrupted row must not take the collection down with it, and the
// next SaveAll rewrites the store from whatever Load returned.
func (r *sqliteRepository) Load(ctx context.Context) ([]model.SubmissionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, payload
		FROM submission
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("store.load: %w", err)
	}
	defer rows.Close()

	submissions := []model.SubmissionRecord{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("store.load.scan: %w", err)
		}

		var sub model.SubmissionRecord
		if err := json.Unmarshal([]byte(payload), &sub); err != nil {
			log.Warnf("store.load.skip_payload (%s): %s", id, err)
			continue
		}
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.load.rows: %w", err)
	}
	return submissions, nil
}

// SaveAll replaces the whole collection in a single transaction.
func (r *sqliteRepository) SaveAll(ctx context.Context, submissions []model.SubmissionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store.save.begin_tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM submission`); err != nil {
		return fmt.Errorf("store.save.clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO submission (id, form_title, submitted_at, payload)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store.save.prepare: %w", err)
	}
	defer stmt.Close()

	for _, sub := range submissions {
		payload, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("store.save.marshal (%s): %w", sub.ID, err)
		}
		_, err = stmt.ExecContext(ctx, sub.ID, sub.FormTitle, sub.SubmittedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"), string(payload))
		if err != nil {
			return fmt.Errorf("store.save.insert (%s): %w", sub.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store.save.commit: %w", err)
	}
	return nil
}
