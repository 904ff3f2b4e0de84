package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/owoa/splitbill/internal/models"
	"github.com/owoa/splitbill/internal/storage"
)

// GetAttempt returns the attempt record for a (result, client) pair.
func (s *SQLiteStore) GetAttempt(ctx context.Context, resultID, clientKey string) (*models.AttemptRecord, error) {
	record := &models.AttemptRecord{}
	var lockedUntil sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT result_id, client_key, failed_count, window_start, last_attempt_at, locked_until
		 FROM passcode_attempts WHERE result_id = ? AND client_key = ?`,
		resultID, clientKey,
	).Scan(&record.ResultID, &record.ClientKey, &record.FailedCount,
		&record.WindowStart, &record.LastAttemptAt, &lockedUntil)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt record: %w", err)
	}

	record.LockedUntil = lockedUntil.Int64
	return record, nil
}

// UpsertAttempt inserts or replaces the attempt record for its pair.
// Same-key races resolve last-write-wins.
func (s *SQLiteStore) UpsertAttempt(ctx context.Context, record *models.AttemptRecord) error {
	lockedUntil := sql.NullInt64{Int64: record.LockedUntil, Valid: record.LockedUntil != 0}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO passcode_attempts
		    (result_id, client_key, failed_count, window_start, last_attempt_at, locked_until)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(result_id, client_key) DO UPDATE SET
		    failed_count = excluded.failed_count,
		    window_start = excluded.window_start,
		    last_attempt_at = excluded.last_attempt_at,
		    locked_until = excluded.locked_until`,
		record.ResultID, record.ClientKey, record.FailedCount,
		record.WindowStart, record.LastAttemptAt, lockedUntil,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attempt record: %w", err)
	}
	return nil
}

// DeleteAttempt removes the attempt record for a pair.
func (s *SQLiteStore) DeleteAttempt(ctx context.Context, resultID, clientKey string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM passcode_attempts WHERE result_id = ? AND client_key = ?",
		resultID, clientKey,
	)
	if err != nil {
		return fmt.Errorf("failed to delete attempt record: %w", err)
	}
	return nil
}
