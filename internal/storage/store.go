// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/owoa/splitbill/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ResultStore defines the interface for split-result persistence.
// This abstraction allows swapping storage backends without changing the
// service layer.
type ResultStore interface {
	// CreateResult persists a new split result. The result.ID field will
	// be populated by the store if empty.
	CreateResult(ctx context.Context, result *models.SplitResult) error

	// GetResult retrieves a full result by its ID.
	// Returns ErrNotFound if no such result exists.
	GetResult(ctx context.Context, id string) (*models.SplitResult, error)

	// UpdateResultData replaces the editable result_data of an existing
	// result. The original AI snapshot is never touched.
	UpdateResultData(ctx context.Context, id string, data models.ResultData) error

	// UpdateProtection sets the visibility and passcode digest of an
	// existing result. An empty digest clears the passcode.
	UpdateProtection(ctx context.Context, id, visibility, passcodeHash string) error

	// Close releases any resources held by the store.
	Close() error
}

// AttemptStore is the durable ledger of failed passcode attempts, keyed by
// (resultID, clientKey) with at most one record per pair.
//
// Upserts for different keys must not interfere; a same-key race may be
// resolved last-write-wins. The rate limiter tolerates the resulting
// undercount of at most one failure.
type AttemptStore interface {
	// GetAttempt returns the record for the pair, or ErrNotFound.
	GetAttempt(ctx context.Context, resultID, clientKey string) (*models.AttemptRecord, error)

	// UpsertAttempt inserts or replaces the record for its
	// (ResultID, ClientKey) pair.
	UpsertAttempt(ctx context.Context, record *models.AttemptRecord) error

	// DeleteAttempt removes the record for the pair. Deleting a missing
	// record is not an error.
	DeleteAttempt(ctx context.Context, resultID, clientKey string) error
}
