// Package memory provides an in-memory attempt ledger, used in tests and
// as a substitutable backend when no durable store is configured.
package memory

import (
	"context"
	"sync"

	"github.com/owoa/splitbill/internal/models"
	"github.com/owoa/splitbill/internal/storage"
)

var _ storage.AttemptStore = (*AttemptStore)(nil)

// AttemptStore keeps attempt records in a mutex-guarded map keyed by
// (resultID, clientKey).
type AttemptStore struct {
	mu   sync.RWMutex
	data map[attemptKey]models.AttemptRecord
}

type attemptKey struct {
	resultID  string
	clientKey string
}

// New creates an empty in-memory attempt store.
func New() *AttemptStore {
	return &AttemptStore{
		data: make(map[attemptKey]models.AttemptRecord),
	}
}

// GetAttempt returns the record for the pair, or storage.ErrNotFound.
func (s *AttemptStore) GetAttempt(_ context.Context, resultID, clientKey string) (*models.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[attemptKey{resultID, clientKey}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	// Copy so callers cannot mutate the stored record.
	out := rec
	return &out, nil
}

// UpsertAttempt inserts or replaces the record for its pair.
func (s *AttemptStore) UpsertAttempt(_ context.Context, record *models.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[attemptKey{record.ResultID, record.ClientKey}] = *record
	return nil
}

// DeleteAttempt removes the record for the pair.
func (s *AttemptStore) DeleteAttempt(_ context.Context, resultID, clientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, attemptKey{resultID, clientKey})
	return nil
}

// Len reports the number of stored records. Test helper.
func (s *AttemptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
