// Package redis provides a Redis-backed attempt ledger for deployments
// where multiple instances share rate-limit state.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/owoa/splitbill/internal/models"
	"github.com/owoa/splitbill/internal/storage"
)

var _ storage.AttemptStore = (*AttemptStore)(nil)

// AttemptStore keeps one Redis hash per (result, client) pair. Records
// expire on their own after the TTL, which only needs to outlive the
// reset window and lockout duration.
type AttemptStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type Option func(*AttemptStore)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *AttemptStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithTTL overrides how long attempt records live without updates.
func WithTTL(d time.Duration) Option {
	return func(s *AttemptStore) { s.ttl = d }
}

// New creates a Redis attempt store over an existing client.
func New(rdb *redis.Client, opts ...Option) *AttemptStore {
	s := &AttemptStore{
		rdb:    rdb,
		prefix: "passcode_attempts",
		ttl:    time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AttemptStore) key(resultID, clientKey string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, resultID, clientKey)
}

// GetAttempt returns the record for the pair, or storage.ErrNotFound.
func (s *AttemptStore) GetAttempt(ctx context.Context, resultID, clientKey string) (*models.AttemptRecord, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(resultID, clientKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt record: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}

	record := &models.AttemptRecord{
		ResultID:      resultID,
		ClientKey:     clientKey,
		FailedCount:   atoi(fields["failed_count"]),
		WindowStart:   atoi64(fields["window_start"]),
		LastAttemptAt: atoi64(fields["last_attempt_at"]),
		LockedUntil:   atoi64(fields["locked_until"]),
	}
	return record, nil
}

// UpsertAttempt writes the full record and refreshes its TTL in one
// pipelined round trip. Same-key races resolve last-write-wins.
func (s *AttemptStore) UpsertAttempt(ctx context.Context, record *models.AttemptRecord) error {
	key := s.key(record.ResultID, record.ClientKey)

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key,
		"failed_count", strconv.Itoa(record.FailedCount),
		"window_start", strconv.FormatInt(record.WindowStart, 10),
		"last_attempt_at", strconv.FormatInt(record.LastAttemptAt, 10),
		"locked_until", strconv.FormatInt(record.LockedUntil, 10),
	)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert attempt record: %w", err)
	}
	return nil
}

// DeleteAttempt removes the record for the pair.
func (s *AttemptStore) DeleteAttempt(ctx context.Context, resultID, clientKey string) error {
	if err := s.rdb.Del(ctx, s.key(resultID, clientKey)).Err(); err != nil {
		return fmt.Errorf("failed to delete attempt record: %w", err)
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
