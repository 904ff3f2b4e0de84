// Package service implements the application flows over the storage,
// rate-limit and auth primitives.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/owoa/splitbill/internal/auth"
	"github.com/owoa/splitbill/internal/metrics"
	"github.com/owoa/splitbill/internal/ratelimit"
	"github.com/owoa/splitbill/internal/storage"
)

// AccessService orchestrates passcode verification for protected results:
// input validation, rate-limit checks, the bcrypt compare, and the
// failure/reset bookkeeping around it.
type AccessService struct {
	results storage.ResultStore
	limiter *ratelimit.Limiter
}

// NewAccessService creates an AccessService over the given stores.
func NewAccessService(results storage.ResultStore, limiter *ratelimit.Limiter) *AccessService {
	return &AccessService{results: results, limiter: limiter}
}

// VerifyPasscode runs one verify-passcode request for the given client.
//
// Public results succeed immediately and never touch the attempt ledger,
// even if a stale lock record exists from before a visibility change.
// For private results the lock check runs before the bcrypt compare, so a
// locked-out client never triggers the expensive hash. Each wrong guess
// independently increments the counter; a correct one wipes it.
func (s *AccessService) VerifyPasscode(ctx context.Context, id, passcode, clientKey string) error {
	if err := validateResultID(id); err != nil {
		metrics.VerifyAttempts.WithLabelValues("invalid").Inc()
		return err
	}
	passcode = strings.TrimSpace(passcode)
	if passcode == "" {
		metrics.VerifyAttempts.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: passcode is required", ErrInvalidInput)
	}

	result, err := s.results.GetResult(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.VerifyAttempts.WithLabelValues("not_found").Inc()
			return ErrResultNotFound
		}
		return fmt.Errorf("failed to load result: %w", err)
	}

	if !result.IsPrivate() {
		metrics.VerifyAttempts.WithLabelValues("success").Inc()
		return nil
	}

	if check := s.limiter.CheckLock(ctx, id, clientKey); check.Locked {
		metrics.VerifyAttempts.WithLabelValues("rate_limited").Inc()
		return &RateLimitedError{RetryAfterSeconds: check.RetryAfterSeconds}
	}

	if result.PasscodeHash == "" {
		slog.Error("private result has no passcode hash", "result_id", id)
		metrics.VerifyAttempts.WithLabelValues("misconfigured").Inc()
		return ErrMisconfigured
	}

	if !auth.VerifyPasscode(passcode, result.PasscodeHash) {
		s.limiter.RecordFailure(ctx, id, clientKey)
		metrics.VerifyAttempts.WithLabelValues("incorrect").Inc()
		return ErrIncorrectPasscode
	}

	s.limiter.Reset(ctx, id, clientKey)
	metrics.VerifyAttempts.WithLabelValues("success").Inc()
	return nil
}

// validateResultID requires a well-formed UUID v4.
func validateResultID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.Version() != 4 {
		return fmt.Errorf("%w: invalid result ID", ErrInvalidInput)
	}
	return nil
}
