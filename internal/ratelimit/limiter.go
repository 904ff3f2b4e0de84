package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/owoa/splitbill/internal/metrics"
	"github.com/owoa/splitbill/internal/models"
	"github.com/owoa/splitbill/internal/storage"
)

const (
	// MaxAttempts is the number of failures within the reset window that
	// triggers a lockout. The check runs after incrementing, so the 5th
	// failure is the one that sets the lock and the 6th attempt is the
	// first to observe it.
	MaxAttempts = 5

	// ResetWindow is how long consecutive failures keep accumulating
	// toward the threshold. A failure arriving after the window expired
	// restarts the count at 1.
	ResetWindow = 15 * time.Minute

	// LockoutDuration is how long a locked pair stays denied.
	LockoutDuration = 15 * time.Minute
)

// CheckResult is the outcome of a lock check.
type CheckResult struct {
	Locked bool

	// RetryAfterSeconds is the remaining lockout, rounded up so a client
	// honoring it never polls early. Only meaningful when Locked is true.
	RetryAfterSeconds int
}

// Limiter is the per-(result, client) brute-force lockout state machine.
// Its correctness under concurrent requests rests on the ledger's
// per-key upsert atomicity, not on any in-process lock: two concurrent
// failures for the same pair may collapse into one under last-write-wins,
// an accepted undercount.
type Limiter struct {
	attempts storage.AttemptStore
	now      func() time.Time

	// failClosed flips the availability tradeoff: when the ledger cannot
	// be read, treat the pair as locked instead of open.
	failClosed bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock substitutes the time source. Tests use this to drive windows.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithFailClosed makes ledger read failures count as locked. The default
// is fail-open: a lost counter beats a denied user when the store is down.
func WithFailClosed(failClosed bool) Option {
	return func(l *Limiter) { l.failClosed = failClosed }
}

// New creates a Limiter over the given attempt ledger.
func New(attempts storage.AttemptStore, opts ...Option) *Limiter {
	l := &Limiter{
		attempts: attempts,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckLock reports whether the pair is currently locked out.
//
// No record, or a record whose lock has expired (or never existed), means
// not locked. A ledger read failure degrades per the configured policy;
// the default is fail-open.
func (l *Limiter) CheckLock(ctx context.Context, resultID, clientKey string) CheckResult {
	record, err := l.attempts.GetAttempt(ctx, resultID, clientKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("attempt ledger read failed",
				"result_id", resultID, "error", err, "fail_closed", l.failClosed)
			metrics.AttemptStoreErrors.WithLabelValues("check").Inc()
			if l.failClosed {
				return CheckResult{Locked: true, RetryAfterSeconds: int(LockoutDuration.Seconds())}
			}
		}
		return CheckResult{Locked: false}
	}

	if record.LockedUntil == 0 {
		return CheckResult{Locked: false}
	}

	now := l.now().UnixMilli()
	if record.LockedUntil <= now {
		return CheckResult{Locked: false}
	}

	remainingMs := record.LockedUntil - now
	retryAfter := int((remainingMs + 999) / 1000)
	return CheckResult{Locked: true, RetryAfterSeconds: retryAfter}
}

// RecordFailure registers one failed passcode attempt for the pair.
//
// A failure outside the reset window starts a fresh window with a count
// of 1; inside the window it increments. Crossing MaxAttempts sets the
// lock. Ledger write failures are logged and swallowed: a lost counter
// update must not block the user-visible response.
func (l *Limiter) RecordFailure(ctx context.Context, resultID, clientKey string) {
	now := l.now().UnixMilli()

	record, err := l.attempts.GetAttempt(ctx, resultID, clientKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("attempt ledger read failed while recording failure",
			"result_id", resultID, "error", err)
		metrics.AttemptStoreErrors.WithLabelValues("record").Inc()
		record = nil
	}

	next := &models.AttemptRecord{
		ResultID:      resultID,
		ClientKey:     clientKey,
		FailedCount:   1,
		WindowStart:   now,
		LastAttemptAt: now,
	}
	if record != nil && now-record.WindowStart < ResetWindow.Milliseconds() {
		// Still inside the counting window.
		next.FailedCount = record.FailedCount + 1
		next.WindowStart = record.WindowStart
	}

	if next.FailedCount >= MaxAttempts {
		next.LockedUntil = now + LockoutDuration.Milliseconds()
		metrics.LockoutsTriggered.Inc()
		slog.Info("passcode lockout triggered",
			"result_id", resultID, "failed_count", next.FailedCount)
	}

	if err := l.attempts.UpsertAttempt(ctx, next); err != nil {
		slog.Error("failed to record passcode failure",
			"result_id", resultID, "error", err)
		metrics.AttemptStoreErrors.WithLabelValues("record").Inc()
	}
}

// Reset clears all attempt state for the pair. Called only after a
// verified-correct passcode.
func (l *Limiter) Reset(ctx context.Context, resultID, clientKey string) {
	if err := l.attempts.DeleteAttempt(ctx, resultID, clientKey); err != nil {
		slog.Error("failed to reset passcode attempts",
			"result_id", resultID, "error", err)
		metrics.AttemptStoreErrors.WithLabelValues("reset").Inc()
	}
}
