package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/owoa/splitbill/internal/auth"
	"github.com/owoa/splitbill/internal/models"
	"github.com/owoa/splitbill/internal/ratelimit"
	"github.com/owoa/splitbill/internal/storage/memory"
	"github.com/owoa/splitbill/internal/storage/sqlite"
)

type accessFixture struct {
	svc      *AccessService
	store    *sqlite.SQLiteStore
	attempts *memory.AttemptStore
	clock    *testClock
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitbill-access-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	attempts := memory.New()
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := ratelimit.New(attempts, ratelimit.WithClock(clock.Now))

	return &accessFixture{
		svc:      NewAccessService(store, limiter),
		store:    store,
		attempts: attempts,
		clock:    clock,
	}
}

// seedResult creates a result; passcode "" means public.
func (f *accessFixture) seedResult(t *testing.T, passcode string) string {
	t.Helper()

	result := &models.SplitResult{
		ResultData:         models.ResultData{GrandTotal: 100},
		OriginalResultData: models.ResultData{GrandTotal: 100},
	}
	if passcode != "" {
		digest, err := auth.HashPasscode(passcode)
		if err != nil {
			t.Fatalf("failed to hash passcode: %v", err)
		}
		result.Visibility = models.VisibilityPrivate
		result.PasscodeHash = digest
	}
	if err := f.store.CreateResult(context.Background(), result); err != nil {
		t.Fatalf("failed to seed result: %v", err)
	}
	return result.ID
}

func TestVerifyPasscode_InputValidation(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		passcode string
	}{
		{name: "empty id", id: "", passcode: "1234"},
		{name: "malformed id", id: "not-a-uuid", passcode: "1234"},
		{name: "uuid but not v4", id: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", passcode: "1234"},
		{name: "empty passcode", id: "9f1b49be-05ad-4de1-9b6e-1a0f3a25ad33", passcode: ""},
		{name: "whitespace passcode", id: "9f1b49be-05ad-4de1-9b6e-1a0f3a25ad33", passcode: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.VerifyPasscode(ctx, tt.id, tt.passcode, "client-a")
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestVerifyPasscode_NotFound(t *testing.T) {
	f := newAccessFixture(t)

	err := f.svc.VerifyPasscode(context.Background(),
		"9f1b49be-05ad-4de1-9b6e-1a0f3a25ad33", "1234", "client-a")
	if !errors.Is(err, ErrResultNotFound) {
		t.Errorf("err = %v, want ErrResultNotFound", err)
	}
}

func TestVerifyPasscode_PublicSkipsLedger(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	id := f.seedResult(t, "")

	// Any passcode succeeds for a public result.
	if err := f.svc.VerifyPasscode(ctx, id, "whatever", "client-a"); err != nil {
		t.Fatalf("public verify failed: %v", err)
	}
	if f.attempts.Len() != 0 {
		t.Errorf("public verify touched the attempt ledger: %d records", f.attempts.Len())
	}
}

func TestVerifyPasscode_PublicIgnoresStaleLock(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	id := f.seedResult(t, "1234")

	// Lock the pair while the result is private.
	for i := 0; i < ratelimit.MaxAttempts; i++ {
		_ = f.svc.VerifyPasscode(ctx, id, "wrong", "client-a")
	}
	var limited *RateLimitedError
	if err := f.svc.VerifyPasscode(ctx, id, "1234", "client-a"); !errors.As(err, &limited) {
		t.Fatalf("expected rate limited, got %v", err)
	}

	// Flip to public: the stale lock record must not matter.
	if err := f.store.UpdateProtection(ctx, id, models.VisibilityPublic, ""); err != nil {
		t.Fatalf("UpdateProtection failed: %v", err)
	}
	if err := f.svc.VerifyPasscode(ctx, id, "anything", "client-a"); err != nil {
		t.Errorf("public result still rate limited: %v", err)
	}
}

func TestVerifyPasscode_WrongThenLockout(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	id := f.seedResult(t, "8888")

	// First four wrong guesses: unauthorized, not yet locked.
	for i := 0; i < ratelimit.MaxAttempts-1; i++ {
		err := f.svc.VerifyPasscode(ctx, id, "0000", "client-a")
		if !errors.Is(err, ErrIncorrectPasscode) {
			t.Fatalf("attempt %d: err = %v, want ErrIncorrectPasscode", i+1, err)
		}
	}

	// Fifth wrong guess still reports incorrect (it is the one that
	// sets the lock).
	if err := f.svc.VerifyPasscode(ctx, id, "0000", "client-a"); !errors.Is(err, ErrIncorrectPasscode) {
		t.Fatalf("5th attempt: err = %v, want ErrIncorrectPasscode", err)
	}

	// Sixth attempt observes the lock, even with the correct passcode.
	var limited *RateLimitedError
	err := f.svc.VerifyPasscode(ctx, id, "8888", "client-a")
	if !errors.As(err, &limited) {
		t.Fatalf("6th attempt: err = %v, want RateLimitedError", err)
	}
	if limited.RetryAfterSeconds <= 0 || limited.RetryAfterSeconds > int(ratelimit.LockoutDuration.Seconds()) {
		t.Errorf("retryAfter = %d, out of range", limited.RetryAfterSeconds)
	}

	// After the lockout expires the correct passcode works again.
	f.clock.Advance(ratelimit.LockoutDuration + time.Second)
	if err := f.svc.VerifyPasscode(ctx, id, "8888", "client-a"); err != nil {
		t.Errorf("verify after lockout expiry failed: %v", err)
	}
}

func TestVerifyPasscode_SuccessResetsCount(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	id := f.seedResult(t, "8888")

	// Four wrong, then the correct passcode.
	for i := 0; i < ratelimit.MaxAttempts-1; i++ {
		_ = f.svc.VerifyPasscode(ctx, id, "0000", "client-a")
	}
	if err := f.svc.VerifyPasscode(ctx, id, "8888", "client-a"); err != nil {
		t.Fatalf("correct passcode failed: %v", err)
	}
	if f.attempts.Len() != 0 {
		t.Errorf("attempt record survived a successful verify")
	}

	// A subsequent wrong guess starts a fresh count at 1, not 6.
	if err := f.svc.VerifyPasscode(ctx, id, "0000", "client-a"); !errors.Is(err, ErrIncorrectPasscode) {
		t.Fatalf("err = %v, want ErrIncorrectPasscode", err)
	}
	record, err := f.attempts.GetAttempt(ctx, id, "client-a")
	if err != nil {
		t.Fatalf("GetAttempt failed: %v", err)
	}
	if record.FailedCount != 1 {
		t.Errorf("failedCount = %d, want 1", record.FailedCount)
	}
}

func TestVerifyPasscode_ClientIsolation(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	id := f.seedResult(t, "8888")

	for i := 0; i < ratelimit.MaxAttempts; i++ {
		_ = f.svc.VerifyPasscode(ctx, id, "0000", "client-a")
	}

	// client-a is locked; client-b is unaffected.
	var limited *RateLimitedError
	if err := f.svc.VerifyPasscode(ctx, id, "8888", "client-a"); !errors.As(err, &limited) {
		t.Errorf("client-a: err = %v, want RateLimitedError", err)
	}
	if err := f.svc.VerifyPasscode(ctx, id, "8888", "client-b"); err != nil {
		t.Errorf("client-b blocked by client-a's lock: %v", err)
	}
}

func TestVerifyPasscode_Misconfigured(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	// Private result with no passcode digest.
	id := f.seedResult(t, "1234")
	if err := f.store.UpdateProtection(ctx, id, models.VisibilityPrivate, ""); err != nil {
		t.Fatalf("UpdateProtection failed: %v", err)
	}

	if err := f.svc.VerifyPasscode(ctx, id, "1234", "client-a"); !errors.Is(err, ErrMisconfigured) {
		t.Errorf("err = %v, want ErrMisconfigured", err)
	}
}

func TestVerifyPasscode_WindowExpiryRestartsCount(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	id := f.seedResult(t, "8888")

	for i := 0; i < ratelimit.MaxAttempts-1; i++ {
		_ = f.svc.VerifyPasscode(ctx, id, "0000", "client-a")
	}

	f.clock.Advance(ratelimit.ResetWindow)

	// This would be the locking 5th failure inside the window, but the
	// window lapsed: count restarts at 1.
	if err := f.svc.VerifyPasscode(ctx, id, "0000", "client-a"); !errors.Is(err, ErrIncorrectPasscode) {
		t.Fatalf("err = %v, want ErrIncorrectPasscode", err)
	}
	record, err := f.attempts.GetAttempt(ctx, id, "client-a")
	if err != nil {
		t.Fatalf("GetAttempt failed: %v", err)
	}
	if record.FailedCount != 1 {
		t.Errorf("failedCount = %d, want 1 after window expiry", record.FailedCount)
	}
}
