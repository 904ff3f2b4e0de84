package models

// AttemptRecord tracks failed passcode attempts for one
// (result, client) pair. At most one record exists per pair; it is
// created on the first failure, rewritten on each subsequent failure,
// and deleted when the client finally presents the correct passcode.
//
// All timestamps are Unix milliseconds.
type AttemptRecord struct {
	// ResultID identifies the protected split result.
	ResultID string

	// ClientKey is the pseudo-identity of the client making attempts,
	// either "user:<id>" or "hash:<sha256 of addr|user-agent>".
	ClientKey string

	// FailedCount is the number of failures since WindowStart.
	FailedCount int

	// WindowStart marks when the current failure-counting window began.
	WindowStart int64

	// LastAttemptAt is the time of the most recent failure.
	LastAttemptAt int64

	// LockedUntil is non-zero when the pair is locked out; attempts are
	// denied until this instant passes.
	LockedUntil int64
}
