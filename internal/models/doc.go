// Package models defines the core domain models for the split-bill service.
//
// # Models
//
//   - SplitResult: a persisted, shareable receipt split, optionally
//     protected by a passcode
//   - ResultData / Person / BillItem: the computed split payload
//   - AttemptRecord: per-(result, client) failed passcode attempt tracking
//
// # Design Principles
//
//  1. **Two snapshots**: SplitResult keeps the AI-produced split
//     (OriginalResultData) immutable alongside the editable ResultData, so
//     manual corrections never destroy the extraction they started from.
//  2. **No plaintext secrets**: only bcrypt digests of passcodes are ever
//     stored or passed around; PasscodeHash is excluded from JSON.
//  3. **Avoid circular references**: models hold IDs and plain values, not
//     pointers into each other.
package models
