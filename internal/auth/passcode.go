// Package auth provides passcode hashing and session token handling.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasscodeLength bounds passcodes when they are set. This is a product
// constraint that also keeps the bcrypt computation cheap, not a security
// control.
const MaxPasscodeLength = 8

// passcodeCost is the bcrypt work factor for passcode digests.
const passcodeCost = 10

var (
	ErrEmptyPasscode   = errors.New("passcode must not be empty")
	ErrPasscodeTooLong = fmt.Errorf("passcode must be at most %d characters", MaxPasscodeLength)
)

// ValidatePasscode checks a passcode being set against the product
// constraints. Verification of an existing passcode does not use this; an
// over-long guess can only ever fail the compare.
func ValidatePasscode(passcode string) error {
	passcode = strings.TrimSpace(passcode)
	if passcode == "" {
		return ErrEmptyPasscode
	}
	if len(passcode) > MaxPasscodeLength {
		return ErrPasscodeTooLong
	}
	return nil
}

// HashPasscode returns the bcrypt digest of a plaintext passcode.
// The plaintext is never logged or persisted.
func HashPasscode(passcode string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(passcode), passcodeCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passcode: %w", err)
	}
	return string(digest), nil
}

// VerifyPasscode reports whether the plaintext passcode matches the stored
// digest. The comparison is performed by bcrypt itself.
func VerifyPasscode(passcode, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(passcode)) == nil
}
