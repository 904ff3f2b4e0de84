package auth

import (
	"strings"
	"testing"
)

func TestValidatePasscode(t *testing.T) {
	tests := []struct {
		name     string
		passcode string
		wantErr  error
	}{
		{name: "valid short passcode", passcode: "1234", wantErr: nil},
		{name: "valid max length", passcode: "12345678", wantErr: nil},
		{name: "empty", passcode: "", wantErr: ErrEmptyPasscode},
		{name: "whitespace only", passcode: "   ", wantErr: ErrEmptyPasscode},
		{name: "too long", passcode: "123456789", wantErr: ErrPasscodeTooLong},
		{name: "way too long", passcode: strings.Repeat("x", 100), wantErr: ErrPasscodeTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePasscode(tt.passcode); err != tt.wantErr {
				t.Errorf("ValidatePasscode(%q) = %v, want %v", tt.passcode, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndVerifyPasscode(t *testing.T) {
	digest, err := HashPasscode("8888")
	if err != nil {
		t.Fatalf("HashPasscode failed: %v", err)
	}
	if digest == "8888" {
		t.Fatal("digest must not equal the plaintext")
	}

	if !VerifyPasscode("8888", digest) {
		t.Error("correct passcode did not verify")
	}
	if VerifyPasscode("0000", digest) {
		t.Error("wrong passcode verified")
	}
	if VerifyPasscode("8888", "not-a-bcrypt-digest") {
		t.Error("malformed digest verified")
	}
}

func TestHashPasscode_DistinctSalts(t *testing.T) {
	a, err := HashPasscode("1234")
	if err != nil {
		t.Fatalf("HashPasscode failed: %v", err)
	}
	b, err := HashPasscode("1234")
	if err != nil {
		t.Fatalf("HashPasscode failed: %v", err)
	}
	if a == b {
		t.Error("two digests of the same passcode share a salt")
	}
}
