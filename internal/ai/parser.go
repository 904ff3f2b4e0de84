// Package ai calls the external model that turns a receipt image into a
// proposed split. The rest of the service treats it as a black box behind
// the ReceiptParser interface.
package ai

import (
	"context"
	"errors"

	"github.com/owoa/splitbill/internal/models"
)

var (
	// ErrUnavailable means the AI provider could not be reached or
	// rejected the request; surfaced as a bad-gateway condition.
	ErrUnavailable = errors.New("ai provider request failed")

	// ErrBadResponse means the provider answered but not with a usable
	// split payload.
	ErrBadResponse = errors.New("invalid ai response format")
)

// ParseRequest describes one receipt to split.
type ParseRequest struct {
	// Image is the raw receipt image; MIMEType its content type.
	Image    []byte
	MIMEType string

	// PeopleCount is how many people the bill is split between.
	PeopleCount int

	// Instructions are free-form user hints ("Alice had the steak").
	Instructions string
}

// ReceiptParser produces a structured split from a receipt image.
type ReceiptParser interface {
	ParseReceipt(ctx context.Context, req ParseRequest) (models.ResultData, error)
}
