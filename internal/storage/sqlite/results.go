package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/owoa/splitbill/internal/models"
	"github.com/owoa/splitbill/internal/storage"
)

// CreateResult persists a new split result to the database.
func (s *SQLiteStore) CreateResult(ctx context.Context, result *models.SplitResult) error {
	// Generate ID and timestamps if not set
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.CreatedAt == 0 {
		result.CreatedAt = time.Now().UnixMilli()
	}
	if result.Visibility == "" {
		result.Visibility = models.VisibilityPublic
	}

	resultData, err := json.Marshal(result.ResultData)
	if err != nil {
		return fmt.Errorf("failed to encode result data: %w", err)
	}
	originalData, err := json.Marshal(result.OriginalResultData)
	if err != nil {
		return fmt.Errorf("failed to encode original result data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO split_bill_results
		    (id, result_data, original_result_data, currency, receipt_image_url,
		     visibility, passcode_hash, payment_instruction, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, string(resultData), string(originalData), result.Currency,
		result.ReceiptImageURL, result.Visibility,
		nullString(result.PasscodeHash), nullString(result.PaymentInstruction),
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

// GetResult retrieves a result by ID.
func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*models.SplitResult, error) {
	result := &models.SplitResult{}
	var resultData, originalData string
	var passcodeHash, paymentInstruction sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, result_data, original_result_data, currency, receipt_image_url,
		        visibility, passcode_hash, payment_instruction, created_at
		 FROM split_bill_results WHERE id = ?`,
		id,
	).Scan(&result.ID, &resultData, &originalData, &result.Currency,
		&result.ReceiptImageURL, &result.Visibility, &passcodeHash,
		&paymentInstruction, &result.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	if err := json.Unmarshal([]byte(resultData), &result.ResultData); err != nil {
		return nil, fmt.Errorf("failed to decode result data: %w", err)
	}
	if err := json.Unmarshal([]byte(originalData), &result.OriginalResultData); err != nil {
		return nil, fmt.Errorf("failed to decode original result data: %w", err)
	}
	result.PasscodeHash = passcodeHash.String
	result.PaymentInstruction = paymentInstruction.String

	return result, nil
}

// UpdateResultData replaces result_data for an existing result.
// original_result_data is immutable and deliberately not part of the
// UPDATE statement.
func (s *SQLiteStore) UpdateResultData(ctx context.Context, id string, data models.ResultData) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode result data: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE split_bill_results SET result_data = ? WHERE id = ?",
		string(encoded), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateProtection sets visibility and passcode digest for a result.
func (s *SQLiteStore) UpdateProtection(ctx context.Context, id, visibility, passcodeHash string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE split_bill_results SET visibility = ?, passcode_hash = ? WHERE id = ?",
		visibility, nullString(passcodeHash), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update protection: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// nullString maps empty strings to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
