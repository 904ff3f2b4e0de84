package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/owoa/splitbill/internal/ai"
	"github.com/owoa/splitbill/internal/auth"
	"github.com/owoa/splitbill/internal/calculator"
	"github.com/owoa/splitbill/internal/models"
	"github.com/owoa/splitbill/internal/storage"
)

// ResultService handles split-result creation, retrieval and editing.
type ResultService struct {
	store  storage.ResultStore
	parser ai.ReceiptParser
}

// NewResultService creates a ResultService over the given store and
// receipt parser.
func NewResultService(store storage.ResultStore, parser ai.ReceiptParser) *ResultService {
	return &ResultService{store: store, parser: parser}
}

// CreateFromReceipt runs the AI extraction for an uploaded receipt and
// persists the result. The AI-produced split is stored twice: once as the
// editable result_data and once as the immutable original snapshot.
func (s *ResultService) CreateFromReceipt(ctx context.Context, req ai.ParseRequest, currency string) (*models.SplitResult, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: receipt image is required", ErrInvalidInput)
	}
	if req.PeopleCount < 1 {
		return nil, fmt.Errorf("%w: peopleCount must be at least 1", ErrInvalidInput)
	}

	data, err := s.parser.ParseReceipt(ctx, req)
	if err != nil {
		return nil, err
	}

	if currency == "" {
		currency = "IDR"
	}
	result := &models.SplitResult{
		ResultData:         data,
		OriginalResultData: data,
		Currency:           currency,
		Visibility:         models.VisibilityPublic,
	}
	if err := s.store.CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist result: %w", err)
	}

	slog.Info("split result created",
		"result_id", result.ID, "people", len(data.People))
	return result, nil
}

// GetResult loads a result by ID for the share page.
func (s *ResultService) GetResult(ctx context.Context, id string) (*models.SplitResult, error) {
	if err := validateResultID(id); err != nil {
		return nil, err
	}

	result, err := s.store.GetResult(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	return result, nil
}

// UpdateResult validates a hand-edited people list, recomputes totals with
// proportional fee allocation, and persists the new result_data. The
// original AI snapshot is never mutated.
func (s *ResultService) UpdateResult(ctx context.Context, id string, people []models.Person, totalTax, totalServiceFee float64) (models.ResultData, error) {
	if err := validateResultID(id); err != nil {
		return models.ResultData{}, err
	}
	if err := validatePeople(people); err != nil {
		return models.ResultData{}, err
	}
	if totalTax < 0 || totalServiceFee < 0 {
		return models.ResultData{}, fmt.Errorf("%w: fee totals must be non-negative", ErrInvalidInput)
	}

	data := calculator.RecalculateProportional(people, totalTax, totalServiceFee)

	if err := s.store.UpdateResultData(ctx, id, data); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.ResultData{}, ErrResultNotFound
		}
		return models.ResultData{}, fmt.Errorf("failed to save changes: %w", err)
	}

	slog.Info("split result edited", "result_id", id, "people", len(people))
	return data, nil
}

// SetProtection changes a result's visibility. Making a result private
// requires a passcode, stored only as a bcrypt digest; making it public
// clears the digest.
func (s *ResultService) SetProtection(ctx context.Context, id, visibility, passcode string) error {
	if err := validateResultID(id); err != nil {
		return err
	}

	var digest string
	switch visibility {
	case models.VisibilityPublic:
		// Passcode cleared below.
	case models.VisibilityPrivate:
		if err := auth.ValidatePasscode(passcode); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		var err error
		digest, err = auth.HashPasscode(strings.TrimSpace(passcode))
		if err != nil {
			return fmt.Errorf("failed to hash passcode: %w", err)
		}
	default:
		return fmt.Errorf("%w: visibility must be public or private", ErrInvalidInput)
	}

	if err := s.store.UpdateProtection(ctx, id, visibility, digest); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrResultNotFound
		}
		return fmt.Errorf("failed to update protection: %w", err)
	}

	slog.Info("result protection updated", "result_id", id, "visibility", visibility)
	return nil
}

// validatePeople enforces the edit-form constraints: non-empty names,
// non-negative prices, positive quantities.
func validatePeople(people []models.Person) error {
	if len(people) == 0 {
		return fmt.Errorf("%w: at least one person is required", ErrInvalidInput)
	}
	for _, person := range people {
		if strings.TrimSpace(person.Name) == "" {
			return fmt.Errorf("%w: each person must have a name", ErrInvalidInput)
		}
		items := make([]models.BillItem, 0, len(person.FoodItems)+len(person.DrinkItems))
		items = append(items, person.FoodItems...)
		items = append(items, person.DrinkItems...)
		for _, item := range items {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("%w: item names cannot be empty", ErrInvalidInput)
			}
			if item.Price < 0 {
				return fmt.Errorf("%w: item prices must be non-negative", ErrInvalidInput)
			}
			if item.Quantity < 0 {
				return fmt.Errorf("%w: item quantities must be positive", ErrInvalidInput)
			}
		}
	}
	return nil
}
