package models

// Visibility values for a split result.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// BillItem represents a single line item extracted from a receipt.
type BillItem struct {
	// ID is an optional unique identifier for the item (UUID format).
	ID string `json:"id,omitempty"`

	// Name is the item description as it appears on the receipt.
	Name string `json:"name"`

	// Price is the unit price of the item.
	Price float64 `json:"price"`

	// Quantity is the number of units; zero means 1 (the receipt
	// listed the item without an explicit count).
	Quantity int `json:"quantity,omitempty"`

	// IsEdited marks an item that was changed by hand after the
	// original AI extraction.
	IsEdited bool `json:"isEdited,omitempty"`
}

// Units returns the effective quantity of the item, defaulting to 1.
func (i BillItem) Units() float64 {
	if i.Quantity > 0 {
		return float64(i.Quantity)
	}
	return 1
}

// Person represents one participant's share of the bill.
type Person struct {
	Name       string     `json:"name"`
	FoodItems  []BillItem `json:"foodItems"`
	DrinkItems []BillItem `json:"drinkItems"`
	Subtotal   float64    `json:"subtotal"`
	Tax        float64    `json:"tax"`
	ServiceFee float64    `json:"serviceFee"`
	Total      float64    `json:"total"`
}

// ResultData is the full computed split: every person plus the grand total.
// Invariant: each person's total = subtotal + tax + serviceFee, and
// grandTotal = sum of person totals.
type ResultData struct {
	People     []Person `json:"people"`
	GrandTotal float64  `json:"grandTotal"`
}

// FeeConfig holds percentage-based fee rates applied to a subtotal.
type FeeConfig struct {
	TaxPercentage     float64 `json:"taxPercentage"`
	ServicePercentage float64 `json:"servicePercentage"`
}

// SplitResult is a persisted, shareable split-bill result.
//
// ResultData holds the current (possibly hand-edited) split, while
// OriginalResultData is the AI-produced snapshot and is immutable once
// written. PasscodeHash is only set for private results and never leaves
// the server.
type SplitResult struct {
	ID                 string     `json:"id"`
	ResultData         ResultData `json:"result_data"`
	OriginalResultData ResultData `json:"original_result_data"`
	Currency           string     `json:"currency"`
	ReceiptImageURL    string     `json:"receipt_image_url"`
	Visibility         string     `json:"visibility"`
	PasscodeHash       string     `json:"-"`
	PaymentInstruction string     `json:"payment_instruction,omitempty"`

	// CreatedAt is the Unix timestamp (milliseconds) when the result
	// was created.
	CreatedAt int64 `json:"created_at"`
}

// IsPrivate reports whether the result requires a passcode to view.
func (r *SplitResult) IsPrivate() bool {
	return r.Visibility == VisibilityPrivate
}
