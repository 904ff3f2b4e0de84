package calculator

import (
	"math"
	"testing"

	"github.com/owoa/splitbill/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestItemsTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []models.BillItem
		want  float64
	}{
		{
			name:  "empty list",
			items: nil,
			want:  0,
		},
		{
			name: "missing quantity defaults to one",
			items: []models.BillItem{
				{Name: "Nasi Goreng", Price: 45000},
				{Name: "Es Teh", Price: 8000},
			},
			want: 53000,
		},
		{
			name: "quantities multiply",
			items: []models.BillItem{
				{Name: "Satay", Price: 30000, Quantity: 2},
				{Name: "Rice", Price: 10000, Quantity: 3},
			},
			want: 90000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemsTotal(tt.items); !almostEqual(got, tt.want) {
				t.Errorf("ItemsTotal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecalculatePerson(t *testing.T) {
	person := models.Person{
		Name: "Alice",
		FoodItems: []models.BillItem{
			{Name: "Pizza", Price: 100000},
		},
		DrinkItems: []models.BillItem{
			{Name: "Juice", Price: 25000, Quantity: 2},
		},
	}
	fees := models.FeeConfig{TaxPercentage: 10, ServicePercentage: 5}

	got := RecalculatePerson(person, fees)

	if !almostEqual(got.Subtotal, 150000) {
		t.Errorf("subtotal = %v, want 150000", got.Subtotal)
	}
	if !almostEqual(got.Tax, 15000) {
		t.Errorf("tax = %v, want 15000", got.Tax)
	}
	if !almostEqual(got.ServiceFee, 7500) {
		t.Errorf("serviceFee = %v, want 7500", got.ServiceFee)
	}
	if !almostEqual(got.Total, 172500) {
		t.Errorf("total = %v, want 172500", got.Total)
	}
	if !almostEqual(got.Total, got.Subtotal+got.Tax+got.ServiceFee) {
		t.Errorf("total %v != subtotal+tax+serviceFee", got.Total)
	}
}

func TestRecalculateProportional(t *testing.T) {
	people := []models.Person{
		{
			Name: "Alice",
			FoodItems: []models.BillItem{
				{Name: "Steak", Price: 200000},
			},
		},
		{
			Name: "Bob",
			DrinkItems: []models.BillItem{
				{Name: "Mocktail", Price: 50000},
			},
		},
	}

	result := RecalculateProportional(people, 25000, 12500)

	alice := result.People[0]
	if !almostEqual(alice.Subtotal, 200000) {
		t.Errorf("Alice subtotal = %v, want 200000", alice.Subtotal)
	}
	if !almostEqual(alice.Tax, 20000) {
		t.Errorf("Alice tax = %v, want 20000", alice.Tax)
	}
	if !almostEqual(alice.ServiceFee, 10000) {
		t.Errorf("Alice serviceFee = %v, want 10000", alice.ServiceFee)
	}
	if !almostEqual(alice.Total, 230000) {
		t.Errorf("Alice total = %v, want 230000", alice.Total)
	}

	bob := result.People[1]
	if !almostEqual(bob.Tax, 5000) {
		t.Errorf("Bob tax = %v, want 5000", bob.Tax)
	}
	if !almostEqual(bob.ServiceFee, 2500) {
		t.Errorf("Bob serviceFee = %v, want 2500", bob.ServiceFee)
	}
	if !almostEqual(bob.Total, 57500) {
		t.Errorf("Bob total = %v, want 57500", bob.Total)
	}

	if !almostEqual(result.GrandTotal, 287500) {
		t.Errorf("grandTotal = %v, want 287500", result.GrandTotal)
	}
}

func TestRecalculateProportional_NoPeople(t *testing.T) {
	result := RecalculateProportional(nil, 100, 50)

	if len(result.People) != 0 {
		t.Errorf("expected no people, got %d", len(result.People))
	}
	if result.GrandTotal != 0 {
		t.Errorf("grandTotal = %v, want 0", result.GrandTotal)
	}
}

func TestRecalculateProportional_ZeroSubtotal(t *testing.T) {
	// People with no items: every proportion must resolve to 0 rather
	// than dividing by zero.
	people := []models.Person{
		{Name: "Alice"},
		{Name: "Bob"},
	}

	result := RecalculateProportional(people, 100, 50)

	for _, p := range result.People {
		if p.Tax != 0 || p.ServiceFee != 0 || p.Total != 0 {
			t.Errorf("%s: expected all-zero totals, got tax=%v fee=%v total=%v",
				p.Name, p.Tax, p.ServiceFee, p.Total)
		}
	}
	if result.GrandTotal != 0 {
		t.Errorf("grandTotal = %v, want 0", result.GrandTotal)
	}
}

func TestRecalculateProportional_StableOrder(t *testing.T) {
	people := []models.Person{
		{Name: "A", FoodItems: []models.BillItem{{Name: "x", Price: 0.1}}},
		{Name: "B", FoodItems: []models.BillItem{{Name: "y", Price: 0.2}}},
		{Name: "C", FoodItems: []models.BillItem{{Name: "z", Price: 0.3}}},
	}

	first := RecalculateProportional(people, 0.07, 0.03)
	second := RecalculateProportional(people, 0.07, 0.03)

	if first.GrandTotal != second.GrandTotal {
		t.Errorf("grand totals differ across identical runs: %v vs %v",
			first.GrandTotal, second.GrandTotal)
	}
	for i := range first.People {
		if first.People[i].Total != second.People[i].Total {
			t.Errorf("person %d total differs across identical runs", i)
		}
	}
}

func TestHasEditedItems(t *testing.T) {
	person := models.Person{
		Name: "Alice",
		FoodItems: []models.BillItem{
			{Name: "Pizza", Price: 10},
		},
	}
	if HasEditedItems(person) {
		t.Error("expected no edited items")
	}

	person.DrinkItems = []models.BillItem{
		{Name: "Cola", Price: 5, IsEdited: true},
	}
	if !HasEditedItems(person) {
		t.Error("expected edited items to be detected")
	}
}
