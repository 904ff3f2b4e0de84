// Package calculator recomputes per-person totals after manual edits to a
// split result. All calculations are deterministic and happen server-side
// with no AI involvement.
package calculator

import (
	"github.com/owoa/splitbill/internal/models"
)

// ItemsTotal sums price × quantity over a list of items.
// A missing quantity counts as 1.
func ItemsTotal(items []models.BillItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Price * item.Units()
	}
	return sum
}

// RecalculatePerson recomputes one person's totals by applying percentage
// fees to their item subtotal.
func RecalculatePerson(person models.Person, fees models.FeeConfig) models.Person {
	subtotal := ItemsTotal(person.FoodItems) + ItemsTotal(person.DrinkItems)

	person.Subtotal = subtotal
	person.Tax = subtotal * (fees.TaxPercentage / 100)
	person.ServiceFee = subtotal * (fees.ServicePercentage / 100)
	person.Total = person.Subtotal + person.Tax + person.ServiceFee
	return person
}

// RecalculateProportional recomputes every person's totals, distributing
// the receipt's total tax and service fee proportionally to each person's
// share of the grand subtotal.
//
// People are processed in their given order so floating-point accumulation
// is reproducible for identical input. A zero grand subtotal (no people or
// all-empty bills) yields zero proportions rather than dividing by zero.
func RecalculateProportional(people []models.Person, totalTax, totalServiceFee float64) models.ResultData {
	updated := make([]models.Person, len(people))
	var grandSubtotal float64
	for i, person := range people {
		person.Subtotal = ItemsTotal(person.FoodItems) + ItemsTotal(person.DrinkItems)
		grandSubtotal += person.Subtotal
		updated[i] = person
	}

	var grandTotal float64
	for i := range updated {
		proportion := 0.0
		if grandSubtotal > 0 {
			proportion = updated[i].Subtotal / grandSubtotal
		}
		updated[i].Tax = totalTax * proportion
		updated[i].ServiceFee = totalServiceFee * proportion
		updated[i].Total = updated[i].Subtotal + updated[i].Tax + updated[i].ServiceFee
		grandTotal += updated[i].Total
	}

	return models.ResultData{People: updated, GrandTotal: grandTotal}
}

// HasEditedItems reports whether any of a person's items carry the edited
// flag.
func HasEditedItems(person models.Person) bool {
	for _, item := range person.FoodItems {
		if item.IsEdited {
			return true
		}
	}
	for _, item := range person.DrinkItems {
		if item.IsEdited {
			return true
		}
	}
	return false
}
