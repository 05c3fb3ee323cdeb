package models

import "github.com/mmynk/forkthebill/internal/money"

// Person represents one participant of an expense.
// The monetary fields are computed by Expense.RecomputeAmounts; clients only seed them at creation.
type Person struct {
	// ID is the unique identifier for the person within its expense (UUID format).
	ID string

	// Name is the display name (e.g., "Alice").
	Name string

	// Subtotal is the sum of this person's shares of the items they claimed.
	Subtotal money.Money

	// TaxShare is this person's proportional share of the expense tax.
	TaxShare money.Money

	// ServiceChargeShare is this person's proportional share of the service charge or tip.
	ServiceChargeShare money.Money

	// DiscountShare is this person's proportional share of the discount.
	DiscountShare money.Money

	// TotalOwed is Subtotal + TaxShare + ServiceChargeShare - DiscountShare.
	TotalOwed money.Money

	// Finished marks that the person is done claiming. Claims are still allowed either way.
	Finished bool
}
