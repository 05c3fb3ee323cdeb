package models

import (
	"slices"

	"github.com/mmynk/forkthebill/internal/money"
)

// Item represents a single line item on an expense.
type Item struct {
	// ID is the unique identifier for the item within its expense (UUID format).
	ID string

	// Name is the line description printed on the receipt (e.g., "Burger").
	Name string

	// Price is the total price of the line. When the line stands for several units
	// this is the price of all of them.
	Price money.Money

	// Quantity is how many units this line represents (1 for expanded receipt lines).
	Quantity int

	// TotalQuantity is how many units the original receipt line had.
	// Informational only; it never affects the split.
	TotalQuantity int

	// ClaimedBy is the set of person IDs sharing this item, in claim order.
	// It is the single stored side of the claim relation.
	ClaimedBy []string
}

// IsClaimedBy reports whether personID is among the item's claimants.
func (i *Item) IsClaimedBy(personID string) bool {
	return slices.Contains(i.ClaimedBy, personID)
}

// addClaimant adds personID unless already present.
func (i *Item) addClaimant(personID string) bool {
	if i.IsClaimedBy(personID) {
		return false
	}
	i.ClaimedBy = append(i.ClaimedBy, personID)
	return true
}

// removeClaimant drops personID if present.
func (i *Item) removeClaimant(personID string) bool {
	idx := slices.Index(i.ClaimedBy, personID)
	if idx < 0 {
		return false
	}
	i.ClaimedBy = slices.Delete(i.ClaimedBy, idx, idx+1)
	return true
}
