package calculator

import (
	"github.com/mmynk/forkthebill/internal/money"
)

// Item is the minimal view of a line item needed to split it.
type Item struct {
	ID        string
	Price     money.Money
	ClaimedBy []string // person IDs, no duplicates
}

// Charges are the expense-level amounts shared out in proportion to each person's subtotal.
// A nil component is absent and contributes nothing.
type Charges struct {
	Subtotal      money.Money
	Tax           *money.Money
	ServiceCharge *money.Money
	Discount      *money.Money
}

// PersonSplit represents the calculated amounts for one person.
type PersonSplit struct {
	Subtotal           money.Money
	TaxShare           money.Money
	ServiceChargeShare money.Money
	DiscountShare      money.Money
	TotalOwed          money.Money
}

// CalculateSplit computes what each participant owes.
//
// A person's subtotal is the sum of price/claimants over the items they claimed, each
// share rounded half-up to cents before summing. Tax, service charge and discount are
// apportioned by subtotal/expenseSubtotal; with a non-positive expense subtotal every
// share is zero. TotalOwed = subtotal + tax + service charge - discount.
//
// Every participant gets an entry, including those with no claims. Claimants that are
// not participants are counted when splitting an item but receive no entry.
func CalculateSplit(items []Item, charges Charges, participants []string) map[string]PersonSplit {
	subtotals := make(map[string]money.Money, len(participants))
	for _, p := range participants {
		subtotals[p] = money.Zero()
	}

	for _, item := range items {
		if len(item.ClaimedBy) == 0 {
			continue
		}
		share := item.Price.Split(len(item.ClaimedBy))
		for _, person := range item.ClaimedBy {
			if sub, ok := subtotals[person]; ok {
				subtotals[person] = sub.Add(share)
			}
		}
	}

	splits := make(map[string]PersonSplit, len(participants))
	for person, sub := range subtotals {
		split := PersonSplit{Subtotal: sub}

		if charges.Subtotal.IsPositive() {
			ratio := sub.Ratio(charges.Subtotal)
			if charges.Tax != nil {
				split.TaxShare = charges.Tax.Apportion(ratio)
			}
			if charges.ServiceCharge != nil {
				split.ServiceChargeShare = charges.ServiceCharge.Apportion(ratio)
			}
			if charges.Discount != nil {
				split.DiscountShare = charges.Discount.Apportion(ratio)
			}
		}

		split.TotalOwed = sub.
			Add(split.TaxShare).
			Add(split.ServiceChargeShare).
			Sub(split.DiscountShare)
		splits[person] = split
	}

	return splits
}
