package models

import (
	"time"

	"github.com/mmynk/forkthebill/internal/calculator"
	"github.com/mmynk/forkthebill/internal/money"
)

// Expense is the aggregate root for one shared bill.
type Expense struct {
	// ID is the system-generated identifier (UUID format).
	ID string

	// Slug is the unique human-shareable identifier (e.g., "bek-oru-tima").
	Slug string

	// CreatedAt is set once when the expense is created.
	CreatedAt time.Time

	// PayerName is the person who paid the bill.
	PayerName string

	// RestaurantName is optional.
	RestaurantName string

	// Subtotal is the pre-charge amount that shares are apportioned against.
	Subtotal money.Money

	// Tax, ServiceCharge and Discount are optional; nil means absent.
	Tax           *money.Money
	ServiceCharge *money.Money
	Discount      *money.Money

	// TotalAmount is the final amount printed on the bill.
	TotalAmount money.Money

	// Items are kept in receipt order.
	Items []Item

	// People are kept in the order they joined.
	People []Person
}

// FindItem returns the item with the given ID.
func (e *Expense) FindItem(itemID string) (*Item, error) {
	for i := range e.Items {
		if e.Items[i].ID == itemID {
			return &e.Items[i], nil
		}
	}
	return nil, NotFoundf("item not found with id: %s", itemID)
}

// FindPerson returns the person with the given ID.
func (e *Expense) FindPerson(personID string) (*Person, error) {
	for i := range e.People {
		if e.People[i].ID == personID {
			return &e.People[i], nil
		}
	}
	return nil, NotFoundf("person not found with id: %s", personID)
}

// ItemsClaimed returns the IDs of the items personID has claimed, in item order.
// It is the inverse of Item.ClaimedBy.
func (e *Expense) ItemsClaimed(personID string) []string {
	var ids []string
	for i := range e.Items {
		if e.Items[i].IsClaimedBy(personID) {
			ids = append(ids, e.Items[i].ID)
		}
	}
	return ids
}

// Claim records that personID shares itemID and recomputes all amounts.
// Claiming an item twice is a no-op.
func (e *Expense) Claim(itemID, personID string) error {
	item, err := e.FindItem(itemID)
	if err != nil {
		return err
	}
	if _, err := e.FindPerson(personID); err != nil {
		return err
	}

	item.addClaimant(personID)
	e.RecomputeAmounts()
	return nil
}

// Unclaim removes personID from itemID's claimants and recomputes all amounts.
// Unclaiming an unclaimed item is a no-op.
func (e *Expense) Unclaim(itemID, personID string) error {
	item, err := e.FindItem(itemID)
	if err != nil {
		return err
	}
	if _, err := e.FindPerson(personID); err != nil {
		return err
	}

	item.removeClaimant(personID)
	e.RecomputeAmounts()
	return nil
}

// SetFinished updates a person's status flag. Amounts are not recomputed.
func (e *Expense) SetFinished(personID string, finished bool) error {
	person, err := e.FindPerson(personID)
	if err != nil {
		return err
	}
	person.Finished = finished
	return nil
}

// AddPerson appends a participant. The person keeps whatever amounts it carries;
// the next recomputation overwrites them.
func (e *Expense) AddPerson(p Person) error {
	if p.ID == "" {
		return Validationf("person id is required")
	}
	if p.Name == "" {
		return Validationf("person name is required")
	}
	if _, err := e.FindPerson(p.ID); err == nil {
		return Validationf("person %s already belongs to this expense", p.ID)
	}
	e.People = append(e.People, p)
	return nil
}

// AddItem appends a line item with no claimants.
func (e *Expense) AddItem(item Item) error {
	if item.ID == "" {
		return Validationf("item id is required")
	}
	if _, err := e.FindItem(item.ID); err == nil {
		return Validationf("item %s already belongs to this expense", item.ID)
	}
	item.ClaimedBy = nil
	e.Items = append(e.Items, item)
	return nil
}

// MergeItems applies an item list from an update: an entry whose ID matches an existing
// item overwrites its name, price and quantities in place and keeps its claims; any other
// entry is appended under a fresh ID from newID. Existing items are never removed.
// Amounts are recomputed afterwards.
func (e *Expense) MergeItems(updates []Item, newID func() string) error {
	for _, u := range updates {
		if u.ID != "" {
			if existing, err := e.FindItem(u.ID); err == nil {
				existing.Name = u.Name
				existing.Price = u.Price
				existing.Quantity = u.Quantity
				existing.TotalQuantity = u.TotalQuantity
				continue
			}
		}
		u.ID = newID()
		if err := e.AddItem(u); err != nil {
			return err
		}
	}
	e.RecomputeAmounts()
	return nil
}

// Charges returns the expense-level amounts used to apportion shares.
func (e *Expense) Charges() calculator.Charges {
	return calculator.Charges{
		Subtotal:      e.Subtotal,
		Tax:           e.Tax,
		ServiceCharge: e.ServiceCharge,
		Discount:      e.Discount,
	}
}

// ExpectedTotal is subtotal + tax + service charge - discount, counting only present components.
func (e *Expense) ExpectedTotal() money.Money {
	return e.Subtotal.
		Add(money.OrZero(e.Tax)).
		Add(money.OrZero(e.ServiceCharge)).
		Sub(money.OrZero(e.Discount))
}

// RecomputeAmounts derives every person's amounts from the current claims.
// It has no failure modes and is safe to call repeatedly.
func (e *Expense) RecomputeAmounts() {
	items := make([]calculator.Item, len(e.Items))
	for i, item := range e.Items {
		items[i] = calculator.Item{
			ID:        item.ID,
			Price:     item.Price,
			ClaimedBy: item.ClaimedBy,
		}
	}

	participants := make([]string, len(e.People))
	for i, p := range e.People {
		participants[i] = p.ID
	}

	splits := calculator.CalculateSplit(items, e.Charges(), participants)
	for i := range e.People {
		split := splits[e.People[i].ID]
		e.People[i].Subtotal = split.Subtotal
		e.People[i].TaxShare = split.TaxShare
		e.People[i].ServiceChargeShare = split.ServiceChargeShare
		e.People[i].DiscountShare = split.DiscountShare
		e.People[i].TotalOwed = split.TotalOwed
	}
}
