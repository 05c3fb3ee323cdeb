// Package storagetest holds the behavior every storage.Store backend must share.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/forkthebill/internal/models"
	"github.com/mmynk/forkthebill/internal/money"
	"github.com/mmynk/forkthebill/internal/storage"
)

// NewExpense builds a claimed two-person expense with unique id and slug.
func NewExpense() *models.Expense {
	id := uuid.NewString()
	e := &models.Expense{
		ID:             id,
		Slug:           "test-" + id[:8],
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
		PayerName:      "Alice",
		RestaurantName: "Test Diner",
		Subtotal:       money.MustParse("50.00"),
		Tax:            money.Ptr(money.MustParse("5.00")),
		Discount:       money.Ptr(money.MustParse("2.50")),
		TotalAmount:    money.MustParse("52.50"),
		Items: []models.Item{
			{ID: "steak", Name: "Steak", Price: money.MustParse("30.00"), Quantity: 1, TotalQuantity: 1},
			{ID: "salad", Name: "Salad", Price: money.MustParse("20.00"), Quantity: 1, TotalQuantity: 2},
		},
		People: []models.Person{
			{ID: "alice", Name: "Alice"},
			{ID: "bob", Name: "Bob", Finished: true},
		},
	}
	_ = e.Claim("steak", "alice")
	_ = e.Claim("salad", "bob")
	_ = e.Claim("salad", "alice")
	return e
}

// Run exercises store against the shared contract. The caller owns and closes it.
func Run(t *testing.T, store storage.Store) {
	ctx := context.Background()

	t.Run("SaveExpense then GetExpenseBySlug round-trips the aggregate", func(t *testing.T) {
		original := NewExpense()
		if err := store.SaveExpense(ctx, original); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}

		retrieved, err := store.GetExpenseBySlug(ctx, original.Slug)
		if err != nil {
			t.Fatalf("GetExpenseBySlug failed: %v", err)
		}
		AssertSameExpense(t, original, retrieved)
	})

	t.Run("GetExpense finds by id", func(t *testing.T) {
		original := NewExpense()
		if err := store.SaveExpense(ctx, original); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}

		retrieved, err := store.GetExpense(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if retrieved.Slug != original.Slug {
			t.Errorf("Slug mismatch: got %s, want %s", retrieved.Slug, original.Slug)
		}
	})

	t.Run("SaveExpense twice updates in place", func(t *testing.T) {
		e := NewExpense()
		if err := store.SaveExpense(ctx, e); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}

		if err := e.Unclaim("salad", "alice"); err != nil {
			t.Fatalf("Unclaim failed: %v", err)
		}
		e.PayerName = "Bob"
		e.ServiceCharge = money.Ptr(money.MustParse("4.00"))
		e.Items = append(e.Items, models.Item{ID: "soda", Name: "Soda", Price: money.MustParse("3.00"), Quantity: 1, TotalQuantity: 1})
		if err := e.AddPerson(models.Person{ID: "carol", Name: "Carol"}); err != nil {
			t.Fatalf("AddPerson failed: %v", err)
		}
		if err := store.SaveExpense(ctx, e); err != nil {
			t.Fatalf("second SaveExpense failed: %v", err)
		}

		retrieved, err := store.GetExpenseBySlug(ctx, e.Slug)
		if err != nil {
			t.Fatalf("GetExpenseBySlug failed: %v", err)
		}
		AssertSameExpense(t, e, retrieved)
	})

	t.Run("optional charges stay absent", func(t *testing.T) {
		e := NewExpense()
		e.Tax = nil
		e.Discount = nil
		if err := store.SaveExpense(ctx, e); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}

		retrieved, err := store.GetExpenseBySlug(ctx, e.Slug)
		if err != nil {
			t.Fatalf("GetExpenseBySlug failed: %v", err)
		}
		if retrieved.Tax != nil || retrieved.ServiceCharge != nil || retrieved.Discount != nil {
			t.Errorf("expected absent charges, got tax=%v service=%v discount=%v",
				retrieved.Tax, retrieved.ServiceCharge, retrieved.Discount)
		}
	})

	t.Run("GetExpenseBySlug returns ErrNotFound for unknown slug", func(t *testing.T) {
		_, err := store.GetExpenseBySlug(ctx, "no-such-slug")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ExistsBySlug", func(t *testing.T) {
		e := NewExpense()
		exists, err := store.ExistsBySlug(ctx, e.Slug)
		if err != nil {
			t.Fatalf("ExistsBySlug failed: %v", err)
		}
		if exists {
			t.Error("slug should not exist before save")
		}

		if err := store.SaveExpense(ctx, e); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}
		exists, err = store.ExistsBySlug(ctx, e.Slug)
		if err != nil {
			t.Fatalf("ExistsBySlug failed: %v", err)
		}
		if !exists {
			t.Error("slug should exist after save")
		}
	})

	t.Run("duplicate slug is rejected", func(t *testing.T) {
		first := NewExpense()
		if err := store.SaveExpense(ctx, first); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}
		second := NewExpense()
		second.Slug = first.Slug
		if err := store.SaveExpense(ctx, second); err == nil {
			t.Error("expected error for duplicate slug")
		}
	})
}

// AssertSameExpense compares everything a round-trip through storage must preserve.
func AssertSameExpense(t *testing.T, want, got *models.Expense) {
	t.Helper()

	if got.ID != want.ID || got.Slug != want.Slug {
		t.Errorf("identity mismatch: got %s/%s, want %s/%s", got.ID, got.Slug, want.ID, want.Slug)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if got.PayerName != want.PayerName || got.RestaurantName != want.RestaurantName {
		t.Errorf("names mismatch: got %q/%q, want %q/%q", got.PayerName, got.RestaurantName, want.PayerName, want.RestaurantName)
	}
	assertAmount(t, "subtotal", got.Subtotal, want.Subtotal)
	assertAmount(t, "total", got.TotalAmount, want.TotalAmount)
	assertOptional(t, "tax", got.Tax, want.Tax)
	assertOptional(t, "service charge", got.ServiceCharge, want.ServiceCharge)
	assertOptional(t, "discount", got.Discount, want.Discount)

	if len(got.Items) != len(want.Items) {
		t.Fatalf("Items count mismatch: got %d, want %d", len(got.Items), len(want.Items))
	}
	for i := range want.Items {
		g, w := got.Items[i], want.Items[i]
		if g.ID != w.ID || g.Name != w.Name || g.Quantity != w.Quantity || g.TotalQuantity != w.TotalQuantity {
			t.Errorf("item %d mismatch: got %+v, want %+v", i, g, w)
		}
		assertAmount(t, "item price", g.Price, w.Price)
		if len(g.ClaimedBy) != len(w.ClaimedBy) {
			t.Errorf("item %s claims mismatch: got %v, want %v", w.ID, g.ClaimedBy, w.ClaimedBy)
			continue
		}
		for j := range w.ClaimedBy {
			if g.ClaimedBy[j] != w.ClaimedBy[j] {
				t.Errorf("item %s claim order mismatch: got %v, want %v", w.ID, g.ClaimedBy, w.ClaimedBy)
				break
			}
		}
	}

	if len(got.People) != len(want.People) {
		t.Fatalf("People count mismatch: got %d, want %d", len(got.People), len(want.People))
	}
	for i := range want.People {
		g, w := got.People[i], want.People[i]
		if g.ID != w.ID || g.Name != w.Name || g.Finished != w.Finished {
			t.Errorf("person %d mismatch: got %s/%s/%v, want %s/%s/%v", i, g.ID, g.Name, g.Finished, w.ID, w.Name, w.Finished)
		}
		assertAmount(t, w.Name+" subtotal", g.Subtotal, w.Subtotal)
		assertAmount(t, w.Name+" tax share", g.TaxShare, w.TaxShare)
		assertAmount(t, w.Name+" service share", g.ServiceChargeShare, w.ServiceChargeShare)
		assertAmount(t, w.Name+" discount share", g.DiscountShare, w.DiscountShare)
		assertAmount(t, w.Name+" total owed", g.TotalOwed, w.TotalOwed)
	}
}

func assertAmount(t *testing.T, label string, got, want money.Money) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s mismatch: got %s, want %s", label, got, want)
	}
}

func assertOptional(t *testing.T, label string, got, want *money.Money) {
	t.Helper()
	if (got == nil) != (want == nil) {
		t.Errorf("%s presence mismatch: got %v, want %v", label, got, want)
		return
	}
	if got != nil {
		assertAmount(t, label, *got, *want)
	}
}
