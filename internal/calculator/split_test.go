package calculator

import (
	"testing"

	"github.com/mmynk/forkthebill/internal/money"
)

func m(s string) money.Money { return money.MustParse(s) }

func mp(s string) *money.Money { return money.Ptr(money.MustParse(s)) }

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name         string
		items        []Item
		charges      Charges
		participants []string
		validateFunc func(t *testing.T, splits map[string]PersonSplit)
	}{
		{
			name: "sole claimant takes every share",
			items: []Item{
				{ID: "burger", Price: m("80.00"), ClaimedBy: []string{"alice"}},
			},
			charges:      Charges{Subtotal: m("80.00"), Tax: mp("10.00")},
			participants: []string{"alice"},
			validateFunc: func(t *testing.T, splits map[string]PersonSplit) {
				alice := splits["alice"]
				expectAmount(t, "alice subtotal", alice.Subtotal, "80.00")
				expectAmount(t, "alice tax", alice.TaxShare, "10.00")
				expectAmount(t, "alice total", alice.TotalOwed, "90.00")
			},
		},
		{
			name: "two claimants split evenly",
			items: []Item{
				{ID: "pizza", Price: m("50.00"), ClaimedBy: []string{"alice", "bob"}},
			},
			charges:      Charges{Subtotal: m("50.00")},
			participants: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, splits map[string]PersonSplit) {
				for _, p := range []string{"alice", "bob"} {
					expectAmount(t, p+" subtotal", splits[p].Subtotal, "25.00")
					expectAmount(t, p+" total", splits[p].TotalOwed, "25.00")
				}
			},
		},
		{
			name: "three claimants round each share half-up",
			items: []Item{
				{ID: "pizza", Price: m("50.00"), ClaimedBy: []string{"alice", "bob", "carol"}},
			},
			charges:      Charges{Subtotal: m("50.00")},
			participants: []string{"alice", "bob", "carol"},
			validateFunc: func(t *testing.T, splits map[string]PersonSplit) {
				sum := money.Zero()
				for _, p := range []string{"alice", "bob", "carol"} {
					expectAmount(t, p+" subtotal", splits[p].Subtotal, "16.67")
					sum = sum.Add(splits[p].Subtotal)
				}
				expectAmount(t, "sum of shares", sum, "50.01")
			},
		},
		{
			name: "all components apportioned by subtotal",
			items: []Item{
				{ID: "steak", Price: m("60.00"), ClaimedBy: []string{"alice"}},
				{ID: "salad", Price: m("20.00"), ClaimedBy: []string{"bob"}},
				{ID: "wine", Price: m("20.00"), ClaimedBy: []string{"alice", "bob"}},
			},
			charges: Charges{
				Subtotal:      m("100.00"),
				Tax:           mp("8.00"),
				ServiceCharge: mp("10.00"),
				Discount:      mp("5.00"),
			},
			participants: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, splits map[string]PersonSplit) {
				// alice: 70 -> ratio 0.7 -> tax 5.60, service 7.00, discount 3.50
				alice := splits["alice"]
				expectAmount(t, "alice subtotal", alice.Subtotal, "70.00")
				expectAmount(t, "alice tax", alice.TaxShare, "5.60")
				expectAmount(t, "alice service", alice.ServiceChargeShare, "7.00")
				expectAmount(t, "alice discount", alice.DiscountShare, "3.50")
				expectAmount(t, "alice total", alice.TotalOwed, "79.10")

				// bob: 30 -> ratio 0.3 -> tax 2.40, service 3.00, discount 1.50
				bob := splits["bob"]
				expectAmount(t, "bob subtotal", bob.Subtotal, "30.00")
				expectAmount(t, "bob total", bob.TotalOwed, "33.90")
			},
		},
		{
			name: "zero expense subtotal forces zero shares",
			items: []Item{
				{ID: "burger", Price: m("80.00"), ClaimedBy: []string{"alice"}},
			},
			charges: Charges{
				Subtotal:      m("0.00"),
				Tax:           mp("10.00"),
				ServiceCharge: mp("10.00"),
				Discount:      mp("5.00"),
			},
			participants: []string{"alice"},
			validateFunc: func(t *testing.T, splits map[string]PersonSplit) {
				alice := splits["alice"]
				expectAmount(t, "alice subtotal", alice.Subtotal, "80.00")
				expectAmount(t, "alice tax", alice.TaxShare, "0.00")
				expectAmount(t, "alice service", alice.ServiceChargeShare, "0.00")
				expectAmount(t, "alice discount", alice.DiscountShare, "0.00")
				expectAmount(t, "alice total", alice.TotalOwed, "80.00")
			},
		},
		{
			name: "participants without claims owe nothing",
			items: []Item{
				{ID: "burger", Price: m("80.00"), ClaimedBy: []string{"alice"}},
				{ID: "fries", Price: m("5.00")},
			},
			charges:      Charges{Subtotal: m("85.00"), Tax: mp("8.50")},
			participants: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, splits map[string]PersonSplit) {
				if len(splits) != 2 {
					t.Fatalf("expected 2 splits, got %d", len(splits))
				}
				bob := splits["bob"]
				expectAmount(t, "bob subtotal", bob.Subtotal, "0.00")
				expectAmount(t, "bob tax", bob.TaxShare, "0.00")
				expectAmount(t, "bob total", bob.TotalOwed, "0.00")
			},
		},
		{
			name: "unknown claimant still counts towards the split",
			items: []Item{
				{ID: "pizza", Price: m("30.00"), ClaimedBy: []string{"alice", "ghost"}},
			},
			charges:      Charges{Subtotal: m("30.00")},
			participants: []string{"alice"},
			validateFunc: func(t *testing.T, splits map[string]PersonSplit) {
				expectAmount(t, "alice subtotal", splits["alice"].Subtotal, "15.00")
				if _, ok := splits["ghost"]; ok {
					t.Error("unexpected split for non-participant")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits := CalculateSplit(tt.items, tt.charges, tt.participants)
			tt.validateFunc(t, splits)
		})
	}
}

func TestCalculateSplit_Idempotent(t *testing.T) {
	items := []Item{{ID: "a", Price: m("9.99"), ClaimedBy: []string{"x", "y", "z"}}}
	charges := Charges{Subtotal: m("9.99"), Tax: mp("1.00")}
	participants := []string{"x", "y", "z"}

	first := CalculateSplit(items, charges, participants)
	second := CalculateSplit(items, charges, participants)
	for _, p := range participants {
		if !first[p].TotalOwed.Equal(second[p].TotalOwed) {
			t.Errorf("%s total changed between runs: %s vs %s", p, first[p].TotalOwed, second[p].TotalOwed)
		}
	}
}

func expectAmount(t *testing.T, label string, got money.Money, want string) {
	t.Helper()
	if got.String() != want {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}
