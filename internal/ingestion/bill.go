// Package ingestion turns a photo of a restaurant bill into structured expense input.
package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mmynk/forkthebill/internal/models"
	"github.com/mmynk/forkthebill/internal/money"
)

// Parser extracts a ParsedBill from an image.
type Parser interface {
	Parse(ctx context.Context, image []byte, mimeType string) (*ParsedBill, error)
}

// ParsedBill is the structured content of a bill image.
// Amounts the model could not read are zero.
type ParsedBill struct {
	Subtotal       money.Money  `json:"subtotal"`
	Tax            money.Money  `json:"tax"`
	ServiceCharge  money.Money  `json:"serviceCharge"`
	TotalAmount    money.Money  `json:"totalAmount"`
	RestaurantName string       `json:"restaurantName"`
	Date           string       `json:"date"`
	Items          []ParsedItem `json:"items"`
}

// ParsedItem is one line of the bill. Price covers the whole quantity.
type ParsedItem struct {
	Name     string      `json:"name"`
	Price    money.Money `json:"price"`
	Quantity Quantity    `json:"quantity"`
}

// UnmarshalJSON also accepts "tip" in place of "serviceCharge".
func (b *ParsedBill) UnmarshalJSON(data []byte) error {
	type plain ParsedBill
	var aux struct {
		plain
		Tip *money.Money `json:"tip"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = ParsedBill(aux.plain)
	if b.ServiceCharge.IsZero() && aux.Tip != nil {
		b.ServiceCharge = *aux.Tip
	}
	return nil
}

// MaxQuantity is the largest line count accepted from a bill. Each unit becomes its own item.
const MaxQuantity = 100

// Quantity is a line count that decodes from a number or a string and is never below 1.
type Quantity int

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 1
		return nil
	}

	s := strings.Trim(string(data), `"`)
	s = strings.TrimSpace(s)
	if s == "" {
		*q = 1
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %s: %w", data, err)
	}
	if math.IsNaN(f) || f > MaxQuantity {
		return fmt.Errorf("invalid quantity %s: must be at most %d", data, MaxQuantity)
	}
	f = math.Round(f)
	if f < 1 {
		f = 1
	}
	*q = Quantity(int(f))
	return nil
}

// Int returns the quantity, treating an unset value as 1.
func (q Quantity) Int() int {
	if q < 1 {
		return 1
	}
	return int(q)
}

// UnitItems expands every line of quantity N into N items at the unit price, rounded up
// to the cent. IDs are left empty. Each unit keeps TotalQuantity N so the original line
// can be recognised.
func (b *ParsedBill) UnitItems() []models.Item {
	var items []models.Item
	for _, line := range b.Items {
		n := line.Quantity.Int()
		unit := line.Price
		if n > 1 {
			unit = line.Price.SplitCeil(n)
		}
		name := strings.TrimSpace(line.Name)
		for range n {
			items = append(items, models.Item{
				Name:          name,
				Price:         unit,
				Quantity:      1,
				TotalQuantity: n,
			})
		}
	}
	return items
}
