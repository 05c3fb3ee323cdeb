package ingestion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/forkthebill/internal/money"
)

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: `3`, want: 3},
		{input: `"2"`, want: 2},
		{input: `"1.0"`, want: 1},
		{input: `0`, want: 1},
		{input: `null`, want: 1},
		{input: `""`, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.input), &q))
			assert.Equal(t, tt.want, q.Int())
		})
	}

	var q Quantity
	assert.Error(t, json.Unmarshal([]byte(`"two"`), &q))
}

func TestParsedBill_MissingQuantityDefaultsToOne(t *testing.T) {
	var bill ParsedBill
	require.NoError(t, json.Unmarshal([]byte(`{"items": [{"name": "Tea", "price": "4.00"}]}`), &bill))
	require.Len(t, bill.Items, 1)
	assert.Equal(t, 1, bill.Items[0].Quantity.Int())
}

func TestParsedBill_ServiceChargeWinsOverTip(t *testing.T) {
	var bill ParsedBill
	require.NoError(t, json.Unmarshal([]byte(`{"serviceCharge": "4.00", "tip": "9.00"}`), &bill))
	assert.Equal(t, "4.00", bill.ServiceCharge.String())
}

func TestParsedBill_UnitItems(t *testing.T) {
	bill := ParsedBill{
		Items: []ParsedItem{
			{Name: " Beer ", Price: money.MustParse("10.00"), Quantity: 3},
			{Name: "Burger", Price: money.MustParse("12.50"), Quantity: 1},
			{Name: "Fries", Price: money.MustParse("8.00"), Quantity: 2},
		},
	}

	items := bill.UnitItems()
	require.Len(t, items, 6)

	for _, it := range items[:3] {
		assert.Equal(t, "Beer", it.Name)
		assert.Equal(t, "3.34", it.Price.String(), "unit price rounds up to the cent")
		assert.Equal(t, 1, it.Quantity)
		assert.Equal(t, 3, it.TotalQuantity)
		assert.Empty(t, it.ID)
	}
	assert.Equal(t, "12.50", items[3].Price.String())
	assert.Equal(t, 1, items[3].TotalQuantity)
	assert.Equal(t, "4.00", items[4].Price.String())
	assert.Equal(t, 2, items[5].TotalQuantity)
}

func TestParsedBill_RejectsExponentAmounts(t *testing.T) {
	for _, input := range []string{
		`{"items": [{"name": "Soup", "price": 1e50000000}]}`,
		`{"items": [{"name": "Soup", "price": "1e9"}]}`,
		`{"subtotal": "1E-400000", "items": []}`,
	} {
		var bill ParsedBill
		assert.Error(t, json.Unmarshal([]byte(input), &bill), input)
	}
}

func TestQuantity_RejectsOutOfRange(t *testing.T) {
	for _, input := range []string{`"1e9"`, `101`, `"NaN"`, `"Inf"`} {
		var q Quantity
		assert.Error(t, json.Unmarshal([]byte(input), &q), input)
	}

	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`100`), &q))
	assert.Equal(t, MaxQuantity, q.Int())
	require.NoError(t, json.Unmarshal([]byte(`"-Inf"`), &q))
	assert.Equal(t, 1, q.Int())
}
