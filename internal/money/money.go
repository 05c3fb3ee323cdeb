// Package money provides the fixed-point amount type used by every monetary field.
//
// Amounts are exact decimals. They are displayed with two fractional digits, and
// every division states its rounding: half-up to cents for shares, and half-up
// at RatioPrecision digits for intermediate ratios.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fractional digits used for display and for rounded shares.
	Scale = 2

	// RatioPrecision is the number of fractional digits kept for intermediate ratios.
	RatioPrecision = 10
)

// plainDecimal bounds accepted input to plain notation: at most 12 integer and
// RatioPrecision fractional digits, no exponent.
var plainDecimal = regexp.MustCompile(`^[+-]?(\d{1,12}(\.\d{0,10})?|\.\d{1,10})$`)

// Money is an exact decimal amount. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// Zero returns 0.00.
func Zero() Money {
	return Money{}
}

// FromCents builds an amount from an integer number of cents.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -Scale)}
}

// FromDecimal wraps a decimal without rounding it.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// Parse reads a plain decimal string such as "12.50". Surrounding whitespace is ignored
// and an empty string parses as zero. Exponents and oversized values are rejected.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero(), nil
	}
	if !plainDecimal.MatchString(s) {
		return Money{}, fmt.Errorf("invalid amount %q: want a plain decimal with at most 12 integer digits", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParse is Parse for constants and tests; it panics on malformed input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Abs() Money        { return Money{d: m.d.Abs()} }

// Cmp returns -1, 0 or +1 as m is less than, equal to, or greater than o.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Equal compares numerically, so 1.5 equals 1.50.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Round rounds half-up to cents.
func (m Money) Round() Money {
	return Money{d: m.d.Round(Scale)}
}

// Split divides the amount evenly among n parties and rounds each share half-up to cents.
// Shares are not corrected for drift: 50.00 split three ways is 16.67 each.
func (m Money) Split(n int) Money {
	if n <= 0 {
		return Zero()
	}
	return Money{d: m.d.DivRound(decimal.NewFromInt(int64(n)), Scale)}
}

// SplitCeil divides the amount among n units and rounds each unit up to the next cent.
func (m Money) SplitCeil(n int) Money {
	if n <= 0 {
		return Zero()
	}
	q := m.d.DivRound(decimal.NewFromInt(int64(n)), RatioPrecision)
	return Money{d: q.RoundCeil(Scale)}
}

// Ratio returns m / whole at RatioPrecision digits, half-up. A zero whole yields zero.
func (m Money) Ratio(whole Money) decimal.Decimal {
	if whole.d.IsZero() {
		return decimal.Zero
	}
	return m.d.DivRound(whole.d, RatioPrecision)
}

// Apportion returns m scaled by ratio, rounded half-up to cents.
func (m Money) Apportion(ratio decimal.Decimal) Money {
	return Money{d: m.d.Mul(ratio).Round(Scale)}
}

// String formats with exactly two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a quoted two-digit decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts quoted decimals ("12.50"), bare numbers (12.5), empty strings and null.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*m = Zero()
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		s = str
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores the amount as its decimal string.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// Scan reads amounts stored as text or numbers.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("failed to scan amount: %w", err)
	}
	m.d = d
	return nil
}

// Ptr returns a pointer to a copy of m, for optional fields.
func Ptr(m Money) *Money {
	return &m
}

// OrZero dereferences an optional amount.
func OrZero(m *Money) Money {
	if m == nil {
		return Zero()
	}
	return *m
}
