/*
Package generic provides the domain-agnostic primitives of the reporting engine.

PURPOSE:
  Money, dates, calendar periods and rate rounding are shared by every
  report. Keeping them here means the revenue, performance and report
  packages agree on precision and on what "a month" or "a year" is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A money value in won, backed by decimal.Decimal
  - Share:  A fraction in [0, 1] applied to an Amount

DESIGN PRINCIPLES:
  1. Precision: Revenue math uses decimal.Decimal, never float64
  2. Immutability: Amount methods return new values
  3. Rates are float64 percentages rounded to one decimal at the boundary

USAGE:
  revenue := generic.NewAmount(10_000_000)
  adjusted := revenue.Mul(decimal.RequireFromString("1.05"))

SEE ALSO:
  - time.go: Date helpers and clocks
  - period.go: Periods and calendar months
  - rate.go: Percentages and rounding
*/
package generic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Money in won
// =============================================================================

// Amount is a money value. The zero value is 0 won.
type Amount struct {
	Value decimal.Decimal
}

var Zero = Amount{}

func NewAmount(value float64) Amount      { return Amount{Value: decimal.NewFromFloat(value)} }
func NewAmountFromInt(value int64) Amount { return Amount{Value: decimal.NewFromInt(value)} }
func AmountOf(d decimal.Decimal) Amount   { return Amount{Value: d} }

// ParseAmount parses a plain decimal string, returning zero on failure.
// Formatted feed cells go through course.ParseAmount instead.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero
	}
	return Amount{Value: d}
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s)} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s)} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Float64() float64             { return a.Value.InexactFloat64() }
func (a Amount) String() string               { return a.Value.String() }

// Sum adds a list of amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// MarshalJSON renders the amount as a bare JSON number rounded to two places.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Value.Round(2).String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	if s == "" || s == "null" {
		*a = Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	a.Value = d
	return nil
}

// =============================================================================
// SHARE - Fraction of a course attributed to an institution
// =============================================================================

var (
	ShareNone    = decimal.Zero
	ShareFull    = decimal.NewFromInt(1)
	SharePartner = decimal.RequireFromString("0.9")
	ShareTrainer = decimal.RequireFromString("0.1")
)
