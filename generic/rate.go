package generic

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent returns num/den*100 rounded to one decimal, or 0 when den is zero.
func Percent(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.Mul(hundred).Div(den).Round(1).InexactFloat64()
}

// PercentInt is Percent for integer counts.
func PercentInt(num, den int) float64 {
	return Percent(decimal.NewFromInt(int64(num)), decimal.NewFromInt(int64(den)))
}
