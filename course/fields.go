package course

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/training-report/generic"
)

// =============================================================================
// FIELD PARSERS - Never fail, degrade to zero
// =============================================================================

// currencySuffix is stripped from money cells ("1,000,000원").
const currencySuffix = "원"

var blankValues = map[string]bool{"": true, "-": true, "N/A": true, "n/a": true, "NA": true}

// ParseNumber converts a loosely formatted number to float64. Thousands
// separators, whitespace, "%" and a trailing currency unit are stripped.
// Blank markers and unparsable input return 0.
func ParseNumber(value string) float64 {
	s := strings.TrimSpace(value)
	if blankValues[s] {
		return 0
	}
	return parseFloat(cleanNumber(s))
}

// ParsePercentage is ParseNumber for rate cells; only "%" is stripped.
func ParsePercentage(value string) float64 {
	s := strings.TrimSpace(value)
	if blankValues[s] {
		return 0
	}
	return parseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")))
}

var numberNoise = strings.NewReplacer(",", "", "%", "", " ", "", "\t", "", "\u00a0", "")

// cleanNumber strips separators, whitespace, "%" and the currency unit.
func cleanNumber(s string) string {
	return strings.TrimSuffix(numberNoise.Replace(s), currencySuffix)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// =============================================================================
// PAREN-ENCODED COUNTS - "120(30)"
// =============================================================================

// Count is a head count that may carry a parenthetical carried-over figure.
// "120(30)" means 120 in the current period plus 30 carried over.
type Count struct {
	Value         int
	Display       string
	Parenthetical *int
}

var parenCount = regexp.MustCompile(`^(\d+)\s*\(\s*(\d+)\s*\)$`)

// ParseCountWithParenthetical recognises "x(y)". Anything else is parsed
// with ParseNumber and has no parenthetical.
func ParseCountWithParenthetical(value string) Count {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if m := parenCount.FindStringSubmatch(s); m != nil {
		v, _ := strconv.Atoi(m[1])
		p, _ := strconv.Atoi(m[2])
		return Count{Value: v, Display: m[1] + "(" + m[2] + ")", Parenthetical: &p}
	}
	v := int(math.Round(ParseNumber(value)))
	return Count{Value: v, Display: strconv.Itoa(v)}
}

// =============================================================================
// DATES
// =============================================================================

var ErrUnparsableDate = errors.New("unparsable date")

// dateLayouts are tried in order. Go's "1"/"2" verbs accept one or two digits.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"20060102",
}

// ParseDate accepts YYYY-MM-DD, YYYY/MM/DD, YYYY.MM.DD and ISO timestamps.
// The result is the calendar day at midnight UTC.
func ParseDate(value string) (time.Time, error) {
	s := strings.TrimSuffix(strings.TrimSpace(value), ".")
	if s == "" {
		return time.Time{}, ErrUnparsableDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrUnparsableDate
}

// ParseDateOr is ParseDate with a fallback for unparsable input. The bool
// result is false when the fallback was used.
func ParseDateOr(value string, fallback time.Time) (time.Time, bool) {
	t, err := ParseDate(value)
	if err != nil {
		return fallback, false
	}
	return t, true
}

// =============================================================================
// MONEY
// =============================================================================

// ParseAmount parses a money cell with ParseNumber's tolerance but keeps
// decimal precision. Unparsable input is zero.
func ParseAmount(value string) generic.Amount {
	s := strings.TrimSpace(value)
	if blankValues[s] {
		return generic.Zero
	}
	d, err := decimal.NewFromString(cleanNumber(s))
	if err != nil {
		return generic.Zero
	}
	return generic.AmountOf(d)
}
