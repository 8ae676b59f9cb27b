package generic

import (
	"time"
)

// =============================================================================
// DATES - Calendar days in UTC
// =============================================================================

// NewDate returns midnight UTC of the given day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar day, keeping the wall-clock date.
func DateOf(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DaysBetween returns the number of whole calendar days from 'from' to 'to'.
// Negative when 'to' is before 'from'.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// =============================================================================
// CLOCK - Injected "today" for the 3-week rule and date fallbacks
// =============================================================================

// Clock supplies the evaluation instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used in tests and for
// reproducible report runs.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns the clock's current calendar day.
func Today(c Clock) time.Time {
	if c == nil {
		c = SystemClock{}
	}
	return DateOf(c.Now())
}
