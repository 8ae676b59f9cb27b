package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Closed date interval [Start, End]
// =============================================================================

// Period is an inclusive range of calendar days. A course run's delivery
// window and a calendar year are both periods.
type Period struct {
	Start time.Time
	End   time.Time
}

// Months returns the calendar months touched by the period, in order.
// An inverted period (End before Start) touches no months.
func (p Period) Months() []Month {
	if DateOf(p.End).Before(DateOf(p.Start)) {
		return nil
	}
	var months []Month
	current := MonthOf(p.Start)
	last := MonthOf(p.End)
	for !current.After(last) {
		months = append(months, current)
		current = current.Next()
	}
	return months
}

// MonthsIn returns the months of year that the period overlaps.
func (p Period) MonthsIn(year int) []Month {
	var months []Month
	for _, m := range p.Months() {
		if m.Year == year {
			months = append(months, m)
		}
	}
	return months
}

func (p Period) String() string {
	return "[" + p.Start.Format(time.DateOnly) + ", " + p.End.Format(time.DateOnly) + "]"
}

// =============================================================================
// MONTH - Calendar month bucket ("YYYY-MM")
// =============================================================================

type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month { return Month{Year: t.Year(), Month: t.Month()} }

// MonthsOfYear returns January through December of year.
func MonthsOfYear(year int) []Month {
	months := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, Month{Year: year, Month: m})
	}
	return months
}

func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

func (m Month) After(o Month) bool { return o.Before(m) }

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }
