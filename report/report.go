/*
Package report rolls processed course runs up into institution, year and
month statistics.

PURPOSE:
  These are the figures the dashboard and the financial reports show.
  Every function is a pure transform of its input slice; records are
  never modified, and per-institution revenue lives in revenue.Attribution.

SCOPES:
  Year == AllYears (0) reports over the whole 2021-2026 window and shows
  plain counts. A specific year splits counts into "current(previous)":
  runs started in the year vs. runs started earlier and still ongoing.

STUDENT CREDIT:
  Student share is 0 or 1, so head counts stay integral. For a partnered
  run between different groups only the partner is credited with students.

SEE ALSO:
  - institution.go: InstitutionStats, CourseRows
  - yearly.go: YearlyStats
  - monthly.go: MonthlyStats with revenue proration
*/
package report

import (
	"strconv"
	"time"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/performance"
	"github.com/warp/training-report/revenue"
)

// AllYears reports across every revenue year.
const AllYears = revenue.AllYears

// Reporter produces statistics against one institution table and one
// evaluation day.
type Reporter struct {
	Engine *revenue.Engine

	// Today is the evaluation day for the 3-week rule.
	Today time.Time

	// EligibilityDays overrides the 21-day settling period when positive.
	EligibilityDays int
}

func NewReporter(engine *revenue.Engine, today time.Time) *Reporter {
	return &Reporter{Engine: engine, Today: generic.DateOf(today)}
}

func (r *Reporter) settlingDays() int {
	if r.EligibilityDays > 0 {
		return r.EligibilityDays
	}
	return performance.EligibilityDays
}

func (r *Reporter) eligible(rec *course.ProcessedRecord) bool {
	return performance.IsEligibleAfter(rec, r.Today, r.settlingDays())
}

func (r *Reporter) completionRate(records []course.ProcessedRecord, year int) float64 {
	return performance.CompletionRateAfter(records, year, r.Today, r.settlingDays())
}

// ValidateYear accepts AllYears or a year with a revenue column.
func ValidateYear(year int) error {
	if year == AllYears || course.IsRevenueYear(year) {
		return nil
	}
	return generic.ErrInvalidYear
}

// ratio renders "num/den" for rate detail columns.
func ratio(num, den int) string {
	return strconv.Itoa(num) + "/" + strconv.Itoa(den)
}
