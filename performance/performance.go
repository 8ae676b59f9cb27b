/*
Package performance computes completion, employment and satisfaction
figures for sets of course runs.

THE 3-WEEK RULE:
  Completion data for a run is not settled until three weeks after it
  ends. A run is eligible for completion-rate math only when its end
  date is at least EligibilityDays (21) days before the evaluation day.
  The rule applies everywhere a completion rate is computed.

EMPLOYMENT:
  The preferred employment figure is the 6-month count if reported, else
  the 3-month count, else the unscoped count. The three are never summed
  or averaged.

SATISFACTION:
  A satisfaction score of 0 means "not reported". Scores are averaged
  weighted by completed count over runs that report both.
*/
package performance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
)

// EligibilityDays is the settling period after a run ends.
const EligibilityDays = 21

// IsEligibleForCompletionRate applies the 3-week rule relative to today.
func IsEligibleForCompletionRate(rec *course.ProcessedRecord, today time.Time) bool {
	return IsEligibleAfter(rec, today, EligibilityDays)
}

// IsEligibleAfter is the 3-week rule with a configurable settling period.
func IsEligibleAfter(rec *course.ProcessedRecord, today time.Time, days int) bool {
	return generic.DaysBetween(rec.EndDate, today) >= days
}

// HasCompletionData reports whether a run has both completed and enrolled counts.
func HasCompletionData(rec *course.ProcessedRecord) bool {
	return rec.CompletedCount > 0 && rec.EnrollmentCount > 0
}

// CompletionRate returns sum(completed)/sum(enrolled)*100 over runs with
// completion data that pass the 3-week rule and, when year is non-zero,
// ended in year. Returns 0 when no run qualifies.
func CompletionRate(records []course.ProcessedRecord, year int, today time.Time) float64 {
	return CompletionRateAfter(records, year, today, EligibilityDays)
}

// CompletionRateAfter is CompletionRate with a configurable settling period.
func CompletionRateAfter(records []course.ProcessedRecord, year int, today time.Time, days int) float64 {
	var completed, enrolled int
	for i := range records {
		rec := &records[i]
		if !HasCompletionData(rec) {
			continue
		}
		if year != 0 && rec.EndYear() != year {
			continue
		}
		if !IsEligibleAfter(rec, today, days) {
			continue
		}
		completed += rec.CompletedCount
		enrolled += rec.EnrollmentCount
	}
	return generic.PercentInt(completed, enrolled)
}

// PreferredEmploymentCount picks the 6-month, then 3-month, then unscoped figure.
func PreferredEmploymentCount(rec *course.ProcessedRecord) int {
	switch {
	case rec.EmployedCount6Mo > 0:
		return rec.EmployedCount6Mo
	case rec.EmployedCount3Mo > 0:
		return rec.EmployedCount3Mo
	default:
		return rec.EmployedCount
	}
}

// EmploymentRate returns sum(preferred employment)/sum(completed)*100.
func EmploymentRate(records []course.ProcessedRecord) float64 {
	var employed, completed int
	for i := range records {
		employed += PreferredEmploymentCount(&records[i])
		completed += records[i].CompletedCount
	}
	return generic.PercentInt(employed, completed)
}

// WeightedSatisfaction averages satisfaction weighted by completed count.
func WeightedSatisfaction(records []course.ProcessedRecord) float64 {
	sum, weight := decimal.Zero, decimal.Zero
	for i := range records {
		rec := &records[i]
		if rec.SatisfactionScore <= 0 || rec.CompletedCount <= 0 {
			continue
		}
		w := decimal.NewFromInt(int64(rec.CompletedCount))
		sum = sum.Add(decimal.NewFromFloat(rec.SatisfactionScore).Mul(w))
		weight = weight.Add(w)
	}
	if weight.IsZero() {
		return 0
	}
	return sum.Div(weight).Round(1).InexactFloat64()
}
