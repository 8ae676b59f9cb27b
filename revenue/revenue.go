package revenue

import (
	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
)

// AllYears selects every revenue column instead of a single year.
const AllYears = 0

// CourseRevenue returns a run's quality-adjusted revenue.
//
// For a specific year it reads the adjusted column, falling back to the raw
// column and then to zero. For AllYears it sums the adjusted columns and, if
// that is exactly zero, falls back to the revenue-vs-actual figure and then
// to cumulative revenue.
//
// The factor is applied unless the value is already adjusted: either the
// caller asserts it (alreadyAdjusted) or it was read from adjusted columns
// of a record flagged RevenueAdjusted.
func CourseRevenue(rec *course.ProcessedRecord, year int, alreadyAdjusted bool) generic.Amount {
	factor := AdjustmentFactor(rec.CompletionRatePercent)
	scale := func(a generic.Amount, adjusted bool) generic.Amount {
		if adjusted {
			return a
		}
		return a.Mul(factor)
	}
	columnsAdjusted := alreadyAdjusted || rec.RevenueAdjusted

	if year != AllYears {
		if v := rec.AdjustedRevenueByYear.Get(year); !v.IsZero() {
			return scale(v, columnsAdjusted)
		}
		return scale(rec.RevenueByYear.Get(year), alreadyAdjusted)
	}

	if total := rec.AdjustedRevenueByYear.Total(); !total.IsZero() {
		return scale(total, columnsAdjusted)
	}
	if !rec.RevenueVsActual.IsZero() {
		return scale(rec.RevenueVsActual, alreadyAdjusted)
	}
	return scale(rec.CumulativeRevenue, alreadyAdjusted)
}
