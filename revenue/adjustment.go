/*
Package revenue computes quality-adjusted course revenue and splits it
between the institutions that delivered a run.

PURPOSE:
  Revenue recognised for a run depends on how well it was delivered. A
  single piecewise-linear curve, AdjustmentFactor, turns the completion
  rate into a multiplier; every revenue figure in every report goes
  through it.

ADJUSTMENT CURVE:
  completion rate   factor
  < 50%             0.75                     (floor)
  [50%, 75%)        0.75 -> 1.00 linearly
  [75%, 100%)       1.00 -> 1.25 linearly
  >= 100%           1.25                     (ceiling)

  The curve is continuous: 50 -> 0.75, 75 -> 1.00, 100 -> 1.25.

PARTNERSHIP SPLIT:
  Non-partnered run:                 training institution 100%
  Partnered, same canonical group:   that group 100%
  Partnered, different groups:       partner 90% revenue + 100% students,
                                     training institution 10% revenue + 0 students

SEE ALSO:
  - revenue.go: CourseRevenue and ApplyAdjustment
  - share.go: RevenueShare, StudentShare, Attribution
*/
package revenue

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/training-report/course"
)

var (
	factorFloor   = decimal.RequireFromString("0.75")
	factorPar     = decimal.NewFromInt(1)
	factorCeiling = decimal.RequireFromString("1.25")

	rateFloor   = decimal.NewFromInt(50)
	ratePar     = decimal.NewFromInt(75)
	rateCeiling = decimal.NewFromInt(100)

	// 0.25 of factor per 25 points of rate.
	slope = decimal.RequireFromString("0.01")
)

// AdjustmentFactor maps a completion rate (0-100 scale) to a revenue multiplier.
func AdjustmentFactor(completionRatePercent float64) decimal.Decimal {
	if math.IsNaN(completionRatePercent) || math.IsInf(completionRatePercent, -1) {
		return factorFloor
	}
	if math.IsInf(completionRatePercent, 1) {
		return factorCeiling
	}
	rate := decimal.NewFromFloat(completionRatePercent)
	switch {
	case rate.LessThan(rateFloor):
		return factorFloor
	case rate.LessThan(ratePar):
		return factorFloor.Add(rate.Sub(rateFloor).Mul(slope))
	case rate.LessThan(rateCeiling):
		return factorPar.Add(rate.Sub(ratePar).Mul(slope))
	default:
		return factorCeiling
	}
}

// ApplyAdjustment returns a copy of rec whose AdjustedRevenueByYear is the
// raw revenue scaled by the run's factor. A record already flagged as
// adjusted is returned unchanged, so applying twice is a no-op.
func ApplyAdjustment(rec course.ProcessedRecord) course.ProcessedRecord {
	if rec.RevenueAdjusted {
		return rec
	}
	factor := AdjustmentFactor(rec.CompletionRatePercent)
	var adjusted course.YearAmounts
	for _, year := range course.RevenueYears() {
		adjusted = adjusted.With(year, rec.RevenueByYear.Get(year).Mul(factor))
	}
	rec.AdjustedRevenueByYear = adjusted
	rec.RevenueAdjusted = true
	return rec
}
