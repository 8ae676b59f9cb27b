package report

import (
	"github.com/shopspring/decimal"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/performance"
	"github.com/warp/training-report/revenue"
)

// MonthlyStat is one "YYYY-MM" bucket. Revenue is prorated across the months
// a run overlaps; head counts land in the run's start month only.
type MonthlyStat struct {
	Month string `json:"month"`

	Revenue generic.Amount `json:"revenue"`

	StudentCount   int `json:"studentCount"`
	CompletedCount int `json:"completedCount"`
	EmployedCount  int `json:"employedCount"`
	CourseCount    int `json:"courseCount"`

	CompletionRate   float64 `json:"completionRate"`
	InstitutionCount int     `json:"institutionCount"`
}

type bucket struct {
	stat         MonthlyStat
	started      []course.ProcessedRecord
	institutions map[string]bool
}

// MonthlyStats returns one bucket per month of year, or of 2021-2026 when
// year is AllYears, in chronological order.
func (r *Reporter) MonthlyStats(records []course.ProcessedRecord, year int) []MonthlyStat {
	years := []int{year}
	if year == AllYears {
		years = course.RevenueYears()
	}

	var order []generic.Month
	buckets := make(map[generic.Month]*bucket)
	for _, y := range years {
		for _, m := range generic.MonthsOfYear(y) {
			order = append(order, m)
			buckets[m] = &bucket{
				stat:         MonthlyStat{Month: m.String()},
				institutions: make(map[string]bool),
			}
		}
	}

	for i := range records {
		rec := &records[i]
		for _, y := range years {
			r.prorate(rec, y, buckets)
		}

		b, ok := buckets[generic.MonthOf(rec.StartDate)]
		if !ok {
			continue
		}
		b.stat.StudentCount += rec.EnrollmentCount
		b.stat.CompletedCount += rec.CompletedCount
		b.stat.EmployedCount += performance.PreferredEmploymentCount(rec)
		b.stat.CourseCount++
		b.started = append(b.started, *rec)
		p := r.Engine.Parties(rec)
		b.institutions[p.Training] = true
		if p.Partnered {
			b.institutions[p.Partner] = true
		}
	}

	out := make([]MonthlyStat, 0, len(order))
	for _, m := range order {
		b := buckets[m]
		b.stat.CompletionRate = r.completionRate(b.started, AllYears)
		b.stat.InstitutionCount = len(b.institutions)
		out = append(out, b.stat)
	}
	return out
}

// prorate spreads the run's adjusted revenue for year evenly over the months
// of year its [start, end] interval overlaps. A run with revenue booked in a
// year it does not overlap is spread over all twelve months of that year.
func (r *Reporter) prorate(rec *course.ProcessedRecord, year int, buckets map[generic.Month]*bucket) {
	amount := revenue.CourseRevenue(rec, year, false)
	if amount.IsZero() {
		return
	}
	months := rec.Period().MonthsIn(year)
	if len(months) == 0 {
		months = generic.MonthsOfYear(year)
	}
	// The last month takes the division remainder so the months sum to amount.
	n := int64(len(months))
	share := amount.Div(decimal.NewFromInt(n))
	last := amount.Sub(share.Mul(decimal.NewFromInt(n - 1)))
	for i, m := range months {
		b, ok := buckets[m]
		if !ok {
			continue
		}
		if i == len(months)-1 {
			b.stat.Revenue = b.stat.Revenue.Add(last)
		} else {
			b.stat.Revenue = b.stat.Revenue.Add(share)
		}
	}
}
