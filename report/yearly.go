package report

import (
	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/performance"
)

// YearlyStat rolls up the runs that started in one calendar year.
type YearlyStat struct {
	Year int `json:"year"`

	// Revenue sums the raw year column; AdjustedRevenue sums the stored
	// adjusted column. Neither is re-derived from the completion rate.
	Revenue         generic.Amount `json:"revenue"`
	AdjustedRevenue generic.Amount `json:"adjustedRevenue"`

	StudentCount   int `json:"studentCount"`
	CompletedCount int `json:"completedCount"`
	EmployedCount  int `json:"employedCount"`

	CompletionRate float64 `json:"completionRate"`
	EmploymentRate float64 `json:"employmentRate"`

	InstitutionCount    int `json:"institutionCount"`
	CourseCount         int `json:"courseCount"`
	DistinctCourseCount int `json:"distinctCourseCount"`
}

// YearlyStats computes the statistics of one revenue year.
func (r *Reporter) YearlyStats(records []course.ProcessedRecord, year int) YearlyStat {
	stat := YearlyStat{Year: year}

	var started []course.ProcessedRecord
	institutions := make(map[string]bool)
	courseIDs := make(map[string]bool)
	raw := make([]generic.Amount, 0, len(records))
	adjusted := make([]generic.Amount, 0, len(records))

	for i := range records {
		rec := &records[i]
		if rec.StartYear() != year {
			continue
		}
		started = append(started, *rec)
		raw = append(raw, rec.RevenueByYear.Get(year))
		adjusted = append(adjusted, rec.AdjustedRevenueByYear.Get(year))

		stat.StudentCount += rec.EnrollmentCount
		stat.CompletedCount += rec.CompletedCount
		stat.EmployedCount += performance.PreferredEmploymentCount(rec)

		p := r.Engine.Parties(rec)
		institutions[p.Training] = true
		if p.Partnered {
			institutions[p.Partner] = true
		}
		courseIDs[rec.CourseID] = true
	}

	stat.Revenue = generic.Sum(raw...)
	stat.AdjustedRevenue = generic.Sum(adjusted...)
	stat.CompletionRate = r.completionRate(records, year)
	stat.EmploymentRate = performance.EmploymentRate(started)
	stat.InstitutionCount = len(institutions)
	stat.CourseCount = len(started)
	stat.DistinctCourseCount = len(courseIDs)
	return stat
}

// AllYearlyStats returns YearlyStats for every revenue year in order.
func (r *Reporter) AllYearlyStats(records []course.ProcessedRecord) []YearlyStat {
	years := course.RevenueYears()
	out := make([]YearlyStat, 0, len(years))
	for _, y := range years {
		out = append(out, r.YearlyStats(records, y))
	}
	return out
}
