package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/performance"
	"github.com/warp/training-report/revenue"
)

// InstitutionStat is one canonical institution's row in a report scope.
type InstitutionStat struct {
	Institution   string   `json:"institution"`
	OriginalNames []string `json:"originalNames"`
	Year          int      `json:"year,omitempty"`

	TotalRevenue generic.Amount `json:"totalRevenue"`

	CourseCount        int    `json:"courseCount"`
	PrevCourseCount    int    `json:"prevCourseCount"`
	CourseCountDisplay string `json:"courseCountDisplay"`

	StudentCount        int    `json:"studentCount"`
	PrevStudentCount    int    `json:"prevStudentCount"`
	StudentCountDisplay string `json:"studentCountDisplay"`

	CompletedCount        int    `json:"completedCount"`
	PrevCompletedCount    int    `json:"prevCompletedCount"`
	CompletedCountDisplay string `json:"completedCountDisplay"`

	CompletionRate   float64 `json:"completionRate"`
	CompletionDetail string  `json:"completionDetail"`
	EmploymentRate   float64 `json:"employmentRate"`
	EmploymentDetail string  `json:"employmentDetail"`
	Satisfaction     float64 `json:"satisfaction"`

	RecruitmentRate   float64 `json:"recruitmentRate"`
	RecruitmentDetail string  `json:"recruitmentDetail"`

	Courses []revenue.Attribution `json:"courses"`
}

// Totals sums a list of institution rows.
type Totals struct {
	Revenue          generic.Amount `json:"revenue"`
	StudentCount     int            `json:"studentCount"`
	CompletedCount   int            `json:"completedCount"`
	CourseCount      int            `json:"courseCount"`
	InstitutionCount int            `json:"institutionCount"`
}

// scoped pairs a record with its parties so names are canonicalized once.
type scoped struct {
	rec     *course.ProcessedRecord
	parties revenue.Parties
}

func (r *Reporter) scope(records []course.ProcessedRecord) ([]scoped, []string) {
	out := make([]scoped, len(records))
	seen := make(map[string]bool)
	var candidates []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			candidates = append(candidates, name)
		}
	}
	for i := range records {
		p := r.Engine.Parties(&records[i])
		out[i] = scoped{rec: &records[i], parties: p}
		add(p.Training)
		if p.Partnered {
			add(p.Partner)
		}
	}
	return out, candidates
}

// InstitutionStats returns one row per canonical institution with at least
// one revenue-bearing run, sorted by total revenue descending.
func (r *Reporter) InstitutionStats(records []course.ProcessedRecord, year int) []InstitutionStat {
	rows, candidates := r.scope(records)

	stats := make([]InstitutionStat, 0, len(candidates))
	for _, name := range candidates {
		var contributions []revenue.Attribution
		var originals []string
		seenOriginal := make(map[string]bool)
		for _, s := range rows {
			a, ok := revenue.AttributeParties(s.rec, s.parties, name, year)
			if !ok {
				continue
			}
			contributions = append(contributions, a)
			for _, o := range originalNames(s, name) {
				if o != "" && !seenOriginal[o] {
					seenOriginal[o] = true
					originals = append(originals, o)
				}
			}
		}
		if len(contributions) == 0 {
			continue
		}
		stat := r.institutionStat(name, year, contributions)
		stat.OriginalNames = originals
		stats = append(stats, stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalRevenue.GreaterThan(stats[j].TotalRevenue)
	})
	return stats
}

func originalNames(s scoped, name string) []string {
	var out []string
	if s.parties.Training == name {
		out = append(out, s.rec.OriginalTrainingInstitution)
	}
	if s.parties.Partnered && s.parties.Partner == name {
		out = append(out, s.rec.OriginalPartnerInstitution)
	}
	return out
}

// credited returns n when the attribution carries student credit.
func credited(a revenue.Attribution, n int) int {
	return int(a.StudentWeight(n).IntPart())
}

func (r *Reporter) institutionStat(name string, year int, contributions []revenue.Attribution) InstitutionStat {
	stat := InstitutionStat{Institution: name, Year: year, Courses: contributions}

	amounts := make([]generic.Amount, len(contributions))
	capacity := decimal.Zero
	for i, a := range contributions {
		amounts[i] = a.AssignedRevenue
		rec := a.Record

		counted := true
		if year == AllYears {
			stat.CourseCount++
			stat.StudentCount += credited(a, rec.EnrollmentCount)
			stat.CompletedCount += credited(a, rec.CompletedCount)
		} else {
			m := performance.ClassifyYearMembership(rec, year)
			switch {
			case m.StartedThisYear:
				stat.CourseCount++
				stat.StudentCount += credited(a, rec.EnrollmentCount)
			case m.StartedPrevAndOngoing:
				stat.PrevCourseCount++
				stat.PrevStudentCount += credited(a, rec.EnrollmentCount)
			default:
				counted = false
			}
			if m.EndedThisYear {
				if m.StartedThisYear {
					stat.CompletedCount += credited(a, rec.CompletedCount)
				} else {
					stat.PrevCompletedCount += credited(a, rec.CompletedCount)
				}
			}
		}
		if counted {
			capacity = capacity.Add(a.StudentWeight(rec.Capacity))
		}
	}
	stat.TotalRevenue = generic.Sum(amounts...)

	stat.CourseCountDisplay = performance.FormatCurrentPrevious(stat.CourseCount, stat.PrevCourseCount)
	stat.StudentCountDisplay = performance.FormatCurrentPrevious(stat.StudentCount, stat.PrevStudentCount)
	stat.CompletedCountDisplay = performance.FormatCurrentPrevious(stat.CompletedCount, stat.PrevCompletedCount)

	r.fillRates(&stat, year, contributions)

	students := stat.StudentCount + stat.PrevStudentCount
	capacityCount := int(capacity.IntPart())
	stat.RecruitmentRate = generic.PercentInt(students, capacityCount)
	stat.RecruitmentDetail = ratio(students, capacityCount)
	return stat
}

// fillRates computes completion, employment and satisfaction over the runs
// the institution holds student credit for.
func (r *Reporter) fillRates(stat *InstitutionStat, year int, contributions []revenue.Attribution) {
	var completed, enrolled, employed int
	var rated []course.ProcessedRecord
	for _, a := range contributions {
		if !a.StudentShare.IsPositive() {
			continue
		}
		rec := a.Record
		if year != AllYears && rec.EndYear() != year {
			continue
		}
		rated = append(rated, *rec)
		if !performance.HasCompletionData(rec) || !r.eligible(rec) {
			continue
		}
		completed += credited(a, rec.CompletedCount)
		enrolled += credited(a, rec.EnrollmentCount)
		employed += credited(a, performance.PreferredEmploymentCount(rec))
	}
	stat.CompletionRate = generic.PercentInt(completed, enrolled)
	stat.CompletionDetail = ratio(completed, enrolled)
	stat.EmploymentRate = generic.PercentInt(employed, completed)
	stat.EmploymentDetail = ratio(employed, completed)
	stat.Satisfaction = performance.WeightedSatisfaction(rated)
}

// CourseRows returns the institution's attributions in input order, for the
// drill-down view. Year filters to runs that started in or carry into year.
func (r *Reporter) CourseRows(records []course.ProcessedRecord, name string, year int) []revenue.Attribution {
	canonical := r.Engine.Canonicalize(name)
	var out []revenue.Attribution
	for i := range records {
		rec := &records[i]
		if year != AllYears {
			m := performance.ClassifyYearMembership(rec, year)
			if !m.StartedThisYear && !m.StartedPrevAndOngoing {
				continue
			}
		}
		if a, ok := revenue.AttributeParties(rec, r.Engine.Parties(rec), canonical, year); ok {
			out = append(out, a)
		}
	}
	return out
}

// Summarize totals the rows of an InstitutionStats result. Counts include the
// carried-over previous-year figures.
func Summarize(stats []InstitutionStat) Totals {
	t := Totals{InstitutionCount: len(stats)}
	amounts := make([]generic.Amount, 0, len(stats))
	for _, s := range stats {
		amounts = append(amounts, s.TotalRevenue)
		t.StudentCount += s.StudentCount + s.PrevStudentCount
		t.CompletedCount += s.CompletedCount + s.PrevCompletedCount
		t.CourseCount += s.CourseCount + s.PrevCourseCount
	}
	t.Revenue = generic.Sum(amounts...)
	return t
}
