/*
Package health runs data-quality checks over processed course runs.

PURPOSE:
  Parsing never fails a batch: unparsable values become safe defaults.
  This package makes those defaults visible so a caller can decide whether
  to accept a feed.

FINDINGS:
  Warnings are aggregate counts (how many rows have no revenue, how many
  runs are still inside the 3-week settling window). Errors are per row and
  carry the row index, field and offending value.

  A report with no errors is Healthy; warnings alone do not fail a feed.
*/
package health

import (
	"strconv"
	"time"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/institution"
	"github.com/warp/training-report/performance"
)

// Warning codes.
const (
	WarnZeroRevenue         = "zero_revenue"
	WarnPendingCompletion   = "pending_completion"
	WarnMissingPartner      = "partner_flag_without_partner"
	WarnMissingSatisfaction = "missing_satisfaction"
)

// Error codes.
const (
	ErrMissingField     = "missing_required_field"
	ErrDateFallback     = "unparsable_date"
	ErrEndBeforeStart   = "end_before_start"
	ErrCompletedTooHigh = "completed_exceeds_enrollment"
	ErrNegativeCount    = "negative_count"
	ErrDuplicateID      = "duplicate_unique_id"
)

// Warning is an aggregate finding.
type Warning struct {
	Code    string `json:"code"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// RowError is a finding on one row.
type RowError struct {
	Code     string `json:"code"`
	Row      int    `json:"row"`
	UniqueID string `json:"uniqueId"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Message  string `json:"message"`
}

// Report is the result of Check.
type Report struct {
	CheckedAt    time.Time  `json:"checkedAt"`
	TotalRecords int        `json:"totalRecords"`
	Healthy      bool       `json:"healthy"`
	Warnings     []Warning  `json:"warnings"`
	Errors       []RowError `json:"errors"`
}

// ErrorCount returns the number of row errors carrying code.
func (r Report) ErrorCount(code string) int {
	n := 0
	for _, e := range r.Errors {
		if e.Code == code {
			n++
		}
	}
	return n
}

// Warning returns the warning with code, if any.
func (r Report) Warning(code string) (Warning, bool) {
	for _, w := range r.Warnings {
		if w.Code == code {
			return w, true
		}
	}
	return Warning{}, false
}

// Checker holds the evaluation day and settling period.
type Checker struct {
	Today           time.Time
	EligibilityDays int
}

func NewChecker(today time.Time) *Checker {
	return &Checker{Today: generic.DateOf(today), EligibilityDays: performance.EligibilityDays}
}

// Check validates every record. It never fails; problems are findings.
func (c *Checker) Check(records []course.ProcessedRecord) Report {
	report := Report{CheckedAt: c.Today, TotalRecords: len(records), Warnings: []Warning{}, Errors: []RowError{}}

	var zeroRevenue, pending, missingPartner, missingSatisfaction int
	firstRow := make(map[string]int)
	for i := range records {
		rec := &records[i]
		report.Errors = append(report.Errors, c.rowErrors(rec)...)

		if rec.UniqueID != "" {
			if first, seen := firstRow[rec.UniqueID]; seen {
				report.Errors = append(report.Errors, RowError{
					Code: ErrDuplicateID, Row: rec.Row, UniqueID: rec.UniqueID,
					Field: course.ColUniqueID, Value: rec.UniqueID,
					Message: "unique id already used on row " + strconv.Itoa(first),
				})
			} else {
				firstRow[rec.UniqueID] = rec.Row
			}
		}

		if rec.RevenueByYear.Total().IsZero() && rec.RevenueVsActual.IsZero() && rec.CumulativeRevenue.IsZero() {
			zeroRevenue++
		}
		if performance.HasCompletionData(rec) && !performance.IsEligibleAfter(rec, c.Today, c.EligibilityDays) {
			pending++
		}
		if rec.HasTag(institution.TagPartnered) && !rec.IsPartneredCourse {
			missingPartner++
		}
		if rec.CompletedCount > 0 && rec.SatisfactionScore <= 0 {
			missingSatisfaction++
		}
	}

	report.addWarning(WarnZeroRevenue, zeroRevenue, "rows with no revenue in any column")
	report.addWarning(WarnPendingCompletion, pending, "runs ended within the settling period, excluded from completion rate")
	report.addWarning(WarnMissingPartner, missingPartner, "lead-company flag set without a partner institution")
	report.addWarning(WarnMissingSatisfaction, missingSatisfaction, "completed runs without a satisfaction score")
	report.Healthy = len(report.Errors) == 0
	return report
}

func (r *Report) addWarning(code string, count int, message string) {
	if count == 0 {
		return
	}
	r.Warnings = append(r.Warnings, Warning{Code: code, Count: count, Message: message})
}

func (c *Checker) rowErrors(rec *course.ProcessedRecord) []RowError {
	var out []RowError
	add := func(code, field, value, message string) {
		out = append(out, RowError{
			Code: code, Row: rec.Row, UniqueID: rec.UniqueID,
			Field: field, Value: value, Message: message,
		})
	}

	if rec.UniqueID == "" {
		add(ErrMissingField, course.ColUniqueID, "", "unique id is empty")
	}
	if rec.CourseName == "" {
		add(ErrMissingField, course.ColCourseName, "", "course name is empty")
	}
	if rec.OriginalTrainingInstitution == "" {
		add(ErrMissingField, course.ColInstitution, "", "training institution is empty")
	}

	for _, is := range rec.ParseIssues {
		switch is.Issue {
		case course.IssueDateFallback:
			add(ErrDateFallback, is.Field, is.Value, is.Issue)
		case course.IssueNegativeCount:
			add(ErrNegativeCount, is.Field, is.Value, is.Issue)
		}
	}
	if !rec.HasIssue(course.ColStartDate) && !rec.HasIssue(course.ColEndDate) && rec.EndDate.Before(rec.StartDate) {
		add(ErrEndBeforeStart, course.ColEndDate, rec.EndDate.Format(time.DateOnly),
			"ends before its start date "+rec.StartDate.Format(time.DateOnly))
	}
	if rec.CompletedCount > rec.EnrollmentCount {
		add(ErrCompletedTooHigh, course.ColCompleted, strconv.Itoa(rec.CompletedCount),
			"completed exceeds enrollment "+strconv.Itoa(rec.EnrollmentCount))
	}
	return out
}
