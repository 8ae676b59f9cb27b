/*
Package pipeline turns raw feed rows into processed course runs.

PURPOSE:
  This is the only place raw, loosely-typed input is interpreted. Every
  field goes through the tolerant parsers in package course; institution
  names are canonicalized; the revenue adjustment is applied exactly once.

DEGRADATION:
  Nothing here fails. Unparsable numbers become 0 and negative head counts
  are clamped to 0. Unparsable dates become the processing day. Both
  substitutions are recorded in ParseIssues so the health check can report
  them as row-level errors.

PARTNERED RUNS:
  A run is attributed as partnered when its 선도기업 field marks it and a
  파트너기관 name is present. The partnered training-type tag follows the
  선도기업 field alone, so a marked run without a partner name keeps the tag
  but is attributed entirely to its training institution.
*/
package pipeline

import (
	"math"
	"strings"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/institution"
	"github.com/warp/training-report/revenue"
)

// Transformer converts RawRecords into ProcessedRecords.
type Transformer struct {
	Grouper *institution.Grouper
	Clock   generic.Clock
}

func NewTransformer(grouper *institution.Grouper, clock generic.Clock) *Transformer {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	return &Transformer{Grouper: grouper, Clock: clock}
}

// Process transforms every row. Rows are numbered from 1.
func (t *Transformer) Process(raws []course.RawRecord) []course.ProcessedRecord {
	out := make([]course.ProcessedRecord, len(raws))
	for i, raw := range raws {
		out[i] = t.Transform(raw, i+1)
	}
	return out
}

// Transform converts one row.
func (t *Transformer) Transform(raw course.RawRecord, row int) course.ProcessedRecord {
	today := generic.Today(t.Clock)
	var issues []course.FieldIssue

	start, ok := course.ParseDateOr(raw.StartDate.String(), today)
	if !ok {
		issues = append(issues, dateIssue(course.ColStartDate, raw.StartDate))
	}
	end, ok := course.ParseDateOr(raw.EndDate.String(), today)
	if !ok {
		issues = append(issues, dateIssue(course.ColEndDate, raw.EndDate))
	}

	enrollment := headCount(course.ColEnrollment, raw.Enrollment, &issues)
	completed := headCount(course.ColCompleted, raw.Completed, &issues)
	employed := count(course.ColEmployed, raw.Employed, &issues)
	employed3Mo := count(course.ColEmployed3Mo, raw.Employed3Mo, &issues)
	employed6Mo := count(course.ColEmployed6Mo, raw.Employed6Mo, &issues)
	capacity := count(course.ColCapacity, raw.Capacity, &issues)

	completionRate := course.ParsePercentage(raw.CompletionRate.String())
	if completionRate == 0 && enrollment.Value > 0 && completed.Value > 0 {
		completionRate = generic.PercentInt(completed.Value, enrollment.Value)
	}

	var revenueByYear course.YearAmounts
	for _, year := range course.RevenueYears() {
		revenueByYear = revenueByYear.With(year, course.ParseAmount(raw.YearRevenue(year).String()))
	}

	originalInstitution := raw.Institution.Trimmed()
	originalPartner := raw.Partner.Trimmed()
	leadCompany := raw.LeadCompany.Trimmed()
	partnered := institution.IsPartneredCourse(leadCompany) && originalPartner != ""

	courseName := raw.CourseName.Trimmed()
	courseID := raw.CourseID.Trimmed()
	if courseID == "" {
		courseID = courseName
	}

	tags := institution.TrainingTypeTags(courseName, originalInstitution, leadCompany)

	rec := course.ProcessedRecord{
		UniqueID:   raw.UniqueID.Trimmed(),
		CourseID:   courseID,
		CourseName: courseName,
		RunLabel:   raw.RunLabel.Trimmed(),

		TrainingInstitution:         t.Grouper.Canonicalize(originalInstitution),
		OriginalTrainingInstitution: originalInstitution,
		IsPartneredCourse:           partnered,
		LeadCompany:                 leadCompany,

		StartDate: start,
		EndDate:   end,

		EnrollmentCount:   enrollment.Value,
		EnrollmentDisplay: enrollment.Display,
		CompletedCount:    completed.Value,
		CompletedDisplay:  completed.Display,
		EmployedCount:     employed,
		EmployedCount3Mo:  employed3Mo,
		EmployedCount6Mo:  employed6Mo,
		Capacity:          capacity,

		CompletionRatePercent: completionRate,
		SatisfactionScore:     course.ParsePercentage(raw.Satisfaction.String()),
		EmploymentRatePercent: course.ParsePercentage(raw.EmploymentRate.String()),

		RevenueByYear:         revenueByYear,
		AdjustedRevenueByYear: revenueByYear,
		RevenueVsActual:       course.ParseAmount(raw.RevenueVsActual.String()),
		CumulativeRevenue:     course.ParseAmount(raw.CumulativeRevenue.String()),

		TrainingType:     strings.Join(tags, institution.TagSeparator),
		TrainingTypeTags: tags,

		Row:         row,
		ParseIssues: issues,
	}
	if partnered {
		rec.PartnerInstitution = t.Grouper.Canonicalize(originalPartner)
		rec.OriginalPartnerInstitution = originalPartner
	}
	return revenue.ApplyAdjustment(rec)
}

func dateIssue(field string, value course.Cell) course.FieldIssue {
	return course.FieldIssue{Field: field, Value: value.String(), Issue: course.IssueDateFallback}
}

// headCount parses an "x(y)" count, clamping a negative value to 0.
func headCount(field string, c course.Cell, issues *[]course.FieldIssue) course.Count {
	n := course.ParseCountWithParenthetical(c.String())
	if n.Value < 0 {
		*issues = append(*issues, negativeIssue(field, c))
		return course.Count{Value: 0, Display: "0"}
	}
	return n
}

// count parses a non-negative head count.
func count(field string, c course.Cell, issues *[]course.FieldIssue) int {
	v := int(math.Round(course.ParseNumber(c.String())))
	if v < 0 {
		*issues = append(*issues, negativeIssue(field, c))
		return 0
	}
	return v
}

func negativeIssue(field string, value course.Cell) course.FieldIssue {
	return course.FieldIssue{Field: field, Value: value.String(), Issue: course.IssueNegativeCount}
}
