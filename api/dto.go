/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Report rows
  (report.InstitutionStat, report.YearlyStat, report.MonthlyStat) are
  serialized as-is; the types here wrap them and carry request bodies.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry go-playground/validator tags, checked by
  decodeJSON in handlers.go. JSON field names are used in error details.

SEE ALSO:
  - handlers.go: Uses these types
  - report/: Report row types
*/
package api

import (
	"time"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/health"
	"github.com/warp/training-report/report"
	"github.com/warp/training-report/revenue"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateRecordsRequest submits raw feed rows as JSON.
type CreateRecordsRequest struct {
	Source  string             `json:"source" validate:"max=200"`
	Records []course.RawRecord `json:"records" validate:"required,min=1,max=50000"`
}

// LoadScenarioRequest selects a demo dataset.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ImportResponse is returned after records are written.
type ImportResponse struct {
	ImportID       string        `json:"importId"`
	Source         string        `json:"source"`
	RecordCount    int           `json:"recordCount"`
	SkippedRows    int           `json:"skippedRows"`
	RejectedRows   int           `json:"rejectedRows"`
	UnknownColumns []string      `json:"unknownColumns"`
	Health         HealthSummary `json:"health"`
}

// HealthSummary condenses a health report for import responses.
type HealthSummary struct {
	Healthy      bool `json:"healthy"`
	ErrorCount   int  `json:"errorCount"`
	WarningCount int  `json:"warningCount"`
}

// RecordListResponse lists stored runs.
type RecordListResponse struct {
	Count   int                      `json:"count"`
	Records []course.ProcessedRecord `json:"records"`
}

// InstitutionReportResponse is the institution table for one scope.
type InstitutionReportResponse struct {
	Year         int                      `json:"year"`
	AsOf         string                   `json:"asOf"`
	Totals       report.Totals            `json:"totals"`
	Institutions []report.InstitutionStat `json:"institutions"`
}

// CourseRowDTO is one run in an institution drill-down.
type CourseRowDTO struct {
	UniqueID            string  `json:"uniqueId"`
	CourseID            string  `json:"courseId"`
	CourseName          string  `json:"courseName"`
	RunLabel            string  `json:"runLabel"`
	OriginalInstitution string  `json:"originalInstitution"`
	PartnerInstitution  string  `json:"partnerInstitution,omitempty"`
	StartDate           string  `json:"startDate"`
	EndDate             string  `json:"endDate"`
	TrainingType        string  `json:"trainingType"`
	EnrollmentCount     int     `json:"enrollmentCount"`
	CompletedCount      int     `json:"completedCount"`
	CompletionRate      float64 `json:"completionRate"`
	AssignedRevenue     float64 `json:"assignedRevenue"`
	RevenueShare        float64 `json:"revenueShare"`
	StudentShare        float64 `json:"studentShare"`
}

// CourseRowsResponse is an institution drill-down.
type CourseRowsResponse struct {
	Institution string         `json:"institution"`
	Year        int            `json:"year"`
	Courses     []CourseRowDTO `json:"courses"`
}

// YearlyReportResponse lists one or all revenue years.
type YearlyReportResponse struct {
	AsOf  string              `json:"asOf"`
	Years []report.YearlyStat `json:"years"`
}

// MonthlyReportResponse lists month buckets.
type MonthlyReportResponse struct {
	Year   int                  `json:"year"`
	AsOf   string               `json:"asOf"`
	Months []report.MonthlyStat `json:"months"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCourseRowDTO(a revenue.Attribution) CourseRowDTO {
	rec := a.Record
	return CourseRowDTO{
		UniqueID:            rec.UniqueID,
		CourseID:            rec.CourseID,
		CourseName:          rec.CourseName,
		RunLabel:            rec.RunLabel,
		OriginalInstitution: rec.OriginalTrainingInstitution,
		PartnerInstitution:  rec.PartnerInstitution,
		StartDate:           rec.StartDate.Format(time.DateOnly),
		EndDate:             rec.EndDate.Format(time.DateOnly),
		TrainingType:        rec.TrainingType,
		EnrollmentCount:     rec.EnrollmentCount,
		CompletedCount:      rec.CompletedCount,
		CompletionRate:      rec.CompletionRatePercent,
		AssignedRevenue:     a.AssignedRevenue.Value.Round(2).InexactFloat64(),
		RevenueShare:        a.RevenueShare.InexactFloat64(),
		StudentShare:        a.StudentShare.InexactFloat64(),
	}
}

func toCourseRowDTOs(attributions []revenue.Attribution) []CourseRowDTO {
	dtos := make([]CourseRowDTO, len(attributions))
	for i, a := range attributions {
		dtos[i] = toCourseRowDTO(a)
	}
	return dtos
}

func summarizeHealth(r health.Report) HealthSummary {
	return HealthSummary{Healthy: r.Healthy, ErrorCount: len(r.Errors), WarningCount: len(r.Warnings)}
}
