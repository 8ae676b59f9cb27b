/*
Package course defines the course-run records the reporting engine consumes.

PURPOSE:
  One RawRecord arrives per physical delivery ("run") of a training course,
  keyed by the upstream data source's Korean column names. The pipeline
  package normalizes it into a ProcessedRecord, which every report reads
  and none mutates.

KEY CONCEPTS IN THIS FILE (record.go):
  - Cell: A loosely-typed input value (string or number on the wire)
  - RawRecord: The closed set of recognised input columns
  - ProcessedRecord: The normalized, immutable run record
  - YearAmounts: The fixed 2021-2026 revenue columns

RECOGNISED COLUMNS:
  고유값, 과정명, 훈련과정ID, 회차, 훈련기관, 파트너기관, 선도기업,
  과정시작일, 과정종료일, 수강신청 인원, 수료인원, 수료율, 만족도, 취업률,
  취업인원, 취업인원 (3개월), 취업인원 (6개월), 정원, 2021년 ... 2026년,
  실매출대비, 누적매출
  Any other key is ignored when decoding.

SEE ALSO:
  - fields.go: Tolerant parsers for Cell values
  - pipeline/transform.go: RawRecord -> ProcessedRecord
  - store.go: Persistence interface
*/
package course

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warp/training-report/generic"
)

// =============================================================================
// CELL - Loosely-typed input value
// =============================================================================

// Cell holds one input value as text. JSON numbers keep their literal form,
// so "1,200(30)" and 1200 both arrive as a Cell and go through the same parsers.
type Cell string

func (c *Cell) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*c = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*c = Cell(v)
	default:
		*c = Cell(s)
	}
	return nil
}

func (c Cell) String() string { return string(c) }

// Trimmed returns the cell text without surrounding whitespace.
func (c Cell) Trimmed() string { return strings.TrimSpace(string(c)) }

// =============================================================================
// RAW RECORD - Input contract
// =============================================================================

// Column names of the upstream feed.
const (
	ColUniqueID          = "고유값"
	ColCourseName        = "과정명"
	ColCourseID          = "훈련과정ID"
	ColRunLabel          = "회차"
	ColInstitution       = "훈련기관"
	ColPartner           = "파트너기관"
	ColLeadCompany       = "선도기업"
	ColStartDate         = "과정시작일"
	ColEndDate           = "과정종료일"
	ColEnrollment        = "수강신청 인원"
	ColCompleted         = "수료인원"
	ColCompletionRate    = "수료율"
	ColSatisfaction      = "만족도"
	ColEmploymentRate    = "취업률"
	ColEmployed          = "취업인원"
	ColEmployed3Mo       = "취업인원 (3개월)"
	ColEmployed6Mo       = "취업인원 (6개월)"
	ColCapacity          = "정원"
	ColRevenueVsActual   = "실매출대비"
	ColCumulativeRevenue = "누적매출"
)

// RawRecord is one row of the training feed.
type RawRecord struct {
	UniqueID          Cell `json:"고유값"`
	CourseName        Cell `json:"과정명"`
	CourseID          Cell `json:"훈련과정ID"`
	RunLabel          Cell `json:"회차"`
	Institution       Cell `json:"훈련기관"`
	Partner           Cell `json:"파트너기관"`
	LeadCompany       Cell `json:"선도기업"`
	StartDate         Cell `json:"과정시작일"`
	EndDate           Cell `json:"과정종료일"`
	Enrollment        Cell `json:"수강신청 인원"`
	Completed         Cell `json:"수료인원"`
	CompletionRate    Cell `json:"수료율"`
	Satisfaction      Cell `json:"만족도"`
	EmploymentRate    Cell `json:"취업률"`
	Employed          Cell `json:"취업인원"`
	Employed3Mo       Cell `json:"취업인원 (3개월)"`
	Employed6Mo       Cell `json:"취업인원 (6개월)"`
	Capacity          Cell `json:"정원"`
	Revenue2021       Cell `json:"2021년"`
	Revenue2022       Cell `json:"2022년"`
	Revenue2023       Cell `json:"2023년"`
	Revenue2024       Cell `json:"2024년"`
	Revenue2025       Cell `json:"2025년"`
	Revenue2026       Cell `json:"2026년"`
	RevenueVsActual   Cell `json:"실매출대비"`
	CumulativeRevenue Cell `json:"누적매출"`
}

// YearColumn returns the feed column name for a revenue year ("2024년").
func YearColumn(year int) string { return strconv.Itoa(year) + "년" }

// YearRevenue returns the raw revenue cell for year, or "" outside 2021-2026.
func (r RawRecord) YearRevenue(year int) Cell {
	switch year {
	case 2021:
		return r.Revenue2021
	case 2022:
		return r.Revenue2022
	case 2023:
		return r.Revenue2023
	case 2024:
		return r.Revenue2024
	case 2025:
		return r.Revenue2025
	case 2026:
		return r.Revenue2026
	}
	return ""
}

// Set assigns a cell by column name. Unrecognised columns return false.
func (r *RawRecord) Set(column string, value Cell) bool {
	if f := r.field(strings.TrimSpace(column)); f != nil {
		*f = value
		return true
	}
	return false
}

// Get reads a cell by column name.
func (r *RawRecord) Get(column string) (Cell, bool) {
	if f := r.field(strings.TrimSpace(column)); f != nil {
		return *f, true
	}
	return "", false
}

func (r *RawRecord) field(column string) *Cell {
	switch column {
	case ColUniqueID:
		return &r.UniqueID
	case ColCourseName:
		return &r.CourseName
	case ColCourseID:
		return &r.CourseID
	case ColRunLabel:
		return &r.RunLabel
	case ColInstitution:
		return &r.Institution
	case ColPartner:
		return &r.Partner
	case ColLeadCompany:
		return &r.LeadCompany
	case ColStartDate:
		return &r.StartDate
	case ColEndDate:
		return &r.EndDate
	case ColEnrollment:
		return &r.Enrollment
	case ColCompleted:
		return &r.Completed
	case ColCompletionRate:
		return &r.CompletionRate
	case ColSatisfaction:
		return &r.Satisfaction
	case ColEmploymentRate:
		return &r.EmploymentRate
	case ColEmployed:
		return &r.Employed
	case ColEmployed3Mo:
		return &r.Employed3Mo
	case ColEmployed6Mo:
		return &r.Employed6Mo
	case ColCapacity:
		return &r.Capacity
	case "2021년":
		return &r.Revenue2021
	case "2022년":
		return &r.Revenue2022
	case "2023년":
		return &r.Revenue2023
	case "2024년":
		return &r.Revenue2024
	case "2025년":
		return &r.Revenue2025
	case "2026년":
		return &r.Revenue2026
	case ColRevenueVsActual:
		return &r.RevenueVsActual
	case ColCumulativeRevenue:
		return &r.CumulativeRevenue
	}
	return nil
}

// IsRecognizedColumn reports whether column is part of the input contract.
func IsRecognizedColumn(column string) bool {
	var r RawRecord
	return r.field(strings.TrimSpace(column)) != nil
}

// =============================================================================
// YEAR AMOUNTS - Fixed revenue columns
// =============================================================================

const (
	FirstRevenueYear = 2021
	LastRevenueYear  = 2026
	RevenueYearCount = LastRevenueYear - FirstRevenueYear + 1
)

// RevenueYears returns 2021 through 2026.
func RevenueYears() []int {
	years := make([]int, 0, RevenueYearCount)
	for y := FirstRevenueYear; y <= LastRevenueYear; y++ {
		years = append(years, y)
	}
	return years
}

// IsRevenueYear reports whether year has a revenue column.
func IsRevenueYear(year int) bool {
	return year >= FirstRevenueYear && year <= LastRevenueYear
}

// YearAmounts holds one amount per revenue year. It is a value type:
// With returns a modified copy.
type YearAmounts [RevenueYearCount]generic.Amount

// Get returns the amount for year, or zero outside the window.
func (y YearAmounts) Get(year int) generic.Amount {
	if !IsRevenueYear(year) {
		return generic.Zero
	}
	return y[year-FirstRevenueYear]
}

// With returns a copy with year set to amount. Years outside the window are ignored.
func (y YearAmounts) With(year int, amount generic.Amount) YearAmounts {
	if IsRevenueYear(year) {
		y[year-FirstRevenueYear] = amount
	}
	return y
}

// Total sums every year.
func (y YearAmounts) Total() generic.Amount {
	return generic.Sum(y[:]...)
}

func (y YearAmounts) MarshalJSON() ([]byte, error) {
	m := make(map[string]generic.Amount, RevenueYearCount)
	for _, year := range RevenueYears() {
		m[strconv.Itoa(year)] = y.Get(year)
	}
	return json.Marshal(m)
}

func (y *YearAmounts) UnmarshalJSON(data []byte) error {
	var m map[string]generic.Amount
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out YearAmounts
	for k, v := range m {
		year, err := strconv.Atoi(strings.TrimSuffix(k, "년"))
		if err != nil || !IsRevenueYear(year) {
			return fmt.Errorf("invalid revenue year %q", k)
		}
		out = out.With(year, v)
	}
	*y = out
	return nil
}

// =============================================================================
// PROCESSED RECORD - Normalized run
// =============================================================================

// FieldIssue records an input value that was replaced by a default.
type FieldIssue struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Issue string `json:"issue"`
}

const (
	IssueDateFallback  = "unparsable date replaced with processing date"
	IssueNegativeCount = "negative count replaced with 0"
)

// ProcessedRecord is the normalized form of a RawRecord. Reports treat it as
// immutable; per-institution values are produced as revenue.Attribution.
type ProcessedRecord struct {
	UniqueID   string `json:"uniqueId"`
	CourseID   string `json:"courseId"`
	CourseName string `json:"courseName"`
	RunLabel   string `json:"runLabel"`

	TrainingInstitution         string `json:"trainingInstitution"`
	OriginalTrainingInstitution string `json:"originalTrainingInstitution"`
	PartnerInstitution          string `json:"partnerInstitution,omitempty"`
	OriginalPartnerInstitution  string `json:"originalPartnerInstitution,omitempty"`
	IsPartneredCourse           bool   `json:"isPartneredCourse"`
	LeadCompany                 string `json:"leadCompany,omitempty"`

	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	EnrollmentCount   int    `json:"enrollmentCount"`
	EnrollmentDisplay string `json:"enrollmentDisplay"`
	CompletedCount    int    `json:"completedCount"`
	CompletedDisplay  string `json:"completedDisplay"`
	EmployedCount     int    `json:"employedCount"`
	EmployedCount3Mo  int    `json:"employedCount3mo"`
	EmployedCount6Mo  int    `json:"employedCount6mo"`
	Capacity          int    `json:"capacity"`

	CompletionRatePercent float64 `json:"completionRatePercent"`
	SatisfactionScore     float64 `json:"satisfactionScore"`
	EmploymentRatePercent float64 `json:"employmentRatePercent"`

	RevenueByYear         YearAmounts    `json:"revenueByYear"`
	AdjustedRevenueByYear YearAmounts    `json:"adjustedRevenueByYear"`
	RevenueAdjusted       bool           `json:"revenueAdjusted"`
	RevenueVsActual       generic.Amount `json:"revenueVsActual"`
	CumulativeRevenue     generic.Amount `json:"cumulativeRevenue"`

	TrainingType     string   `json:"trainingType"`
	TrainingTypeTags []string `json:"trainingTypeTags"`

	Row         int          `json:"row"`
	ParseIssues []FieldIssue `json:"parseIssues,omitempty"`
}

func (r ProcessedRecord) StartYear() int { return r.StartDate.Year() }
func (r ProcessedRecord) EndYear() int   { return r.EndDate.Year() }

// Period returns the delivery window [StartDate, EndDate].
func (r ProcessedRecord) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

// HasIssue reports whether field was defaulted during processing.
func (r ProcessedRecord) HasIssue(field string) bool {
	for _, is := range r.ParseIssues {
		if is.Field == field {
			return true
		}
	}
	return false
}

// HasTag reports whether the record carries the training-type tag.
func (r ProcessedRecord) HasTag(tag string) bool {
	for _, t := range r.TrainingTypeTags {
		if t == tag {
			return true
		}
	}
	return false
}
