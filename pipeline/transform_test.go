package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/institution"
	"github.com/warp/training-report/pipeline"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var today = generic.NewDate(2024, time.July, 1)

func newTransformer() *pipeline.Transformer {
	grouper := institution.NewGrouper(institution.DefaultTable())
	return pipeline.NewTransformer(grouper, generic.FixedClock(today))
}

// =============================================================================
// TRANSFORM
// =============================================================================

func TestTransform_NormalizesRow(t *testing.T) {
	// GIVEN: A formatted feed row for a multicampus run
	// WHEN: Transforming it
	// THEN: Fields are parsed, the institution is grouped and revenue is adjusted

	raw := course.RawRecord{
		UniqueID:     " MC-01 ",
		CourseName:   "재직자 데이터 분석 심화",
		CourseID:     "AIG2024-210",
		RunLabel:     "1",
		Institution:  "(주)멀티캠퍼스",
		StartDate:    "2024/04/01",
		EndDate:      "2024.06.28",
		Enrollment:   "25",
		Completed:    "20",
		Satisfaction: "94.2",
		Employed6Mo:  "15",
		Capacity:     "30",
		Revenue2024:  "10,000,000",
	}

	rec := newTransformer().Transform(raw, 7)

	assert.Equal(t, "MC-01", rec.UniqueID)
	assert.Equal(t, "멀티캠퍼스", rec.TrainingInstitution)
	assert.Equal(t, "(주)멀티캠퍼스", rec.OriginalTrainingInstitution)
	assert.False(t, rec.IsPartneredCourse)
	assert.True(t, rec.StartDate.Equal(generic.NewDate(2024, time.April, 1)))
	assert.True(t, rec.EndDate.Equal(generic.NewDate(2024, time.June, 28)))
	assert.Equal(t, 25, rec.EnrollmentCount)
	assert.Equal(t, 20, rec.CompletedCount)
	assert.Equal(t, 80.0, rec.CompletionRatePercent, "derived from counts")
	assert.Equal(t, 94.2, rec.SatisfactionScore)
	assert.Equal(t, 15, rec.EmployedCount6Mo)
	assert.Equal(t, 30, rec.Capacity)
	assert.Equal(t, "재직자 훈련&심화 훈련", rec.TrainingType)
	assert.Equal(t, 7, rec.Row)
	assert.Empty(t, rec.ParseIssues)

	assert.True(t, rec.RevenueAdjusted)
	assert.True(t, rec.RevenueByYear.Get(2024).Equal(generic.ParseAmount("10000000")))
	assert.True(t, rec.AdjustedRevenueByYear.Get(2024).Equal(generic.ParseAmount("10500000")))
}

func TestTransform_ExplicitCompletionRateWins(t *testing.T) {
	raw := course.RawRecord{
		UniqueID:       "R-1",
		Enrollment:     "120(30)",
		Completed:      "96(20)",
		CompletionRate: "75%",
		StartDate:      "2024-01-15",
		EndDate:        "2024-06-14",
	}

	rec := newTransformer().Transform(raw, 1)

	assert.Equal(t, 120, rec.EnrollmentCount)
	assert.Equal(t, "120(30)", rec.EnrollmentDisplay)
	assert.Equal(t, 96, rec.CompletedCount)
	assert.Equal(t, "96(20)", rec.CompletedDisplay)
	assert.Equal(t, 75.0, rec.CompletionRatePercent)
}

func TestTransform_UnparsableDateFallsBackToToday(t *testing.T) {
	// GIVEN: A row whose start date is "미정"
	// WHEN: Transforming it
	// THEN: The start date becomes the processing day and the issue is recorded

	raw := course.RawRecord{UniqueID: "MF-02", StartDate: "미정", EndDate: "2024-09-30"}

	rec := newTransformer().Transform(raw, 2)

	assert.True(t, rec.StartDate.Equal(today))
	assert.True(t, rec.EndDate.Equal(generic.NewDate(2024, time.September, 30)))
	require.Len(t, rec.ParseIssues, 1)
	assert.Equal(t, course.ColStartDate, rec.ParseIssues[0].Field)
	assert.Equal(t, "미정", rec.ParseIssues[0].Value)
	assert.True(t, rec.HasIssue(course.ColStartDate))
}

func TestTransform_NegativeCountsClampToZero(t *testing.T) {
	// GIVEN: A row with negative enrollment, completed and employed counts
	// WHEN: Transforming it
	// THEN: Every count is 0 and each substitution is recorded

	raw := course.RawRecord{
		UniqueID: "NEG-1", StartDate: "2024-01-08", EndDate: "2024-03-29",
		Enrollment: "-5", Completed: "-3", Employed: "-2", Capacity: "20",
	}

	rec := newTransformer().Transform(raw, 1)

	assert.Zero(t, rec.EnrollmentCount)
	assert.Equal(t, "0", rec.EnrollmentDisplay)
	assert.Zero(t, rec.CompletedCount)
	assert.Equal(t, "0", rec.CompletedDisplay)
	assert.Zero(t, rec.EmployedCount)
	assert.Equal(t, 20, rec.Capacity)
	assert.Zero(t, rec.CompletionRatePercent)

	require.Len(t, rec.ParseIssues, 3)
	for _, is := range rec.ParseIssues {
		assert.Equal(t, course.IssueNegativeCount, is.Issue)
	}
	assert.True(t, rec.HasIssue(course.ColEnrollment))
	assert.True(t, rec.HasIssue(course.ColCompleted))
	assert.True(t, rec.HasIssue(course.ColEmployed))
	assert.Equal(t, "-5", rec.ParseIssues[0].Value)
}

func TestTransform_PartneredNeedsFlagAndPartner(t *testing.T) {
	tr := newTransformer()

	partnered := tr.Transform(course.RawRecord{
		UniqueID: "LC-1", CourseName: "AI 서비스", Institution: "그렙", Partner: "케이티", LeadCompany: "Y",
	}, 1)
	assert.True(t, partnered.IsPartneredCourse)
	assert.Equal(t, "KT", partnered.PartnerInstitution)
	assert.Equal(t, "케이티", partnered.OriginalPartnerInstitution)
	assert.True(t, partnered.HasTag(institution.TagPartnered))

	// The flag alone keeps the tag but not the split.
	flagOnly := tr.Transform(course.RawRecord{
		UniqueID: "LC-2", CourseName: "AI 서비스", Institution: "그렙", LeadCompany: "Y",
	}, 2)
	assert.False(t, flagOnly.IsPartneredCourse)
	assert.Empty(t, flagOnly.PartnerInstitution)
	assert.True(t, flagOnly.HasTag(institution.TagPartnered))

	zeroFlag := tr.Transform(course.RawRecord{
		UniqueID: "LC-3", Institution: "그렙", Partner: "KT", LeadCompany: "0",
	}, 3)
	assert.False(t, zeroFlag.IsPartneredCourse)
	assert.Empty(t, zeroFlag.PartnerInstitution)
}

func TestTransform_CourseIDFallsBackToName(t *testing.T) {
	rec := newTransformer().Transform(course.RawRecord{UniqueID: "R", CourseName: "모바일 앱 개발"}, 1)
	assert.Equal(t, "모바일 앱 개발", rec.CourseID)
}

func TestProcess_NumbersRowsFromOne(t *testing.T) {
	recs := newTransformer().Process([]course.RawRecord{{UniqueID: "A"}, {UniqueID: "B"}})

	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Row)
	assert.Equal(t, 2, recs[1].Row)
}
