package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/institution"
	"github.com/warp/training-report/pipeline"
	"github.com/warp/training-report/revenue"
	"github.com/warp/training-report/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func processed(rows ...course.RawRecord) []course.ProcessedRecord {
	grouper := institution.NewGrouper(institution.DefaultTable())
	clock := generic.FixedClock(generic.NewDate(2024, time.July, 1))
	return pipeline.NewTransformer(grouper, clock).Process(rows)
}

func sampleRows() []course.RawRecord {
	return []course.RawRecord{
		{
			UniqueID: "LC-1", CourseName: "AI 서비스 개발자", CourseID: "LC2024-001", RunLabel: "1",
			Institution: "그렙", Partner: "케이티", LeadCompany: "Y",
			StartDate: "2024-02-05", EndDate: "2024-07-26",
			Enrollment: "120(30)", Completed: "96(20)", Satisfaction: "92.5",
			Employed: "10", Employed3Mo: "20", Employed6Mo: "41", Capacity: "150",
			Revenue2023: "0.5", Revenue2024: "1,234,567,890.12",
			RevenueVsActual: "100", CumulativeRevenue: "200",
		},
		{
			UniqueID: "MF-2", CourseName: "모바일 앱 개발", Institution: "코드스테이츠",
			StartDate: "미정", EndDate: "2024-09-30", Enrollment: "35",
		},
	}
}

// =============================================================================
// COURSE RECORDS
// =============================================================================

func TestStore_UpsertAndGet_RoundTrip(t *testing.T) {
	// GIVEN: A processed partnered run with carried-over counts and decimal revenue
	// WHEN: Writing and reading it back
	// THEN: Every field survives, including the adjusted flag

	store := newStore(t)
	ctx := context.Background()
	want := processed(sampleRows()...)

	require.NoError(t, store.Upsert(ctx, want))

	got, err := store.Get(ctx, "LC-1")
	require.NoError(t, err)

	w := want[0]
	assert.Equal(t, w.CourseName, got.CourseName)
	assert.Equal(t, "그렙", got.TrainingInstitution)
	assert.Equal(t, "KT", got.PartnerInstitution)
	assert.Equal(t, "케이티", got.OriginalPartnerInstitution)
	assert.True(t, got.IsPartneredCourse)
	assert.Equal(t, "Y", got.LeadCompany)
	assert.True(t, got.StartDate.Equal(w.StartDate))
	assert.True(t, got.EndDate.Equal(w.EndDate))
	assert.Equal(t, 120, got.EnrollmentCount)
	assert.Equal(t, "120(30)", got.EnrollmentDisplay)
	assert.Equal(t, "96(20)", got.CompletedDisplay)
	assert.Equal(t, 41, got.EmployedCount6Mo)
	assert.Equal(t, 150, got.Capacity)
	assert.Equal(t, w.CompletionRatePercent, got.CompletionRatePercent)
	assert.Equal(t, 92.5, got.SatisfactionScore)
	assert.Equal(t, w.TrainingTypeTags, got.TrainingTypeTags)
	assert.Equal(t, w.TrainingType, got.TrainingType)
	assert.Equal(t, 1, got.Row)
	assert.Empty(t, got.ParseIssues)

	assert.True(t, got.RevenueAdjusted)
	for _, year := range course.RevenueYears() {
		assert.True(t, got.RevenueByYear.Get(year).Equal(w.RevenueByYear.Get(year)), "raw %d", year)
		assert.True(t, got.AdjustedRevenueByYear.Get(year).Equal(w.AdjustedRevenueByYear.Get(year)), "adjusted %d", year)
	}
	assert.True(t, got.RevenueVsActual.Equal(generic.NewAmountFromInt(100)))
	assert.True(t, got.CumulativeRevenue.Equal(generic.NewAmountFromInt(200)))

	// A reloaded record is not adjusted a second time.
	assert.True(t, revenue.CourseRevenue(&got, 2024, false).Equal(revenue.CourseRevenue(&w, 2024, false)))
}

func TestStore_ParseIssuesSurvive(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, processed(sampleRows()...)))

	got, err := store.Get(ctx, "MF-2")
	require.NoError(t, err)

	require.Len(t, got.ParseIssues, 1)
	assert.Equal(t, course.ColStartDate, got.ParseIssues[0].Field)
	assert.Equal(t, "미정", got.ParseIssues[0].Value)
	assert.Equal(t, "모바일 앱 개발", got.CourseID)
}

func TestStore_Upsert_ReplacesByUniqueID(t *testing.T) {
	// GIVEN: A stored run
	// WHEN: The same unique id is imported again with new counts
	// THEN: The row is replaced, not duplicated

	store := newStore(t)
	ctx := context.Background()
	rows := sampleRows()
	require.NoError(t, store.Upsert(ctx, processed(rows...)))

	rows[0].Completed = "100"
	require.NoError(t, store.Upsert(ctx, processed(rows[0])))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := store.Get(ctx, "LC-1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.CompletedCount)
}

func TestStore_List_OrderedByRow(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	recs := processed(sampleRows()...)
	recs[0].Row, recs[1].Row = 5, 2
	require.NoError(t, store.Upsert(ctx, recs))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "MF-2", list[0].UniqueID)
	assert.Equal(t, "LC-1", list[1].UniqueID)
}

func TestStore_GetAndDelete_NotFound(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "missing"), generic.ErrRecordNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, processed(sampleRows()...)))

	require.NoError(t, store.Delete(ctx, "LC-1"))

	_, err := store.Get(ctx, "LC-1")
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_EmptyList(t *testing.T) {
	list, err := newStore(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// =============================================================================
// IMPORT LOG
// =============================================================================

func TestStore_Imports_NewestFirstAndReset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordImport(ctx, course.Import{
		ID: "imp-1", Source: "feed.csv", RecordCount: 10, ImportedAt: base,
	}))
	require.NoError(t, store.RecordImport(ctx, course.Import{
		ID: "imp-2", Source: "feed.xlsx", RecordCount: 12, SkippedRows: 1,
		UnknownColumns: []string{"비고"}, ImportedAt: base.Add(time.Hour),
	}))
	require.NoError(t, store.Upsert(ctx, processed(sampleRows()...)))

	imports, err := store.ListImports(ctx)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, "imp-2", imports[0].ID)
	assert.Equal(t, []string{"비고"}, imports[0].UnknownColumns)
	assert.Equal(t, 1, imports[0].SkippedRows)
	assert.True(t, imports[0].ImportedAt.Equal(base.Add(time.Hour)))
	assert.Equal(t, "imp-1", imports[1].ID)

	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	imports, err = store.ListImports(ctx)
	require.NoError(t, err)
	assert.Empty(t, imports)
}

func TestStore_Ping(t *testing.T) {
	assert.NoError(t, newStore(t).Ping(context.Background()))
}
