/*
handlers_test.go - Tests for API handlers

Tests for:
- Record submission, upload and retrieval
- Report endpoints and year validation
- Error mapping (400/404)
- Metrics and export endpoints
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/health"
	"github.com/warp/training-report/institution"
	"github.com/warp/training-report/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testToday = generic.NewDate(2025, time.March, 1)

func setupTestHandler(t *testing.T) (*Handler, *chi.Mux) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	grouper := institution.NewGrouper(institution.DefaultTable())
	handler := NewHandler(store, grouper, generic.FixedClock(testToday), logger)
	return handler, NewRouter(handler, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, router http.Handler, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return do(t, router, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func upload(t *testing.T, router http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return do(t, router, http.MethodPost, "/api/records/import", &body, mw.FormDataContentType())
}

func academyRecords() CreateRecordsRequest {
	return CreateRecordsRequest{
		Source: "unit-test",
		Records: []course.RawRecord{
			{
				UniqueID: "A-1", CourseName: "클라우드 엔지니어", Institution: "(주)멀티캠퍼스",
				StartDate: "2024-03-04", EndDate: "2024-08-30",
				Enrollment: "100", Completed: "80", Capacity: "120",
				Revenue2024: "10,000,000",
			},
			{
				UniqueID: "A-2", CourseName: "데이터 분석", Institution: "엘리스",
				StartDate: "2024-05-01", EndDate: "2024-10-31",
				Enrollment: "40", Completed: "30",
				Revenue2024: "2,000,000",
			},
		},
	}
}

// =============================================================================
// RECORDS
// =============================================================================

func TestCreateRecords_StoresAndLists(t *testing.T) {
	// GIVEN: Two raw rows posted as JSON
	// WHEN: Creating and listing records
	// THEN: Both are stored, grouped and retrievable by unique id

	_, router := setupTestHandler(t)

	rec := postJSON(t, router, "/api/records", academyRecords())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, 2, resp.RecordCount)
	assert.Equal(t, "unit-test", resp.Source)
	assert.NotEmpty(t, resp.ImportID)
	assert.True(t, resp.Health.Healthy)

	list := decode[RecordListResponse](t, do(t, router, http.MethodGet, "/api/records", nil, ""))
	assert.Equal(t, 2, list.Count)

	filtered := decode[RecordListResponse](t, do(t, router, http.MethodGet, "/api/records?institution=multicampus", nil, ""))
	require.Equal(t, 1, filtered.Count)
	assert.Equal(t, "A-1", filtered.Records[0].UniqueID)

	got := do(t, router, http.MethodGet, "/api/records/A-1", nil, "")
	require.Equal(t, http.StatusOK, got.Code)
	stored := decode[course.ProcessedRecord](t, got)
	assert.Equal(t, "멀티캠퍼스", stored.TrainingInstitution)
	assert.True(t, stored.RevenueAdjusted)

	imports := decode[[]course.Import](t, do(t, router, http.MethodGet, "/api/imports", nil, ""))
	require.Len(t, imports, 1)
	assert.Equal(t, resp.ImportID, imports[0].ID)
}

func TestCreateRecords_ValidationErrors(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := postJSON(t, router, "/api/records", map[string]any{"records": []any{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "VALIDATION_FAILED", errResp.Code)
	assert.Contains(t, rec.Body.String(), `"field":"records"`)
	assert.Contains(t, rec.Body.String(), `"rule":"min"`)

	rec = postJSON(t, router, "/api/records", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rule":"required"`)

	rec = do(t, router, http.MethodPost, "/api/records", strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRecords_MissingUniqueID(t *testing.T) {
	_, router := setupTestHandler(t)

	req := academyRecords()
	req.Records[1].UniqueID = "  "

	rec := postJSON(t, router, "/api/records", req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "row 2")
	list := decode[RecordListResponse](t, do(t, router, http.MethodGet, "/api/records", nil, ""))
	assert.Zero(t, list.Count, "nothing is stored when a row is rejected")
}

func TestGetAndDeleteRecord_NotFound(t *testing.T) {
	_, router := setupTestHandler(t)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/records/missing", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/records/missing", nil, "").Code)
}

func TestDeleteRecord(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/records", academyRecords()).Code)

	rec := do(t, router, http.MethodDelete, "/api/records/A-2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/records/A-2", nil, "").Code)
}

// =============================================================================
// UPLOADS
// =============================================================================

func TestImportRecords_CSV(t *testing.T) {
	// GIVEN: A CSV feed with an unrecognized column and a blank row
	// WHEN: Uploading it
	// THEN: Rows are stored and the response reports the extras

	_, router := setupTestHandler(t)
	csv := "고유값,과정명,훈련기관,비고,과정시작일,과정종료일,수강신청 인원,수료인원,2024년\n" +
		"C-1,보안 엔지니어,구름,메모,2024-01-08,2024-06-28,30,27,\"5,000,000\"\n" +
		",,,,,,,,\n" +
		"C-2,웹 개발,goorm,,2024-02-05,미정,20,15,\"1,000,000\"\n"

	rec := upload(t, router, "feed.csv", csv)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, "feed.csv", resp.Source)
	assert.Equal(t, 2, resp.RecordCount)
	assert.Equal(t, 1, resp.SkippedRows)
	assert.Equal(t, []string{"비고"}, resp.UnknownColumns)
	assert.False(t, resp.Health.Healthy, "the unparsable end date is a row error")
	assert.Equal(t, 1, resp.Health.ErrorCount)

	report := decode[InstitutionReportResponse](t, do(t, router, http.MethodGet, "/api/reports/institutions?year=2024", nil, ""))
	require.Len(t, report.Institutions, 1)
	assert.Equal(t, "구름", report.Institutions[0].Institution)
	assert.Equal(t, "2", report.Institutions[0].CourseCountDisplay)
}

func TestImportRecords_RowsWithoutUniqueID(t *testing.T) {
	// GIVEN: A CSV feed where two of three rows have a blank 고유값
	// WHEN: Uploading it
	// THEN: Only the keyed row is stored; the others are counted and reported, not merged

	_, router := setupTestHandler(t)
	csv := "고유값,과정명,훈련기관,과정시작일,과정종료일,수강신청 인원,수료인원,2024년\n" +
		",A과정,멀티캠퍼스,2024-01-08,2024-06-28,10,8,\"1,000,000\"\n" +
		" ,B과정,엘리스,2024-01-08,2024-06-28,10,8,\"2,000,000\"\n" +
		"G-1,C과정,구름,2024-01-08,2024-06-28,10,8,\"3,000,000\"\n"

	rec := upload(t, router, "feed.csv", csv)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, 1, resp.RecordCount)
	assert.Equal(t, 2, resp.RejectedRows)
	assert.False(t, resp.Health.Healthy)
	assert.Equal(t, 2, resp.Health.ErrorCount)

	list := decode[RecordListResponse](t, do(t, router, http.MethodGet, "/api/records", nil, ""))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "G-1", list.Records[0].UniqueID)
	assert.Equal(t, "C과정", list.Records[0].CourseName)
}

func TestImportRecords_DuplicateUniqueID(t *testing.T) {
	_, router := setupTestHandler(t)
	csv := "고유값,과정명,훈련기관,과정시작일,과정종료일,2024년\n" +
		"D-1,첫 과정,구름,2024-01-08,2024-06-28,100\n" +
		"D-1,둘째 과정,구름,2024-02-05,2024-07-26,200\n"

	rec := upload(t, router, "feed.csv", csv)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, 1, resp.Health.ErrorCount)

	check := decode[health.Report](t, do(t, router, http.MethodGet, "/api/health-check", nil, ""))
	assert.Zero(t, check.ErrorCount(health.ErrDuplicateID), "stored runs are keyed, so the store holds one")
}

func TestImportRecords_Rejections(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := upload(t, router, "feed.pdf", "%PDF")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, router, "feed.csv", "과정명,훈련기관\n보안,구름\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), course.ColUniqueID)

	rec = upload(t, router, "feed.csv", "고유값,과정명\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/records/import", strings.NewReader("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestInstitutionReport_YearScopes(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/records", academyRecords()).Code)

	for _, query := range []string{"", "?year=all", "?year=2024"} {
		rec := do(t, router, http.MethodGet, "/api/reports/institutions"+query, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, query)

		resp := decode[InstitutionReportResponse](t, rec)
		assert.Equal(t, "2025-03-01", resp.AsOf)
		require.Len(t, resp.Institutions, 2, query)
		assert.Equal(t, "멀티캠퍼스", resp.Institutions[0].Institution)
		assert.True(t, resp.Institutions[0].TotalRevenue.Equal(generic.NewAmountFromInt(10500000)), query)
		assert.Equal(t, 80.0, resp.Institutions[0].CompletionRate)
		assert.Equal(t, 2, resp.Totals.InstitutionCount)
		assert.Equal(t, 140, resp.Totals.StudentCount)
	}
}

func TestReports_InvalidYear(t *testing.T) {
	_, router := setupTestHandler(t)

	for _, path := range []string{
		"/api/reports/institutions?year=2019",
		"/api/reports/yearly?year=2027",
		"/api/reports/monthly?year=abc",
		"/api/reports/institutions/goorm/courses?year=1999",
		"/api/reports/export.xlsx?year=2030",
	} {
		rec := do(t, router, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestYearlyAndMonthlyReports(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/records", academyRecords()).Code)

	all := decode[YearlyReportResponse](t, do(t, router, http.MethodGet, "/api/reports/yearly", nil, ""))
	assert.Len(t, all.Years, 6)

	one := decode[YearlyReportResponse](t, do(t, router, http.MethodGet, "/api/reports/yearly?year=2024", nil, ""))
	require.Len(t, one.Years, 1)
	assert.Equal(t, 2, one.Years[0].CourseCount)
	assert.True(t, one.Years[0].Revenue.Equal(generic.NewAmountFromInt(12000000)))

	monthly := decode[MonthlyReportResponse](t, do(t, router, http.MethodGet, "/api/reports/monthly?year=2024", nil, ""))
	require.Len(t, monthly.Months, 12)
	assert.Equal(t, "2024-03", monthly.Months[2].Month)
	assert.Equal(t, 100, monthly.Months[2].StudentCount)
	assert.Equal(t, 40, monthly.Months[4].StudentCount)
}

func TestInstitutionCourses(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/records", academyRecords()).Code)

	rec := do(t, router, http.MethodGet, "/api/reports/institutions/MULTICAMPUS/courses?year=2024", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[CourseRowsResponse](t, rec)
	assert.Equal(t, "멀티캠퍼스", resp.Institution)
	require.Len(t, resp.Courses, 1)
	assert.Equal(t, "A-1", resp.Courses[0].UniqueID)
	assert.Equal(t, "(주)멀티캠퍼스", resp.Courses[0].OriginalInstitution)
	assert.Equal(t, 10500000.0, resp.Courses[0].AssignedRevenue)
	assert.Equal(t, 1.0, resp.Courses[0].RevenueShare)
}

func TestExportReport(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/records", academyRecords()).Code)

	rec := do(t, router, http.MethodGet, "/api/reports/export.xlsx?year=2024", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "training-report-2024.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("기관별")
	require.NoError(t, err)
	assert.Len(t, rows, 4, "header, two institutions, totals")
}

// =============================================================================
// DATA QUALITY AND OPERATIONS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	_, router := setupTestHandler(t)
	req := academyRecords()
	req.Records[0].StartDate = "미정"
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/records", req).Code)

	rec := do(t, router, http.MethodGet, "/api/health-check", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[health.Report](t, rec)
	assert.False(t, report.Healthy)
	assert.Equal(t, 2, report.TotalRecords)
	assert.Equal(t, 1, report.ErrorCount(health.ErrDateFallback))
}

func TestGroupTable(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/institutions/groups", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "멀티캠퍼스")
	assert.Contains(t, rec.Body.String(), `"keywords"`)
}

func TestResetDatabase(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/records", academyRecords()).Code)

	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/reset", nil, "").Code)

	list := decode[RecordListResponse](t, do(t, router, http.MethodGet, "/api/records", nil, ""))
	assert.Zero(t, list.Count)
	assert.NotNil(t, list.Records)
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/records", academyRecords()).Code)
	do(t, router, http.MethodGet, "/api/records/A-1", nil, "")

	rec := do(t, router, http.MethodGet, "/metrics", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `training_report_records_imported_total{source="json"} 2`)
	assert.Contains(t, body, "training_report_stored_records 2")
	assert.Contains(t, body, `route="/api/records/{id}"`)
}

func TestHealthz(t *testing.T) {
	_, router := setupTestHandler(t)
	rec := do(t, router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// HELPERS
// =============================================================================

func TestParseYear(t *testing.T) {
	year, err := parseYear("")
	require.NoError(t, err)
	assert.Zero(t, year)

	year, err = parseYear("ALL")
	require.NoError(t, err)
	assert.Zero(t, year)

	year, err = parseYear("2023")
	require.NoError(t, err)
	assert.Equal(t, 2023, year)

	_, err = parseYear("2020")
	assert.ErrorIs(t, err, generic.ErrInvalidYear)
	_, err = parseYear("next")
	assert.ErrorIs(t, err, generic.ErrInvalidYear)
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "csv", sourceLabel("feed.CSV"))
	assert.Equal(t, "xlsx", sourceLabel("2024 실적.xlsx"))
	assert.Equal(t, "json", sourceLabel("scenario:multi-year"))
	assert.Equal(t, "json", sourceLabel("trailing."))
}
