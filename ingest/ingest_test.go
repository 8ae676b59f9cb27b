package ingest_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/ingest"
)

// =============================================================================
// CSV
// =============================================================================

func TestReadCSV_HeaderWithBOM(t *testing.T) {
	// GIVEN: A spreadsheet export with a UTF-8 BOM, an extra column and a blank row
	// WHEN: Reading it
	// THEN: Recognized columns are mapped, unknown ones reported, blank rows skipped

	data := "\ufeff고유값,과정명,훈련기관,비고,수강신청 인원,2024년\n" +
		"R-1,클라우드,멀티캠퍼스,메모,30,\"1,000,000\"\n" +
		",,,,,\n" +
		"R-2,보안,\"엘리스 (주)\",,120(30),\n"

	feed, err := ingest.ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	require.Len(t, feed.Records, 2)
	assert.Equal(t, []string{"비고"}, feed.UnknownColumns)
	assert.Equal(t, 1, feed.SkippedRows)

	first := feed.Records[0]
	assert.Equal(t, course.Cell("R-1"), first.UniqueID)
	assert.Equal(t, course.Cell("멀티캠퍼스"), first.Institution)
	assert.Equal(t, course.Cell("1,000,000"), first.Revenue2024)
	assert.Equal(t, course.Cell("엘리스 (주)"), feed.Records[1].Institution)
	assert.Equal(t, course.Cell("120(30)"), feed.Records[1].Enrollment)
}

func TestReadCSV_ShortRows(t *testing.T) {
	data := "고유값,과정명,훈련기관\nR-1\nR-2,보안,구름,extra\n"

	feed, err := ingest.ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	require.Len(t, feed.Records, 2)
	assert.Equal(t, course.Cell(""), feed.Records[0].CourseName)
	assert.Equal(t, course.Cell("구름"), feed.Records[1].Institution)
}

func TestReadCSV_MissingUniqueIDColumn(t *testing.T) {
	_, err := ingest.ReadCSV(strings.NewReader("과정명,훈련기관\n보안,구름\n"))

	assert.ErrorIs(t, err, generic.ErrUnknownColumn)
	assert.True(t, generic.IsClientError(err))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ingest.ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, generic.ErrEmptyFeed)
}

func TestRead_DispatchesOnExtension(t *testing.T) {
	feed, err := ingest.Read(strings.NewReader("고유값\nR-1\n"), "feed.CSV")
	require.NoError(t, err)
	assert.Len(t, feed.Records, 1)

	_, err = ingest.Read(strings.NewReader("{}"), "feed.json")
	assert.ErrorIs(t, err, generic.ErrUnsupportedFormat)
}

// =============================================================================
// XLSX
// =============================================================================

func workbook(t *testing.T, build func(f *excelize.File)) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	build(f)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadXLSX_FirstDecodableSheet(t *testing.T) {
	// GIVEN: A workbook whose first sheet is a cover page and second holds the feed
	// WHEN: Reading without naming a sheet
	// THEN: The first sheet with a 고유값 header is decoded

	buf := workbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"교육 실적 보고"}))
		_, err := f.NewSheet("데이터")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("데이터", "A1", &[]interface{}{"고유값", "과정명", "수강신청 인원", "2024년"}))
		require.NoError(t, f.SetSheetRow("데이터", "A2", &[]interface{}{"X-1", "데이터 분석", 30, "9,000,000"}))
		require.NoError(t, f.SetSheetRow("데이터", "A3", &[]interface{}{"X-2", "웹 개발", 25, "1,000"}))
	})

	feed, err := ingest.Read(buf, "report.xlsx")
	require.NoError(t, err)

	require.Len(t, feed.Records, 2)
	assert.Equal(t, course.Cell("X-1"), feed.Records[0].UniqueID)
	assert.Equal(t, course.Cell("30"), feed.Records[0].Enrollment)
	assert.Equal(t, course.Cell("9,000,000"), feed.Records[0].Revenue2024)
	assert.Empty(t, feed.UnknownColumns)
}

func TestReadXLSX_NoFeedSheet(t *testing.T) {
	buf := workbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"과정명"}))
	})

	_, err := ingest.ReadXLSX(buf, "")
	assert.ErrorIs(t, err, generic.ErrUnknownColumn)
}

func TestReadXLSX_DateCells(t *testing.T) {
	// GIVEN: Native Excel date cells next to a text date and an unformatted number
	// WHEN: Reading the workbook
	// THEN: Date cells come back as YYYY-MM-DD, not in the sheet's display format

	buf := workbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"고유값", "과정시작일", "과정종료일", "수강신청 인원"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{
			"D-1", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), "2024-06-28", 30,
		}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{
			"D-2", "2024.03.04", time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC), 20,
		}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"D-3", 20240902, "", 10}))
	})

	feed, err := ingest.ReadXLSX(buf, "")
	require.NoError(t, err)
	require.Len(t, feed.Records, 3)

	assert.Equal(t, course.Cell("2024-01-15"), feed.Records[0].StartDate)
	assert.Equal(t, course.Cell("2024-06-28"), feed.Records[0].EndDate)
	assert.Equal(t, course.Cell("2024.03.04"), feed.Records[1].StartDate)
	assert.Equal(t, course.Cell("2024-12-20"), feed.Records[1].EndDate)
	assert.Equal(t, course.Cell("20240902"), feed.Records[2].StartDate)
	assert.Equal(t, course.Cell("30"), feed.Records[0].Enrollment)

	start, err := course.ParseDate(feed.Records[0].StartDate.String())
	require.NoError(t, err)
	assert.Equal(t, generic.NewDate(2024, time.January, 15), start)
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ingest.ReadXLSX(strings.NewReader("not a zip"), "")

	require.Error(t, err)
	assert.True(t, generic.IsClientError(err), "a broken upload is a client error")
}
