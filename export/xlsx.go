// Package export renders reports as XLSX workbooks for finance.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/training-report/report"
)

const (
	InstitutionSheet = "기관별"
	MonthlySheet     = "월별"
	YearlySheet      = "연도별"
)

// Workbook is the content of one export.
type Workbook struct {
	Year         int
	Institutions []report.InstitutionStat
	Totals       report.Totals
	Months       []report.MonthlyStat
	Years        []report.YearlyStat
}

var institutionHeader = []any{
	"기관", "매출", "과정수", "수강인원", "수료인원",
	"수료율", "수료율 상세", "취업률", "취업률 상세", "만족도", "모집률", "모집률 상세",
}

var monthlyHeader = []any{"월", "매출", "수강인원", "수료인원", "취업인원", "과정수", "수료율", "기관수"}

var yearlyHeader = []any{"연도", "매출", "보정매출", "수강인원", "수료인원", "취업인원", "수료율", "취업률", "기관수", "과정수"}

// Write renders the workbook to w.
func Write(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InstitutionSheet); err != nil {
		return err
	}
	if err := writeInstitutions(f, wb); err != nil {
		return err
	}
	if len(wb.Months) > 0 {
		if err := writeMonths(f, wb.Months); err != nil {
			return err
		}
	}
	if len(wb.Years) > 0 {
		if err := writeYears(f, wb.Years); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeInstitutions(f *excelize.File, wb Workbook) error {
	rows := [][]any{institutionHeader}
	for _, s := range wb.Institutions {
		rows = append(rows, []any{
			s.Institution, s.TotalRevenue.Float64(),
			s.CourseCountDisplay, s.StudentCountDisplay, s.CompletedCountDisplay,
			s.CompletionRate, s.CompletionDetail,
			s.EmploymentRate, s.EmploymentDetail,
			s.Satisfaction, s.RecruitmentRate, s.RecruitmentDetail,
		})
	}
	rows = append(rows, []any{
		"합계", wb.Totals.Revenue.Float64(),
		wb.Totals.CourseCount, wb.Totals.StudentCount, wb.Totals.CompletedCount,
	})
	return writeRows(f, InstitutionSheet, rows)
}

func writeMonths(f *excelize.File, months []report.MonthlyStat) error {
	if _, err := f.NewSheet(MonthlySheet); err != nil {
		return err
	}
	rows := [][]any{monthlyHeader}
	for _, m := range months {
		rows = append(rows, []any{
			m.Month, m.Revenue.Float64(), m.StudentCount, m.CompletedCount,
			m.EmployedCount, m.CourseCount, m.CompletionRate, m.InstitutionCount,
		})
	}
	return writeRows(f, MonthlySheet, rows)
}

func writeYears(f *excelize.File, years []report.YearlyStat) error {
	if _, err := f.NewSheet(YearlySheet); err != nil {
		return err
	}
	rows := [][]any{yearlyHeader}
	for _, y := range years {
		rows = append(rows, []any{
			y.Year, y.Revenue.Float64(), y.AdjustedRevenue.Float64(),
			y.StudentCount, y.CompletedCount, y.EmployedCount,
			y.CompletionRate, y.EmploymentRate, y.InstitutionCount, y.CourseCount,
		})
	}
	return writeRows(f, YearlySheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
