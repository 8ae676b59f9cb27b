package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
)

// ReadXLSX decodes a workbook. An empty sheet name selects the first sheet
// whose header row carries the unique-id column.
func ReadXLSX(r io.Reader, sheet string) (Feed, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Feed{}, &generic.ParseError{Field: "xlsx", Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer f.Close()

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	sheets := []string{sheet}
	if sheet == "" {
		sheets = f.GetSheetList()
	}

	var firstErr error
	for _, name := range sheets {
		rows, err := readSheet(f, name, date1904)
		if err != nil {
			return Feed{}, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		feed, err := decode(rows)
		if err == nil {
			return feed, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = generic.ErrEmptyFeed
	}
	return Feed{}, firstErr
}

// readSheet returns the sheet's cells as displayed, except that date cells
// stored as Excel serial numbers are rewritten as YYYY-MM-DD. The displayed
// form of such a cell follows the workbook's number format ("01-15-24"),
// which the date parser cannot read.
func readSheet(f *excelize.File, name string, date1904 bool) ([][]string, error) {
	rows, err := f.GetRows(name)
	if err != nil || len(rows) == 0 {
		return rows, err
	}

	var dateCols []int
	for i, c := range rows[0] {
		switch strings.TrimSpace(strings.TrimPrefix(c, bom)) {
		case course.ColStartDate, course.ColEndDate:
			dateCols = append(dateCols, i)
		}
	}
	if len(dateCols) == 0 {
		return rows, nil
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	for r := 1; r < len(rows) && r < len(raw); r++ {
		for _, c := range dateCols {
			if c >= len(rows[r]) || c >= len(raw[r]) {
				continue
			}
			value := strings.TrimSpace(raw[r][c])
			// Unformatted cells display their raw value; leave them to the parser.
			if value == strings.TrimSpace(rows[r][c]) {
				continue
			}
			serial, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			if t, err := excelize.ExcelDateToTime(serial, date1904); err == nil {
				rows[r][c] = t.Format(time.DateOnly)
			}
		}
	}
	return rows, nil
}
