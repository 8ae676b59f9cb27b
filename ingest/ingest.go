/*
Package ingest reads the upstream training feed into raw records.

PURPOSE:
  The feed is exported from a spreadsheet, either as CSV (often with a
  UTF-8 byte-order mark) or as the XLSX workbook itself. Both share the
  same Korean column headers; this package maps header names onto
  course.RawRecord fields.

TOLERANCE:
  Cell values are never interpreted here. Unknown columns are reported and
  skipped, blank rows are dropped, and short rows leave trailing fields
  empty. Only a missing header row or a missing 고유값 column fails the feed.

SEE ALSO:
  - course/record.go: RawRecord and the column names
  - pipeline/transform.go: parsing of the cells
*/
package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
)

const bom = "\uFEFF"

// Feed is a decoded input file.
type Feed struct {
	Records []course.RawRecord `json:"-"`

	// UnknownColumns lists header names outside the input contract.
	UnknownColumns []string `json:"unknownColumns"`

	// SkippedRows counts blank rows that were dropped.
	SkippedRows int `json:"skippedRows"`
}

// Read decodes r according to the file name's extension.
func Read(r io.Reader, filename string) (Feed, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(r, "")
	}
	return Feed{}, fmt.Errorf("%s: %w", filename, generic.ErrUnsupportedFormat)
}

// header maps column positions to recognized column names.
type header struct {
	columns []string
}

func newHeader(cells []string) (header, []string, error) {
	h := header{columns: make([]string, len(cells))}
	var unknown []string
	hasID := false
	for i, c := range cells {
		name := strings.TrimSpace(strings.TrimPrefix(c, bom))
		if name == "" {
			continue
		}
		if !course.IsRecognizedColumn(name) {
			unknown = append(unknown, name)
			continue
		}
		h.columns[i] = name
		if name == course.ColUniqueID {
			hasID = true
		}
	}
	if !hasID {
		return header{}, nil, fmt.Errorf("column %s: %w", course.ColUniqueID, generic.ErrUnknownColumn)
	}
	return h, unknown, nil
}

// record maps one data row. ok is false for rows whose cells are all blank.
func (h header) record(cells []string) (course.RawRecord, bool) {
	var rec course.RawRecord
	blank := true
	for i, v := range cells {
		if i >= len(h.columns) {
			break
		}
		if strings.TrimSpace(v) != "" {
			blank = false
		}
		if h.columns[i] != "" {
			rec.Set(h.columns[i], course.Cell(v))
		}
	}
	return rec, !blank
}

// decode turns a header row plus data rows into a Feed.
func decode(rows [][]string) (Feed, error) {
	if len(rows) == 0 {
		return Feed{}, generic.ErrEmptyFeed
	}
	h, unknown, err := newHeader(rows[0])
	if err != nil {
		return Feed{}, err
	}
	feed := Feed{UnknownColumns: unknown, Records: make([]course.RawRecord, 0, len(rows)-1)}
	for _, cells := range rows[1:] {
		rec, ok := h.record(cells)
		if !ok {
			feed.SkippedRows++
			continue
		}
		feed.Records = append(feed.Records, rec)
	}
	return feed, nil
}
