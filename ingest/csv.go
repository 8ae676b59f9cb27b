package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/warp/training-report/generic"
)

// ReadCSV decodes a comma-separated feed. Rows may have differing lengths.
func ReadCSV(r io.Reader) (Feed, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			pe := &generic.ParseError{Field: "csv", Err: fmt.Errorf("malformed csv: %w", err)}
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				pe.Row = csvErr.Line
			}
			return Feed{}, pe
		}
		rows = append(rows, row)
	}
	return decode(rows)
}
