package bqpipe

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

// Frame is an in-memory table. Columns are named and ordered, rows hold
// one value per column. Query results and load sources are both frames.
type Frame struct {
	columns []string
	rows    [][]any
}

// NewFrame builds an empty frame with the given columns.
func NewFrame(columns ...string) *Frame {
	return &Frame{columns: columns}
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return f.columns
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return len(f.rows)
}

// AppendRow adds a row. The number of values must match the number of
// columns.
func (f *Frame) AppendRow(values ...any) error {
	if len(values) != len(f.columns) {
		return xerrors.Errorf("row has %d values, frame has %d columns", len(values), len(f.columns))
	}

	f.rows = append(f.rows, values)

	return nil
}

// Row returns row i.
func (f *Frame) Row(i int) []any {
	return f.rows[i]
}

// Rows returns all rows in order.
func (f *Frame) Rows() [][]any {
	return f.rows
}

// ColumnIndex returns the position of the named column. The match
// ignores case.
func (f *Frame) ColumnIndex(name string) (int, bool) {
	for i, c := range f.columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}

	return 0, false
}

// Column returns the values of the named column, one per row. The match
// ignores case.
func (f *Frame) Column(name string) ([]any, bool) {
	i, ok := f.ColumnIndex(name)
	if !ok {
		return nil, false
	}

	values := make([]any, len(f.rows))
	for j, row := range f.rows {
		values[j] = row[i]
	}

	return values, true
}

// WriteCSV writes the frame as CSV with a header row.
func (f *Frame) WriteCSV(w io.Writer) error {
	records := make([][]string, 0, len(f.rows)+1)
	records = append(records, f.columns)

	for _, row := range f.rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatCell(v)
		}
		records = append(records, record)
	}

	if err := csv.NewWriter(w).WriteAll(records); err != nil {
		return xerrors.Errorf("failed to write csv: %w", err)
	}

	return nil
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case []byte:
		return string(c)
	case bool:
		return strconv.FormatBool(c)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case time.Time:
		return c.UTC().Format(TimestampLayout)
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprintf("%v", c)
	}
}
