package bqpipe

import (
	"encoding/csv"
	"io"

	"github.com/extrame/xls"
	"gitlab.com/osaki-lab/iowrapper"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/xerrors"
)

// ReadOption configures FromCSV and FromXLS.
type ReadOption func(*readConfig)

type readConfig struct {
	encoding        encoding.Encoding
	skipLeadingRows int
	sheet           int
}

// WithEncoding decodes the source from enc before parsing.
func WithEncoding(enc encoding.Encoding) ReadOption {
	return func(c *readConfig) { c.encoding = enc }
}

// WithSkipLeadingRows drops n rows ahead of the header row.
func WithSkipLeadingRows(n int) ReadOption {
	return func(c *readConfig) { c.skipLeadingRows = n }
}

// WithSheet selects the sheet FromXLS reads. The default is the first
// one.
func WithSheet(n int) ReadOption {
	return func(c *readConfig) { c.sheet = n }
}

// FromCSV parses CSV into a frame. The first row, after any skipped
// leading rows, names the columns.
func FromCSV(r io.Reader, opts ...ReadOption) (*Frame, error) {
	c := newReadConfig(opts)

	if c.encoding != nil {
		r = transform.NewReader(r, c.encoding.NewDecoder())
	}

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, xerrors.Errorf("failed to parse csv: %w", err)
	}

	return fromRecords(records, c.skipLeadingRows)
}

// FromXLS parses a legacy Excel workbook into a frame. The first row of
// the selected sheet, after any skipped leading rows, names the columns.
// Rows shorter than the header are padded with nils.
func FromXLS(r io.Reader, opts ...ReadOption) (*Frame, error) {
	c := newReadConfig(opts)

	wb, err := xls.OpenReader(iowrapper.NewSeeker(r), "utf-8")
	if err != nil {
		return nil, xerrors.Errorf("failed to open xls file: %w", err)
	}

	sheet := wb.GetSheet(c.sheet)
	if sheet == nil {
		return nil, xerrors.Errorf("no sheet %d in workbook", c.sheet)
	}

	records := [][]string{}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row, ok := getRow(sheet, i)
		if !ok {
			continue
		}

		record := []string{}

		for colNum := row.FirstCol(); colNum < row.LastCol(); colNum++ {
			record = append(record, row.Col(colNum))
		}

		records = append(records, record)
	}

	return fromRecords(records, c.skipLeadingRows)
}

func newReadConfig(opts []ReadOption) *readConfig {
	c := &readConfig{}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// The xls library panics on gaps in the row index.
func getRow(sheet *xls.WorkSheet, row int) (r *xls.Row, ok bool) {
	defer func() { recover() }()

	r = nil
	ok = false

	return sheet.Row(row), true
}

func fromRecords(records [][]string, skip int) (*Frame, error) {
	if skip > 0 {
		if skip >= len(records) {
			records = nil
		} else {
			records = records[skip:]
		}
	}

	if len(records) == 0 {
		return nil, xerrors.New("source has no header row")
	}

	f := NewFrame(records[0]...)
	width := len(records[0])

	for _, record := range records[1:] {
		row := make([]any, width)
		for i := 0; i < width && i < len(record); i++ {
			row[i] = record[i]
		}
		if err := f.AppendRow(row...); err != nil {
			return nil, err
		}
	}

	return f, nil
}
