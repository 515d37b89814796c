package bqpipe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"
)

// TimestampLayout renders the load timestamp stamped into every row.
const TimestampLayout = "2006-01-02 15:04:05.000"

// InsertType selects how a write treats rows already in the destination.
type InsertType string

// Insert types accepted by Write.
const (
	InsertAppend   InsertType = "append"
	InsertTruncate InsertType = "truncate"
)

// ParseInsertType normalizes a caller-supplied insert type. It trims
// surrounding whitespace and ignores case. The empty string means
// append.
func ParseInsertType(s string) (InsertType, error) {
	switch t := InsertType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return InsertAppend, nil
	case InsertAppend, InsertTruncate:
		return t, nil
	default:
		return "", &InvalidRequestError{Reason: fmt.Sprintf("insert type must be append or truncate, got %q", s)}
	}
}

// Disposition is the write mode a load runs with.
type Disposition string

// Dispositions handed to Warehouse.Load.
const (
	// DispositionAppend adds rows to an existing table.
	DispositionAppend Disposition = "append"
	// DispositionTruncate replaces the rows of an existing table.
	DispositionTruncate Disposition = "truncate"
	// DispositionCreate creates the table and fails if it already exists.
	DispositionCreate Disposition = "create"
)

// WriteRequest describes a table write.
type WriteRequest struct {
	// Dataset and Table name the destination. An empty Dataset falls back
	// to the client's default.
	Dataset string
	Table   string

	// InsertType is "append" or "truncate", compared case-insensitively.
	// Empty means append.
	InsertType string

	// CreateIfMissing lets the write create a missing destination table.
	CreateIfMissing bool

	// Schema declares the destination columns. Nil leaves schema
	// detection to the backend.
	Schema Schema

	// AllowIncompleteRows tolerates rows with trailing columns missing.
	AllowIncompleteRows bool

	// KeepCase skips the lower-casing of destination and column names.
	KeepCase bool
}

// WriteOutcome reports what a write did.
type WriteOutcome struct {
	Dataset      string
	Table        string
	Disposition  Disposition
	TableCreated bool
	RowsWritten  int64

	// JobID identifies the backend load job.
	JobID string

	// RequestID tags the logs and the job of one Write call.
	RequestID string
}

// LoadPlan is the resolved instruction handed to Warehouse.Load.
type LoadPlan struct {
	Dataset     string
	Table       string
	Disposition Disposition

	// Schema includes the system column as its final member. Nil means
	// the backend detects the schema itself.
	Schema Schema

	// SystemColumn is the backend's load timestamp column.
	SystemColumn Column

	AllowIncompleteRows bool

	Frame *Frame

	RequestID string

	// LoadedAt is the single timestamp stamped into the system column of
	// every row.
	LoadedAt time.Time
}

// Warehouse is what the write policy and table reads need from a
// backend: an existence check, a blocking load, and a query.
type Warehouse interface {
	// SystemField returns the timestamp column the backend appends to
	// every resolved schema.
	SystemField() Column

	// TableExists reports whether the table currently exists. It returns
	// false with a nil error when the table or its dataset is absent, and
	// a non-nil error only when existence could not be determined.
	TableExists(ctx context.Context, dataset, table string) (bool, error)

	// Load runs exactly one blocking load.
	Load(ctx context.Context, plan *LoadPlan) (*WriteOutcome, error)

	// Query runs a read query and returns its rows.
	Query(ctx context.Context, query string) (*Frame, error)
}

// Write loads a frame into a table on w.
//
// The request is validated and the custom schema resolved before any
// warehouse call. The existence of the destination then picks the
// disposition: a missing table fails with DestinationMissingError unless
// CreateIfMissing is set, in which case the load creates it exclusively.
// For existing tables the insert type decides between appending and
// truncating. Exactly one load runs per call.
func Write(ctx context.Context, w Warehouse, f *Frame, req WriteRequest) (*WriteOutcome, error) {
	insertType, err := ParseInsertType(req.InsertType)
	if err != nil {
		return nil, err
	}

	if f == nil {
		return nil, &InvalidRequestError{Reason: "no frame to write"}
	}

	dataset := normalizeName(req.Dataset, req.KeepCase)
	table := normalizeName(req.Table, req.KeepCase)
	if dataset == "" || table == "" {
		return nil, &InvalidRequestError{Reason: "dataset and table are required"}
	}

	var schema Schema
	if len(req.Schema) > 0 {
		schema, err = ResolveSchema(req.Schema, w.SystemField(), !req.KeepCase)
		if err != nil {
			return nil, err
		}
	}

	exists, err := w.TableExists(ctx, dataset, table)
	if err != nil {
		return nil, xerrors.Errorf("failed to check %s.%s: %w", dataset, table, err)
	}

	disposition, err := planDisposition(insertType, exists, req.CreateIfMissing, dataset, table)
	if err != nil {
		return nil, err
	}

	plan := &LoadPlan{
		Dataset:             dataset,
		Table:               table,
		Disposition:         disposition,
		Schema:              schema,
		SystemColumn:        w.SystemField(),
		AllowIncompleteRows: req.AllowIncompleteRows,
		Frame:               f,
		RequestID:           uuid.NewString(),
		LoadedAt:            time.Now().UTC(),
	}

	outcome, err := w.Load(ctx, plan)
	if err != nil {
		return nil, err
	}

	outcome.Dataset = dataset
	outcome.Table = table
	outcome.Disposition = disposition
	outcome.TableCreated = disposition == DispositionCreate
	outcome.RequestID = plan.RequestID

	return outcome, nil
}

func planDisposition(t InsertType, exists, createIfMissing bool, dataset, table string) (Disposition, error) {
	if !exists {
		if !createIfMissing {
			return "", &DestinationMissingError{Dataset: dataset, Table: table}
		}
		return DispositionCreate, nil
	}

	if t == InsertTruncate {
		return DispositionTruncate, nil
	}

	return DispositionAppend, nil
}

func normalizeName(s string, keepCase bool) string {
	s = strings.TrimSpace(s)
	if !keepCase {
		s = strings.ToLower(s)
	}

	return s
}

// Fields lists the columns a load must emit, in order. With a resolved
// schema the schema order wins; otherwise the frame's own columns are
// used. The system column is always last.
func (p *LoadPlan) Fields() []string {
	if p.Schema != nil {
		return p.Schema.Names()
	}

	names := make([]string, 0, len(p.Frame.Columns())+1)
	names = append(names, p.Frame.Columns()...)

	return append(names, p.SystemColumn.Name)
}

// Records renders every row as CSV cells in Fields order. Columns the
// frame does not carry yield empty cells, and the load timestamp fills
// the final position using TimestampLayout.
func (p *LoadPlan) Records() [][]string {
	fields := p.Fields()
	indexes := p.fieldIndexes(fields)
	stamp := p.LoadedAt.UTC().Format(TimestampLayout)

	records := make([][]string, p.Frame.NumRows())
	for i := range records {
		row := p.Frame.Row(i)
		record := make([]string, len(fields))
		for j, k := range indexes {
			if k >= 0 && k < len(row) {
				record[j] = formatCell(row[k])
			}
		}
		record[len(fields)-1] = stamp
		records[i] = record
	}

	return records
}

// BindRows returns every row's native values in Fields order for
// backends that bind parameters instead of serializing text. Columns the
// frame does not carry yield nil, and the load timestamp fills the final
// position.
func (p *LoadPlan) BindRows() [][]any {
	fields := p.Fields()
	indexes := p.fieldIndexes(fields)

	rows := make([][]any, p.Frame.NumRows())
	for i := range rows {
		row := p.Frame.Row(i)
		values := make([]any, len(fields))
		for j, k := range indexes {
			if k >= 0 && k < len(row) {
				values[j] = row[k]
			}
		}
		values[len(fields)-1] = p.LoadedAt
		rows[i] = values
	}

	return rows
}

func (p *LoadPlan) fieldIndexes(fields []string) []int {
	indexes := make([]int, len(fields)-1)
	for j, name := range fields[:len(fields)-1] {
		k, ok := p.Frame.ColumnIndex(name)
		if !ok {
			k = -1
		}
		indexes[j] = k
	}

	return indexes
}
