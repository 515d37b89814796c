package snowflake

import (
	"context"
	"strings"

	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
)

const (
	systemColumnName        = "bq_created_at"
	systemColumnDescription = "Time the row was loaded."

	insertChunkSize = 500
)

// SystemField returns the load timestamp column appended to every
// resolved schema: bq_created_at, a required timestamp.
func (c *Client) SystemField() bqpipe.Column {
	return bqpipe.Column{
		Name:        systemColumnName,
		Type:        bqpipe.FieldTypeTimestamp,
		Mode:        bqpipe.FieldModeRequired,
		Description: systemColumnDescription,
	}
}

// TableExists reports whether schema.table exists. A missing table or
// schema is not an error.
func (c *Client) TableExists(ctx context.Context, schema, table string) (bool, error) {
	schema, err := identifier(schema, c.schema)
	if err != nil {
		return false, err
	}
	if table == "" {
		return false, &bqpipe.InvalidRequestError{Reason: "table is required"}
	}

	var n int
	err = c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE table_schema = ? AND table_name = UPPER(?)",
		schema, table).Scan(&n)
	if err != nil {
		return false, xerrors.Errorf("failed to count %s.%s: %w", schema, table, mapError(err, schema+"."+table))
	}

	return n > 0, nil
}

// WriteTable loads a frame into schema.table. An empty dataset falls
// back to the client's default schema.
func (c *Client) WriteTable(ctx context.Context, f *bqpipe.Frame, req bqpipe.WriteRequest) (*bqpipe.WriteOutcome, error) {
	if req.Dataset == "" {
		req.Dataset = c.schema
	}

	return bqpipe.Write(ctx, c, f, req)
}

// Load implements bqpipe.Warehouse. It creates or truncates the
// destination as planned, then inserts the frame with chunked multi-row
// binds on one session.
func (c *Client) Load(ctx context.Context, plan *bqpipe.LoadPlan) (*bqpipe.WriteOutcome, error) {
	dest, err := destination(plan)
	if err != nil {
		return nil, err
	}

	c.logPlan(plan, dest)

	switch plan.Disposition {
	case bqpipe.DispositionCreate:
		// Snowflake has no load-time schema detection, so a create needs
		// explicit columns.
		if plan.Schema == nil {
			return nil, &bqpipe.InvalidRequestError{Reason: "creating a snowflake table requires a schema"}
		}
		if _, err := c.db.ExecContext(ctx, buildCreateTable(dest, plan.Schema)); err != nil {
			return nil, c.loadError(plan, err)
		}
	case bqpipe.DispositionTruncate:
		if _, err := c.db.ExecContext(ctx, "TRUNCATE TABLE "+dest); err != nil {
			return nil, c.loadError(plan, err)
		}
	}

	fields := plan.Fields()
	rows := plan.BindRows()

	var written int64
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		res, err := c.db.ExecContext(ctx, buildInsert(dest, fields, len(chunk)), flatten(chunk)...)
		if err != nil {
			return nil, c.loadError(plan, err)
		}

		n, err := res.RowsAffected()
		if err != nil || n < 0 {
			n = int64(len(chunk))
		}
		written += n
	}

	c.logger.Info().
		Str("request_id", plan.RequestID).
		Int64("rows", written).
		Msgf("loaded %s", dest)

	return &bqpipe.WriteOutcome{RowsWritten: written}, nil
}

func (c *Client) logPlan(plan *bqpipe.LoadPlan, dest string) {
	l := c.logger.With().Str("request_id", plan.RequestID).Logger()

	switch plan.Disposition {
	case bqpipe.DispositionCreate:
		l.Info().Msgf("creating table %s", dest)
	case bqpipe.DispositionTruncate:
		l.Warn().Msgf("replacing all rows of %s", dest)
	default:
		l.Info().Msgf("appending to table %s", dest)
	}
}

func (c *Client) loadError(plan *bqpipe.LoadPlan, err error) error {
	return &bqpipe.LoadError{
		Dataset: plan.Dataset,
		Table:   plan.Table,
		Err:     mapError(err, plan.Dataset+"."+plan.Table),
	}
}

// destination joins the validated schema and table names into the
// identifier DDL and DML run against.
func destination(plan *bqpipe.LoadPlan) (string, error) {
	schema, err := identifier(plan.Dataset, "")
	if err != nil {
		return "", err
	}

	table, err := identifier(plan.Table, "")
	if err != nil {
		return "", err
	}

	return schema + "." + table, nil
}

// buildCreateTable renders CREATE TABLE DDL from a resolved schema.
// REQUIRED columns become NOT NULL and descriptions become comments.
func buildCreateTable(dest string, schema bqpipe.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(dest)
	b.WriteString(" (")

	for i, col := range schema {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col.Name)
		b.WriteByte(' ')
		b.WriteString(columnType(col.Type))
		if col.Mode == bqpipe.FieldModeRequired {
			b.WriteString(" NOT NULL")
		}
		if col.Description != "" {
			b.WriteString(" COMMENT '")
			b.WriteString(strings.ReplaceAll(col.Description, "'", "''"))
			b.WriteString("'")
		}
	}

	b.WriteString(")")

	return b.String()
}

// buildInsert renders a multi-row INSERT with one placeholder per cell.
func buildInsert(dest string, fields []string, rows int) string {
	placeholders := "(" + strings.Repeat("?, ", len(fields)-1) + "?)"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(dest)
	b.WriteString(" (")
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString(") VALUES ")

	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
	}

	return b.String()
}

func flatten(rows [][]any) []any {
	if len(rows) == 0 {
		return nil
	}

	flat := make([]any, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		flat = append(flat, row...)
	}

	return flat
}

func columnType(t bqpipe.FieldType) string {
	switch t {
	case bqpipe.FieldTypeString:
		return "STRING"
	case bqpipe.FieldTypeBytes:
		return "BINARY"
	case bqpipe.FieldTypeInteger:
		return "INTEGER"
	case bqpipe.FieldTypeFloat:
		return "FLOAT"
	case bqpipe.FieldTypeNumeric:
		return "NUMBER"
	case bqpipe.FieldTypeBoolean:
		return "BOOLEAN"
	case bqpipe.FieldTypeTimestamp, bqpipe.FieldTypeDateTime:
		return "TIMESTAMP_NTZ"
	case bqpipe.FieldTypeDate:
		return "DATE"
	case bqpipe.FieldTypeTime:
		return "TIME"
	default:
		return string(t)
	}
}
