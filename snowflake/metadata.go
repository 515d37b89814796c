package snowflake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
)

const describeConcurrency = 4

// ListDatabases returns the database names visible to the session.
func (c *Client) ListDatabases(ctx context.Context) ([]string, error) {
	return c.showNames(ctx, "SHOW DATABASES")
}

// ListSchemas returns the schema names of a database. An empty database
// lists the session's current database.
func (c *Client) ListSchemas(ctx context.Context, database string) ([]string, error) {
	stmt := "SHOW SCHEMAS"
	if database != "" {
		db, err := identifier(database, "")
		if err != nil {
			return nil, err
		}
		stmt += " IN DATABASE " + db
	}

	return c.showNames(ctx, stmt)
}

// ListTables returns the table names in a schema. An empty schema falls
// back to the client's default.
func (c *Client) ListTables(ctx context.Context, schema string) ([]string, error) {
	schema, err := identifier(schema, c.schema)
	if err != nil {
		return nil, err
	}

	f, err := c.query(ctx,
		"SELECT table_name FROM INFORMATION_SCHEMA.TABLES WHERE table_schema = ? ORDER BY table_name",
		schema)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		if name, ok := f.Row(i)[0].(string); ok {
			tables = append(tables, name)
		}
	}

	if len(tables) == 0 {
		c.logger.Warn().Msgf("schema %s has no tables", schema)
	}

	return tables, nil
}

// GetTableSchema returns the column definitions of schema.table.
func (c *Client) GetTableSchema(ctx context.Context, schema, table string) (bqpipe.Schema, error) {
	schema, err := identifier(schema, c.schema)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return nil, &bqpipe.InvalidRequestError{Reason: "table is required"}
	}

	f, err := c.query(ctx,
		"SELECT column_name, data_type, is_nullable, comment\n"+
			"FROM INFORMATION_SCHEMA.COLUMNS\n"+
			"WHERE table_schema = ? AND table_name = UPPER(?)\n"+
			"ORDER BY ordinal_position",
		schema, table)
	if err != nil {
		return nil, err
	}

	if f.NumRows() == 0 {
		return nil, &bqpipe.NotFoundError{Object: fmt.Sprintf("%s.%s", schema, table)}
	}

	s := make(bqpipe.Schema, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		row := f.Row(i)
		s = append(s, bqpipe.Column{
			Name:        stringValue(row, 0),
			Type:        fieldTypeFromSQL(stringValue(row, 1)),
			Mode:        modeFromNullable(stringValue(row, 2)),
			Description: stringValue(row, 3),
		})
	}

	return s, nil
}

// DescribeSchema returns the schema of every table in a schema.
func (c *Client) DescribeSchema(ctx context.Context, schema string) (map[string]bqpipe.Schema, error) {
	tables, err := c.ListTables(ctx, schema)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	schemas := make(map[string]bqpipe.Schema, len(tables))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(describeConcurrency)

	for _, table := range tables {
		table := table
		g.Go(func() error {
			s, err := c.GetTableSchema(ctx, schema, table)
			if err != nil {
				return err
			}

			mu.Lock()
			schemas[table] = s
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return schemas, nil
}

// showNames runs a SHOW command and collects its name column.
func (c *Client) showNames(ctx context.Context, stmt string) ([]string, error) {
	f, err := c.query(ctx, stmt)
	if err != nil {
		return nil, err
	}

	idx, ok := f.ColumnIndex("name")
	if !ok {
		return nil, xerrors.Errorf("%q returned no name column", stmt)
	}

	names := make([]string, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		if name, ok := f.Row(i)[idx].(string); ok {
			names = append(names, name)
		}
	}

	return names, nil
}

func stringValue(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}

	return ""
}

// fieldTypeFromSQL maps INFORMATION_SCHEMA data types onto field types.
// Unrecognized types keep their raw name.
func fieldTypeFromSQL(t string) bqpipe.FieldType {
	t = strings.ToUpper(strings.TrimSpace(t))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}

	switch t {
	case "TEXT", "VARCHAR", "CHAR", "CHARACTER":
		return bqpipe.FieldTypeString
	case "NUMBER", "DECIMAL":
		return bqpipe.FieldTypeNumeric
	case "INT", "INTEGER", "BIGINT", "SMALLINT":
		return bqpipe.FieldTypeInteger
	case "FLOAT", "DOUBLE", "REAL":
		return bqpipe.FieldTypeFloat
	case "BINARY", "VARBINARY":
		return bqpipe.FieldTypeBytes
	case "TIMESTAMP_NTZ", "TIMESTAMP_LTZ", "TIMESTAMP_TZ":
		return bqpipe.FieldTypeTimestamp
	default:
		return bqpipe.FieldType(t)
	}
}

// modeFromNullable translates is_nullable into a field mode. Note the
// inversion: YES becomes REQUIRED. It matches what this API has always
// reported, so it stays until the next breaking release.
func modeFromNullable(isNullable string) bqpipe.FieldMode {
	if strings.EqualFold(isNullable, "YES") {
		return bqpipe.FieldModeRequired
	}

	return bqpipe.FieldModeNullable
}
