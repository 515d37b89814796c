package bq

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"cloud.google.com/go/bigquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
	"google.golang.org/api/iterator"

	"go.nownabe.dev/bqpipe"
)

const describeConcurrency = 4

var identRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ListDatasets returns the dataset IDs of the project.
func (c *Client) ListDatasets(ctx context.Context) ([]string, error) {
	it := c.bq.Datasets(ctx)

	var datasets []string
	for {
		ds, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("failed to list datasets of %s: %w", c.projectID, mapError(err, c.projectID))
		}

		datasets = append(datasets, ds.DatasetID)
	}

	return datasets, nil
}

// ListTables returns the table names in a dataset. An empty dataset
// falls back to the client's default.
func (c *Client) ListTables(ctx context.Context, dataset string) ([]string, error) {
	dataset, err := identifier(dataset, c.dataset)
	if err != nil {
		return nil, err
	}

	q := c.bq.Query(fmt.Sprintf(
		"SELECT table_name FROM `%s`.INFORMATION_SCHEMA.TABLES ORDER BY table_name", dataset))

	f, err := c.runQuery(ctx, q)
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
		c.logger.Warn().Msgf("dataset %s has no tables", dataset)
	}

	return tables, nil
}

// GetTableSchema returns the column definitions of dataset.table, one
// per top-level column.
func (c *Client) GetTableSchema(ctx context.Context, dataset, table string) (bqpipe.Schema, error) {
	dataset, err := identifier(dataset, c.dataset)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return nil, &bqpipe.InvalidRequestError{Reason: "table is required"}
	}

	q := c.bq.Query(buildTableSchemaQuery(dataset))
	q.Parameters = []bigquery.QueryParameter{{Name: "table", Value: table}}

	f, err := c.runQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	if f.NumRows() == 0 {
		return nil, &bqpipe.NotFoundError{Object: fmt.Sprintf("%s.%s", dataset, table)}
	}

	schema := make(bqpipe.Schema, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		row := f.Row(i)
		schema = append(schema, bqpipe.Column{
			Name:        stringValue(row, 0),
			Type:        fieldTypeFromSQL(stringValue(row, 1)),
			Mode:        modeFromNullable(stringValue(row, 2)),
			Description: stringValue(row, 3),
		})
	}

	return schema, nil
}

// DescribeDataset returns the schema of every table in a dataset.
func (c *Client) DescribeDataset(ctx context.Context, dataset string) (map[string]bqpipe.Schema, error) {
	tables, err := c.ListTables(ctx, dataset)
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
			schema, err := c.GetTableSchema(ctx, dataset, table)
			if err != nil {
				return err
			}

			mu.Lock()
			schemas[table] = schema
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return schemas, nil
}

// buildTableSchemaQuery joins COLUMNS with COLUMN_FIELD_PATHS so
// columns carry their descriptions. COLUMN_FIELD_PATHS holds one row
// per leaf field of a RECORD column; the field path filter keeps the
// join to one row per top-level column, so names stay unique.
func buildTableSchemaQuery(dataset string) string {
	return fmt.Sprintf("SELECT cfp.column_name, cfp.data_type, c.is_nullable, cfp.description\n"+
		"FROM `%s`.INFORMATION_SCHEMA.COLUMNS c\n"+
		"JOIN `%s`.INFORMATION_SCHEMA.COLUMN_FIELD_PATHS cfp\n"+
		"ON c.table_name = cfp.table_name AND c.column_name = cfp.column_name\n"+
		"WHERE c.table_name = @table AND cfp.column_name = cfp.field_path\n"+
		"ORDER BY c.ordinal_position", dataset, dataset)
}

func identifier(name, fallback string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if !identRE.MatchString(name) {
		return "", &bqpipe.InvalidRequestError{Reason: fmt.Sprintf("invalid identifier %q", name)}
	}

	return name, nil
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
// Parameterized and composite types keep their raw name.
func fieldTypeFromSQL(t string) bqpipe.FieldType {
	t = strings.ToUpper(strings.TrimSpace(t))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}

	switch t {
	case "INT64":
		return bqpipe.FieldTypeInteger
	case "FLOAT64":
		return bqpipe.FieldTypeFloat
	case "BOOL":
		return bqpipe.FieldTypeBoolean
	case "BIGNUMERIC":
		return bqpipe.FieldTypeNumeric
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
