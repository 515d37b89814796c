package snowflake

import (
	"context"

	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
)

// Query runs a SQL statement and returns its result as a frame.
func (c *Client) Query(ctx context.Context, query string) (*bqpipe.Frame, error) {
	return c.query(ctx, query)
}

// FetchTable reads rows from a table with a generated SELECT. An empty
// dataset falls back to the client's default schema.
func (c *Client) FetchTable(ctx context.Context, req bqpipe.FetchRequest) (*bqpipe.Frame, error) {
	if req.Dataset == "" {
		req.Dataset = c.schema
	}

	return bqpipe.FetchTable(ctx, c, req)
}

func (c *Client) query(ctx context.Context, query string, args ...any) (*bqpipe.Frame, error) {
	c.logger.Debug().Str("query", query).Msg("running query")

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "referenced object")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, xerrors.Errorf("failed to read result columns: %w", err)
	}

	f := bqpipe.NewFrame(columns...)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, xerrors.Errorf("failed to scan row: %w", err)
		}

		if err := f.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "referenced object")
	}

	return f, nil
}
