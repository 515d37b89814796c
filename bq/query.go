package bq

import (
	"context"
	"errors"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"go.nownabe.dev/bqpipe"
)

// Query runs a SQL statement and returns its result as a frame.
func (c *Client) Query(ctx context.Context, query string) (*bqpipe.Frame, error) {
	return c.runQuery(ctx, c.bq.Query(query))
}

// FetchTable reads rows from a table with a generated SELECT. An empty
// dataset falls back to the client's default.
func (c *Client) FetchTable(ctx context.Context, req bqpipe.FetchRequest) (*bqpipe.Frame, error) {
	if req.Dataset == "" {
		req.Dataset = c.dataset
	}

	return bqpipe.FetchTable(ctx, c, req)
}

func (c *Client) runQuery(ctx context.Context, q *bigquery.Query) (*bqpipe.Frame, error) {
	c.logger.Debug().Str("query", q.Q).Msg("running query")

	it, err := q.Read(ctx)
	if err != nil {
		return nil, mapError(err, "referenced object")
	}

	var rows [][]any
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError(err, "referenced object")
		}

		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		rows = append(rows, row)
	}

	columns := make([]string, len(it.Schema))
	for i, field := range it.Schema {
		columns[i] = field.Name
	}

	f := bqpipe.NewFrame(columns...)
	for _, row := range rows {
		if err := f.AppendRow(row...); err != nil {
			return nil, err
		}
	}

	return f, nil
}
