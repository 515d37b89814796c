package bqpipe

import (
	"context"
	"fmt"
	"strings"
)

// FetchRequest describes a table read.
type FetchRequest struct {
	// Dataset and Table name the source. An empty Dataset falls back to
	// the client's default.
	Dataset string
	Table   string

	// Fields are the columns to select. Empty selects every column.
	Fields []string

	// Where filters rows. The WHERE keyword may be omitted; it is added
	// when missing. Empty means no filter.
	Where string

	// Limit caps the number of returned rows. Zero or negative means no
	// cap.
	Limit int
}

// BuildSelect renders the SELECT statement for a fetch request.
func BuildSelect(req FetchRequest) (string, error) {
	dataset := strings.TrimSpace(req.Dataset)
	table := strings.TrimSpace(req.Table)
	if dataset == "" || table == "" {
		return "", &InvalidRequestError{Reason: "dataset and table are required"}
	}

	fields := "*"
	if len(req.Fields) > 0 {
		fields = strings.Join(req.Fields, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s.%s", fields, dataset, table)

	if where := strings.TrimSpace(req.Where); where != "" {
		if !hasWherePrefix(where) {
			where = "WHERE " + where
		}
		b.WriteString(" ")
		b.WriteString(where)
	}

	if req.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", req.Limit)
	}

	return b.String(), nil
}

func hasWherePrefix(clause string) bool {
	if len(clause) < 5 || !strings.EqualFold(clause[:5], "where") {
		return false
	}

	return len(clause) == 5 || clause[5] == ' ' || clause[5] == '('
}

// FetchTable builds a SELECT from the request and runs it on w.
func FetchTable(ctx context.Context, w Warehouse, req FetchRequest) (*Frame, error) {
	query, err := BuildSelect(req)
	if err != nil {
		return nil, err
	}

	return w.Query(ctx, query)
}
