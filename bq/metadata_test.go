package bq

import (
	"errors"
	"strings"
	"testing"

	"go.nownabe.dev/bqpipe"
)

func TestFieldTypeFromSQL(t *testing.T) {
	cases := []struct {
		in   string
		want bqpipe.FieldType
	}{
		{"STRING", bqpipe.FieldTypeString},
		{"INT64", bqpipe.FieldTypeInteger},
		{"FLOAT64", bqpipe.FieldTypeFloat},
		{"BOOL", bqpipe.FieldTypeBoolean},
		{"BIGNUMERIC", bqpipe.FieldTypeNumeric},
		{"NUMERIC(10, 2)", bqpipe.FieldTypeNumeric},
		{"STRING(42)", bqpipe.FieldTypeString},
		{"timestamp", bqpipe.FieldTypeTimestamp},
		{" DATE ", bqpipe.FieldTypeDate},
		{"STRUCT<a INT64>", bqpipe.FieldType("STRUCT<A INT64>")},
	}

	for _, c := range cases {
		if got := fieldTypeFromSQL(c.in); got != c.want {
			t.Errorf("%q should map to %q, but %q", c.in, c.want, got)
		}
	}
}

func TestModeFromNullable(t *testing.T) {
	cases := []struct {
		in   string
		want bqpipe.FieldMode
	}{
		{"YES", bqpipe.FieldModeRequired},
		{"yes", bqpipe.FieldModeRequired},
		{"NO", bqpipe.FieldModeNullable},
		{"", bqpipe.FieldModeNullable},
	}

	for _, c := range cases {
		if got := modeFromNullable(c.in); got != c.want {
			t.Errorf("%q should map to %q, but %q", c.in, c.want, got)
		}
	}
}

func TestBuildTableSchemaQuery(t *testing.T) {
	q := buildTableSchemaQuery("analytics")

	if !strings.Contains(q, "`analytics`.INFORMATION_SCHEMA.COLUMNS") {
		t.Errorf("query should read from the COLUMNS view: %q", q)
	}

	if !strings.Contains(q, "`analytics`.INFORMATION_SCHEMA.COLUMN_FIELD_PATHS") {
		t.Errorf("query should join COLUMN_FIELD_PATHS: %q", q)
	}

	if !strings.Contains(q, "c.table_name = @table") {
		t.Errorf("query should filter by the table parameter: %q", q)
	}

	// Without this predicate a RECORD column joins one row per leaf
	// field, repeating the parent name in the returned schema.
	if !strings.Contains(q, "cfp.column_name = cfp.field_path") {
		t.Errorf("query should keep one row per top-level column: %q", q)
	}

	if !strings.Contains(q, "ORDER BY c.ordinal_position") {
		t.Errorf("query should order by ordinal position: %q", q)
	}
}

func TestIdentifier(t *testing.T) {
	cases := []struct {
		name     string
		fallback string
		want     string
	}{
		{"sales", "analytics", "sales"},
		{"  sales ", "analytics", "sales"},
		{"", "analytics", "analytics"},
		{"sales_2024", "", "sales_2024"},
	}

	for _, c := range cases {
		got, err := identifier(c.name, c.fallback)
		if err != nil {
			t.Fatalf("%q should not cause an error: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%q should resolve to %q, but %q", c.name, c.want, got)
		}
	}
}

func TestIdentifier_error(t *testing.T) {
	cases := []string{"", "sales;drop", "sales.orders", "sa les"}

	for _, name := range cases {
		_, err := identifier(name, "")
		if err == nil {
			t.Fatalf("%q should cause an error", name)
		}

		var ire *bqpipe.InvalidRequestError
		if !errors.As(err, &ire) {
			t.Errorf("error for %q should be InvalidRequestError, but %T", name, err)
		}
	}
}

func TestStringValue(t *testing.T) {
	row := []any{"id", int64(3), nil}

	if got := stringValue(row, 0); got != "id" {
		t.Errorf(`stringValue(row, 0) should be "id", but %q`, got)
	}

	if got := stringValue(row, 1); got != "" {
		t.Errorf("non-string values should become empty, but %q", got)
	}

	if got := stringValue(row, 5); got != "" {
		t.Errorf("out-of-range index should become empty, but %q", got)
	}
}
