package bq

import (
	"testing"

	"cloud.google.com/go/bigquery"

	"go.nownabe.dev/bqpipe"
)

func TestSystemField(t *testing.T) {
	f := (&Client{}).SystemField()

	if f.Name != "created_at" {
		t.Errorf(`Name should be "created_at", but %q`, f.Name)
	}

	if f.Type != bqpipe.FieldTypeString {
		t.Errorf("Type should be STRING, but %q", f.Type)
	}

	if f.Mode != bqpipe.FieldModeRequired {
		t.Errorf("Mode should be REQUIRED, but %q", f.Mode)
	}

	if f.Description == "" {
		t.Error("Description should not be empty")
	}
}

func TestToTableSchema(t *testing.T) {
	schema := bqpipe.Schema{
		{Name: "account_id", Type: bqpipe.FieldTypeString, Mode: bqpipe.FieldModeNullable, Description: "Account."},
		{Name: "created_at", Type: bqpipe.FieldTypeString, Mode: bqpipe.FieldModeRequired},
	}

	fields := toTableSchema(schema)

	if len(fields) != 2 {
		t.Fatalf("Size of fields should be 2, but %d", len(fields))
	}

	if fields[0].Name != "account_id" {
		t.Errorf(`fields[0].Name should be "account_id", but %q`, fields[0].Name)
	}

	if fields[0].Type != bigquery.StringFieldType {
		t.Errorf("fields[0].Type should be STRING, but %q", fields[0].Type)
	}

	if fields[0].Required {
		t.Error("fields[0] should not be required")
	}

	if fields[0].Description != "Account." {
		t.Errorf(`fields[0].Description should be "Account.", but %q`, fields[0].Description)
	}

	if !fields[1].Required {
		t.Error("fields[1] should be required")
	}
}

func TestFieldType(t *testing.T) {
	cases := []struct {
		in   bqpipe.FieldType
		want bigquery.FieldType
	}{
		{bqpipe.FieldTypeString, bigquery.StringFieldType},
		{bqpipe.FieldTypeBytes, bigquery.BytesFieldType},
		{bqpipe.FieldTypeInteger, bigquery.IntegerFieldType},
		{bqpipe.FieldTypeFloat, bigquery.FloatFieldType},
		{bqpipe.FieldTypeNumeric, bigquery.NumericFieldType},
		{bqpipe.FieldTypeBoolean, bigquery.BooleanFieldType},
		{bqpipe.FieldTypeTimestamp, bigquery.TimestampFieldType},
		{bqpipe.FieldTypeDate, bigquery.DateFieldType},
		{bqpipe.FieldTypeTime, bigquery.TimeFieldType},
		{bqpipe.FieldTypeDateTime, bigquery.DateTimeFieldType},
	}

	for _, c := range cases {
		if got := fieldType(c.in); got != c.want {
			t.Errorf("%q should map to %q, but %q", c.in, c.want, got)
		}
	}
}

func TestWriteDisposition(t *testing.T) {
	cases := []struct {
		in   bqpipe.Disposition
		want bigquery.TableWriteDisposition
	}{
		{bqpipe.DispositionAppend, bigquery.WriteAppend},
		{bqpipe.DispositionTruncate, bigquery.WriteTruncate},
		{bqpipe.DispositionCreate, bigquery.WriteEmpty},
	}

	for _, c := range cases {
		if got := writeDisposition(c.in); got != c.want {
			t.Errorf("%q should map to %q, but %q", c.in, c.want, got)
		}
	}
}
