package bqpipe

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestFromCSV(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("id,name\n1,foo\n2,bar\n")

	f, err := FromCSV(src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	columns := f.Columns()
	if len(columns) != 2 || columns[0] != "id" || columns[1] != "name" {
		t.Fatalf("columns should be [id name], but %v", columns)
	}

	if f.NumRows() != 2 {
		t.Fatalf("NumRows should be 2, but %d", f.NumRows())
	}

	if f.Row(1)[1] != "bar" {
		t.Errorf(`Row(1)[1] should be "bar", but %v`, f.Row(1)[1])
	}
}

func TestFromCSV_skipLeadingRows(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("exported 2024-05-01\nid,name\n1,foo\n")

	f, err := FromCSV(src, WithSkipLeadingRows(1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if f.Columns()[0] != "id" {
		t.Errorf(`first column should be "id", but %q`, f.Columns()[0])
	}

	if f.NumRows() != 1 {
		t.Errorf("NumRows should be 1, but %d", f.NumRows())
	}
}

func TestFromCSV_encoding(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	w := transform.NewWriter(buf, japanese.ShiftJIS.NewEncoder())
	if _, err := w.Write([]byte("名前,金額\nコーヒー,300\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := FromCSV(buf, WithEncoding(japanese.ShiftJIS))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if f.Columns()[0] != "名前" {
		t.Errorf(`first column should be "名前", but %q`, f.Columns()[0])
	}

	if f.Row(0)[0] != "コーヒー" {
		t.Errorf(`Row(0)[0] should be "コーヒー", but %v`, f.Row(0)[0])
	}
}

func TestFromCSV_error(t *testing.T) {
	t.Parallel()

	if _, err := FromCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty source but no error occurred")
	}

	if _, err := FromCSV(strings.NewReader("id,name\n1\n")); err == nil {
		t.Error("expected error for a ragged row but no error occurred")
	}

	if _, err := FromCSV(strings.NewReader("id,name\n"), WithSkipLeadingRows(5)); err == nil {
		t.Error("expected error when skipping past the header but no error occurred")
	}
}

func TestFromXLS_error(t *testing.T) {
	t.Parallel()

	if _, err := FromXLS(strings.NewReader("this is not an xls workbook")); err == nil {
		t.Error("expected error but no error occurred")
	}
}
