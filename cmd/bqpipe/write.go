package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
)

var writeCmd = &cobra.Command{
	Use:   "write [file]",
	Short: "Load a CSV or XLS file into a table",
	Long: `Loads a local file into a warehouse table. The first row of the file,
after any skipped leading rows, names the columns. Pass - to read CSV
from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)

	f := writeCmd.Flags()
	f.String("dataset", "", "dataset or schema of the destination (default: the backend default)")
	f.String("table", "", "destination table")
	f.String("insert-type", "append", "append or truncate")
	f.Bool("create-if-missing", false, "create the destination table if it does not exist")
	f.String("schema", "", "JSON file declaring the destination columns")
	f.Bool("keep-case", false, "keep the case of destination and column names")
	f.Bool("allow-incomplete", false, "tolerate rows with trailing columns missing")
	f.String("format", "", "input format: csv, xls (default: by file extension)")
	f.String("encoding", "", "text encoding of the input, such as shift_jis")
	f.Int("skip-leading-rows", 0, "rows to drop ahead of the header row")
	f.Int("sheet", 0, "sheet to read from an XLS workbook")
	_ = writeCmd.MarkFlagRequired("table")
}

func runWrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	frame, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	schemaPath, _ := cmd.Flags().GetString("schema")
	schema, err := readSchemaFile(schemaPath)
	if err != nil {
		return err
	}

	dataset, _ := cmd.Flags().GetString("dataset")
	table, _ := cmd.Flags().GetString("table")
	insertType, _ := cmd.Flags().GetString("insert-type")
	createIfMissing, _ := cmd.Flags().GetBool("create-if-missing")
	keepCase, _ := cmd.Flags().GetBool("keep-case")
	allowIncomplete, _ := cmd.Flags().GetBool("allow-incomplete")

	w, err := newWarehouse(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	outcome, err := w.WriteTable(cmd.Context(), frame, bqpipe.WriteRequest{
		Dataset:             dataset,
		Table:               table,
		InsertType:          insertType,
		CreateIfMissing:     createIfMissing,
		Schema:              schema,
		AllowIncompleteRows: allowIncomplete,
		KeepCase:            keepCase,
	})
	if err != nil {
		return err
	}

	fmt.Printf("loaded %d rows into %s.%s (%s)\n",
		outcome.RowsWritten, outcome.Dataset, outcome.Table, outcome.Disposition)

	return nil
}

func readInput(cmd *cobra.Command, path string) (*bqpipe.Frame, error) {
	format, _ := cmd.Flags().GetString("format")
	encName, _ := cmd.Flags().GetString("encoding")
	skip, _ := cmd.Flags().GetInt("skip-leading-rows")
	sheet, _ := cmd.Flags().GetInt("sheet")

	format = inferFormat(format, path)

	opts := []bqpipe.ReadOption{
		bqpipe.WithSkipLeadingRows(skip),
		bqpipe.WithSheet(sheet),
	}
	if encName != "" {
		enc, err := ianaindex.IANA.Encoding(encName)
		if err != nil || enc == nil {
			return nil, &bqpipe.InvalidRequestError{Reason: fmt.Sprintf("unknown encoding %q", encName)}
		}
		opts = append(opts, bqpipe.WithEncoding(enc))
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, xerrors.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()
		r = file
	}

	switch format {
	case "csv":
		return bqpipe.FromCSV(r, opts...)
	case "xls":
		return bqpipe.FromXLS(r, opts...)
	default:
		return nil, &bqpipe.InvalidRequestError{Reason: fmt.Sprintf("format must be csv or xls, got %q", format)}
	}
}

func inferFormat(format, path string) string {
	if format != "" {
		return format
	}
	if strings.HasSuffix(strings.ToLower(path), ".xls") {
		return "xls"
	}

	return "csv"
}

func readSchemaFile(path string) (bqpipe.Schema, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read schema %s: %w", path, err)
	}

	var schema bqpipe.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, xerrors.Errorf("failed to parse schema %s: %w", path, err)
	}

	return schema, nil
}
