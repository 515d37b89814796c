package main

import (
	"os"

	"github.com/spf13/cobra"

	"go.nownabe.dev/bqpipe"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read rows out of the warehouse as CSV",
}

var readTableCmd = &cobra.Command{
	Use:   "table",
	Short: "Read a table with a generated SELECT",
	RunE:  runReadTable,
}

var readSQLCmd = &cobra.Command{
	Use:   "sql [query]",
	Short: "Run a read query",
	Args:  cobra.ExactArgs(1),
	RunE:  runReadSQL,
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.AddCommand(readTableCmd)
	readCmd.AddCommand(readSQLCmd)

	f := readTableCmd.Flags()
	f.String("dataset", "", "dataset or schema of the table (default: the backend default)")
	f.String("table", "", "table to read")
	f.StringSlice("fields", nil, "columns to read (default: all)")
	f.String("where", "", "filter clause appended to the SELECT")
	f.Int("limit", 0, "maximum rows to read (0 reads all)")
	_ = readTableCmd.MarkFlagRequired("table")
}

func runReadTable(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w, err := newWarehouse(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	dataset, _ := cmd.Flags().GetString("dataset")
	table, _ := cmd.Flags().GetString("table")
	fields, _ := cmd.Flags().GetStringSlice("fields")
	where, _ := cmd.Flags().GetString("where")
	limit, _ := cmd.Flags().GetInt("limit")

	f, err := w.FetchTable(cmd.Context(), bqpipe.FetchRequest{
		Dataset: dataset,
		Table:   table,
		Fields:  fields,
		Where:   where,
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	return f.WriteCSV(os.Stdout)
}

func runReadSQL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w, err := newWarehouse(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	f, err := w.Query(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return f.WriteCSV(os.Stdout)
}
