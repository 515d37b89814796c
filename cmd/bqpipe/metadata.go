package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Inspect datasets, tables, and schemas",
}

var metadataDatasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List datasets (schemas on snowflake)",
	RunE:  runMetadataDatasets,
}

var metadataTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables in a dataset",
	RunE:  runMetadataTables,
}

var metadataSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print table schemas as JSON",
	Long: `Prints the column definitions of one table, or of every table in the
dataset when --table is omitted.`,
	RunE: runMetadataSchema,
}

func init() {
	rootCmd.AddCommand(metadataCmd)
	metadataCmd.AddCommand(metadataDatasetsCmd)
	metadataCmd.AddCommand(metadataTablesCmd)
	metadataCmd.AddCommand(metadataSchemaCmd)

	metadataTablesCmd.Flags().String("dataset", "", "dataset to list (default: the backend default)")

	f := metadataSchemaCmd.Flags()
	f.String("dataset", "", "dataset of the table (default: the backend default)")
	f.String("table", "", "table to describe (default: every table in the dataset)")
}

func runMetadataDatasets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w, err := newWarehouse(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	datasets, err := w.ListDatasets(cmd.Context())
	if err != nil {
		return err
	}

	for _, name := range datasets {
		fmt.Println(name)
	}

	return nil
}

func runMetadataTables(cmd *cobra.Command, args []string) error {
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

	tables, err := w.ListTables(cmd.Context(), dataset)
	if err != nil {
		return err
	}

	for _, name := range tables {
		fmt.Println(name)
	}

	return nil
}

func runMetadataSchema(cmd *cobra.Command, args []string) error {
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

	var out any
	if table == "" {
		out, err = w.DescribeDataset(cmd.Context(), dataset)
	} else {
		out, err = w.GetTableSchema(cmd.Context(), dataset, table)
	}
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to render schema: %w", err)
	}

	fmt.Println(string(raw))

	return nil
}
