/*

Package bqpipe moves tabular data in and out of BigQuery and Snowflake.

Data travels as a Frame, a small column-ordered table that can be built
from CSV or legacy XLS sources. Each warehouse has a thin client that
loads frames into tables, reads tables and ad hoc queries back as
frames, and answers metadata lookups. Every load stamps a timestamp
column so rows can be traced back to the write that produced them.

Getting started

Import the package together with a backend, parse a source into a
frame, and write it.

	package main

	import (
		"context"
		"log"
		"os"
		"strings"

		"go.nownabe.dev/bqpipe"
		"go.nownabe.dev/bqpipe/bq"
	)

	func main() {
		ctx := context.Background()

		client, err := bq.NewClient(
			ctx,
			os.Getenv("BIGQUERY_PROJECT_ID"),
			bq.WithDefaultDataset("analytics"),
		)
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()

		frame, err := bqpipe.FromCSV(strings.NewReader("id,amount\n1,120.50\n"))
		if err != nil {
			log.Fatal(err)
		}

		outcome, err := client.WriteTable(ctx, frame, bqpipe.WriteRequest{
			Table:           "orders",
			InsertType:      "append", // or "truncate" to replace the rows.
			CreateIfMissing: true,
			Schema: bqpipe.Schema{
				{Name: "id", Type: bqpipe.FieldTypeInteger, Mode: bqpipe.FieldModeRequired},
				{Name: "amount", Type: bqpipe.FieldTypeNumeric},
			},
		})
		if err != nil {
			log.Fatal(err)
		}

		log.Printf("loaded %d rows (job %s)", outcome.RowsWritten, outcome.JobID)

		// Read it back.
		read, err := client.FetchTable(ctx, bqpipe.FetchRequest{
			Table: "orders",
			Where: "amount > 100",
			Limit: 10,
		})
		if err != nil {
			log.Fatal(err)
		}

		if err := read.WriteCSV(os.Stdout); err != nil {
			log.Fatal(err)
		}
	}

The snowflake package mirrors the same surface for Snowflake accounts,
authenticating with a password or an RSA key pair.

*/
package bqpipe
