package bq

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"golang.org/x/xerrors"
	"google.golang.org/api/googleapi"

	"go.nownabe.dev/bqpipe"
)

const (
	systemColumnName        = "created_at"
	systemColumnDescription = "Date inserted into BigQuery."

	jobIDPrefix = "bqpipe_"
)

// SystemField returns the load timestamp column appended to every
// resolved schema: created_at, a required string.
func (c *Client) SystemField() bqpipe.Column {
	return bqpipe.Column{
		Name:        systemColumnName,
		Type:        bqpipe.FieldTypeString,
		Mode:        bqpipe.FieldModeRequired,
		Description: systemColumnDescription,
	}
}

// TableExists reports whether dataset.table exists. A missing table or
// dataset is not an error.
func (c *Client) TableExists(ctx context.Context, dataset, table string) (bool, error) {
	_, err := c.bq.Dataset(dataset).Table(table).Metadata(ctx)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return false, nil
		}
		return false, xerrors.Errorf("failed to get metadata of %s.%s: %w", dataset, table, err)
	}

	return true, nil
}

// WriteTable loads a frame into dataset.table. An empty dataset falls
// back to the client's default.
func (c *Client) WriteTable(ctx context.Context, f *bqpipe.Frame, req bqpipe.WriteRequest) (*bqpipe.WriteOutcome, error) {
	if req.Dataset == "" {
		req.Dataset = c.dataset
	}

	return bqpipe.Write(ctx, c, f, req)
}

// Load implements bqpipe.Warehouse. It serializes the frame to CSV and
// runs one blocking load job.
func (c *Client) Load(ctx context.Context, plan *bqpipe.LoadPlan) (*bqpipe.WriteOutcome, error) {
	c.logPlan(plan)

	records := plan.Records()
	if plan.Schema == nil {
		records = append([][]string{plan.Fields()}, records...)
	}

	buf := &bytes.Buffer{}
	if err := csv.NewWriter(buf).WriteAll(records); err != nil {
		return nil, xerrors.Errorf("failed to write csv: %w", err)
	}

	rs := bigquery.NewReaderSource(buf)
	rs.SourceFormat = bigquery.CSV
	rs.IgnoreUnknownValues = true
	rs.AllowJaggedRows = plan.AllowIncompleteRows
	if plan.Schema == nil {
		rs.AutoDetect = true
		rs.SkipLeadingRows = 1
	} else {
		rs.Schema = toTableSchema(plan.Schema)
	}

	loader := c.bq.Dataset(plan.Dataset).Table(plan.Table).LoaderFrom(rs)
	loader.WriteDisposition = writeDisposition(plan.Disposition)
	loader.CreateDisposition = bigquery.CreateIfNeeded
	loader.JobID = jobIDPrefix + plan.RequestID

	job, err := loader.Run(ctx)
	if err != nil {
		return nil, &bqpipe.LoadError{Dataset: plan.Dataset, Table: plan.Table, Err: err}
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, &bqpipe.LoadError{Dataset: plan.Dataset, Table: plan.Table, JobID: job.ID(), Err: err}
	}

	if err := status.Err(); err != nil {
		c.logger.Error().Str("request_id", plan.RequestID).Msgf("load job failed: %v", status.Errors)
		return nil, &bqpipe.LoadError{Dataset: plan.Dataset, Table: plan.Table, JobID: job.ID(), Err: err}
	}

	var rows int64
	if status.Statistics != nil {
		if details, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
			rows = details.OutputRows
		}
	}

	c.logger.Info().
		Str("request_id", plan.RequestID).
		Str("job_id", job.ID()).
		Int64("rows", rows).
		Msgf("loaded %s.%s", plan.Dataset, plan.Table)

	return &bqpipe.WriteOutcome{RowsWritten: rows, JobID: job.ID()}, nil
}

func (c *Client) logPlan(plan *bqpipe.LoadPlan) {
	l := c.logger.With().Str("request_id", plan.RequestID).Logger()

	switch plan.Disposition {
	case bqpipe.DispositionCreate:
		l.Info().Msgf("creating table %s.%s", plan.Dataset, plan.Table)
	case bqpipe.DispositionTruncate:
		l.Warn().Msgf("replacing all rows of %s.%s", plan.Dataset, plan.Table)
	default:
		l.Info().Msgf("appending to table %s.%s", plan.Dataset, plan.Table)
	}

	if plan.Schema == nil {
		l.Info().Msg("no schema specified; detecting schema from the data")
	}
}

func writeDisposition(d bqpipe.Disposition) bigquery.TableWriteDisposition {
	switch d {
	case bqpipe.DispositionTruncate:
		return bigquery.WriteTruncate
	case bqpipe.DispositionCreate:
		return bigquery.WriteEmpty
	default:
		return bigquery.WriteAppend
	}
}

func toTableSchema(schema bqpipe.Schema) bigquery.Schema {
	fields := make(bigquery.Schema, len(schema))
	for i, col := range schema {
		fields[i] = &bigquery.FieldSchema{
			Name:        col.Name,
			Type:        fieldType(col.Type),
			Required:    col.Mode == bqpipe.FieldModeRequired,
			Description: col.Description,
		}
	}

	return fields
}

func fieldType(t bqpipe.FieldType) bigquery.FieldType {
	switch t {
	case bqpipe.FieldTypeString:
		return bigquery.StringFieldType
	case bqpipe.FieldTypeBytes:
		return bigquery.BytesFieldType
	case bqpipe.FieldTypeInteger:
		return bigquery.IntegerFieldType
	case bqpipe.FieldTypeFloat:
		return bigquery.FloatFieldType
	case bqpipe.FieldTypeNumeric:
		return bigquery.NumericFieldType
	case bqpipe.FieldTypeBoolean:
		return bigquery.BooleanFieldType
	case bqpipe.FieldTypeTimestamp:
		return bigquery.TimestampFieldType
	case bqpipe.FieldTypeDate:
		return bigquery.DateFieldType
	case bqpipe.FieldTypeTime:
		return bigquery.TimeFieldType
	case bqpipe.FieldTypeDateTime:
		return bigquery.DateTimeFieldType
	default:
		return bigquery.FieldType(t)
	}
}
