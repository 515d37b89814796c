// Package bq reads and writes BigQuery tables as frames.
package bq

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"go.nownabe.dev/bqpipe"
)

// DefaultDataset is used when a request names no dataset.
const DefaultDataset = "analytics"

// Client wraps BigQuery for one project. It implements
// bqpipe.Warehouse.
type Client struct {
	bq        *bigquery.Client
	projectID string
	dataset   string
	logger    *zerolog.Logger

	logLevel string
	pretty   bool

	commonOpts []option.ClientOption
	bqOpts     []option.ClientOption

	mu      sync.Mutex
	storage *storage.Client
}

// NewClient connects to BigQuery in the given project. Credentials come
// from the application default unless WithCredentialsFile is set.
func NewClient(ctx context.Context, projectID string, opts ...Option) (*Client, error) {
	if projectID == "" {
		return nil, &bqpipe.InvalidRequestError{Reason: "project id is required"}
	}

	c := &Client{projectID: projectID, dataset: DefaultDataset}

	for _, opt := range opts {
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}

	if c.logger == nil {
		l, err := bqpipe.NewLogger(c.logLevel, c.pretty)
		if err != nil {
			return nil, err
		}
		c.logger = &l
	}

	bq, err := bigquery.NewClient(ctx, projectID, append(c.commonOpts, c.bqOpts...)...)
	if err != nil {
		return nil, xerrors.Errorf("failed to build bigquery client: %w", err)
	}
	c.bq = bq

	return c, nil
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.Close(); err != nil {
			return xerrors.Errorf("failed to close storage client: %w", err)
		}
		c.storage = nil
	}

	return c.bq.Close()
}

func mapError(err error, object string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return &bqpipe.NotFoundError{Object: object, Err: err}
		case http.StatusBadRequest:
			return &bqpipe.InvalidRequestError{Reason: gerr.Message, Err: err}
		}
	}

	return err
}
