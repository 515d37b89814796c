package bq

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
)

// ReadStorageCSV parses a CSV object in Cloud Storage into a frame. The
// options are passed through to bqpipe.FromCSV, so encodings and leading
// rows work the same as for local files.
func (c *Client) ReadStorageCSV(ctx context.Context, bucket, object string, opts ...bqpipe.ReadOption) (*bqpipe.Frame, error) {
	s, err := c.storageClient(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, &bqpipe.NotFoundError{Object: fmt.Sprintf("gs://%s/%s", bucket, object), Err: err}
		}
		return nil, xerrors.Errorf("failed to get reader of gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	return bqpipe.FromCSV(r, opts...)
}

func (c *Client) storageClient(ctx context.Context) (*storage.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		return c.storage, nil
	}

	s, err := storage.NewClient(ctx, c.commonOpts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to build storage client: %w", err)
	}
	c.storage = s

	return s, nil
}
