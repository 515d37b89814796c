package bq

import (
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"go.nownabe.dev/bqpipe"
)

// Option configures Client.
type Option interface {
	apply(*Client) error
}

type optionFunc func(*Client) error

func (f optionFunc) apply(c *Client) error {
	return f(c)
}

// WithCredentialsFile authenticates with a service account key file
// instead of application default credentials.
func WithCredentialsFile(path string) Option {
	return optionFunc(func(c *Client) error {
		if path == "" {
			return &bqpipe.InvalidRequestError{Reason: "credentials file path is empty"}
		}
		c.commonOpts = append(c.commonOpts, option.WithCredentialsFile(path))
		return nil
	})
}

// WithEndpoint points the BigQuery client at a custom endpoint such as
// an emulator.
func WithEndpoint(url string) Option {
	return optionFunc(func(c *Client) error {
		c.bqOpts = append(c.bqOpts, option.WithEndpoint(url))
		return nil
	})
}

// WithDefaultDataset changes the dataset used when a request names none.
func WithDefaultDataset(dataset string) Option {
	return optionFunc(func(c *Client) error {
		if dataset == "" {
			return &bqpipe.InvalidRequestError{Reason: "default dataset is empty"}
		}
		c.dataset = dataset
		return nil
	})
}

// WithLogger replaces the default logger.
func WithLogger(l zerolog.Logger) Option {
	return optionFunc(func(c *Client) error {
		c.logger = &l
		return nil
	})
}

// WithLogLevel sets the default logger's level.
func WithLogLevel(level string) Option {
	return optionFunc(func(c *Client) error {
		c.logLevel = level
		return nil
	})
}

// WithPrettyLogging prints human friendly logs.
func WithPrettyLogging() Option {
	return optionFunc(func(c *Client) error {
		c.pretty = true
		return nil
	})
}
