package snowflake

import (
	"github.com/rs/zerolog"

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

// WithWarehouse sets the session's initial virtual warehouse.
func WithWarehouse(name string) Option {
	return optionFunc(func(c *Client) error {
		c.cfg.Warehouse = name
		return nil
	})
}

// WithDatabase sets the session's initial database.
func WithDatabase(name string) Option {
	return optionFunc(func(c *Client) error {
		c.cfg.Database = name
		return nil
	})
}

// WithRole sets the session's initial role.
func WithRole(name string) Option {
	return optionFunc(func(c *Client) error {
		c.cfg.Role = name
		return nil
	})
}

// WithDefaultSchema changes the schema used when a request names none.
// It also becomes the session's initial schema.
func WithDefaultSchema(schema string) Option {
	return optionFunc(func(c *Client) error {
		if schema == "" {
			return &bqpipe.InvalidRequestError{Reason: "default schema is empty"}
		}
		c.schema = schema
		c.cfg.Schema = schema
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
