// Package snowflake reads and writes Snowflake tables as frames.
package snowflake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/snowflakedb/gosnowflake"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
)

// DefaultSchema is used when a request names no schema.
const DefaultSchema = "analytics"

// application tags every session in Snowflake's query history.
const application = "bqpipe"

// SQL states this package branches on.
const (
	sqlStateNotFound   = "42S02"
	sqlStateInvalidSQL = "42000"
)

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// AuthMethod selects how a session authenticates.
type AuthMethod string

// Supported authentication methods.
const (
	// AuthKeyPair signs a JWT with an RSA private key.
	AuthKeyPair AuthMethod = "key_pair"
	// AuthUserLogin sends a user name and password.
	AuthUserLogin AuthMethod = "user_login"
)

// Auth describes how to authenticate a session.
type Auth struct {
	// Method picks key-pair or password authentication. Empty means
	// key_pair when PrivateKeyPath is set and user_login otherwise.
	Method AuthMethod

	User     string
	Password string

	// PrivateKeyPath points at a PEM-encoded PKCS#8 RSA private key.
	PrivateKeyPath string

	// PrivateKeyPassphrase decrypts the key. Empty means the key is not
	// encrypted.
	PrivateKeyPassphrase string
}

func (a Auth) method() (AuthMethod, error) {
	switch a.Method {
	case AuthKeyPair, AuthUserLogin:
		return a.Method, nil
	case "":
		if a.PrivateKeyPath != "" {
			return AuthKeyPair, nil
		}
		return AuthUserLogin, nil
	default:
		return "", &bqpipe.InvalidRequestError{
			Reason: fmt.Sprintf("auth method must be key_pair or user_login, got %q", a.Method)}
	}
}

func (a Auth) config(account string) (*gosnowflake.Config, error) {
	if account == "" {
		return nil, &bqpipe.InvalidRequestError{Reason: "account is required"}
	}
	if a.User == "" {
		return nil, &bqpipe.InvalidRequestError{Reason: "user is required"}
	}

	method, err := a.method()
	if err != nil {
		return nil, err
	}

	cfg := &gosnowflake.Config{
		Account:     account,
		User:        a.User,
		Application: application,
	}

	switch method {
	case AuthKeyPair:
		key, err := loadPrivateKey(a.PrivateKeyPath, a.PrivateKeyPassphrase)
		if err != nil {
			return nil, err
		}
		cfg.Authenticator = gosnowflake.AuthTypeJwt
		cfg.PrivateKey = key
	case AuthUserLogin:
		if a.Password == "" {
			return nil, &bqpipe.InvalidRequestError{Reason: "password is required for user_login"}
		}
		cfg.Password = a.Password
	}

	return cfg, nil
}

// Client wraps a Snowflake session. It implements bqpipe.Warehouse.
type Client struct {
	db     *sql.DB
	cfg    *gosnowflake.Config
	schema string
	logger *zerolog.Logger

	logLevel string
	pretty   bool
}

// NewClient opens a Snowflake session for the given account and
// verifies it before returning.
func NewClient(ctx context.Context, account string, auth Auth, opts ...Option) (*Client, error) {
	cfg, err := auth.config(account)
	if err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, schema: DefaultSchema}

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

	dsn, err := gosnowflake.DSN(c.cfg)
	if err != nil {
		return nil, xerrors.Errorf("failed to build snowflake dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, xerrors.Errorf("failed to open snowflake connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, xerrors.Errorf("failed to connect to %s: %w", account, mapError(err, account))
	}

	c.db = db

	return c, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

func mapError(err error, object string) error {
	var serr *gosnowflake.SnowflakeError
	if errors.As(err, &serr) {
		switch serr.SQLState {
		case sqlStateNotFound:
			return &bqpipe.NotFoundError{Object: object, Err: err}
		case sqlStateInvalidSQL:
			return &bqpipe.InvalidRequestError{Reason: serr.Message, Err: err}
		}
	}

	return err
}

// identifier validates a name for unquoted interpolation and uppercases
// it the way Snowflake resolves unquoted identifiers.
func identifier(name, fallback string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if !identRE.MatchString(name) {
		return "", &bqpipe.InvalidRequestError{Reason: fmt.Sprintf("invalid identifier %q", name)}
	}

	return strings.ToUpper(name), nil
}
