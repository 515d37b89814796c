package snowflake

import (
	"errors"
	"testing"

	"github.com/snowflakedb/gosnowflake"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
)

func TestAuth_config_keyPair(t *testing.T) {
	path, _ := testKeyFile(t, "")

	auth := Auth{User: "loader", PrivateKeyPath: path}

	cfg, err := auth.config("acme-xy12345")
	if err != nil {
		t.Fatalf("config should not cause an error: %v", err)
	}

	if cfg.Account != "acme-xy12345" {
		t.Errorf(`Account should be "acme-xy12345", but %q`, cfg.Account)
	}

	if cfg.User != "loader" {
		t.Errorf(`User should be "loader", but %q`, cfg.User)
	}

	if cfg.Application != application {
		t.Errorf("Application should be %q, but %q", application, cfg.Application)
	}

	if cfg.Authenticator != gosnowflake.AuthTypeJwt {
		t.Errorf("Authenticator should be jwt, but %v", cfg.Authenticator)
	}

	if cfg.PrivateKey == nil {
		t.Error("PrivateKey should be set")
	}
}

func TestAuth_config_userLogin(t *testing.T) {
	auth := Auth{Method: AuthUserLogin, User: "loader", Password: "hunter2"}

	cfg, err := auth.config("acme-xy12345")
	if err != nil {
		t.Fatalf("config should not cause an error: %v", err)
	}

	if cfg.Password != "hunter2" {
		t.Error("Password should be passed through")
	}

	if cfg.PrivateKey != nil {
		t.Error("PrivateKey should not be set")
	}
}

func TestAuth_config_error(t *testing.T) {
	cases := []struct {
		name    string
		account string
		auth    Auth
	}{
		{"empty account", "", Auth{User: "loader", Password: "hunter2"}},
		{"empty user", "acme", Auth{Password: "hunter2"}},
		{"empty password", "acme", Auth{Method: AuthUserLogin, User: "loader"}},
		{"empty key path", "acme", Auth{Method: AuthKeyPair, User: "loader"}},
		{"unknown method", "acme", Auth{Method: "oauth", User: "loader"}},
	}

	for _, c := range cases {
		_, err := c.auth.config(c.account)
		if err == nil {
			t.Fatalf("%s should cause an error", c.name)
		}

		var ire *bqpipe.InvalidRequestError
		if !errors.As(err, &ire) {
			t.Errorf("error for %s should be InvalidRequestError, but %T", c.name, err)
		}
	}
}

func TestMapError(t *testing.T) {
	serr := &gosnowflake.SnowflakeError{
		Number:   2003,
		SQLState: sqlStateNotFound,
		Message:  "Object 'SALES.ORDERS' does not exist or not authorized.",
	}

	err := mapError(xerrors.Errorf("query failed: %w", serr), "sales.orders")

	var notFound *bqpipe.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error should be NotFoundError, but %T", err)
	}

	if notFound.Object != "sales.orders" {
		t.Errorf(`Object should be "sales.orders", but %q`, notFound.Object)
	}

	if !errors.Is(err, serr) {
		t.Error("the driver error should be preserved in the chain")
	}
}

func TestMapError_invalidSQL(t *testing.T) {
	serr := &gosnowflake.SnowflakeError{
		Number:   1003,
		SQLState: sqlStateInvalidSQL,
		Message:  "SQL compilation error: syntax error",
	}

	err := mapError(serr, "referenced object")

	var ire *bqpipe.InvalidRequestError
	if !errors.As(err, &ire) {
		t.Fatalf("error should be InvalidRequestError, but %T", err)
	}

	if ire.Reason != serr.Message {
		t.Errorf("Reason should carry the driver message, but %q", ire.Reason)
	}
}

func TestMapError_passthrough(t *testing.T) {
	serr := &gosnowflake.SnowflakeError{Number: 390114, SQLState: "08001", Message: "authentication token expired"}
	if err := mapError(serr, "x"); !errors.Is(err, serr) {
		t.Errorf("other SQL states should pass through, but %v", err)
	}

	plain := errors.New("boom")
	if err := mapError(plain, "x"); !errors.Is(err, plain) {
		t.Errorf("non-driver errors should pass through, but %v", err)
	}
}

func TestIdentifier(t *testing.T) {
	cases := []struct {
		name     string
		fallback string
		want     string
	}{
		{"sales", "analytics", "SALES"},
		{"  sales ", "analytics", "SALES"},
		{"", "analytics", "ANALYTICS"},
		{"_tmp$1", "", "_TMP$1"},
	}

	for _, c := range cases {
		got, err := identifier(c.name, c.fallback)
		if err != nil {
			t.Fatalf("%q should not cause an error: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%q should resolve to %q, but %q", c.name, c.want, got)
		}
	}
}

func TestIdentifier_error(t *testing.T) {
	cases := []string{"", "sales;drop", "sales.orders", "1sales", "sa les"}

	for _, name := range cases {
		_, err := identifier(name, "")
		if err == nil {
			t.Fatalf("%q should cause an error", name)
		}

		var ire *bqpipe.InvalidRequestError
		if !errors.As(err, &ire) {
			t.Errorf("error for %q should be InvalidRequestError, but %T", name, err)
		}
	}
}
