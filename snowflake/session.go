package snowflake

import (
	"context"
	"database/sql"
	"strings"

	"golang.org/x/xerrors"
)

// UseDatabase switches the session's current database.
func (c *Client) UseDatabase(ctx context.Context, name string) error {
	return c.use(ctx, "DATABASE", name)
}

// UseSchema switches the session's current schema.
func (c *Client) UseSchema(ctx context.Context, name string) error {
	return c.use(ctx, "SCHEMA", name)
}

// UseRole switches the session's current role.
func (c *Client) UseRole(ctx context.Context, name string) error {
	return c.use(ctx, "ROLE", name)
}

// UseWarehouse switches the session's current virtual warehouse.
func (c *Client) UseWarehouse(ctx context.Context, name string) error {
	return c.use(ctx, "WAREHOUSE", name)
}

func (c *Client) use(ctx context.Context, kind, name string) error {
	name, err := identifier(name, "")
	if err != nil {
		return err
	}

	if _, err := c.db.ExecContext(ctx, "USE "+kind+" "+name); err != nil {
		return xerrors.Errorf("failed to use %s %s: %w", strings.ToLower(kind), name, mapError(err, name))
	}

	return nil
}

// CurrentUser returns the session's user name.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	return c.currentValue(ctx, "CURRENT_USER()")
}

// CurrentRole returns the session's active role.
func (c *Client) CurrentRole(ctx context.Context) (string, error) {
	return c.currentValue(ctx, "CURRENT_ROLE()")
}

// CurrentDatabase returns the session's current database, or the empty
// string when none is selected.
func (c *Client) CurrentDatabase(ctx context.Context) (string, error) {
	return c.currentValue(ctx, "CURRENT_DATABASE()")
}

// CurrentSchema returns the session's current schema, or the empty
// string when none is selected.
func (c *Client) CurrentSchema(ctx context.Context) (string, error) {
	return c.currentValue(ctx, "CURRENT_SCHEMA()")
}

// CurrentWarehouse returns the session's current virtual warehouse, or
// the empty string when none is selected.
func (c *Client) CurrentWarehouse(ctx context.Context) (string, error) {
	return c.currentValue(ctx, "CURRENT_WAREHOUSE()")
}

// CurrentRegion returns the region the account runs in.
func (c *Client) CurrentRegion(ctx context.Context) (string, error) {
	return c.currentValue(ctx, "CURRENT_REGION()")
}

func (c *Client) currentValue(ctx context.Context, fn string) (string, error) {
	var v sql.NullString
	if err := c.db.QueryRowContext(ctx, "SELECT "+fn).Scan(&v); err != nil {
		return "", xerrors.Errorf("failed to select %s: %w", fn, mapError(err, "session"))
	}

	return v.String, nil
}
