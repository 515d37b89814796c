package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqpipe"
	"go.nownabe.dev/bqpipe/bq"
	"go.nownabe.dev/bqpipe/snowflake"
)

// Config is the file and environment configuration of the CLI.
type Config struct {
	Backend       string `mapstructure:"backend"`
	LogLevel      string `mapstructure:"log_level"`
	PrettyLogging bool   `mapstructure:"pretty_logging"`

	BigQuery  BigQueryConfig  `mapstructure:"bigquery"`
	Snowflake SnowflakeConfig `mapstructure:"snowflake"`
}

// BigQueryConfig configures the bigquery backend.
type BigQueryConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Dataset         string `mapstructure:"dataset"`
}

// SnowflakeConfig configures the snowflake backend.
type SnowflakeConfig struct {
	Account              string `mapstructure:"account"`
	User                 string `mapstructure:"user"`
	Password             string `mapstructure:"password"`
	AuthMethod           string `mapstructure:"auth_method"`
	PrivateKeyPath       string `mapstructure:"private_key_path"`
	PrivateKeyPassphrase string `mapstructure:"private_key_passphrase"`
	Warehouse            string `mapstructure:"warehouse"`
	Database             string `mapstructure:"database"`
	Schema               string `mapstructure:"schema"`
	Role                 string `mapstructure:"role"`
}

func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, xerrors.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// warehouse is what every command needs from a backend.
type warehouse interface {
	WriteTable(ctx context.Context, f *bqpipe.Frame, req bqpipe.WriteRequest) (*bqpipe.WriteOutcome, error)
	FetchTable(ctx context.Context, req bqpipe.FetchRequest) (*bqpipe.Frame, error)
	Query(ctx context.Context, query string) (*bqpipe.Frame, error)
	ListDatasets(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, dataset string) ([]string, error)
	GetTableSchema(ctx context.Context, dataset, table string) (bqpipe.Schema, error)
	DescribeDataset(ctx context.Context, dataset string) (map[string]bqpipe.Schema, error)
	Close() error
}

func newWarehouse(ctx context.Context, cfg *Config) (warehouse, error) {
	switch cfg.Backend {
	case "", "bigquery":
		return newBigQuery(ctx, cfg)
	case "snowflake":
		return newSnowflake(ctx, cfg)
	default:
		return nil, &bqpipe.InvalidRequestError{
			Reason: fmt.Sprintf("backend must be bigquery or snowflake, got %q", cfg.Backend)}
	}
}

func newBigQuery(ctx context.Context, cfg *Config) (warehouse, error) {
	opts := []bq.Option{bq.WithLogLevel(cfg.LogLevel)}
	if cfg.PrettyLogging {
		opts = append(opts, bq.WithPrettyLogging())
	}
	if cfg.BigQuery.CredentialsFile != "" {
		opts = append(opts, bq.WithCredentialsFile(cfg.BigQuery.CredentialsFile))
	}
	if cfg.BigQuery.Dataset != "" {
		opts = append(opts, bq.WithDefaultDataset(cfg.BigQuery.Dataset))
	}

	return bq.NewClient(ctx, cfg.BigQuery.ProjectID, opts...)
}

func newSnowflake(ctx context.Context, cfg *Config) (warehouse, error) {
	sc := cfg.Snowflake

	auth := snowflake.Auth{
		Method:               snowflake.AuthMethod(sc.AuthMethod),
		User:                 sc.User,
		Password:             sc.Password,
		PrivateKeyPath:       sc.PrivateKeyPath,
		PrivateKeyPassphrase: sc.PrivateKeyPassphrase,
	}

	opts := []snowflake.Option{snowflake.WithLogLevel(cfg.LogLevel)}
	if cfg.PrettyLogging {
		opts = append(opts, snowflake.WithPrettyLogging())
	}
	if sc.Warehouse != "" {
		opts = append(opts, snowflake.WithWarehouse(sc.Warehouse))
	}
	if sc.Database != "" {
		opts = append(opts, snowflake.WithDatabase(sc.Database))
	}
	if sc.Role != "" {
		opts = append(opts, snowflake.WithRole(sc.Role))
	}
	if sc.Schema != "" {
		opts = append(opts, snowflake.WithDefaultSchema(sc.Schema))
	}

	c, err := snowflake.NewClient(ctx, sc.Account, auth, opts...)
	if err != nil {
		return nil, err
	}

	return snowflakeWarehouse{c}, nil
}

// snowflakeWarehouse adapts schema listing and describing to the
// dataset oriented commands.
type snowflakeWarehouse struct {
	*snowflake.Client
}

func (w snowflakeWarehouse) ListDatasets(ctx context.Context) ([]string, error) {
	return w.ListSchemas(ctx, "")
}

func (w snowflakeWarehouse) DescribeDataset(ctx context.Context, dataset string) (map[string]bqpipe.Schema, error) {
	return w.DescribeSchema(ctx, dataset)
}
