/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/suparena/cleardata/datastore/ddb"
	"github.com/suparena/cleardata/datastore/sqlstore"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/logger"
)

// DefaultEnvPrefix prefixes environment overrides, e.g. CLEARDATA_COSMOS_DATABASE.
const DefaultEnvPrefix = "CLEARDATA"

// Document backends.
const (
	BackendCosmos   = "cosmos"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config is the complete cleardata configuration.
type Config struct {
	// Backend selects the document store: cosmos, dynamodb or memory.
	Backend string `mapstructure:"backend"`
	// ContainersFile lists container definitions, see LoadContainers.
	ContainersFile string `mapstructure:"containers_file"`

	Cosmos   CosmosConfig   `mapstructure:"cosmos"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	SQL      SQLConfig      `mapstructure:"sql"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// CosmosConfig connects with a connection string, or with an endpoint and
// account key.
type CosmosConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	Endpoint         string `mapstructure:"endpoint"`
	Key              string `mapstructure:"key"`
	Database         string `mapstructure:"database"`
}

type DynamoDBConfig struct {
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint string `mapstructure:"endpoint"`
	Table    string `mapstructure:"table"`
	// EntityTypeIndex enables the GSI used for typed cross-partition queries.
	EntityTypeIndex bool `mapstructure:"entity_type_index"`
}

type SQLConfig struct {
	Dialect         string        `mapstructure:"dialect"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

type BatchConfig struct {
	// DeleteWindow bounds concurrent deletes in DeleteAll.
	DeleteWindow int `mapstructure:"delete_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Backend: BackendMemory,
		DynamoDB: DynamoDBConfig{
			Region:          "us-east-1",
			EntityTypeIndex: true,
		},
		SQL: SQLConfig{
			Dialect:         "postgres",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			QueryTimeout:    30 * time.Second,
		},
		Batch: BatchConfig{DeleteWindow: 10},
		Log: LogConfig{
			Level:  string(logger.InfoLevel),
			Format: string(logger.JSONFormat),
		},
		Metrics: MetricsConfig{Namespace: "cleardata"},
	}
}

// Load reads configuration with precedence env > file > defaults. A .env
// file in the working directory is loaded first when present; file may be
// empty. envPrefix defaults to DefaultEnvPrefix.
func Load(file, envPrefix string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}

	v := viper.New()
	setDefaults(v, Default())

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key, which also makes AutomaticEnv see it
// during Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("backend", d.Backend)
	v.SetDefault("containers_file", d.ContainersFile)

	v.SetDefault("cosmos.connection_string", d.Cosmos.ConnectionString)
	v.SetDefault("cosmos.endpoint", d.Cosmos.Endpoint)
	v.SetDefault("cosmos.key", d.Cosmos.Key)
	v.SetDefault("cosmos.database", d.Cosmos.Database)

	v.SetDefault("dynamodb.region", d.DynamoDB.Region)
	v.SetDefault("dynamodb.access_key", d.DynamoDB.AccessKey)
	v.SetDefault("dynamodb.secret_key", d.DynamoDB.SecretKey)
	v.SetDefault("dynamodb.endpoint", d.DynamoDB.Endpoint)
	v.SetDefault("dynamodb.table", d.DynamoDB.Table)
	v.SetDefault("dynamodb.entity_type_index", d.DynamoDB.EntityTypeIndex)

	v.SetDefault("sql.dialect", d.SQL.Dialect)
	v.SetDefault("sql.dsn", d.SQL.DSN)
	v.SetDefault("sql.max_open_conns", d.SQL.MaxOpenConns)
	v.SetDefault("sql.max_idle_conns", d.SQL.MaxIdleConns)
	v.SetDefault("sql.conn_max_lifetime", d.SQL.ConnMaxLifetime)
	v.SetDefault("sql.conn_max_idle_time", d.SQL.ConnMaxIdleTime)
	v.SetDefault("sql.query_timeout", d.SQL.QueryTimeout)

	v.SetDefault("batch.delete_window", d.Batch.DeleteWindow)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

// Validate checks the settings of the selected backend.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendCosmos:
		if c.Cosmos.Database == "" {
			return errors.NewConfigurationError("cosmos.database", "is required")
		}
		if c.Cosmos.ConnectionString == "" && (c.Cosmos.Endpoint == "" || c.Cosmos.Key == "") {
			return errors.NewConfigurationError("cosmos", "a connection string or an endpoint and key are required")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.NewConfigurationError("dynamodb.table", "is required")
		}
		if c.DynamoDB.Region == "" {
			return errors.NewConfigurationError("dynamodb.region", "is required")
		}
	default:
		return errors.NewConfigurationError("backend", fmt.Sprintf("unknown backend %q", c.Backend))
	}

	if c.SQL.DSN != "" {
		if _, err := sqlstore.DialectFor(c.SQL.Dialect); err != nil {
			return err
		}
	}
	if c.Batch.DeleteWindow <= 0 {
		return errors.NewConfigurationError("batch.delete_window", "must be positive")
	}
	if _, err := logger.ParseLogLevel(c.Log.Level); err != nil {
		return errors.NewConfigurationError("log.level", err.Error())
	}
	if _, err := logger.ParseLogFormat(c.Log.Format); err != nil {
		return errors.NewConfigurationError("log.format", err.Error())
	}
	return nil
}

// Logger returns the logger settings. Call after Validate.
func (c *Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	if level, err := logger.ParseLogLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	if format, err := logger.ParseLogFormat(c.Log.Format); err == nil {
		lc.Format = format
	}
	return lc
}

func (c *Config) SQLStore() sqlstore.Config {
	return sqlstore.Config{
		Dialect:         c.SQL.Dialect,
		DSN:             c.SQL.DSN,
		MaxOpenConns:    c.SQL.MaxOpenConns,
		MaxIdleConns:    c.SQL.MaxIdleConns,
		ConnMaxLifetime: c.SQL.ConnMaxLifetime,
		ConnMaxIdleTime: c.SQL.ConnMaxIdleTime,
		QueryTimeout:    c.SQL.QueryTimeout,
	}
}

func (c *Config) DDB() ddb.Config {
	return ddb.Config{
		Region:    c.DynamoDB.Region,
		AccessKey: c.DynamoDB.AccessKey,
		SecretKey: c.DynamoDB.SecretKey,
		Endpoint:  c.DynamoDB.Endpoint,
	}
}
