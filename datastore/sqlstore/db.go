/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/lib/pq"               // PostgreSQL driver
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/logger"
)

// Executor runs statements. *sql.DB and *sql.Tx both satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Config holds the connection and pool settings.
type Config struct {
	// Dialect is sqlserver, postgres or mysql.
	Dialect string
	DSN     string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// QueryTimeout bounds every statement when positive.
	QueryTimeout time.Duration
}

// DB is a relational connection shared by tables. Statements run inside
// the transaction carried by the context, if any.
type DB struct {
	db      *sql.DB
	dialect Dialect
	dsn     string
	timeout time.Duration
	log     logger.Logger
}

// Option configures a DB
type Option func(*DB)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(d *DB) {
		if l != nil {
			d.log = l
		}
	}
}

// WithQueryTimeout bounds every statement
func WithQueryTimeout(timeout time.Duration) Option {
	return func(d *DB) {
		d.timeout = timeout
	}
}

// Open connects with cfg and verifies the connection.
func Open(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.NewConfigurationError("dsn", "a connection string is required")
	}
	dialect, err := DialectFor(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := New(sqlDB, dialect, append([]Option{WithQueryTimeout(cfg.QueryTimeout)}, opts...)...)
	d.dsn = cfg.DSN
	d.log.Info("database connection established",
		"dialect", dialect.Name(),
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return d, nil
}

// New wraps an open *sql.DB.
func New(db *sql.DB, dialect Dialect, opts ...Option) *DB {
	d := &DB{db: db, dialect: dialect, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ConnectionString returns the DSN the connection was opened with.
func (d *DB) ConnectionString() string { return d.dsn }

// Dialect returns the dialect statements are rendered in.
func (d *DB) Dialect() Dialect { return d.dialect }

// SQL returns the underlying *sql.DB.
func (d *DB) SQL() *sql.DB { return d.db }

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

func (d *DB) Close() error {
	d.log.Info("closing database connection", "dialect", d.dialect.Name())
	return d.db.Close()
}

type txKey struct{ db *DB }

// WithTransaction runs fn in a transaction, committing when it returns nil
// and rolling back otherwise. Calls nested inside fn join the outer
// transaction.
func (d *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := d.tx(ctx); ok {
		return fn(ctx)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				d.log.Error("failed to rollback transaction after panic", "panic", p, "rollback_error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{d}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.log.Error("failed to rollback transaction", "original_error", err, "rollback_error", rbErr)
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (d *DB) tx(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{d}).(*sql.Tx)
	return tx, ok
}

func (d *DB) executor(ctx context.Context) Executor {
	if tx, ok := d.tx(ctx); ok {
		return tx
	}
	return d.db
}

func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.timeout)
}

// ExecSQL runs a raw statement and returns the number of rows affected.
func (d *DB) ExecSQL(ctx context.Context, statement string, args ...any) (int64, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	d.log.Debug("exec", "statement", statement)
	res, err := d.executor(ctx).ExecContext(ctx, statement, args...)
	if err != nil {
		return 0, convertError("ExecSQL", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// query runs a SELECT and hands every row to scan.
func (d *DB) query(ctx context.Context, op, statement string, args []any, scan func(*sql.Rows) error) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	d.log.Debug("query", "op", op, "statement", statement)
	rows, err := d.executor(ctx).QueryContext(ctx, statement, args...)
	if err != nil {
		return convertError(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return convertError(op, err)
	}
	return nil
}

// QuerySQL runs a raw SELECT and maps each row with scan.
func QuerySQL[T any](ctx context.Context, d *DB, scan RowScanner[T], statement string, args ...any) ([]T, error) {
	out := []T{}
	err := d.query(ctx, "QuerySQL", statement, args, func(rows *sql.Rows) error {
		v, err := scan(rows)
		if err != nil {
			return err
		}
		out = append(out, *v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
