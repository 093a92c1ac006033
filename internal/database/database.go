// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql, which also works with MariaDB.
//
// Public entry points:
//
//	Open(ctx, cfg)              – pool from the `database` config block.
//	OpenWithOptions(ctx, dsn, maxOpen, maxIdle) – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/kapenta/internal/config"
)

// Pool defaults used when the config leaves them at zero.
const (
	DefaultMaxOpen = 15
	DefaultMaxIdle = 5
)

// ErrNoDSN is returned by Open when the config block has no DSN.
var ErrNoDSN = errors.New("database dsn is empty")

// Open returns a *sqlx.DB for cfg.  A non-empty cfg.Password replaces the
// password in the DSN, so the DSN itself can live in a flat file while the
// secret comes from Vault.
func Open(ctx context.Context, cfg *config.Database) (*sqlx.DB, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, ErrNoDSN
	}
	dsn, err := WithPassword(cfg.DSN, cfg.Password)
	if err != nil {
		return nil, err
	}

	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if maxOpen == 0 {
		maxOpen = DefaultMaxOpen
	}
	if maxIdle == 0 {
		maxIdle = DefaultMaxIdle
	}
	return OpenWithOptions(ctx, dsn, maxOpen, maxIdle)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle per pool.
func OpenWithOptions(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// WithPassword injects password into a MySQL DSN and forces parseTime so
// DATETIME columns scan into time.Time.  An empty password keeps the DSN's
// own.
func WithPassword(dsn, password string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if password != "" {
		c.Passwd = password
	}
	c.ParseTime = true
	return c.FormatDSN(), nil
}
