// Package postgres implements the driven.Repository port against
// PostgreSQL using database/sql and lib/pq, following the teacher's
// adapters/driven/postgres package: no ORM, raw SQL, manual scanning.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Config bounds one process's connection pool. Serving workers and the
// ingestion orchestrator each construct their own DB with distinct
// Config values — pools are never shared across planes.
type Config struct {
	URL             string
	SSL             bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns baseline pool bounds (10 open, 5 idle). The
// serving worker overrides MaxOpenConns/MaxIdleConns from the
// database.pool.{max,min} settings, and the ingestion orchestrator
// narrows them to its own small pool.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// DB wraps *sql.DB with the schema-init and transaction helpers every
// adapter in this package shares.
type DB struct {
	*sql.DB
}

// Connect opens the pool, applies Config bounds, and pings to fail
// fast on a bad DSN, exactly as the teacher's Connect does.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	dsn := cfg.URL
	if !cfg.SSL {
		dsn = appendDSNParam(dsn, "sslmode=disable")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

func appendDSNParam(dsn, param string) string {
	if dsn == "" {
		return dsn
	}
	sep := "?"
	for i := 0; i < len(dsn); i++ {
		if dsn[i] == '?' {
			sep = "&"
			break
		}
	}
	return dsn + sep + param
}

// InitSchema applies the embedded, idempotent schema and runs the
// one-shot search_tokens backfill the trigger installation requires.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: init schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, backfillSearchTokensSQL); err != nil {
		return fmt.Errorf("postgres: backfill search_tokens: %w", err)
	}
	return nil
}

// Transaction runs fn inside a *sql.Tx, committing on nil error and
// rolling back otherwise — the all-or-nothing-per-batch guarantee
// spec §4.3.2 requires, expressed once for every caller in this
// package.
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("postgres: tx failed: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// NullString and NullTime adapt nullable domain pointers to
// database/sql's nullable wire types, matching the teacher's
// lib/pq-facing helper style.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}
