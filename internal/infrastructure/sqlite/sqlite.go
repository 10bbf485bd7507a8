// Package sqlite stores cache rows and quotas in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"assetsync-service/internal/infrastructure/logx"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type DB struct{ SQL *sql.DB }

// Open opens (or creates) the database at path, switches it to WAL and creates the tables.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; SQLite would answer SQLITE_BUSY otherwise
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	d := &DB{SQL: db}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logx.L().Info("sqlite.opened", zap.String("path", path))
	return d, nil
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_cache (
			key        TEXT PRIMARY KEY,
			payload    TEXT    NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_quotas (
			user_id          TEXT PRIMARY KEY,
			role             TEXT    NOT NULL DEFAULT 'free',
			calls_made_today INTEGER NOT NULL DEFAULT 0,
			last_call_date   TEXT    NOT NULL DEFAULT ''
		)`,
	}
	for _, s := range stmts {
		if _, err := d.SQL.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error                   { return d.SQL.Close() }
func (d *DB) Ping(ctx context.Context) error { return d.SQL.PingContext(ctx) }
