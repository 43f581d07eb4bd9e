// Package postgres implements the persistence ports on Postgres via pgx.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"auditpro/internal/ports"
)

//go:embed migrations/*.sql
var migrations embed.FS

// txEnder is the part of pgx.Tx that endTx needs.
type txEnder interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// endTx rolls tx back when *errp is set and commits it otherwise. A failed
// commit is reported through *errp.
func endTx(ctx context.Context, tx txEnder, errp *error) {
	if *errp != nil {
		_ = tx.Rollback(ctx)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		*errp = fmt.Errorf("commit: %w", err)
	}
}

type DB struct {
	Pool *pgxpool.Pool
}

var _ ports.Store = (*DB)(nil)

func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() { db.Pool.Close() }

func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
