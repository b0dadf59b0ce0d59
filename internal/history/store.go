// internal/history/store.go

// Package history persists run outcomes to Postgres. The store is optional;
// runs work identically without it, it only adds an audit trail across runs.
package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dkharel/meroflow/internal/pipeline"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS run_history (
	run_id      UUID NOT NULL,
	account     TEXT NOT NULL,
	target      TEXT NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	artifact    TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, account)
)`

const recordSQL = `
INSERT INTO run_history (run_id, account, target, status, reason, artifact)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id, account) DO UPDATE SET
	status = EXCLUDED.status,
	reason = EXCLUDED.reason,
	artifact = EXCLUDED.artifact,
	recorded_at = now()`

// DB is the slice of the pgx pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes per-account outcomes keyed by run id.
type Store struct {
	db     DB
	logger *zap.Logger
}

// NewStore wraps an existing connection pool.
func NewStore(db DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("history")}
}

// Connect opens a pool against the DSN and verifies it is reachable.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	return NewStore(pool, logger), nil
}

// EnsureSchema creates the history table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

// RecordRun upserts one account's outcome under the run id. Re-recording the
// same (run, account) pair overwrites the earlier row.
func (s *Store) RecordRun(ctx context.Context, runID, target string, o pipeline.Outcome) error {
	_, err := s.db.Exec(ctx, recordSQL,
		runID, o.Account, target, string(o.Status), o.Reason, o.Artifact)
	if err != nil {
		return fmt.Errorf("record outcome for %s: %w", o.Account, err)
	}
	s.logger.Debug("Outcome recorded.",
		zap.String("run_id", runID),
		zap.String("account", o.Account),
		zap.String("status", string(o.Status)))
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.db.Close()
}
