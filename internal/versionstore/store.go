package versionstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// lockRetryInterval is how often TryLockContext polls for the advisory
// file lock while waiting.
const lockRetryInterval = 50 * time.Millisecond

// Store is the durable backing store for the Version Store (C11): a
// SQLite database of VersionRecord snapshots, one row per
// (workflowId, versionNumber), with per-workflow advisory locking for
// writers.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open creates (or reuses) the version-store database file at path and
// applies its migrations. Migrations run on their own connection, so
// ":memory:" does not work: the returned handle sees an unmigrated
// database. dataDir is the parent directory used for the per-workflow
// lock files; pass "" to disable locking.
func Open(ctx context.Context, path, dataDir string) (store *Store, err error) {
	if err := applyMigrations(ctx, path); err != nil {
		return nil, err
	}
	db, dbErr := sql.Open("sqlite", path)
	if dbErr != nil {
		return nil, fmt.Errorf("versionstore: open database: %w", dbErr)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()
	if _, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("versionstore: enable foreign keys: %w", err)
	}
	return &Store{db: db, dataDir: dataDir}, nil
}

// DB exposes the underlying handle for tests asserting on schema shape.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the store's database handle as part of the cleanup
// ordering: flush pending writes to the version store, then close the
// catalog store.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

// HealthCheck verifies the store can still serve queries.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
