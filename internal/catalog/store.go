package catalog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

//go:embed seed/nodes.json
var seedFS embed.FS

// Store is the read-only backing store for the Node Catalog. It opens its
// database once per process and is safe for concurrent readers.
type Store struct {
	db *sql.DB

	mu         sync.Mutex
	ftsChecked bool
	ftsOK      bool
}

// Open creates (or reuses) the catalog database file at path, applies
// migrations, and seeds it from the embedded node-definition snapshot.
// Migrations run on their own connection, so ":memory:" does not work:
// the seeding connection sees a fresh, unmigrated database. Open fails cleanly and never
// leaves a partially-initialized store: on any error
// the partially opened handle is closed before returning.
func Open(ctx context.Context, path string) (store *Store, err error) {
	if err := ApplyMigrations(ctx, path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()
	if _, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("catalog: enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err = s.seed(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle for components that need raw access
// (e.g. tests asserting on schema shape).
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the store's database handle.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

// HealthCheck verifies the store can still serve queries.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&count); err != nil {
		return fmt.Errorf("catalog: count nodes: %w", err)
	}
	if count > 0 {
		return nil
	}
	raw, err := seedFS.ReadFile("seed/nodes.json")
	if err != nil {
		return fmt.Errorf("catalog: read embedded seed: %w", err)
	}
	var defs []NodeDefinition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("catalog: decode embedded seed: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin seed transaction: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (node_type, display_name, description, category, package,
			is_trigger, is_webhook, is_ai_tool, is_versioned, version, definition)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare seed insert: %w", err)
	}
	defer stmt.Close()
	for _, def := range defs {
		encoded, err := json.Marshal(def)
		if err != nil {
			return fmt.Errorf("catalog: encode definition %s: %w", def.NodeType, err)
		}
		if _, err := stmt.ExecContext(ctx, def.NodeType, def.DisplayName, def.Description, def.Category,
			def.Package, boolToInt(def.IsTrigger), boolToInt(def.IsWebhook), boolToInt(def.IsAITool),
			boolToInt(def.IsVersioned), def.Version, string(encoded)); err != nil {
			return fmt.Errorf("catalog: insert definition %s: %w", def.NodeType, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit seed: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// supportsFTS lazily feature-detects FTS5 support on first use: if a
// trial query against nodes_fts fails, every subsequent Search falls back
// to LIKE scanning without re-probing.
func (s *Store) supportsFTS(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ftsChecked {
		return s.ftsOK
	}
	s.ftsChecked = true
	_, err := s.db.QueryContext(ctx, "SELECT rowid FROM nodes_fts WHERE nodes_fts MATCH 'probe' LIMIT 0")
	s.ftsOK = err == nil
	return s.ftsOK
}

func rowToDefinition(raw string) (NodeDefinition, error) {
	var def NodeDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		return NodeDefinition{}, fmt.Errorf("catalog: decode stored definition: %w", err)
	}
	return def, nil
}
