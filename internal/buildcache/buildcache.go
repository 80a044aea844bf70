// Package buildcache persists per-document content hashes and the
// layout/component dependency edges recorded during composition, so
// rebuilds can skip pages whose inputs are unchanged.
package buildcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed build cache.
type Cache struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens a cache database. Use ":memory:" for an
// in-memory cache that lives for one process.
func Open(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		build_id TEXT NOT NULL,
		built_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS deps (
		page_path TEXT NOT NULL,
		dep_path TEXT NOT NULL,
		PRIMARY KEY (page_path, dep_path)
	);
	CREATE INDEX IF NOT EXISTS idx_deps_dep ON deps(dep_path);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// NewBuildID returns a fresh identifier tying cache rows to one build.
func NewBuildID() string {
	return uuid.NewString()
}

// Hash returns the content hash used for staleness checks.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Stale reports whether a document must be rebuilt: unknown paths and
// changed hashes are stale.
func (c *Cache) Stale(ctx context.Context, path, contentHash string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var stored string
	err := c.db.QueryRowContext(ctx,
		"SELECT content_hash FROM documents WHERE path = ?", path,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("query document %q: %w", path, err)
	}
	return stored != contentHash, nil
}

// Record stores a document's hash and replaces its dependency edges.
func (c *Cache) Record(ctx context.Context, buildID, path, contentHash string, deps []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (path, content_hash, build_id, built_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET content_hash = excluded.content_hash,
		 build_id = excluded.build_id, built_at = excluded.built_at`,
		path, contentHash, buildID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert document %q: %w", path, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM deps WHERE page_path = ?", path); err != nil {
		return fmt.Errorf("clear deps for %q: %w", path, err)
	}
	for _, dep := range deps {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO deps (page_path, dep_path) VALUES (?, ?)", path, dep,
		); err != nil {
			return fmt.Errorf("insert dep %q -> %q: %w", path, dep, err)
		}
	}

	return tx.Commit()
}

// Deps returns the recorded input paths for one page.
func (c *Cache) Deps(ctx context.Context, page string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx,
		"SELECT dep_path FROM deps WHERE page_path = ? ORDER BY dep_path", page,
	)
	if err != nil {
		return nil, fmt.Errorf("query deps of %q: %w", page, err)
	}
	defer func() { _ = rows.Close() }()

	var deps []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan dep: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// Dependents returns the pages that recorded dep as an input. A layout
// or component edit invalidates every page returned here.
func (c *Cache) Dependents(ctx context.Context, dep string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx,
		"SELECT page_path FROM deps WHERE dep_path = ? ORDER BY page_path", dep,
	)
	if err != nil {
		return nil, fmt.Errorf("query dependents of %q: %w", dep, err)
	}
	defer func() { _ = rows.Close() }()

	var pages []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan dependent: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Invalidate drops cached state for the given paths so the next build
// treats them as stale.
func (c *Cache) Invalidate(ctx context.Context, paths []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range paths {
		if _, err := c.db.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", p); err != nil {
			return fmt.Errorf("invalidate %q: %w", p, err)
		}
	}
	return nil
}
