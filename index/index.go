// Package index persists the identity map of an asset database into SQLite so
// other processes can resolve uuids without scanning the mounts.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/mwantia/assetdb/data"
	"github.com/tidwall/btree"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// FileName is the default name of the index inside the library.
const FileName = "assetdb.sqlite"

// Index keeps two layers:
//
// Layer 1: In-memory B-tree mapping paths to uuids
// Layer 2: SQLite table (assets) holding one row per tracked asset
type Index struct {
	mu sync.RWMutex
	db *sql.DB

	paths *btree.Map[string, string]
}

// Open opens or creates the index at dbPath. The dbPath can be ":memory:".
func Open(ctx context.Context, dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A second connection to ":memory:" would see an empty database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	idx := &Index{
		db:    db,
		paths: btree.NewMap[string, string](0),
	}

	if err := idx.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := idx.load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *Index) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		uuid TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		mount TEXT NOT NULL,
		type TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assets_mount ON assets(mount);
	`

	_, err := idx.db.ExecContext(ctx, schema)
	return err
}

func (idx *Index) load(ctx context.Context) error {
	rows, err := idx.db.QueryContext(ctx, "SELECT path, uuid FROM assets")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var path, uuid string
		if err := rows.Scan(&path, &uuid); err != nil {
			return err
		}
		idx.paths.Set(path, uuid)
	}

	return rows.Err()
}

// Sync replaces the content of the index with entries in one transaction.
func (idx *Index) Sync(ctx context.Context, entries []data.IndexEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM assets"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assets (uuid, path, url, mount, type)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	paths := btree.NewMap[string, string](0)
	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.UUID, entry.Path, entry.URL, entry.Mount, entry.Type); err != nil {
			return fmt.Errorf("failed to index %s: %w", entry.Path, err)
		}
		paths.Set(entry.Path, entry.UUID)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	idx.paths = paths
	return nil
}

// Lookup returns the entry of uuid.
func (idx *Index) Lookup(ctx context.Context, uuid string) (*data.IndexEntry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var entry data.IndexEntry
	err := idx.db.QueryRowContext(ctx, `
		SELECT uuid, path, url, mount, type FROM assets WHERE uuid = ?
	`, uuid).Scan(&entry.UUID, &entry.Path, &entry.URL, &entry.Mount, &entry.Type)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", data.ErrUnknownUUID, uuid)
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// LookupPath returns the entry tracked at path.
func (idx *Index) LookupPath(ctx context.Context, path string) (*data.IndexEntry, error) {
	idx.mu.RLock()
	uuid, ok := idx.paths.Get(path)
	idx.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", data.ErrNotTracked, path)
	}

	return idx.Lookup(ctx, uuid)
}

// List returns every entry of mount ordered by path, or all entries if mount is empty.
func (idx *Index) List(ctx context.Context, mount string) ([]data.IndexEntry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	query := "SELECT uuid, path, url, mount, type FROM assets ORDER BY path"
	args := []any{}
	if mount != "" {
		query = "SELECT uuid, path, url, mount, type FROM assets WHERE mount = ? ORDER BY path"
		args = append(args, mount)
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []data.IndexEntry{}
	for rows.Next() {
		var entry data.IndexEntry
		if err := rows.Scan(&entry.UUID, &entry.Path, &entry.URL, &entry.Mount, &entry.Type); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Len returns the number of indexed assets.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.paths.Len()
}

func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.paths.Clear()
	return idx.db.Close()
}
