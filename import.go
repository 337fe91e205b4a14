package assetdb

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/meta"
	"golang.org/x/sync/errgroup"
)

// each runs fn for every item with at most Workers in flight. fn reports per-item
// failures itself, so the batch always completes.
func each[T any](db *AssetDB, items []T, fn func(item T)) {
	var g errgroup.Group
	g.SetLimit(db.opts.Workers)

	for _, item := range items {
		g.Go(func() error {
			fn(item)
			return nil
		})
	}

	_ = g.Wait()
}

// importAsset loads or creates the meta of path and runs its import capability.
// The sidecar is written when the meta is new or the import succeeded.
func (db *AssetDB) importAsset(ctx context.Context, path string) (meta.Meta, error) {
	dirty := false

	m, err := db.registry.Load(path)
	if err != nil {
		db.logger().Warn("recreate meta for %s: %v", path, err)
	}
	if m == nil {
		m = db.registry.Create(path, "")
		dirty = true
	}

	if importer, ok := m.(meta.Importer); ok {
		db.logger().Debug("import asset %s...", path)
		if err := db.runImport(ctx, importer, path); err != nil {
			return nil, err
		}
		dirty = true
	}

	if dirty {
		if err := db.registry.Save(path, m); err != nil {
			return nil, fmt.Errorf("failed to save meta of %s: %w", path, err)
		}
	}

	return m, nil
}

func (db *AssetDB) runImport(ctx context.Context, importer meta.Importer, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import of %s panicked: %v", path, r)
		}
	}()

	return importer.Import(ctx, db, path)
}

type initResult struct {
	path string
	meta meta.Meta
}

// initMetas makes sure every asset below path has a loadable sidecar, creating
// missing ones with the uuid recorded in path2uuid when there is one. Mount roots
// never get a sidecar.
func (db *AssetDB) initMetas(path string, path2uuid map[string]string) ([]initResult, error) {
	paths, err := walk(path)
	if err != nil {
		return nil, err
	}

	var results []initResult
	for _, p := range paths {
		if data.IsMetaPath(p) {
			db.removeUnusedMeta(p)
			continue
		}
		if db.store.IsRoot(p) {
			continue
		}

		m, err := db.registry.Load(p)
		if err != nil {
			db.logger().Warn("recreate meta for %s: %v", p, err)
		}
		if m == nil {
			m = db.registry.Create(p, path2uuid[p])
			if err := db.registry.Save(p, m); err != nil {
				db.logger().Error("failed to create meta for %s: %v", p, err)
				continue
			}
		}

		results = append(results, initResult{path: p, meta: m})
	}

	return results, nil
}

// reimport scans path and imports every asset below it, or only the stale ones unless force is set.
func (db *AssetDB) reimport(ctx context.Context, path string, force bool) ([]data.AssetResult, error) {
	db.logger().Debug("scan %s...", path)
	paths, err := db.scan(path, ScanOptions{})
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var stale []string
	each(db, paths, func(p string) {
		if db.store.IsRoot(p) {
			return
		}

		if !force {
			needed, err := db.needsReimport(p)
			if err != nil {
				db.logger().Error("failed to check-if-reimport for %s, message: %v", p, err)
				return
			}
			if !needed {
				return
			}
		}

		mu.Lock()
		stale = append(stale, p)
		mu.Unlock()
	})

	db.logger().Debug("reimport %d assets...", len(stale))
	return db.importPaths(ctx, stale), nil
}

// importPaths imports every path concurrently and returns the successful ones sorted by path.
func (db *AssetDB) importPaths(ctx context.Context, paths []string) []data.AssetResult {
	var mu sync.Mutex
	var results []data.AssetResult

	each(db, paths, func(p string) {
		m, err := db.importAsset(ctx, p)
		if err != nil {
			db.logger().Error("Failed to import asset %s, message: %v", p, err)
			return
		}

		uuid := meta.UUID(m)
		db.store.Add(p, uuid)
		db.updateMtime(uuid)

		mu.Lock()
		results = append(results, db.assetResult(p, m))
		mu.Unlock()
	})

	sortResults(results)
	return results
}

func (db *AssetDB) assetResult(path string, m meta.Meta) data.AssetResult {
	return data.AssetResult{
		UUID:       meta.UUID(m),
		ParentUUID: db.parentID(path),
		URL:        db.PathToURL(path),
		Path:       path,
		Type:       meta.AssetType(m),
	}
}

func sortResults(results []data.AssetResult) {
	slices.SortFunc(results, func(a, b data.AssetResult) int {
		return strings.Compare(a.Path, b.Path)
	})
}
