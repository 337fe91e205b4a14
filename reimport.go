package assetdb

import (
	"os"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/meta"
)

// needsReimport decides whether the cached artifacts of path are stale.
// Without a cached mtime entry the asset is always reimported.
func (db *AssetDB) needsReimport(path string) (bool, error) {
	if db.store.IsRoot(path) {
		return false, nil
	}

	metaPath := data.MetaPath(path)
	if !exists(metaPath) {
		return true, nil
	}

	uuid := db.store.ResolveUUID(path)
	if uuid == "" {
		return true, nil
	}

	m, err := db.registry.Load(path)
	if err != nil || m == nil {
		return true, nil
	}
	for _, dest := range meta.Dests(m, db) {
		if !exists(dest) {
			return true, nil
		}
	}

	entry, ok := db.mtimes.Get(uuid)
	if !ok {
		return true, nil
	}

	asset, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if entry.Asset != asset.ModTime().UnixMilli() {
		return true, nil
	}

	sidecar, err := os.Stat(metaPath)
	if err != nil {
		return false, err
	}
	if entry.Meta != sidecar.ModTime().UnixMilli() {
		return true, nil
	}

	return false, nil
}
