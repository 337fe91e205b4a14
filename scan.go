package assetdb

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mwantia/assetdb/data"
)

// ScanOptions tweak scan. The zero value removes orphan sidecars and leaves sidecars out of the result.
type ScanOptions struct {
	KeepUnusedMeta bool
	IncludeMeta    bool
}

// walk returns path, when it exists, followed by every non-hidden descendant, sorted.
func walk(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	paths := []string{path}
	if !info.IsDir() {
		return paths, nil
	}

	matches, err := doublestar.Glob(os.DirFS(path), "**/*", doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}

	for _, rel := range matches {
		if data.IsHidden(rel) {
			continue
		}
		paths = append(paths, filepath.Join(path, filepath.FromSlash(rel)))
	}

	slices.Sort(paths)
	return paths, nil
}

// scan expands path into itself plus every descendant. Sidecars whose asset is gone are deleted
// unless opts.KeepUnusedMeta is set.
func (db *AssetDB) scan(path string, opts ScanOptions) ([]string, error) {
	paths, err := walk(path)
	if err != nil {
		return nil, err
	}

	results := make([]string, 0, len(paths))
	for _, p := range paths {
		if !data.IsMetaPath(p) || opts.IncludeMeta {
			results = append(results, p)
			continue
		}

		if !opts.KeepUnusedMeta {
			db.removeUnusedMeta(p)
		}
	}

	return results, nil
}

// removeUnusedMeta deletes the sidecar at metaPath if its asset no longer exists.
func (db *AssetDB) removeUnusedMeta(metaPath string) bool {
	if exists(data.AssetPath(metaPath)) {
		return false
	}

	db.logger().Info("remove unused meta: %s", db.PathToURL(metaPath))
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		db.logger().Warn("failed to remove unused meta %s: %v", metaPath, err)
		return false
	}

	return true
}
