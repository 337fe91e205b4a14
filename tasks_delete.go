package assetdb

import (
	"context"
	"fmt"
	"os"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/meta"
)

// ClearImports purges the artifacts, identity entries and mtime entries of every
// known asset below url. The assets themselves stay on disk.
func (db *AssetDB) ClearImports(ctx context.Context, url string) ([]data.AssetInfo, error) {
	path, err := db.URLToPath(url)
	if err != nil {
		return nil, err
	}

	return do[[]data.AssetInfo](ctx, db, Task{
		Name: "clear-imports",
		Run: func(ctx context.Context) (any, error) {
			if db.store.ResolveUUID(path) == "" {
				return nil, fmt.Errorf("%w: %s", data.ErrNotTracked, path)
			}
			return db.clearPaths(ctx, db.store.PathsUnder(path), nil), nil
		},
	})
}

// clearPaths runs the delete capability of every path, then removes its artifacts,
// identity entry and mtime entry. path2uuid overrides the uuid handed to the capability.
func (db *AssetDB) clearPaths(ctx context.Context, paths []string, path2uuid map[string]string) []data.AssetInfo {
	results := make([]data.AssetInfo, 0, len(paths))

	for _, path := range paths {
		uuid := db.store.ResolveUUID(path)
		results = append(results, data.AssetInfo{
			UUID: uuid,
			URL:  db.PathToURL(path),
			Path: path,
			Type: db.registry.FindType(path).Name,
		})

		db.logger().Debug("clear imports %s", path)
		if err := db.runDelete(ctx, path, uuid, path2uuid[path]); err != nil {
			db.logger().Error("failed to run meta delete for %s: %v", path, err)
		}

		if err := db.deleteImported(uuid); err != nil {
			db.logger().Error("failed to delete imported files of %s: %v", path, err)
		}

		db.store.Delete(path)
		db.mtimes.Delete(uuid)
	}

	return results
}

func (db *AssetDB) runDelete(ctx context.Context, path, uuid, override string) (err error) {
	metaPath := data.MetaPath(path)
	sidecar := exists(metaPath)

	var m meta.Meta
	if sidecar {
		if m, err = db.registry.Load(path); err != nil {
			return err
		}
	}
	if m == nil {
		m = db.registry.FindType(path).New()
	}

	deleter, ok := m.(meta.Deleter)
	if !ok {
		return nil
	}

	if !sidecar {
		db.logger().Warn("Try to delete imported files from an un-exists path : %s. This is not 100%% work, please check them manually.", metaPath)
	}

	if override != "" {
		uuid = override
	}
	m.MetaHeader().UUID = uuid

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delete of %s panicked: %v", path, r)
		}
	}()

	db.logger().Debug("do meta.delete %s...", metaPath)
	return deleter.Delete(ctx, db, path)
}

// Delete removes the asset at url with every descendant, their sidecars and their
// library artifacts. On raw mounts only the files are removed.
func (db *AssetDB) Delete(ctx context.Context, url string) ([]data.DeleteResult, error) {
	path, err := db.URLToPath(url)
	if err != nil {
		return nil, err
	}

	mnt := db.store.MountInfo(path)
	if mnt == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrNotMounted, path)
	}

	task := Task{
		Name: "delete",
		Run: func(ctx context.Context) (any, error) {
			return db.delete(ctx, path)
		},
	}
	if mnt.Type == data.MountTypeRaw {
		task = Task{
			Name: "raw-delete",
			Run: func(ctx context.Context) (any, error) {
				return db.rawDelete(path)
			},
		}
	}

	return do[[]data.DeleteResult](ctx, db, task)
}

func (db *AssetDB) checkDeletable(path string) error {
	if !exists(path) {
		return fmt.Errorf("%w: asset %s", data.ErrNotExist, path)
	}
	if db.store.IsRoot(path) {
		return fmt.Errorf("%w: can not delete mount root %s", data.ErrInvalidPath, path)
	}
	return nil
}

func (db *AssetDB) delete(ctx context.Context, path string) ([]data.DeleteResult, error) {
	if err := db.checkDeletable(path); err != nil {
		return nil, err
	}

	paths, err := db.scan(path, ScanOptions{})
	if err != nil {
		return nil, err
	}

	results := make([]data.DeleteResult, 0, len(paths))
	for _, p := range paths {
		results = append(results, data.DeleteResult{Path: p, UUID: db.store.ResolveUUID(p)})
	}

	db.clearPaths(ctx, db.store.PathsUnder(path), nil)

	if err := os.RemoveAll(path); err != nil {
		return nil, err
	}
	if err := os.Remove(data.MetaPath(path)); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return results, nil
}

func (db *AssetDB) rawDelete(path string) ([]data.DeleteResult, error) {
	if err := db.checkDeletable(path); err != nil {
		return nil, err
	}

	paths, err := db.scan(path, ScanOptions{})
	if err != nil {
		return nil, err
	}

	results := make([]data.DeleteResult, 0, len(paths))
	for _, p := range paths {
		results = append(results, data.DeleteResult{Path: p})
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, err
	}

	return results, nil
}
