package assetdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/identity"
)

// Mount registers the directory at path under name. Name and type are validated
// before the task is queued.
func (db *AssetDB) Mount(ctx context.Context, path, name string, typ data.MountType) error {
	if err := identity.ValidateMount(name, typ); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: empty mount path", data.ErrInvalidPath)
	}

	_, err := do[any](ctx, db, Task{
		Name: "mount",
		Run: func(ctx context.Context) (any, error) {
			return nil, db.mount(path, name, typ)
		},
	})
	return err
}

func (db *AssetDB) mount(path, name string, typ data.MountType) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s", data.ErrInvalidPath, path)
	}

	if !isDir(abs) {
		return fmt.Errorf("%w: failed to mount %s, path not found or it is not a directory", data.ErrNotDirectory, abs)
	}

	if err := db.store.AddMount(&data.Mount{Name: name, Path: abs, Type: typ}); err != nil {
		return err
	}

	db.logger().Info("mounted %s to %s://", abs, name)
	return nil
}

// Unmount removes the mount called name. Identity entries, mtime entries and
// library artifacts of its assets are purged.
func (db *AssetDB) Unmount(ctx context.Context, name string) error {
	_, err := do[any](ctx, db, Task{
		Name: "unmount",
		Run: func(ctx context.Context) (any, error) {
			return nil, db.unmount(ctx, name)
		},
	})
	return err
}

func (db *AssetDB) unmount(ctx context.Context, name string) error {
	mnt := db.store.MountByName(name)
	if mnt == nil {
		return fmt.Errorf("%w: can not find the mount %s", data.ErrNotMounted, name)
	}

	if paths := db.store.PathsUnder(mnt.Path); len(paths) > 0 {
		db.logger().Info("purge %d assets of %s://", len(paths), name)
		db.clearPaths(ctx, paths, nil)
	}

	_, err := db.store.RemoveMount(name)
	return err
}

// Init scans every asset mount, creates missing sidecars, reimports stale assets
// and removes library artifacts and mtime entries nothing refers to anymore.
func (db *AssetDB) Init(ctx context.Context) ([]data.AssetResult, error) {
	return do[[]data.AssetResult](ctx, db, Task{
		Name: "init",
		Run: func(ctx context.Context) (any, error) {
			return db.init(ctx)
		},
	})
}

func (db *AssetDB) init(ctx context.Context) ([]data.AssetResult, error) {
	var mounts []*data.Mount
	for _, mnt := range db.store.Mounts() {
		if mnt.Type == data.MountTypeAsset {
			mounts = append(mounts, mnt)
		}
	}

	for _, mnt := range mounts {
		db.logger().Info("init meta files at %s://", mnt.Name)
		results, err := db.initMetas(mnt.Path, nil)
		if err != nil {
			db.logger().Error("failed to init meta files at %s://: %v", mnt.Name, err)
			continue
		}
		for _, result := range results {
			db.store.Add(result.path, result.meta.MetaHeader().UUID)
		}
	}

	var imported []data.AssetResult
	for _, mnt := range mounts {
		db.logger().Info("refresh at %s://", mnt.Name)
		results, err := db.reimport(ctx, mnt.Path, false)
		if err != nil {
			db.logger().Error("Failed to refresh %s://: %v", mnt.Name, err)
			continue
		}
		imported = append(imported, results...)
	}

	if err := db.removeUnusedImports(); err != nil {
		db.logger().Error("Failed to remove unused import files, message: %v", err)
	}

	db.removeUnusedMtimes()
	db.updateMtime("")

	return imported, nil
}
