package assetdb

import (
	"context"
	"fmt"
	"os"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/meta"
)

// Refresh unconditionally clears and reimports every asset below url. Assets that
// vanished from disk are reported as deleted, sidecars with an edited uuid as uuid-change.
func (db *AssetDB) Refresh(ctx context.Context, url string) ([]data.RefreshResult, error) {
	path, err := db.URLToPath(url)
	if err != nil {
		return nil, err
	}

	return do[[]data.RefreshResult](ctx, db, Task{
		Name: "refresh",
		Run: func(ctx context.Context) (any, error) {
			return db.refresh(ctx, path)
		},
	})
}

func (db *AssetDB) refresh(ctx context.Context, path string) ([]data.RefreshResult, error) {
	mnt := db.store.MountInfo(path)
	if mnt == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrNotMounted, path)
	}
	if mnt.Type != data.MountTypeAsset {
		return nil, fmt.Errorf("%w: refresh needs an asset mount, %s is %s", data.ErrInvalidMountType, path, mnt.Type)
	}

	snapshot := db.store.Snapshot()

	var results []data.RefreshResult
	for _, info := range db.clearPaths(ctx, db.store.PathsUnder(path), snapshot) {
		if exists(info.Path) {
			continue
		}

		results = append(results, data.RefreshResult{
			Command: data.RefreshDelete,
			UUID:    info.UUID,
			URL:     info.URL,
			Path:    info.Path,
			Type:    info.Type,
		})

		if err := os.Remove(data.MetaPath(info.Path)); err != nil && !os.IsNotExist(err) {
			db.logger().Warn("failed to remove meta of deleted asset %s: %v", info.Path, err)
		}
	}

	metas, err := db.initMetas(path, snapshot)
	if err != nil {
		return nil, err
	}
	for _, result := range metas {
		db.store.Add(result.path, meta.UUID(result.meta))
	}

	imported, err := db.reimport(ctx, path, true)
	if err != nil {
		return nil, err
	}

	for _, result := range imported {
		refreshed := data.RefreshResult{
			Command:    data.RefreshChange,
			UUID:       result.UUID,
			ParentUUID: result.ParentUUID,
			URL:        result.URL,
			Path:       result.Path,
			Type:       result.Type,
		}

		switch oldUUID := snapshot[result.Path]; {
		case oldUUID == "":
			refreshed.Command = data.RefreshCreate
		case oldUUID != result.UUID:
			refreshed.Command = data.RefreshUUIDChange
			refreshed.OldUUID = oldUUID
		}

		results = append(results, refreshed)
	}

	return results, nil
}
