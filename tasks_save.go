package assetdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/meta"
	"github.com/tidwall/jsonc"
)

// Create materializes a new asset at url through the export capability of its
// meta type and imports it.
func (db *AssetDB) Create(ctx context.Context, url string, content []byte) ([]data.AssetResult, error) {
	path, err := db.URLToPath(url)
	if err != nil {
		return nil, err
	}

	return do[[]data.AssetResult](ctx, db, Task{
		Name: "create",
		Run: func(ctx context.Context) (any, error) {
			return db.create(ctx, path, content)
		},
	})
}

func (db *AssetDB) create(ctx context.Context, path string, content []byte) ([]data.AssetResult, error) {
	if exists(path) {
		return nil, fmt.Errorf("%w: asset %s", data.ErrExist, path)
	}

	parent := filepath.Dir(path)
	if !exists(parent) {
		return nil, fmt.Errorf("%w: %s", data.ErrParentNotExist, parent)
	}

	if err := db.requireAssetMount(path); err != nil {
		return nil, err
	}

	m := db.registry.Create(path, "")
	exporter, ok := m.(meta.Exporter)
	if !ok {
		return nil, fmt.Errorf("%w: asset-type [%s] does not implement export", data.ErrMetaUnsupported, meta.AssetType(m))
	}

	db.logger().Debug("do meta.export %s...", path)
	if err := exporter.Export(ctx, path, content); err != nil {
		return nil, err
	}
	if !exists(path) {
		return nil, fmt.Errorf("%w: export of asset-type [%s] did not create %s", data.ErrNotExist, meta.AssetType(m), path)
	}

	m, err := db.importAsset(ctx, path)
	if err != nil {
		return nil, err
	}

	uuid := meta.UUID(m)
	db.store.Add(path, uuid)
	db.updateMtime(uuid)

	return []data.AssetResult{db.assetResult(path, m)}, nil
}

// Save overwrites the asset at url and regenerates its imports.
func (db *AssetDB) Save(ctx context.Context, url string, content []byte) (*data.AssetResult, error) {
	path, err := db.URLToPath(url)
	if err != nil {
		return nil, err
	}

	return do[*data.AssetResult](ctx, db, Task{
		Name: "save",
		Run: func(ctx context.Context) (any, error) {
			return db.save(ctx, path, content)
		},
	})
}

func (db *AssetDB) save(ctx context.Context, path string, content []byte) (*data.AssetResult, error) {
	if !exists(path) {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, path)
	}
	if err := db.requireAssetMount(path); err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, err
	}

	return db.reimportOne(ctx, path, db.store.ResolveUUID(path))
}

// SaveMeta replaces the sidecar of uuid with metaJSON and regenerates its imports.
func (db *AssetDB) SaveMeta(ctx context.Context, uuid string, metaJSON []byte) (*data.AssetResult, error) {
	return do[*data.AssetResult](ctx, db, Task{
		Name: "save-meta",
		Run: func(ctx context.Context) (any, error) {
			return db.saveMeta(ctx, uuid, metaJSON)
		},
	})
}

func (db *AssetDB) saveMeta(ctx context.Context, uuid string, metaJSON []byte) (*data.AssetResult, error) {
	var header meta.Header
	if err := json.Unmarshal(jsonc.ToJSON(metaJSON), &header); err != nil {
		return nil, fmt.Errorf("%w: failed to parse json string, message: %v", data.ErrMetaParse, err)
	}
	if header.UUID != uuid {
		return nil, fmt.Errorf("%w: %s != %s", data.ErrUUIDMismatch, uuid, header.UUID)
	}

	path := db.store.ResolvePath(uuid)
	if path == "" {
		return nil, fmt.Errorf("%w: %s", data.ErrUnknownUUID, uuid)
	}

	m, err := db.registry.Decode(path, metaJSON)
	if err != nil {
		return nil, err
	}
	if err := db.registry.Save(path, m); err != nil {
		return nil, err
	}

	return db.reimportOne(ctx, path, uuid)
}

// reimportOne drops the artifacts of uuid and imports path again.
func (db *AssetDB) reimportOne(ctx context.Context, path, uuid string) (*data.AssetResult, error) {
	if err := db.deleteImported(uuid); err != nil {
		db.logger().Warn("failed to delete imported files of %s: %v", path, err)
	}

	m, err := db.importAsset(ctx, path)
	if err != nil {
		return nil, err
	}

	uuid = meta.UUID(m)
	db.store.Add(path, uuid)
	db.updateMtime(uuid)

	result := db.assetResult(path, m)
	return &result, nil
}

func (db *AssetDB) requireAssetMount(path string) error {
	mnt := db.store.MountInfo(path)
	if mnt == nil {
		return fmt.Errorf("%w: %s", data.ErrNotMounted, path)
	}
	if mnt.Type != data.MountTypeAsset {
		return fmt.Errorf("%w: %s belongs to the %s mount %s", data.ErrInvalidMountType, path, mnt.Type, mnt.Name)
	}
	return nil
}
