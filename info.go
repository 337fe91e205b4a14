package assetdb

import (
	"fmt"
	"os"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/meta"
)

// AssetInfo describes the asset with the given uuid, or returns nil.
func (db *AssetDB) AssetInfo(uuid string) *data.AssetInfo {
	path := db.store.ResolvePath(uuid)
	if path == "" {
		return nil
	}
	return db.AssetInfoByPath(path)
}

func (db *AssetDB) AssetInfoByPath(path string) *data.AssetInfo {
	return &data.AssetInfo{
		UUID: db.store.ResolveUUID(path),
		URL:  db.PathToURL(path),
		Path: path,
		Type: db.registry.FindType(path).Name,
	}
}

// LoadMeta reads the sidecar of the asset with the given uuid.
func (db *AssetDB) LoadMeta(uuid string) (meta.Meta, error) {
	path := db.store.ResolvePath(uuid)
	if path == "" {
		return nil, fmt.Errorf("%w: %s", data.ErrUnknownUUID, uuid)
	}

	m, err := db.registry.Load(path)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, data.MetaPath(path))
	}
	return m, nil
}

// MetaInfo returns the raw sidecar of uuid together with its cached mtimes.
func (db *AssetDB) MetaInfo(uuid string) (*data.MetaInfo, error) {
	path := db.store.ResolvePath(uuid)
	if path == "" {
		return nil, fmt.Errorf("%w: %s", data.ErrUnknownUUID, uuid)
	}

	buf, err := os.ReadFile(data.MetaPath(path))
	if err != nil {
		return nil, err
	}

	entry, _ := db.mtimes.Get(uuid)
	return &data.MetaInfo{
		AssetPath:  path,
		MetaPath:   data.MetaPath(path),
		AssetMtime: entry.Asset,
		MetaMtime:  entry.Meta,
		JSON:       string(buf),
	}, nil
}
