package assetdb

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/meta"
)

const mountNodeType = "mount"

// DeepQuery returns one tree per mount holding every asset below it.
func (db *AssetDB) DeepQuery(ctx context.Context) ([]*data.QueryNode, error) {
	return do[[]*data.QueryNode](ctx, db, Task{
		Name:   "deep-query",
		Silent: true,
		Run: func(ctx context.Context) (any, error) {
			return db.deepQuery()
		},
	})
}

func (db *AssetDB) deepQuery() ([]*data.QueryNode, error) {
	var results []*data.QueryNode

	for _, mnt := range db.store.Mounts() {
		root := &data.QueryNode{
			Name:     mnt.Name,
			UUID:     mnt.ID(),
			Type:     mountNodeType,
			Children: []*data.QueryNode{},
		}
		results = append(results, root)

		paths, err := walk(mnt.Path)
		if err != nil {
			return nil, err
		}

		nodes := map[string]*data.QueryNode{mnt.Path: root}
		for _, path := range paths {
			if path == mnt.Path || data.IsMetaPath(path) {
				continue
			}

			uuid := path
			if mnt.Type == data.MountTypeAsset {
				uuid = db.store.ResolveUUID(path)
			}

			node := &data.QueryNode{
				Name:     data.BaseNameNoExt(path),
				Extname:  filepath.Ext(path),
				UUID:     uuid,
				Type:     db.registry.FindType(path).Name,
				Children: []*data.QueryNode{},
			}
			nodes[path] = node

			if parent, ok := nodes[filepath.Dir(path)]; ok {
				parent.Children = append(parent.Children, node)
			}
		}
	}

	return results, nil
}

// glob expands a url or path pattern, dropping hidden entries and paths outside every mount.
func (db *AssetDB) glob(pattern string) ([]string, error) {
	fspattern, err := db.URLToPath(pattern)
	if err != nil {
		return nil, err
	}

	matches, err := doublestar.FilepathGlob(fspattern)
	if err != nil {
		return nil, err
	}

	paths := matches[:0]
	for _, path := range matches {
		path = filepath.Clean(path)

		mnt := db.store.MountInfo(path)
		if mnt == nil || data.IsHidden(data.ToRelativePath(path, mnt.Path)) {
			continue
		}
		paths = append(paths, path)
	}

	slices.Sort(paths)
	return paths, nil
}

// QueryAssets lists the assets matching the url pattern, optionally filtered by asset type.
func (db *AssetDB) QueryAssets(ctx context.Context, pattern, assetType string) ([]data.AssetInfo, error) {
	return do[[]data.AssetInfo](ctx, db, Task{
		Name:   "query-assets",
		Silent: true,
		Run: func(ctx context.Context) (any, error) {
			paths, err := db.glob(pattern)
			if err != nil {
				return nil, err
			}

			results := []data.AssetInfo{}
			for _, path := range paths {
				if data.IsMetaPath(path) {
					continue
				}

				info := db.AssetInfoByPath(path)
				if assetType != "" && info.Type != assetType {
					continue
				}
				results = append(results, *info)
			}

			return results, nil
		},
	})
}

// QueryMetas loads the sidecars matching the url pattern, optionally filtered by asset type.
func (db *AssetDB) QueryMetas(ctx context.Context, pattern, assetType string) ([]meta.Meta, error) {
	return do[[]meta.Meta](ctx, db, Task{
		Name:   "query-metas",
		Silent: true,
		Run: func(ctx context.Context) (any, error) {
			paths, err := db.glob(pattern)
			if err != nil {
				return nil, err
			}

			results := []meta.Meta{}
			for _, path := range paths {
				if !data.IsMetaPath(path) {
					continue
				}

				m, err := db.registry.Load(data.AssetPath(path))
				if err != nil {
					db.logger().Warn("skip unreadable meta %s: %v", path, err)
					continue
				}
				if m == nil || (assetType != "" && meta.AssetType(m) != assetType) {
					continue
				}
				results = append(results, m)
			}

			return results, nil
		},
	})
}
