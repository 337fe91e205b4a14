package assetdb

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/fileutil"
	"github.com/mwantia/assetdb/meta"
)

// Import copies external files into the folder at destURL and imports them.
// Files colliding by name are skipped with a logged failure; the batch continues.
func (db *AssetDB) Import(ctx context.Context, files []string, destURL string) ([]data.AssetResult, error) {
	dest, err := db.URLToPath(destURL)
	if err != nil {
		return nil, err
	}

	mnt := db.store.MountInfo(dest)
	if mnt == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrNotMounted, dest)
	}

	task := Task{
		Name: "import",
		Run: func(ctx context.Context) (any, error) {
			return db.importFiles(ctx, files, dest)
		},
	}
	if mnt.Type == data.MountTypeRaw {
		task = Task{
			Name: "raw-import",
			Run: func(ctx context.Context) (any, error) {
				return db.rawImport(files, dest)
			},
		}
	}

	return do[[]data.AssetResult](ctx, db, task)
}

// prepareImport validates the destination and drops files that can not be copied into it.
func (db *AssetDB) prepareImport(files []string, dest string) ([]string, error) {
	if !isDir(dest) {
		return nil, fmt.Errorf("%w: invalid dest path %s, make sure it exists and it is a directory", data.ErrNotDirectory, dest)
	}

	cleaned := make([]string, 0, len(files))
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			db.logger().Error("Can not import file %s: %v", file, err)
			continue
		}
		cleaned = append(cleaned, abs)
	}

	// Only top level entries; a file inside another listed folder is copied with it.
	var toplevel []string
	for _, file := range cleaned {
		nested := slices.ContainsFunc(cleaned, func(other string) bool {
			return other != file && data.Contains(other, file)
		})
		if !nested && !slices.Contains(toplevel, file) {
			toplevel = append(toplevel, file)
		}
	}

	seen := make(map[string]string, len(toplevel))
	accepted := make([]string, 0, len(toplevel))
	for _, file := range toplevel {
		base := filepath.Base(file)

		if db.store.MountInfo(file) != nil {
			db.logger().Error("Can not import file %s, %v", file, data.ErrAlreadyImported)
			continue
		}
		if exists(filepath.Join(dest, base)) {
			db.logger().Error("Can not import file %s, %v in dest path: %s", file, data.ErrNameConflict, base)
			continue
		}
		if first, ok := seen[base]; ok {
			db.logger().Error("Can not import file %s, %v with %s", file, data.ErrNameConflict, first)
			continue
		}

		seen[base] = file
		accepted = append(accepted, file)
	}

	return accepted, nil
}

func (db *AssetDB) copyInto(files []string, dest string) []string {
	var mu sync.Mutex
	var copied []string

	each(db, files, func(file string) {
		target := filepath.Join(dest, filepath.Base(file))
		db.logger().Debug("copy file %s...", filepath.Base(file))

		if err := fileutil.CopyTree(file, target, nil); err != nil {
			db.logger().Error("Failed to copy file %s. %v", file, err)
			return
		}

		mu.Lock()
		copied = append(copied, target)
		mu.Unlock()
	})

	slices.Sort(copied)
	return copied
}

func (db *AssetDB) importFiles(ctx context.Context, files []string, dest string) ([]data.AssetResult, error) {
	files, err := db.prepareImport(files, dest)
	if err != nil {
		return nil, err
	}

	copied := db.copyInto(files, dest)

	db.logger().Debug("init metas...")
	var assets []string
	for _, path := range copied {
		results, err := db.initMetas(path, nil)
		if err != nil {
			db.logger().Error("failed to init metas for %s: %v", path, err)
			continue
		}
		for _, result := range results {
			db.store.Add(result.path, meta.UUID(result.meta))
			assets = append(assets, result.path)
		}
	}

	db.logger().Debug("import assets...")
	return db.importPaths(ctx, assets), nil
}

func (db *AssetDB) rawImport(files []string, dest string) ([]data.AssetResult, error) {
	files, err := db.prepareImport(files, dest)
	if err != nil {
		return nil, err
	}

	var results []data.AssetResult
	for _, path := range db.copyInto(files, dest) {
		paths, err := db.scan(path, ScanOptions{KeepUnusedMeta: true, IncludeMeta: true})
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			results = append(results, data.AssetResult{URL: db.PathToURL(p), Path: p})
		}
	}

	sortResults(results)
	return results, nil
}
