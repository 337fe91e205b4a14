package assetdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/fileutil"
	"github.com/mwantia/assetdb/meta"
)

var _ meta.Library = (*AssetDB)(nil)

func shard(uuid string) string {
	if len(uuid) < 2 {
		return uuid
	}
	return uuid[:2]
}

// ImportPath returns <library>/<uuid[0:2]>/<uuid> without extension.
func (db *AssetDB) ImportPath(uuid string) string {
	return filepath.Join(db.library, shard(uuid), uuid)
}

// MkdirForAsset creates the library shard of uuid and returns it.
func (db *AssetDB) MkdirForAsset(uuid string) (string, error) {
	if uuid == "" {
		return "", fmt.Errorf("%w: empty uuid", data.ErrInvalidPath)
	}

	dest := filepath.Join(db.library, shard(uuid))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", err
	}

	return dest, nil
}

// CopyToLibrary copies the file or folder at path to <import path><ext of path>.
func (db *AssetDB) CopyToLibrary(uuid, path string) (string, error) {
	if _, err := db.MkdirForAsset(uuid); err != nil {
		return "", err
	}

	dest := db.ImportPath(uuid) + filepath.Ext(path)
	if err := fileutil.CopyTree(path, dest, nil); err != nil {
		return "", err
	}

	return dest, nil
}

// SaveToLibrary writes asset to <import path><ext>. Bytes and strings are written
// as-is, anything else as indented JSON. The extension defaults to .json.
func (db *AssetDB) SaveToLibrary(uuid string, asset any, ext string) (string, error) {
	var buf []byte
	switch v := asset.(type) {
	case []byte:
		buf = v
	case string:
		buf = []byte(v)
	default:
		var err error
		if buf, err = json.MarshalIndent(asset, "", "  "); err != nil {
			return "", err
		}
	}

	if ext == "" {
		ext = ".json"
	}

	if _, err := db.MkdirForAsset(uuid); err != nil {
		return "", err
	}

	dest := db.ImportPath(uuid) + ext
	if err := os.WriteFile(dest, buf, 0o644); err != nil {
		return "", err
	}

	return dest, nil
}

func isArtifactOf(name, uuid string) bool {
	return name == uuid || strings.HasPrefix(name, uuid+".")
}

// deleteImported removes every artifact of uuid and its shard folder once empty.
func (db *AssetDB) deleteImported(uuid string) error {
	if uuid == "" {
		return nil
	}

	dir := filepath.Join(db.library, shard(uuid))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	errs := &data.Errors{}
	remaining := 0
	for _, entry := range entries {
		if !isArtifactOf(entry.Name(), uuid) {
			remaining++
			continue
		}
		errs.Add(os.RemoveAll(filepath.Join(dir, entry.Name())))
	}

	if remaining == 0 && errs.Len() == 0 {
		errs.Add(os.Remove(dir))
	}

	return errs.Errors()
}

// removeUnusedImports deletes artifacts whose uuid no longer resolves to a path.
func (db *AssetDB) removeUnusedImports() error {
	shards, err := os.ReadDir(db.library)
	if err != nil {
		return err
	}

	unused := make(map[string]struct{})
	for _, dir := range shards {
		if !dir.IsDir() || len(dir.Name()) != 2 {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(db.library, dir.Name()))
		if err != nil {
			return err
		}

		for _, entry := range entries {
			uuid, _, _ := strings.Cut(entry.Name(), ".")
			if uuid == "" || shard(uuid) != dir.Name() {
				continue
			}
			if db.store.ResolvePath(uuid) == "" {
				unused[uuid] = struct{}{}
			}
		}
	}

	errs := &data.Errors{}
	for uuid := range unused {
		db.logger().Info("remove unused import file %s", uuid)
		if err := db.deleteImported(uuid); err != nil {
			errs.Add(fmt.Errorf("failed to remove import file %s: %w", uuid, err))
		}
	}

	return errs.Errors()
}

// removeUnusedMtimes drops cache entries whose uuid no longer resolves to an existing path.
func (db *AssetDB) removeUnusedMtimes() {
	for _, uuid := range db.mtimes.Keys() {
		path := db.store.ResolvePath(uuid)
		if path != "" && exists(path) {
			continue
		}
		db.mtimes.Delete(uuid)
		db.logger().Debug("remove unused mtime info: %s", uuid)
	}
}

// updateMtime records the current modification times of the asset owning uuid,
// or drops its entry when the asset is gone.
func (db *AssetDB) updateMtime(uuid string) {
	if uuid == "" {
		db.mtimes.Schedule()
		return
	}

	path := db.store.ResolvePath(uuid)
	if path == "" {
		db.mtimes.Delete(uuid)
		return
	}

	asset, err := os.Stat(path)
	if err != nil {
		db.mtimes.Delete(uuid)
		return
	}
	sidecar, err := os.Stat(data.MetaPath(path))
	if err != nil {
		db.mtimes.Delete(uuid)
		return
	}

	db.mtimes.Set(uuid, data.MtimeEntry{
		Asset: asset.ModTime().UnixMilli(),
		Meta:  sidecar.ModTime().UnixMilli(),
	})
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
