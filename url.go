package assetdb

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mwantia/assetdb/data"
)

const urlSeparator = "://"

// URLToPath converts <mount>://<relative/path> into a filesystem path.
// Absolute filesystem paths are returned cleaned.
func (db *AssetDB) URLToPath(url string) (string, error) {
	name, rel, ok := strings.Cut(url, urlSeparator)
	if !ok {
		if !filepath.IsAbs(url) {
			return "", fmt.Errorf("%w: %q is neither a url nor an absolute path", data.ErrInvalidPath, url)
		}
		return filepath.Clean(url), nil
	}

	mnt := db.store.MountByName(name)
	if mnt == nil {
		return "", fmt.Errorf("%w: %s", data.ErrNotMounted, url)
	}

	path := filepath.Join(mnt.Path, filepath.FromSlash(rel))
	if !data.Contains(mnt.Path, path) {
		return "", fmt.Errorf("%w: %s escapes its mount", data.ErrInvalidPath, url)
	}

	return path, nil
}

// PathToURL converts a filesystem path into a url, or "" when no mount owns the path.
func (db *AssetDB) PathToURL(path string) string {
	mnt := db.store.MountInfo(path)
	if mnt == nil {
		return ""
	}

	return mnt.Name + urlSeparator + data.ToRelativePath(filepath.Clean(path), mnt.Path)
}

func (db *AssetDB) URLToUUID(url string) string {
	path, err := db.URLToPath(url)
	if err != nil {
		return ""
	}
	return db.store.ResolveUUID(path)
}

func (db *AssetDB) UUIDToURL(uuid string) string {
	path := db.store.ResolvePath(uuid)
	if path == "" {
		return ""
	}
	return db.PathToURL(path)
}

func (db *AssetDB) PathToUUID(path string) string {
	return db.store.ResolveUUID(path)
}

func (db *AssetDB) UUIDToPath(uuid string) string {
	return db.store.ResolvePath(uuid)
}

// parentID returns the uuid of the parent of path, or the mount id for top-level assets.
func (db *AssetDB) parentID(path string) string {
	parent := filepath.Dir(path)
	if mnt := db.store.RootMount(parent); mnt != nil {
		return mnt.ID()
	}
	return db.store.ResolveUUID(parent)
}
