package data

import (
	"path/filepath"
	"strings"
)

// MetaExt is the extension of the sidecar that sits next to every asset.
const MetaExt = ".meta"

// MetaPath returns the sidecar path for an asset path.
func MetaPath(path string) string {
	return path + MetaExt
}

// AssetPath returns the asset path a sidecar belongs to.
func AssetPath(metaPath string) string {
	return strings.TrimSuffix(metaPath, MetaExt)
}

// IsMetaPath reports whether path names a sidecar file.
func IsMetaPath(path string) bool {
	return filepath.Ext(path) == MetaExt
}

// Contains reports whether path equals root or lies below it.
// Both paths should be cleaned before calling.
func Contains(root, path string) bool {
	if root == "" || path == "" {
		return false
	}

	// Exact match
	if path == root {
		return true
	}

	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	return strings.HasPrefix(path, prefix)
}

// ToRelativePath removes the prefix from path and returns it slash separated.
// It additionally removes any leading slashes.
func ToRelativePath(path, prefix string) string {
	if prefix == "" {
		return filepath.ToSlash(path)
	}

	if path == prefix {
		return ""
	}

	relPath := strings.TrimPrefix(path, prefix)
	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	return filepath.ToSlash(relPath)
}

// BaseNameNoExt returns the last element of path without its extension.
func BaseNameNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsHidden reports whether any element of the slash separated relative path starts with a dot.
func IsHidden(rel string) bool {
	for part := range strings.SplitSeq(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}

	return false
}
