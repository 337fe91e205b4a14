package meta

import (
	"context"
	"os"

	"github.com/mwantia/assetdb/fileutil"
)

// Type describes one registrable sidecar variant.
type Type struct {
	// Name is written to the asset-type field of every sidecar of this type.
	Name string
	New  func() Meta
	// Validate disambiguates between several types registered for the same extension.
	Validate func(path string) bool
}

func (t *Type) create(uuid string) Meta {
	m := t.New()
	h := m.MetaHeader()
	h.UUID = uuid
	h.AssetType = t.Name
	return m
}

// AssetMeta is the fallback for files without a registered type.
type AssetMeta struct {
	Header
}

func (m *AssetMeta) Export(ctx context.Context, path string, data []byte) error {
	if data == nil {
		return nil
	}
	return os.WriteFile(path, data, 0o644)
}

func (m *AssetMeta) UseRawfile() bool {
	return true
}

func (m *AssetMeta) Dests(lib Library) []string {
	return []string{}
}

// FolderMeta is the fallback for directories without a registered type.
type FolderMeta struct {
	Header
}

func (m *FolderMeta) Export(ctx context.Context, path string, data []byte) error {
	return os.Mkdir(path, 0o755)
}

func (m *FolderMeta) UseRawfile() bool {
	return true
}

var (
	Asset = &Type{
		Name: "asset",
		New:  func() Meta { return &AssetMeta{} },
	}
	Folder = &Type{
		Name: "folder",
		New:  func() Meta { return &FolderMeta{} },
	}
)

// CopyMeta imports an asset by copying the source file into the library unchanged.
type CopyMeta struct {
	Header

	ext string
}

func (m *CopyMeta) Import(ctx context.Context, lib Library, path string) error {
	if _, err := lib.MkdirForAsset(m.UUID); err != nil {
		return err
	}
	return fileutil.CopyFile(path, lib.ImportPath(m.UUID)+m.ext)
}

func (m *CopyMeta) Dests(lib Library) []string {
	return []string{lib.ImportPath(m.UUID) + m.ext}
}

func (m *CopyMeta) UseRawfile() bool {
	return false
}

// NewCopyType returns a type named name whose assets are copied to the library with extension ext.
func NewCopyType(name, ext string) *Type {
	return &Type{
		Name: name,
		New:  func() Meta { return &CopyMeta{ext: ext} },
	}
}
