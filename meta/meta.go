// Package meta implements the sidecar model of the asset database.
//
// Every asset path has a <path>.meta JSON sidecar holding at least its
// format version, uuid and asset-type. A concrete meta type embeds Header
// and opts into capabilities by implementing the optional interfaces below.
package meta

import (
	"context"
)

// Header holds the fields every sidecar carries.
type Header struct {
	Ver       int    `json:"ver"`
	UUID      string `json:"uuid"`
	AssetType string `json:"asset-type"`
}

func (h *Header) MetaHeader() *Header {
	return h
}

// Meta is implemented by every sidecar type through an embedded Header.
type Meta interface {
	MetaHeader() *Header
}

// Library is the part of the database a meta can use to produce or inspect artifacts.
type Library interface {
	// ImportPath returns <library>/<uuid[0:2]>/<uuid> without extension.
	ImportPath(uuid string) string
	MkdirForAsset(uuid string) (string, error)
	CopyToLibrary(uuid, path string) (string, error)
	SaveToLibrary(uuid string, asset any, ext string) (string, error)
}

// Importer produces library artifacts for the asset at path.
type Importer interface {
	Import(ctx context.Context, lib Library, path string) error
}

// Exporter materializes a brand-new asset at path from data.
type Exporter interface {
	Export(ctx context.Context, path string, data []byte) error
}

// Deleter runs custom cleanup before the artifacts of an asset are purged.
type Deleter interface {
	Delete(ctx context.Context, lib Library, path string) error
}

// Dester lists the artifacts an import is expected to leave in the library.
type Dester interface {
	Dests(lib Library) []string
}

// RawfileUser reports whether the source file itself is authoritative.
type RawfileUser interface {
	UseRawfile() bool
}

// UUID returns the uuid of m, or "" for a nil meta.
func UUID(m Meta) string {
	if m == nil {
		return ""
	}
	return m.MetaHeader().UUID
}

// AssetType returns the asset-type tag of m, or "" for a nil meta.
func AssetType(m Meta) string {
	if m == nil {
		return ""
	}
	return m.MetaHeader().AssetType
}

// Dests returns the expected artifacts of m; metas without the capability expect none.
func Dests(m Meta, lib Library) []string {
	if d, ok := m.(Dester); ok {
		return d.Dests(lib)
	}
	return nil
}

// UseRawfile defaults to true for metas without the capability.
func UseRawfile(m Meta) bool {
	if r, ok := m.(RawfileUser); ok {
		return r.UseRawfile()
	}
	return true
}
