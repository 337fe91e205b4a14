package index

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/mwantia/assetdb/data"
)

var testEntries = []data.IndexEntry{
	{UUID: "uuid-b", Path: "/assets/b.png", URL: "assets://b.png", Mount: "assets", Type: "texture"},
	{UUID: "uuid-a", Path: "/assets/a.png", URL: "assets://a.png", Mount: "assets", Type: "texture"},
	{UUID: "uuid-c", Path: "/other/c.raw", URL: "other://c.raw", Mount: "other", Type: "asset"},
}

func TestSyncAndLookup(t *testing.T) {
	ctx := t.Context()

	idx, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer idx.Close()

	if err := idx.Sync(ctx, testEntries); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", idx.Len())
	}

	entry, err := idx.Lookup(ctx, "uuid-a")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if *entry != testEntries[1] {
		t.Fatalf("Lookup = %+v, want %+v", entry, testEntries[1])
	}

	entry, err = idx.LookupPath(ctx, "/other/c.raw")
	if err != nil {
		t.Fatalf("LookupPath failed: %v", err)
	}
	if entry.UUID != "uuid-c" {
		t.Fatalf("LookupPath = %+v", entry)
	}

	if _, err := idx.Lookup(ctx, "missing"); !errors.Is(err, data.ErrUnknownUUID) {
		t.Fatalf("expected ErrUnknownUUID, got %v", err)
	}
	if _, err := idx.LookupPath(ctx, "/missing"); !errors.Is(err, data.ErrNotTracked) {
		t.Fatalf("expected ErrNotTracked, got %v", err)
	}

	entries, err := idx.List(ctx, "assets")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 || entries[0].UUID != "uuid-a" || entries[1].UUID != "uuid-b" {
		t.Fatalf("List = %+v", entries)
	}
}

func TestSyncReplaces(t *testing.T) {
	ctx := t.Context()

	idx, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer idx.Close()

	if err := idx.Sync(ctx, testEntries); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	moved := []data.IndexEntry{
		{UUID: "uuid-a", Path: "/assets/sub/a.png", URL: "assets://sub/a.png", Mount: "assets", Type: "texture"},
	}
	if err := idx.Sync(ctx, moved); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	entries, err := idx.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0] != moved[0] {
		t.Fatalf("List = %+v", entries)
	}
	if _, err := idx.LookupPath(ctx, "/assets/a.png"); !errors.Is(err, data.ErrNotTracked) {
		t.Fatalf("stale path still indexed: %v", err)
	}

	duplicate := []data.IndexEntry{moved[0], moved[0]}
	if err := idx.Sync(ctx, duplicate); err == nil {
		t.Fatalf("expected an error for duplicate uuids")
	}
	if idx.Len() != 1 {
		t.Fatalf("failed sync must keep the previous content, got %d entries", idx.Len())
	}
}

func TestReopen(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), FileName)

	idx, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := idx.Sync(ctx, testEntries); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	idx, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer idx.Close()

	if idx.Len() != 3 {
		t.Fatalf("expected 3 entries after reopen, got %d", idx.Len())
	}
	if entry, err := idx.LookupPath(ctx, "/assets/b.png"); err != nil || entry.UUID != "uuid-b" {
		t.Fatalf("LookupPath = %+v, %v", entry, err)
	}
}
