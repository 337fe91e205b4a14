package identity

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mwantia/assetdb/data"
)

func TestStoreMountValidation(t *testing.T) {
	store := NewStore()
	root := t.TempDir()

	if err := store.AddMount(&data.Mount{Name: "assets", Path: filepath.Join(root, "assets"), Type: data.MountTypeAsset}); err != nil {
		t.Fatalf("AddMount failed: %v", err)
	}

	tests := []struct {
		name  string
		mount *data.Mount
		want  error
	}{
		{"empty name", &data.Mount{Name: "", Path: filepath.Join(root, "x"), Type: data.MountTypeAsset}, data.ErrInvalidMountName},
		{"dot in name", &data.Mount{Name: "a.b", Path: filepath.Join(root, "x"), Type: data.MountTypeAsset}, data.ErrInvalidMountName},
		{"slash in name", &data.Mount{Name: "a/b", Path: filepath.Join(root, "x"), Type: data.MountTypeAsset}, data.ErrInvalidMountName},
		{"backslash in name", &data.Mount{Name: `a\b`, Path: filepath.Join(root, "x"), Type: data.MountTypeAsset}, data.ErrInvalidMountName},
		{"bad type", &data.Mount{Name: "x", Path: filepath.Join(root, "x"), Type: "remote"}, data.ErrInvalidMountType},
		{"duplicate name", &data.Mount{Name: "assets", Path: filepath.Join(root, "other"), Type: data.MountTypeAsset}, data.ErrAlreadyMounted},
		{"same path", &data.Mount{Name: "again", Path: filepath.Join(root, "assets"), Type: data.MountTypeAsset}, data.ErrMountNested},
		{"child path", &data.Mount{Name: "child", Path: filepath.Join(root, "assets", "sub"), Type: data.MountTypeRaw}, data.ErrMountNested},
		{"parent path", &data.Mount{Name: "parent", Path: root, Type: data.MountTypeRaw}, data.ErrMountNested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AddMount(tt.mount)
			if !errors.Is(err, tt.want) {
				t.Fatalf("AddMount error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := store.AddMount(&data.Mount{Name: "raw", Path: filepath.Join(root, "assets-raw"), Type: data.MountTypeRaw}); err != nil {
		t.Fatalf("AddMount with sibling prefix failed: %v", err)
	}
	if len(store.Mounts()) != 2 {
		t.Fatalf("expected 2 mounts, got %d", len(store.Mounts()))
	}
}

func TestStoreMountInfo(t *testing.T) {
	store := NewStore()
	root := t.TempDir()
	assets := filepath.Join(root, "assets")
	raw := filepath.Join(root, "raw")

	store.AddMount(&data.Mount{Name: "assets", Path: assets, Type: data.MountTypeAsset})
	store.AddMount(&data.Mount{Name: "raw", Path: raw, Type: data.MountTypeRaw})

	if mnt := store.MountInfo(filepath.Join(assets, "a", "b.png")); mnt == nil || mnt.Name != "assets" {
		t.Fatalf("expected assets mount, got %v", mnt)
	}
	if mnt := store.MountInfo(raw); mnt == nil || mnt.Name != "raw" {
		t.Fatalf("expected raw mount, got %v", mnt)
	}
	if mnt := store.MountInfo(filepath.Join(root, "rawfile")); mnt != nil {
		t.Fatalf("expected no mount, got %v", mnt)
	}
	if !store.IsRoot(assets) || store.IsRoot(filepath.Join(assets, "a")) {
		t.Fatalf("IsRoot returned wrong result")
	}

	if _, err := store.RemoveMount("assets"); err != nil {
		t.Fatalf("RemoveMount failed: %v", err)
	}
	if _, err := store.RemoveMount("assets"); !errors.Is(err, data.ErrNotMounted) {
		t.Fatalf("expected ErrNotMounted, got %v", err)
	}
	if store.MountInfo(filepath.Join(assets, "a")) != nil {
		t.Fatalf("removed mount still resolves")
	}
}

func checkBijection(t *testing.T, store *Store) {
	t.Helper()

	for path, uuid := range store.Snapshot() {
		if got := store.ResolvePath(uuid); got != path {
			t.Fatalf("ResolvePath(%s) = %q, want %q", uuid, got, path)
		}
		if got := store.ResolveUUID(store.ResolvePath(uuid)); got != uuid {
			t.Fatalf("ResolveUUID(ResolvePath(%s)) = %q", uuid, got)
		}
	}
}

func TestStoreBijection(t *testing.T) {
	store := NewStore()

	store.Add("/a/x.png", "u1")
	store.Add("/a/y.png", "u2")
	checkBijection(t, store)

	// Same path, new uuid: the old uuid no longer resolves.
	store.Add("/a/x.png", "u3")
	if store.ResolvePath("u1") != "" {
		t.Fatalf("stale uuid still resolves")
	}
	checkBijection(t, store)

	// Same uuid, new path: the old path no longer resolves.
	store.Add("/a/z.png", "u2")
	if store.ResolveUUID("/a/y.png") != "" {
		t.Fatalf("stale path still resolves")
	}
	checkBijection(t, store)

	store.Move("/a/x.png", "/b/x.png")
	if store.ResolveUUID("/b/x.png") != "u3" || store.ResolveUUID("/a/x.png") != "" {
		t.Fatalf("Move did not re-key the entry")
	}
	checkBijection(t, store)

	store.Move("/b/x.png", "/a/z.png")
	if store.ResolvePath("u2") != "" {
		t.Fatalf("displaced uuid still resolves")
	}
	checkBijection(t, store)

	if uuid := store.Delete("/a/z.png"); uuid != "u3" {
		t.Fatalf("Delete returned %q", uuid)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
	if uuid := store.Delete("/a/z.png"); uuid != "" {
		t.Fatalf("Delete of unknown path returned %q", uuid)
	}
}

func TestStorePathsUnder(t *testing.T) {
	store := NewStore()
	for i, path := range []string{"/m/a", "/m/a/b", "/m/a/b/c.png", "/m/a-b", "/m/a.png", "/m/ab", "/m/b"} {
		store.Add(path, string(rune('a'+i)))
	}

	got := store.PathsUnder("/m/a")
	want := []string{"/m/a", "/m/a/b", "/m/a/b/c.png"}
	if !slices.Equal(got, want) {
		t.Fatalf("PathsUnder = %v, want %v", got, want)
	}

	if got := store.PathsUnder("/m/none"); len(got) != 0 {
		t.Fatalf("expected no paths, got %v", got)
	}
}
