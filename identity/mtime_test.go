package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/assetdb/data"
)

func TestMtimeCacheDebouncedFlush(t *testing.T) {
	library := t.TempDir()
	cache := NewMtimeCache(library, 20*time.Millisecond)

	cache.Set("u1", data.MtimeEntry{Asset: 1, Meta: 2})
	cache.Set("u2", data.MtimeEntry{Asset: 3, Meta: 4})

	if _, err := os.Stat(filepath.Join(library, MtimeFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no snapshot before the delay, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for cache.Pending() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	buf, err := os.ReadFile(filepath.Join(library, MtimeFile))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var entries map[string]data.MtimeEntry
	if err := json.Unmarshal(buf, &entries); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(entries) != 2 || entries["u2"].Meta != 4 {
		t.Fatalf("unexpected snapshot: %s", buf)
	}
}

func TestMtimeCacheLoadAndDelete(t *testing.T) {
	library := t.TempDir()
	snapshot := `{"u1":{"asset":10,"meta":20},"u2":{"asset":30,"meta":40}}`
	if err := os.WriteFile(filepath.Join(library, MtimeFile), []byte(snapshot), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cache := NewMtimeCache(library, time.Hour)
	if err := cache.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entry, ok := cache.Get("u1")
	if !ok || entry.Asset != 10 || entry.Meta != 20 {
		t.Fatalf("Get returned %v %v", entry, ok)
	}

	if !cache.Delete("u1") || cache.Delete("u1") {
		t.Fatalf("Delete returned wrong result")
	}
	if keys := cache.Keys(); len(keys) != 1 || keys[0] != "u2" {
		t.Fatalf("Keys = %v", keys)
	}

	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reloaded := NewMtimeCache(library, 0)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected 1 entry after reload, got %d", reloaded.Len())
	}
}

func TestMtimeCacheSkipsMissingLibrary(t *testing.T) {
	library := filepath.Join(t.TempDir(), "library")
	cache := NewMtimeCache(library, time.Hour)

	cache.Set("u1", data.MtimeEntry{Asset: 1, Meta: 1})
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if _, err := os.Stat(library); !os.IsNotExist(err) {
		t.Fatalf("Flush created the library: %v", err)
	}

	if err := cache.Load(); err != nil {
		t.Fatalf("Load of missing snapshot failed: %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
}
