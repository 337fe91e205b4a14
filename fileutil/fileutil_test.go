package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	if err := os.WriteFile(src, []byte("hello"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "dst")); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestCopyTree(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	files := map[string]string{
		"a.png":           "a",
		"a.png.meta":      "{}",
		"sub/b.txt":       "b",
		"sub/b.txt.meta":  "{}",
		"sub/deep/c.json": "c",
	}
	for rel, content := range files {
		path := filepath.Join(src, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	err := CopyTree(src, dst, func(rel string) bool {
		return strings.HasSuffix(rel, ".meta")
	})
	if err != nil {
		t.Fatalf("CopyTree failed: %v", err)
	}

	for rel, content := range files {
		path := filepath.Join(dst, filepath.FromSlash(rel))
		got, err := os.ReadFile(path)
		if strings.HasSuffix(rel, ".meta") {
			if !os.IsNotExist(err) {
				t.Fatalf("%s should have been skipped", rel)
			}
			continue
		}
		if err != nil || string(got) != content {
			t.Fatalf("%s: got %q, %v", rel, got, err)
		}
	}
}

func TestCopyTreeSingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "one.raw")
	if err := os.WriteFile(src, []byte("raw"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dst := filepath.Join(dir, "two.raw")
	if err := CopyTree(src, dst, nil); err != nil {
		t.Fatalf("CopyTree failed: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "raw" {
		t.Fatalf("unexpected content %q", got)
	}
}
