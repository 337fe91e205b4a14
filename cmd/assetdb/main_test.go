package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/mwantia/assetdb/data"
)

type cliTestEnv struct {
	dir        string
	assets     string
	library    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	dir := t.TempDir()
	env := &cliTestEnv{
		dir:        dir,
		assets:     filepath.Join(dir, "assets"),
		library:    filepath.Join(dir, "library"),
		configPath: filepath.Join(dir, "assetdb.toml"),
	}

	files := map[string]string{
		"a.png":     "png-a",
		"sub/b.png": "png-b",
		"notes.txt": "notes",
	}
	for rel, content := range files {
		path := filepath.Join(env.assets, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	cfg := fmt.Sprintf(`[paths]
library = %q

[engine]
flush_delay_ms = 5

[logging]
level = "error"

[[mounts]]
name = "assets"
path = %q

[[importers]]
ext = ".png"
type = "texture"
`, env.library, env.assets)
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func runJSON[T any](t *testing.T, env *cliTestEnv, args ...string) T {
	t.Helper()
	out, stderr, err := runCLI(t, env, append([]string{"--json"}, args...)...)
	if err != nil {
		t.Fatalf("%s failed: %v\n%s", args[0], err, stderr)
	}

	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %s output failed: %v\n%s", args[0], err, out)
	}
	return v
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

func findResult(results []data.AssetResult, url string) *data.AssetResult {
	for i := range results {
		if results[i].URL == url {
			return &results[i]
		}
	}
	return nil
}

func TestInitAndLookup(t *testing.T) {
	env := setupCLITestEnv(t)

	results := runJSON[[]data.AssetResult](t, env, "init")
	a := findResult(results, "assets://a.png")
	if a == nil {
		t.Fatalf("init did not import a.png: %+v", results)
	}
	if a.Type != "texture" {
		t.Fatalf("expected a.png to be a texture, got %q", a.Type)
	}
	if _, err := os.Stat(filepath.Join(env.assets, "a.png.meta")); err != nil {
		t.Fatalf("expected sidecar for a.png: %v", err)
	}

	again := runJSON[[]data.AssetResult](t, env, "init")
	if len(again) != 0 {
		t.Fatalf("expected second init to reimport nothing, got %+v", again)
	}

	entries := runJSON[[]data.IndexEntry](t, env, "lookup", a.UUID)
	if len(entries) != 1 || entries[0].URL != "assets://a.png" || entries[0].Mount != "assets" {
		t.Fatalf("unexpected lookup result: %+v", entries)
	}

	entries = runJSON[[]data.IndexEntry](t, env, "lookup", filepath.Join(env.assets, "a.png"))
	if len(entries) != 1 || entries[0].UUID != a.UUID {
		t.Fatalf("unexpected path lookup result: %+v", entries)
	}

	entries = runJSON[[]data.IndexEntry](t, env, "lookup")
	if len(entries) < 4 {
		t.Fatalf("expected the whole index, got %+v", entries)
	}

	if _, _, err := runCLI(t, env, "lookup", "does-not-exist"); !errors.Is(err, data.ErrUnknownUUID) {
		t.Fatalf("expected ErrUnknownUUID, got %v", err)
	}
}

func TestQueryAndTree(t *testing.T) {
	env := setupCLITestEnv(t)

	infos := runJSON[[]data.AssetInfo](t, env, "query", "assets://**/*.png")
	if len(infos) != 2 || infos[0].URL != "assets://a.png" || infos[1].URL != "assets://sub/b.png" {
		t.Fatalf("unexpected query result: %+v", infos)
	}

	infos = runJSON[[]data.AssetInfo](t, env, "query", "assets://**/*", "--type", "texture")
	if len(infos) != 2 {
		t.Fatalf("expected 2 textures, got %+v", infos)
	}

	out, _, err := runCLI(t, env, "query", "assets://*.meta", "--metas")
	if err != nil {
		t.Fatalf("query --metas failed: %v", err)
	}
	requireContains(t, out, "texture")
	requireContains(t, out, "assets://a.png")

	out, _, err = runCLI(t, env, "tree")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	requireContains(t, out, "assets://")
	requireContains(t, out, "a.png [texture]")
	requireContains(t, out, "sub [folder]")
	requireContains(t, out, "notes.txt [asset]")
}

func TestMoveAndDelete(t *testing.T) {
	env := setupCLITestEnv(t)

	results := runJSON[[]data.AssetResult](t, env, "init")
	a := findResult(results, "assets://a.png")
	if a == nil {
		t.Fatalf("init did not import a.png: %+v", results)
	}

	moved := runJSON[[]data.MoveResult](t, env, "move", "assets://a.png", "assets://sub/c.png")
	if len(moved) != 1 || moved[0].UUID != a.UUID {
		t.Fatalf("expected the uuid to survive the move, got %+v", moved)
	}
	if _, err := os.Stat(filepath.Join(env.assets, "sub", "c.png.meta")); err != nil {
		t.Fatalf("expected moved sidecar: %v", err)
	}

	deleted := runJSON[[]data.DeleteResult](t, env, "delete", "assets://sub/c.png")
	if len(deleted) != 1 || deleted[0].UUID != a.UUID {
		t.Fatalf("unexpected delete result: %+v", deleted)
	}
	if _, err := os.Stat(filepath.Join(env.assets, "sub", "c.png")); !os.IsNotExist(err) {
		t.Fatalf("expected c.png to be deleted, stat err: %v", err)
	}

	if _, _, err := runCLI(t, env, "lookup", a.UUID); !errors.Is(err, data.ErrUnknownUUID) {
		t.Fatalf("expected deleted uuid to leave the index, got %v", err)
	}
}

func TestCreateAndSave(t *testing.T) {
	env := setupCLITestEnv(t)

	input := filepath.Join(env.dir, "input.txt")
	if err := os.WriteFile(input, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	created := runJSON[[]data.AssetResult](t, env, "create", "assets://hello.txt", input)
	if len(created) != 1 || created[0].URL != "assets://hello.txt" {
		t.Fatalf("unexpected create result: %+v", created)
	}

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader("updated"))
	cmd.SetArgs([]string{"--config", env.configPath, "--json", "save", "assets://hello.txt", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("save failed: %v\n%s", err, stderr.String())
	}

	buf, err := os.ReadFile(filepath.Join(env.assets, "hello.txt"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf) != "updated" {
		t.Fatalf("expected saved content, got %q", buf)
	}
}

func TestLockedLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.library, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	lock := flock.New(filepath.Join(env.library, ".assetdb.lock"))
	if err := lock.Lock(); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	defer lock.Unlock()

	if _, _, err := runCLI(t, env, "init"); !errors.Is(err, errLocked) {
		t.Fatalf("expected errLocked, got %v", err)
	}
	if _, _, err := runCLI(t, env, "lookup"); !errors.Is(err, errLocked) {
		t.Fatalf("expected errLocked for a reader, got %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "sample")
	if err != nil {
		t.Fatalf("config sample failed: %v", err)
	}
	requireContains(t, out, "[[mounts]]")

	out, _, err = runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Mounts: 1")

	target := filepath.Join(env.dir, "generated", "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected config init to refuse overwriting")
	}
}
