package assetdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mwantia/assetdb/data"
)

type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(msg, args...))
}

func (l *recordLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }
func (l *recordLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args...) }
func (l *recordLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args...) }
func (l *recordLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }

func (l *recordLogger) contains(line string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.lines, line)
}

type countingWatcher struct {
	enabled  atomic.Int32
	disabled atomic.Int32
}

func (w *countingWatcher) Enable()  { w.enabled.Add(1) }
func (w *countingWatcher) Disable() { w.disabled.Add(1) }

type recordIndex struct {
	mu      sync.Mutex
	syncs   int
	entries []data.IndexEntry
	closed  bool
}

func (idx *recordIndex) Sync(ctx context.Context, entries []data.IndexEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.syncs++
	idx.entries = entries
	return nil
}

func (idx *recordIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	return nil
}

func (idx *recordIndex) snapshot() (int, []data.IndexEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.syncs, idx.entries
}

func TestSubmitRunsInOrder(t *testing.T) {
	db := openTestDB(t, t.TempDir())

	var mu sync.Mutex
	var events []string
	add := func(event string) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	}

	const n = 20
	done := make(chan struct{})
	for i := range n {
		task := Task{
			Name: fmt.Sprintf("task-%d", i),
			Run: func(ctx context.Context) (any, error) {
				add(fmt.Sprintf("run-%d", i))
				return i, nil
			},
		}
		err := db.Submit(task, func(result any, err error) {
			add(fmt.Sprintf("cb-%d", result.(int)))
			if i == n-1 {
				close(done)
			}
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("tasks did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := range n {
		if events[2*i] != fmt.Sprintf("run-%d", i) || events[2*i+1] != fmt.Sprintf("cb-%d", i) {
			t.Fatalf("unexpected order %v", events)
		}
	}
}

func TestTaskPanicIsRecovered(t *testing.T) {
	db := openTestDB(t, t.TempDir())

	_, err := do[any](t.Context(), db, Task{
		Name: "boom",
		Run: func(ctx context.Context) (any, error) {
			panic("boom")
		},
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic error, got %v", err)
	}

	value, err := do[string](t.Context(), db, Task{
		Name: "after",
		Run: func(ctx context.Context) (any, error) {
			return "ok", nil
		},
	})
	if err != nil || value != "ok" {
		t.Fatalf("queue did not survive the panic: %v, %v", value, err)
	}
}

func TestWaitIsBoundByContext(t *testing.T) {
	db := openTestDB(t, t.TempDir())

	release := make(chan struct{})
	ran := make(chan struct{})
	if err := db.Submit(Task{
		Name: "block",
		Run: func(ctx context.Context) (any, error) {
			<-release
			return nil, nil
		},
	}, nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := do[any](ctx, db, Task{
		Name: "late",
		Run: func(ctx context.Context) (any, error) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			close(ran)
			return nil, nil
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatalf("abandoned task did not run")
	}
}

func TestTaskLoggerPrefix(t *testing.T) {
	logger := &recordLogger{}
	db := openTestDB(t, t.TempDir(), WithLogger(logger))

	_, err := do[any](t.Context(), db, Task{
		Name: "greet",
		Run: func(ctx context.Context) (any, error) {
			db.logger().Info("hello %s", "world")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("task failed: %v", err)
	}

	for _, line := range []string{
		"DEBUG [db-task][greet] start",
		"INFO [db-task][greet] hello world",
		"DEBUG [db-task][greet] done",
	} {
		if !logger.contains(line) {
			t.Fatalf("missing log line %q in %v", line, logger.lines)
		}
	}

	db.logger().Info("outside")
	if !logger.contains("INFO outside") {
		t.Fatalf("lines outside a task must not be prefixed")
	}

	_, _ = db.QueryAssets(t.Context(), "/nowhere/*", "")
	if logger.contains("DEBUG [db-task][query-assets] start") {
		t.Fatalf("silent tasks must not log their start")
	}
}

func TestWatcherToggle(t *testing.T) {
	watcher := &countingWatcher{}
	var focused atomic.Bool

	db := openTestDB(t, t.TempDir(), WithWatcher(watcher), WithFocus(focused.Load))
	noop := Task{
		Name: "noop",
		Run:  func(ctx context.Context) (any, error) { return nil, nil },
	}

	if _, err := do[any](t.Context(), db, noop); err != nil {
		t.Fatalf("task failed: %v", err)
	}
	if watcher.disabled.Load() != 1 || watcher.enabled.Load() != 1 {
		t.Fatalf("expected one disable and enable, got %d/%d", watcher.disabled.Load(), watcher.enabled.Load())
	}

	if _, err := db.DeepQuery(t.Context()); err != nil {
		t.Fatalf("DeepQuery failed: %v", err)
	}
	if watcher.disabled.Load() != 1 || watcher.enabled.Load() != 1 {
		t.Fatalf("silent tasks must not toggle the watcher")
	}

	focused.Store(true)
	if _, err := do[any](t.Context(), db, noop); err != nil {
		t.Fatalf("task failed: %v", err)
	}
	if watcher.disabled.Load() != 2 || watcher.enabled.Load() != 1 {
		t.Fatalf("watcher must stay disabled while focused, got %d/%d", watcher.disabled.Load(), watcher.enabled.Load())
	}
}

func TestIndexSync(t *testing.T) {
	index := &recordIndex{}
	env := newTestEnv(t, defaultFiles, WithIndex(index))

	syncs, entries := index.snapshot()
	if syncs == 0 {
		t.Fatalf("expected index syncs after init")
	}
	if len(entries) != env.db.store.Len() {
		t.Fatalf("expected %d entries, got %d", env.db.store.Len(), len(entries))
	}

	path := env.path("a.png")
	found := false
	for _, entry := range entries {
		if entry.Path == path {
			found = true
			if entry.UUID != env.db.PathToUUID(path) || entry.URL != "assets://a.png" || entry.Mount != "assets" || entry.Type != "texture" {
				t.Fatalf("unexpected entry %+v", entry)
			}
		}
	}
	if !found {
		t.Fatalf("missing index entry for %s", path)
	}

	if _, err := env.db.QueryAssets(t.Context(), "assets://*", ""); err != nil {
		t.Fatalf("QueryAssets failed: %v", err)
	}
	if after, _ := index.snapshot(); after != syncs {
		t.Fatalf("silent tasks must not sync the index")
	}

	if err := env.db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !index.closed {
		t.Fatalf("Close must close the index")
	}
}

func TestClosedDatabase(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "library"))

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := db.Close(); !errors.Is(err, data.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := db.Init(t.Context()); !errors.Is(err, data.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewRequiresLibrary(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected an error without library")
	}
	if _, err := New(WithLibrary(t.TempDir()), WithWorkers(0)); err == nil {
		t.Fatalf("expected an error for zero workers")
	}
}
