// Package watch notifies about changes below the mounted asset roots.
//
// Events are coalesced over a debounce window so the callback receives one
// sorted, deduplicated set of changed paths. The watcher can be disabled while
// the database itself writes into the roots; events arriving in the meantime
// are dropped.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/log"
)

// DefaultDebounce is the quiet period before the callback fires.
const DefaultDebounce = 500 * time.Millisecond

// defaultIgnores exclude sidecars, hidden entries and editor leftovers.
var defaultIgnores = []string{
	"**/*" + data.MetaExt,
	"**/.*",
	"**/.*/**",
	"**/*.swp",
	"**/*~",
}

type (
	Config struct {
		// Roots are the directories watched recursively.
		Roots []string
		// Ignore holds doublestar patterns, relative to the owning root, merged with the defaults.
		Ignore   []string
		Debounce time.Duration
		// OnChange receives the absolute changed paths. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *log.Logger
	}

	// Watcher monitors the roots and fires a debounced callback. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		log      *log.Logger
		roots    []string
		ignores  []string
		debounce time.Duration

		enabled atomic.Bool
		started atomic.Bool
	}
)

// New resolves the roots, validates the ignore patterns and registers every
// non-ignored directory. The watcher starts enabled.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("watch: at least one root is required")
	}

	for _, pat := range cfg.Ignore {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q: %w", pat, err)
		}
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %s: %w", root, err)
		}
		roots = append(roots, abs)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		log:      logger,
		roots:    roots,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
	}
	w.enabled.Store(true)

	for _, root := range roots {
		if err := w.addDirectories(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) Enable() {
	w.enabled.Store(true)
}

func (w *Watcher) Disable() {
	w.enabled.Store(false)
}

func (w *Watcher) Enabled() bool {
	return w.enabled.Load()
}

// Run processes events until ctx is cancelled. It returns nil on cancellation
// and an error once the underlying watcher is broken.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			// Retry later so the pending set is not lost.
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if len(changed) == 0 || !w.Enabled() {
			return
		}

		w.log.Debug("%d paths changed", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.log.Error("callback failed: %v", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()

		if err := w.fsw.Close(); err != nil {
			w.log.Warn("failed to close fsnotify: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			if !w.Enabled() || w.isIgnored(evt.Name) {
				continue
			}

			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending[filepath.Clean(evt.Name)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.log.Warn("fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) addDirectories(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("skipping inaccessible path %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		if path != root && w.isIgnored(path) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", root, err)
	}

	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	if err := w.addDirectories(path); err != nil {
		w.log.Warn("failed to watch new directory %s: %v", path, err)
	}
}

// isIgnored matches path, relative to the root owning it, against the ignore patterns.
// Paths outside every root are ignored.
func (w *Watcher) isIgnored(path string) bool {
	rel, ok := w.relative(path)
	if !ok {
		return true
	}

	for _, pat := range w.ignores {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}

	return false
}

func (w *Watcher) relative(path string) (string, bool) {
	path = filepath.Clean(path)
	for _, root := range w.roots {
		if data.Contains(root, path) {
			return data.ToRelativePath(path, root), true
		}
	}
	return "", false
}

// TopLevel drops every path that lies below another path of the list.
func TopLevel(paths []string) []string {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var result []string
	for _, path := range sorted {
		if n := len(result); n > 0 && data.Contains(result[n-1], path) {
			continue
		}
		result = append(result, path)
	}

	return result
}

// isFatal reports errors after which the watcher can not recover, such as an
// exhausted inotify watch limit or file descriptor table.
func isFatal(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
