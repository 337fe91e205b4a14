package assetdb

import (
	"fmt"
	"runtime"
	"time"

	"github.com/mwantia/assetdb/identity"
	"github.com/mwantia/assetdb/log"
	"github.com/mwantia/assetdb/meta"
)

type Options struct {
	Library    string
	Logger     Logger
	Watcher    Watcher
	Focus      func() bool
	Index      Indexer
	Registry   *meta.Registry
	FlushDelay time.Duration
	Workers    int
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		Logger:     log.NewNopLogger(),
		FlushDelay: identity.DefaultFlushDelay,
		Workers:    runtime.GOMAXPROCS(0),
	}
}

// WithLibrary sets the directory holding import artifacts and the mtime snapshot.
func WithLibrary(path string) Option {
	return func(opts *Options) error {
		if path == "" {
			return fmt.Errorf("library path can not be empty")
		}
		opts.Library = path
		return nil
	}
}

func WithLogger(logger Logger) Option {
	return func(opts *Options) error {
		if logger == nil {
			return fmt.Errorf("logger can not be nil")
		}
		opts.Logger = logger
		return nil
	}
}

// WithWatcher installs the watcher disabled while mutating tasks run.
func WithWatcher(watcher Watcher) Option {
	return func(opts *Options) error {
		opts.Watcher = watcher
		return nil
	}
}

// WithFocus installs a probe for host UI focus. While it reports true the
// watcher stays disabled after a task and the host re-enables it itself.
func WithFocus(focus func() bool) Option {
	return func(opts *Options) error {
		opts.Focus = focus
		return nil
	}
}

func WithIndex(index Indexer) Option {
	return func(opts *Options) error {
		opts.Index = index
		return nil
	}
}

// WithRegistry shares a meta registry instead of creating an empty one.
func WithRegistry(registry *meta.Registry) Option {
	return func(opts *Options) error {
		if registry == nil {
			return fmt.Errorf("registry can not be nil")
		}
		opts.Registry = registry
		return nil
	}
}

func WithFlushDelay(delay time.Duration) Option {
	return func(opts *Options) error {
		if delay <= 0 {
			return fmt.Errorf("flush delay must be positive, got %s", delay)
		}
		opts.FlushDelay = delay
		return nil
	}
}

// WithWorkers limits how many files of one batch are processed concurrently.
func WithWorkers(workers int) Option {
	return func(opts *Options) error {
		if workers < 1 {
			return fmt.Errorf("workers must be at least 1, got %d", workers)
		}
		opts.Workers = workers
		return nil
	}
}
