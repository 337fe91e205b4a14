// Package assetdb assigns stable uuids to the files of mounted asset trees,
// caches derived import artifacts in a content-addressed library and keeps
// both consistent while assets are created, edited, moved or deleted.
//
// Every operation is executed by a single-worker task queue in submission
// order; the identity map and mtime cache are only mutated from inside a task.
package assetdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/identity"
	"github.com/mwantia/assetdb/meta"
)

type AssetDB struct {
	opts *Options
	log  Logger

	library  string
	registry *meta.Registry
	store    *identity.Store
	mtimes   *identity.MtimeCache

	queue   *taskQueue
	current atomic.Pointer[string]
	closed  atomic.Bool
}

// New opens the database on the configured library, creating it when missing,
// and starts the task queue.
func New(opts ...Option) (*AssetDB, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if options.Library == "" {
		return nil, fmt.Errorf("library path is required")
	}

	library, err := filepath.Abs(options.Library)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library path: %w", err)
	}
	if err := os.MkdirAll(library, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library %s: %w", library, err)
	}

	registry := options.Registry
	if registry == nil {
		registry = meta.NewRegistry()
	}

	db := &AssetDB{
		opts:     options,
		log:      options.Logger,
		library:  library,
		registry: registry,
		store:    identity.NewStore(),
		mtimes:   identity.NewMtimeCache(library, options.FlushDelay),
		queue:    newTaskQueue(),
	}

	db.mtimes.OnError = func(err error) {
		db.log.Error("failed to write %s: %v", identity.MtimeFile, err)
	}
	if err := db.mtimes.Load(); err != nil {
		db.log.Warn("ignoring mtime snapshot: %v", err)
	}

	go db.queue.run(db.exec)

	return db, nil
}

// Close waits for queued tasks, writes the pending mtime snapshot and closes the index.
func (db *AssetDB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return data.ErrClosed
	}

	db.queue.close()

	errs := &data.Errors{}
	errs.Add(db.mtimes.Close())
	if db.opts.Index != nil {
		errs.Add(db.opts.Index.Close())
	}

	return errs.Errors()
}

// Library returns the absolute library directory.
func (db *AssetDB) Library() string {
	return db.library
}

func (db *AssetDB) Registry() *meta.Registry {
	return db.registry
}

// Register adds a meta type for files (or folders) with the given extension.
func (db *AssetDB) Register(ext string, folder bool, t *meta.Type) {
	db.registry.Register(ext, folder, t)
}

func (db *AssetDB) Unregister(t *meta.Type) {
	db.registry.Unregister(t)
}

// Mounts returns the registered mounts in registration order.
func (db *AssetDB) Mounts() []*data.Mount {
	return db.store.Mounts()
}

// MountInfoByPath returns the mount owning path, or nil.
func (db *AssetDB) MountInfoByPath(path string) *data.Mount {
	return db.store.MountInfo(path)
}

// MountInfoByUUID returns the mount owning the asset with the given uuid, or nil.
func (db *AssetDB) MountInfoByUUID(uuid string) *data.Mount {
	return db.store.MountInfo(db.store.ResolvePath(uuid))
}

// Mtime returns the cached modification times of uuid.
func (db *AssetDB) Mtime(uuid string) (data.MtimeEntry, bool) {
	return db.mtimes.Get(uuid)
}

// FlushMtimes writes the mtime snapshot immediately.
func (db *AssetDB) FlushMtimes() error {
	return db.mtimes.Flush()
}

func (db *AssetDB) syncIndex(ctx context.Context) {
	if db.opts.Index == nil {
		return
	}

	if err := db.opts.Index.Sync(ctx, db.indexEntries()); err != nil {
		db.logger().Error("failed to sync index: %v", err)
	}
}

func (db *AssetDB) indexEntries() []data.IndexEntry {
	snapshot := db.store.Snapshot()

	entries := make([]data.IndexEntry, 0, len(snapshot))
	for path, uuid := range snapshot {
		entry := data.IndexEntry{
			UUID: uuid,
			Path: path,
			URL:  db.PathToURL(path),
			Type: db.registry.FindType(path).Name,
		}
		if mnt := db.store.MountInfo(path); mnt != nil {
			entry.Mount = mnt.Name
		}
		entries = append(entries, entry)
	}

	return entries
}
