package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/mwantia/assetdb/data"
)

const (
	MtimeFile = "uuid-to-mtime.json"

	DefaultFlushDelay = 50 * time.Millisecond
)

// MtimeCache maps asset uuids to the modification times seen at their last import.
type MtimeCache struct {
	mu      sync.Mutex
	writeMu sync.Mutex
	library string
	delay   time.Duration
	entries map[string]data.MtimeEntry

	timer   *time.Timer
	pending bool
	closed  bool

	// OnError receives failures of debounced flushes.
	OnError func(error)
}

func NewMtimeCache(library string, delay time.Duration) *MtimeCache {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}

	return &MtimeCache{
		library: library,
		delay:   delay,
		entries: make(map[string]data.MtimeEntry),
	}
}

func (c *MtimeCache) path() string {
	return filepath.Join(c.library, MtimeFile)
}

// Load replaces the in-memory entries with the persisted snapshot. A missing file yields an empty cache.
func (c *MtimeCache) Load() error {
	buf, err := os.ReadFile(c.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.mu.Lock()
			c.entries = make(map[string]data.MtimeEntry)
			c.mu.Unlock()
			return nil
		}
		return err
	}

	entries := make(map[string]data.MtimeEntry)
	if err := json.Unmarshal(buf, &entries); err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.path(), err)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

func (c *MtimeCache) Get(uuid string) (data.MtimeEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[uuid]
	return entry, ok
}

// Set stores the entry and schedules a flush.
func (c *MtimeCache) Set(uuid string, entry data.MtimeEntry) {
	c.mu.Lock()
	c.entries[uuid] = entry
	c.mu.Unlock()

	c.Schedule()
}

// Delete drops the entry of uuid and schedules a flush if one existed.
func (c *MtimeCache) Delete(uuid string) bool {
	c.mu.Lock()
	_, ok := c.entries[uuid]
	delete(c.entries, uuid)
	c.mu.Unlock()

	if ok {
		c.Schedule()
	}
	return ok
}

// Keys returns the cached uuids, sorted.
func (c *MtimeCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Sorted(maps.Keys(c.entries))
}

func (c *MtimeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Schedule (re)starts the flush timer so a write happens once updates stop arriving for the delay.
func (c *MtimeCache) Schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.pending = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, func() {
		if err := c.Flush(); err != nil && c.OnError != nil {
			c.OnError(err)
		}
	})
}

// Pending reports whether a scheduled flush has not yet been written.
func (c *MtimeCache) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending
}

// Flush writes the snapshot now. It is a no-op while the library directory does not exist.
func (c *MtimeCache) Flush() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = false

	buf, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return err
	}

	info, err := os.Stat(c.library)
	if err != nil || !info.IsDir() {
		return nil
	}

	return os.WriteFile(c.path(), buf, 0o644)
}

// Close writes any pending snapshot and stops further scheduling.
func (c *MtimeCache) Close() error {
	c.mu.Lock()
	pending := c.pending
	c.closed = true
	c.mu.Unlock()

	if !pending {
		return nil
	}
	return c.Flush()
}
