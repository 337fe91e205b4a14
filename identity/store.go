package identity

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/mwantia/assetdb/data"
	"github.com/tidwall/btree"
)

var invalidMountName = regexp.MustCompile(`[\\/.]`)

// Store is the mount table plus the path<->uuid bijection.
type Store struct {
	mu sync.RWMutex

	mounts []*data.Mount

	// Ordered so every path below a folder can be collected with one range scan.
	paths *btree.Map[string, string]
	uuids map[string]string
}

func NewStore() *Store {
	return &Store{
		paths: btree.NewMap[string, string](0),
		uuids: make(map[string]string),
	}
}

// ValidateMount checks the name and type of a mount before it is registered.
func ValidateMount(name string, typ data.MountType) error {
	if name == "" || invalidMountName.MatchString(name) {
		return fmt.Errorf("%w: %q, it can not contain `/`, `\\` or `.`", data.ErrInvalidMountName, name)
	}
	if _, err := data.ParseMountType(string(typ)); err != nil {
		return err
	}
	return nil
}

// AddMount validates and registers a mount. The path must already be absolute and cleaned.
func (s *Store) AddMount(mnt *data.Mount) error {
	if err := ValidateMount(mnt.Name, mnt.Type); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.mounts {
		if existing.Name == mnt.Name {
			return fmt.Errorf("%w: failed to mount %s to %s", data.ErrAlreadyMounted, mnt.Path, mnt.Name)
		}
		if data.Contains(existing.Path, mnt.Path) {
			return fmt.Errorf("%w: failed to mount %s to %s, the path or its parent %s already mounted to %s",
				data.ErrMountNested, mnt.Path, mnt.Name, existing.Path, existing.Name)
		}
		if data.Contains(mnt.Path, existing.Path) {
			return fmt.Errorf("%w: failed to mount %s to %s, its child path %s already mounted to %s",
				data.ErrMountNested, mnt.Path, mnt.Name, existing.Path, existing.Name)
		}
	}

	s.mounts = append(s.mounts, mnt)
	return nil
}

// RemoveMount unregisters the mount with the given name and returns it.
func (s *Store) RemoveMount(name string) (*data.Mount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, mnt := range s.mounts {
		if mnt.Name == name {
			s.mounts = append(s.mounts[:i:i], s.mounts[i+1:]...)
			return mnt, nil
		}
	}

	return nil, fmt.Errorf("%w: can not find the mount %s", data.ErrNotMounted, name)
}

// Mounts returns the registered mounts in registration order.
func (s *Store) Mounts() []*data.Mount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mounts := make([]*data.Mount, len(s.mounts))
	copy(mounts, s.mounts)
	return mounts
}

// MountByName returns the mount registered under name, or nil.
func (s *Store) MountByName(name string) *data.Mount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, mnt := range s.mounts {
		if mnt.Name == name {
			return mnt
		}
	}

	return nil
}

// MountInfo returns the first mount, in registration order, whose root contains path.
func (s *Store) MountInfo(path string) *data.Mount {
	if path == "" {
		return nil
	}

	path = filepath.Clean(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, mnt := range s.mounts {
		if data.Contains(mnt.Path, path) {
			return mnt
		}
	}

	return nil
}

// IsRoot reports whether path is the root of a mount.
func (s *Store) IsRoot(path string) bool {
	return s.RootMount(path) != nil
}

// RootMount returns the mount whose root is exactly path, or nil.
func (s *Store) RootMount(path string) *data.Mount {
	path = filepath.Clean(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, mnt := range s.mounts {
		if mnt.Path == path {
			return mnt
		}
	}

	return nil
}

// ResolveUUID returns the uuid registered for path, or "".
func (s *Store) ResolveUUID(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uuid, _ := s.paths.Get(path)
	return uuid
}

// ResolvePath returns the path registered for uuid, or "".
func (s *Store) ResolvePath(uuid string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.uuids[uuid]
}

// Add registers path<->uuid. Any previous entry of either side is dropped so the maps stay a bijection.
func (s *Store) Add(path, uuid string) {
	if path == "" || uuid == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if oldUUID, ok := s.paths.Get(path); ok && oldUUID != uuid {
		delete(s.uuids, oldUUID)
	}
	if oldPath, ok := s.uuids[uuid]; ok && oldPath != path {
		s.paths.Delete(oldPath)
	}

	s.paths.Set(path, uuid)
	s.uuids[uuid] = path
}

// Move re-keys the entry of oldPath to newPath, keeping its uuid.
func (s *Store) Move(oldPath, newPath string) {
	if oldPath == newPath {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uuid, ok := s.paths.Get(oldPath)
	if !ok {
		return
	}

	if displaced, ok := s.paths.Get(newPath); ok && displaced != uuid {
		delete(s.uuids, displaced)
	}

	s.paths.Delete(oldPath)
	s.paths.Set(newPath, uuid)
	s.uuids[uuid] = newPath
}

// Delete removes the entry of path and returns the uuid it had.
func (s *Store) Delete(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	uuid, ok := s.paths.Delete(path)
	if !ok {
		return ""
	}

	if s.uuids[uuid] == path {
		delete(s.uuids, uuid)
	}

	return uuid
}

// PathsUnder returns every registered path equal to or nested below root, in path order.
func (s *Store) PathsUnder(root string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	s.paths.Ascend(root, func(path, _ string) bool {
		if path == root {
			paths = append(paths, path)
			return true
		}
		if len(path) <= len(root) || path[:len(root)] != root {
			return false
		}
		if data.Contains(root, path) {
			paths = append(paths, path)
		}
		return true
	})

	return paths
}

// Snapshot copies the path->uuid map.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]string, s.paths.Len())
	s.paths.Scan(func(path, uuid string) bool {
		snapshot[path] = uuid
		return true
	})

	return snapshot
}

// Len returns the number of registered paths.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.paths.Len()
}
