package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mwantia/assetdb/data"
	"github.com/tidwall/jsonc"
)

type typeKey struct {
	ext    string
	folder bool
}

// Registry maps (extension, is-folder) to an ordered list of candidate types.
type Registry struct {
	mu    sync.RWMutex
	types map[typeKey][]*Type
}

func NewRegistry() *Registry {
	return &Registry{
		types: make(map[typeKey][]*Type),
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Register appends t to the candidates of (ext, folder).
func (r *Registry) Register(ext string, folder bool, t *Type) {
	key := typeKey{ext: normalizeExt(ext), folder: folder}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[key] = append(r.types[key], t)
}

// Unregister removes t from every key it was registered for.
func (r *Registry) Unregister(t *Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, candidates := range r.types {
		candidates = slices.DeleteFunc(slices.Clone(candidates), func(c *Type) bool {
			return c == t
		})
		if len(candidates) == 0 {
			delete(r.types, key)
			continue
		}
		r.types[key] = candidates
	}
}

// FindType resolves the type of path. With several candidates the first one whose
// Validate accepts the path wins; when none does, or only one candidate exists,
// the last registered wins. Without candidates Folder or Asset is used.
func (r *Registry) FindType(path string) *Type {
	folder := false
	if info, err := os.Stat(path); err == nil {
		folder = info.IsDir()
	}

	return r.findType(path, folder)
}

func (r *Registry) findType(path string, folder bool) *Type {
	key := typeKey{ext: normalizeExt(filepath.Ext(path)), folder: folder}

	r.mu.RLock()
	candidates := r.types[key]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		if folder {
			return Folder
		}
		return Asset
	}

	if len(candidates) > 1 {
		for _, t := range candidates {
			if t.Validate != nil && t.Validate(path) {
				return t
			}
		}
	}

	return candidates[len(candidates)-1]
}

// Create instantiates the type resolved for path. An empty id gets a fresh uuid.
func (r *Registry) Create(path, id string) Meta {
	if id == "" {
		id = uuid.NewString()
	}
	return r.FindType(path).create(id)
}

// Load reads the sidecar of the asset at path. A missing sidecar yields (nil, nil);
// an unparsable one yields a nil meta together with the parse error.
func (r *Registry) Load(path string) (Meta, error) {
	buf, err := os.ReadFile(data.MetaPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	return r.Decode(path, buf)
}

// Decode parses raw sidecar JSON into a fresh meta of the type resolved for path.
// Hand edited sidecars may carry comments and trailing commas.
func (r *Registry) Decode(path string, raw []byte) (Meta, error) {
	t := r.FindType(path)

	m := t.New()
	if err := json.Unmarshal(jsonc.ToJSON(raw), m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", data.ErrMetaParse, data.MetaPath(path), err)
	}

	h := m.MetaHeader()
	if h.UUID == "" {
		return nil, fmt.Errorf("%w: %s: missing uuid", data.ErrMetaParse, data.MetaPath(path))
	}
	h.AssetType = t.Name

	return m, nil
}

// Save writes m as the sidecar of the asset at path.
func (r *Registry) Save(path string, m Meta) error {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(data.MetaPath(path), buf, 0o644)
}
