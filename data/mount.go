package data

import "fmt"

// MountType decides whether a mount participates in the identity map.
type MountType string

const (
	// MountTypeAsset mounts get uuids, sidecars and library artifacts.
	MountTypeAsset MountType = "asset"
	// MountTypeRaw mounts are passthrough file storage.
	MountTypeRaw MountType = "raw"
)

// ParseMountType validates a mount type string.
func ParseMountType(s string) (MountType, error) {
	switch MountType(s) {
	case MountTypeAsset, MountTypeRaw:
		return MountType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMountType, s)
	}
}

func (mt MountType) String() string {
	return string(mt)
}

// Mount is a named root directory registered with the database.
type Mount struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Type MountType `json:"type"`
}

// ID returns the identifier used as parent uuid of top-level assets.
func (m *Mount) ID() string {
	return MountID(m.Name)
}

// MountID builds the identifier of the mount with the given name.
func MountID(name string) string {
	return "mount-" + name
}
