package data

// AssetResult describes an asset produced by import, create, save or init.
type AssetResult struct {
	UUID       string `json:"uuid,omitempty"`
	ParentUUID string `json:"parentUuid,omitempty"`
	URL        string `json:"url"`
	Path       string `json:"path"`
	Type       string `json:"type,omitempty"`
}

// AssetInfo describes a known asset without its parent.
type AssetInfo struct {
	UUID string `json:"uuid,omitempty"`
	URL  string `json:"url"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// MoveResult describes one moved item.
type MoveResult struct {
	SrcMountType  MountType `json:"srcMountType"`
	DestMountType MountType `json:"destMountType"`
	UUID          string    `json:"uuid,omitempty"`
	ParentUUID    string    `json:"parentUuid,omitempty"`
	SrcPath       string    `json:"srcPath"`
	DestPath      string    `json:"destPath"`
}

// DeleteResult describes one deleted item. Raw mounts leave UUID empty.
type DeleteResult struct {
	Path string `json:"path"`
	UUID string `json:"uuid,omitempty"`
}

// RefreshCommand classifies a refresh result.
type RefreshCommand string

const (
	RefreshCreate     RefreshCommand = "create"
	RefreshChange     RefreshCommand = "change"
	RefreshDelete     RefreshCommand = "delete"
	RefreshUUIDChange RefreshCommand = "uuid-change"
)

// RefreshResult describes one asset touched by refresh.
type RefreshResult struct {
	Command    RefreshCommand `json:"command"`
	UUID       string         `json:"uuid"`
	OldUUID    string         `json:"oldUuid,omitempty"`
	ParentUUID string         `json:"parentUuid,omitempty"`
	URL        string         `json:"url"`
	Path       string         `json:"path"`
	Type       string         `json:"type"`
}

// QueryNode is one node of the deep query tree rooted at each mount.
type QueryNode struct {
	Name     string       `json:"name"`
	Extname  string       `json:"extname"`
	UUID     string       `json:"uuid"`
	Type     string       `json:"type"`
	Children []*QueryNode `json:"children"`
}

// MetaInfo bundles a sidecar with its cached modification times.
type MetaInfo struct {
	AssetPath  string `json:"assetPath"`
	MetaPath   string `json:"metaPath"`
	AssetMtime int64  `json:"assetMtime"`
	MetaMtime  int64  `json:"metaMtime"`
	JSON       string `json:"json"`
}

// IndexEntry is one row of the persisted identity catalogue.
type IndexEntry struct {
	UUID  string `json:"uuid"`
	Path  string `json:"path"`
	URL   string `json:"url"`
	Mount string `json:"mount"`
	Type  string `json:"type"`
}
