// Package identity holds the in-memory state of an asset database: the mount
// table, the path<->uuid bijection and the persisted per-uuid mtime cache.
//
// Every mutation of the identity map updates both directions under one lock,
// so for every path p with an entry ResolvePath(ResolveUUID(p)) == p holds.
// The mtime cache is written to <library>/uuid-to-mtime.json on a debounce
// timer so bursts of updates collapse into one write.
package identity
