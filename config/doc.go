// Package config loads the TOML configuration of the assetdb command: the
// library location, the mounts to register, copy importers, logging, the
// SQLite index and the watcher.
package config
