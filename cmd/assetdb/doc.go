// Command assetdb drives the asset database from the shell.
//
// Engine commands lock the library, mount the configured mounts and run init
// before doing their work; lookup reads only the SQLite index. Results go to
// stdout as tables, or as JSON with --json, while logs go to stderr or the
// configured log file.
package main
