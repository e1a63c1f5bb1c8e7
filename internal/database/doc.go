// Package database provides SQLite-based storage for notionscan.
//
// SnapshotDB keeps the JSON output files of past scans so that two scans
// of the same root can be compared. Snapshots are grouped by snapshot key
// (the compact root id) and ordered by insertion.
//
// modernc.org/sqlite is a CGO-free driver, so the binary cross-compiles
// without a C toolchain.
package database
