// Package database provides SQLite-based snapshot history for replaysheet.
//
// Every successful extraction can be saved as a snapshot: the reconstructed
// table, its fingerprint and a few counters. Snapshots of the same document
// URL form its history, which the history and diff commands read.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// history is a single local file, the driver is CGO-free so the binary
// cross-compiles, and WAL mode lets a diff read while an extract writes.
package database
