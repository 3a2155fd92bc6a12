// Package database provides SQLite-based storage for the import
// history.
//
// This package implements the ImportDB, which stores one record per
// processed album: the final status, the attached MusicBrainz release,
// and the full report as JSON for the history command.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of a
// flat file because:
// 1. Duplicate detection is a query, not a scan of past report files
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets the history command read during an import run
package database
