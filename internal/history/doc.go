// Package history persists completed scoring runs in a local SQLite database.
//
// Each run stores its inputs, stream geometry, metric settings and summary,
// plus one row per scored frame so past runs can be listed and inspected
// without re-reading the video. Writes are serialized across processes with
// an advisory file lock next to the database, and transient SQLITE_BUSY
// errors are retried with backoff.
package history
