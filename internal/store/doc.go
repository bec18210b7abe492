// Package store persists maintenance tasks and the local artifact catalog in
// SQLite.
//
// The schema is embedded and versioned through a schema_version table; Open
// refuses to work against a database written by a different schema version.
// Statuses are stored as their stable storage codes and every I/O failure is
// returned as a maintenance storage error. The store never retries on its
// own; contention is absorbed by SQLite's busy_timeout.
package store
