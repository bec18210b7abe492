// Package api defines wire-format types and converters for the HTTP API. It
// translates maintenance tasks, board summaries, and scheduler state into
// transport-friendly DTOs so clients can render them without importing
// internal packages.
//
// # Key Types
//
// Task: transport representation of a maintenance task with resolved artifact
// name and split note lines.
//
// BoardRow: one curator summary row.
//
// DaemonStatus: daemon runtime information including poller state.
//
// # Services
//
// TaskService runs lifecycle commands for HTTP handlers and reports each
// successful change to a reconcile observer, which is how API-originated
// changes reach notifications.
//
// Client is the matching HTTP client used by the CLI.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed by name (SCHEDULED,
// IN_PROGRESS, ...), never by storage code. Timestamps use RFC3339 with
// milliseconds.
package api
