// Package daemon coordinates the long-running vitrine process.
//
// It wires the task store, lifecycle engine, reconcile pollers, and HTTP API
// into a single lifecycle with flock-based locking to prevent multiple
// instances. API handlers run lifecycle commands through api.TaskService and
// route selector changes to the owning poller, so every notification leaves
// through the reconcile observer chain.
//
// Keep orchestration logic here: lifecycle rules live in internal/lifecycle
// and view logic in internal/reconcile.
package daemon
