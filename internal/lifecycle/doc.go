// Package lifecycle owns every status transition of a maintenance task.
//
// The Engine validates input, checks the transition table before any write,
// and applies the configured completion-date and cancellation policies. Each
// operation is a single read-modify-write against the Store with no
// versioning, so concurrent writers resolve as last-writer-wins.
package lifecycle
