// Package preflight provides readiness checks for the filesystem paths,
// database, and services vitrine depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and refuses to start when the
//     database check fails.
//   - The CLI "vitrine status" command uses RunAll to display health.
//
// Optional features are reported as passed with a "Disabled" detail.
package preflight
