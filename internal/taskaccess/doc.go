// Package taskaccess gives the CLI one task surface whether a daemon is
// running or not. When the daemon's HTTP API answers, commands go through it
// so its observers see every change; otherwise the configured store is opened
// directly.
package taskaccess
