package preflight

import (
	"context"

	"vitrine/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Pinger is satisfied by every task backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database check name, used by callers that treat it as fatal.
const DatabaseCheck = "Database"

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, db Pinger) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if !cfg.UsesPostgres() {
		results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	}
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDatabase(ctx, db))
	results = append(results, CheckAPIBind(cfg.Paths.APIBind))
	results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
