package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vitrine/internal/api"
	"vitrine/internal/config"
	"vitrine/internal/preflight"
	"vitrine/internal/taskaccess"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, poller, and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			printSection(out, "Daemon", colorize)
			var daemon *api.DaemonStatus
			if !ctx.local() && cfg.Paths.APIBind != "" {
				if client, err := taskaccess.DialDaemon(cmd.Context(), cfg); err == nil {
					if st, err := client.Status(cmd.Context()); err == nil {
						daemon = &st
					}
				}
			}
			for _, line := range daemonLines(cfg, daemon, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)

			printSection(out, "Checks", colorize)
			var db preflight.Pinger
			if daemon == nil {
				backend, err := taskaccess.OpenBackend(cmd.Context(), cfg)
				if err == nil {
					defer backend.Close()
					db = backend
				}
			}
			results := preflight.RunAll(cmd.Context(), cfg, db)
			for _, result := range results {
				if daemon != nil && result.Name == preflight.DatabaseCheck {
					result = preflight.Result{Name: result.Name, Passed: true, Detail: "Served by daemon"}
				}
				fmt.Fprintln(out, checkLine(result, colorize))
			}
			return nil
		},
	}
}

func printSection(out io.Writer, title string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
}

func daemonLines(cfg *config.Config, st *api.DaemonStatus, colorize bool) []string {
	if st == nil {
		detail := "Not running"
		if cfg.Paths.APIBind == "" {
			detail = "API disabled (paths.api_bind is empty)"
		}
		return []string{
			renderStatusLine("Daemon", statusWarn, detail, colorize),
			renderStatusLine("Store", statusInfo, cfg.Store.Driver, colorize),
		}
	}
	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", st.PID), colorize),
		renderStatusLine("Store", statusInfo, fmt.Sprintf("%s %s", st.Driver, st.DatabasePath), colorize),
	}
	for _, poller := range st.Scheduler.Pollers {
		kind := statusOK
		detail := fmt.Sprintf("%d rows, %d cycles, every %s", poller.Rows, poller.Cycles, poller.Interval)
		if poller.LastError != "" {
			kind = statusError
			detail = "last cycle failed: " + poller.LastError
		}
		lines = append(lines, renderStatusLine(formatStatusLabel(poller.Viewer), kind, detail, colorize))
	}
	return lines
}

func checkLine(result preflight.Result, colorize bool) string {
	kind := statusOK
	if !result.Passed {
		kind = statusError
	}
	return renderStatusLine(result.Name, kind, result.Detail, colorize)
}
