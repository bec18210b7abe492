package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vitrine/internal/api"
	"vitrine/internal/config"
	"vitrine/internal/taskaccess"
)

var errUnknownView = errors.New(`view must be "board" or "worklist"`)

func newBoardCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the curator board: one row per artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				rows, err := access.Board(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, rows)
				}
				renderBoard(cmd.OutOrStdout(), rows, false)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newWorklistCommand(ctx *commandContext) *cobra.Command {
	var assignee string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "worklist",
		Short: "Show the cleaner worklist: open tasks by deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				tasks, err := access.Worklist(cmd.Context(), worklistAssignee(ctx, cmd, assignee))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, tasks)
				}
				renderWorklist(cmd.OutOrStdout(), tasks, false)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&assignee, "assignee", "", "Only tasks assigned to this cleaner (defaults to reconcile.cleaner_assignee)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <board|worklist> <id> <status>",
		Short: "Change a task's status from a view's selector",
		Long: "Report a status selection made in the board or worklist. Selecting the\n" +
			"status already shown is a no-op, and selections made while the view is\n" +
			"reloading are ignored.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := strings.ToLower(strings.TrimSpace(args[0]))
			if view != "board" && view != "worklist" {
				return errUnknownView
			}
			id, err := parseTaskID(args[1])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				resp, err := access.Select(cmd.Context(), view, id, args[2])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch resp.Result {
				case "unchanged":
					fmt.Fprintf(out, "Task %d already shows %s\n", id, formatStatusLabel(args[2]))
				case "suppressed":
					fmt.Fprintf(out, "The %s is reloading; selection for task %d ignored\n", view, id)
				default:
					printTaskStatus(out, resp.Task)
				}
				return nil
			})
		},
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	var count int
	var assignee string

	cmd := &cobra.Command{
		Use:   "watch <board|worklist>",
		Short: "Redraw a view on an interval until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := strings.ToLower(strings.TrimSpace(args[0]))
			if view != "board" && view != "worklist" {
				return errUnknownView
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = defaultWatchInterval(cfg, view)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			who := worklistAssignee(ctx, cmd, assignee)

			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				return watchLoop(cmd.Context(), interval, count, func(ctx context.Context) error {
					if colorize {
						fmt.Fprint(out, ansiClearScreen)
					}
					fmt.Fprintf(out, "%s  (every %s, %s)\n", time.Now().Format("15:04:05"), interval, sourceLabel(access))
					if view == "board" {
						rows, err := access.Board(ctx)
						if err != nil {
							return err
						}
						renderBoard(out, rows, colorize)
						return nil
					}
					tasks, err := access.Worklist(ctx, who)
					if err != nil {
						return err
					}
					renderWorklist(out, tasks, colorize)
					return nil
				}, func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "poll failed; retrying in %s: %v\n", interval, err)
				})
			})
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Redraw interval (defaults to the view's reconcile interval)")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many redraws (0 runs until interrupted)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Worklist assignee scope")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task counts by status and assignee",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Group", "Key", "Count"},
					buildStatsRows(stats),
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// watchLoop calls draw immediately and then every interval until ctx is done
// or count > 0 draws have been attempted. A failed draw is reported through
// onError and the loop waits for the next tick.
func watchLoop(ctx context.Context, interval time.Duration, count int, draw func(context.Context) error, onError func(error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		if err := draw(ctx); err != nil && ctx.Err() == nil && onError != nil {
			onError(err)
		}
		if count > 0 && n >= count {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func defaultWatchInterval(cfg *config.Config, view string) time.Duration {
	if view == "board" {
		return cfg.CuratorInterval()
	}
	return cfg.CleanerInterval()
}

func worklistAssignee(ctx *commandContext, cmd *cobra.Command, flagValue string) string {
	if cmd.Flags().Changed("assignee") {
		return strings.TrimSpace(flagValue)
	}
	if cfg, err := ctx.ensureConfig(); err == nil {
		return cfg.Reconcile.CleanerAssignee
	}
	return ""
}

func sourceLabel(access taskaccess.Access) string {
	if access.Remote() {
		return "daemon"
	}
	return "local store"
}

func renderBoard(out io.Writer, rows []api.BoardRow, colorize bool) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No artifacts in the catalog")
		return
	}
	fmt.Fprint(out, renderTable(boardHeaders, buildBoardRows(rows), nil, tableOptions{title: "Curator Board", colorize: colorize}))
}

func renderWorklist(out io.Writer, tasks []api.Task, colorize bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "Nothing to do")
		return
	}
	fmt.Fprint(out, renderTable(taskHeaders, buildTaskRows(tasks), taskAligns, tableOptions{title: "Worklist", colorize: colorize}))
}
