package main

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vitrine/internal/api"
	"vitrine/internal/taskaccess"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Request and progress maintenance tasks",
	}

	taskCmd.AddCommand(newTaskRequestCommand(ctx))
	taskCmd.AddCommand(newTaskStartCommand(ctx))
	taskCmd.AddCommand(newTaskCompleteCommand(ctx))
	taskCmd.AddCommand(newTaskCancelCommand(ctx))
	taskCmd.AddCommand(newTaskNoteCommand(ctx))
	taskCmd.AddCommand(newTaskSetStatusCommand(ctx))
	taskCmd.AddCommand(newTaskAssignCommand(ctx))
	taskCmd.AddCommand(newTaskShowCommand(ctx))
	taskCmd.AddCommand(newTaskListCommand(ctx))

	return taskCmd
}

func newTaskRequestCommand(ctx *commandContext) *cobra.Command {
	var req api.CreateTaskRequest

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request maintenance for an artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				task, err := access.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d requested for %s (deadline %s)\n",
					task.ID, task.ArtifactName, formatDate(task.ScheduledStart))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.ArtifactID, "artifact", "a", "", "Artifact identifier")
	cmd.Flags().StringVarP(&req.Type, "type", "t", "ROUTINE", "Task type (ROUTINE, EMERGENCY, RESTORATION)")
	cmd.Flags().StringVarP(&req.Deadline, "deadline", "d", "", "Deadline (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&req.Description, "description", "", "Free-text description")
	_ = cmd.MarkFlagRequired("artifact")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func newTaskStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Mark a scheduled task in progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				task, err := access.Start(cmd.Context(), id)
				if err != nil {
					return err
				}
				printTaskStatus(cmd.OutOrStdout(), task)
				return nil
			})
		},
	}
}

func newTaskCompleteCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				task, err := access.Complete(cmd.Context(), id, notes)
				if err != nil {
					return err
				}
				printTaskStatus(cmd.OutOrStdout(), task)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Completion notes")
	return cmd
}

func newTaskCancelCommand(ctx *commandContext) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a task",
		Long: "Cancel a task. Without --note a scheduled task is cancelled outright;\n" +
			"with --note the reason is recorded on the task.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				task, err := access.Cancel(cmd.Context(), id, note)
				if err != nil {
					return err
				}
				if task == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Task %d deleted\n", id)
					return nil
				}
				printTaskStatus(cmd.OutOrStdout(), task)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&note, "note", "n", "", "Cancellation reason")
	return cmd
}

func newTaskNoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "note <id> <text>...",
		Short: "Append a note to a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				task, err := access.AddNote(cmd.Context(), id, text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d now has %d note(s)\n", task.ID, len(task.Notes))
				return nil
			})
		},
	}
}

func newTaskSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Set a task's status directly",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				task, err := access.SetStatus(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				printTaskStatus(cmd.OutOrStdout(), task)
				return nil
			})
		},
	}
}

func newTaskAssignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <assignee>",
		Short: "Assign a task to a cleaner (empty string clears)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				task, err := access.Assign(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				if task.AssigneeID == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Task %d unassigned\n", task.ID)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d assigned to %s\n", task.ID, task.AssigneeID)
				return nil
			})
		},
	}
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				task, err := access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, task)
				}
				for _, line := range describeTask(*task) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var status, assignee, artifact, from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List maintenance tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			for key, value := range map[string]string{
				"status": status, "assignee": assignee, "artifact": artifact, "from": from, "to": to,
			} {
				if strings.TrimSpace(value) != "" {
					query.Set(key, value)
				}
			}
			filter, err := api.ParseFilter(query)
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access taskaccess.Access) error {
				tasks, err := access.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, tasks)
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(taskHeaders, buildTaskRows(tasks), taskAligns))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Filter by assignee")
	cmd.Flags().StringVarP(&artifact, "artifact", "a", "", "Filter by artifact")
	cmd.Flags().StringVar(&from, "from", "", "Deadline on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Deadline before (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func printTaskStatus(out io.Writer, task *api.Task) {
	if task == nil {
		return
	}
	fmt.Fprintf(out, "Task %d is %s\n", task.ID, formatStatusLabel(task.Status))
}
