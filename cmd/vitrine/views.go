package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"vitrine/internal/api"
	"vitrine/internal/maintenance"
)

var (
	taskHeaders  = []string{"ID", "Artifact", "Type", "Status", "Deadline", "Assignee"}
	taskAligns   = []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
	boardHeaders = []string{"Artifact", "Name", "Request", "Status", "Deadline", "Last Maintenance"}
)

// formatStatusLabel renders IN_PROGRESS as "In Progress".
func formatStatusLabel(status string) string {
	return maintenance.Label(status)
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func formatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	return value
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func buildTaskRows(tasks []api.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			fmt.Sprintf("%d", task.ID),
			fmt.Sprintf("%s (%s)", task.ArtifactName, task.ArtifactID),
			formatStatusLabel(task.Type),
			formatStatusLabel(task.Status),
			formatDate(task.ScheduledStart),
			dashIfEmpty(task.AssigneeID),
		})
	}
	return rows
}

func buildBoardRows(rows []api.BoardRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			row.ArtifactID,
			row.ArtifactName,
			row.Request,
			row.DisplayStatus,
			formatDate(row.Deadline),
			formatDate(row.LastMaintenance),
		})
	}
	return out
}

// buildStatsRows lists every status in lifecycle order, then assignees
// alphabetically.
func buildStatsRows(stats api.StatsResponse) [][]string {
	rows := make([][]string, 0, len(stats.ByStatus)+len(stats.ByAssignee))
	for _, st := range maintenance.AllStatuses() {
		rows = append(rows, []string{"status", formatStatusLabel(string(st)), fmt.Sprintf("%d", stats.ByStatus[string(st)])})
	}
	assignees := make([]string, 0, len(stats.ByAssignee))
	for name := range stats.ByAssignee {
		assignees = append(assignees, name)
	}
	sort.Strings(assignees)
	for _, name := range assignees {
		rows = append(rows, []string{"assignee", name, fmt.Sprintf("%d", stats.ByAssignee[name])})
	}
	return rows
}

func describeTask(task api.Task) []string {
	lines := []string{
		fmt.Sprintf("Task %d", task.ID),
		fmt.Sprintf("  Artifact:    %s (%s)", task.ArtifactName, task.ArtifactID),
		fmt.Sprintf("  Type:        %s", formatStatusLabel(task.Type)),
		fmt.Sprintf("  Status:      %s", formatStatusLabel(task.Status)),
		fmt.Sprintf("  Deadline:    %s", formatDate(task.ScheduledStart)),
		fmt.Sprintf("  Completed:   %s", formatDate(task.CompletedAt)),
		fmt.Sprintf("  Assignee:    %s", dashIfEmpty(task.AssigneeID)),
	}
	if task.Description != "" {
		lines = append(lines, fmt.Sprintf("  Description: %s", task.Description))
	}
	if task.UpdatedAt != "" {
		lines = append(lines, fmt.Sprintf("  Updated:     %s", formatDisplayTime(task.UpdatedAt)))
	}
	if len(task.Notes) > 0 {
		lines = append(lines, "  Notes:")
		for _, note := range task.Notes {
			lines = append(lines, "    - "+note)
		}
	}
	return lines
}
