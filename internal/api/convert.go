package api

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"vitrine/internal/maintenance"
	"vitrine/internal/status"
)

const dateOnlyFormat = "2006-01-02"

// FromTask converts a stored task to its API representation. name is the
// resolved artifact display name.
func FromTask(task *maintenance.Task, name string) Task {
	if task == nil {
		return Task{}
	}
	dto := Task{
		ID:           task.ID,
		ArtifactID:   task.ArtifactID,
		ArtifactName: name,
		AssigneeID:   task.AssigneeID,
		Type:         string(task.Type),
		Description:  task.Description,
		Status:       string(task.Status),
		Notes:        maintenance.NoteLines(task.Notes),
	}
	dto.ScheduledStart = formatTimePtr(task.ScheduledStart)
	dto.CompletedAt = formatTimePtr(task.CompletedAt)
	if !task.CreatedAt.IsZero() {
		dto.CreatedAt = task.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !task.UpdatedAt.IsZero() {
		dto.UpdatedAt = task.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromSummary converts a board summary row.
func FromSummary(summary status.Summary) BoardRow {
	return BoardRow{
		ArtifactID:      summary.ArtifactID,
		ArtifactName:    summary.ArtifactName,
		Request:         summary.Request,
		DisplayStatus:   summary.DisplayStatus,
		Deadline:        formatTimePtr(summary.Deadline),
		LastMaintenance: formatTimePtr(summary.LastMaintenance),
		TaskID:          summary.TaskID,
	}
}

// FromSummaries converts a board in order.
func FromSummaries(summaries []status.Summary) []BoardRow {
	rows := make([]BoardRow, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, FromSummary(summary))
	}
	return rows
}

// FromStatusCounts keys counts by status name.
func FromStatusCounts(counts map[maintenance.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for _, st := range maintenance.AllStatuses() {
		out[string(st)] = counts[st]
	}
	return out
}

// ParseDeadline accepts an RFC3339 timestamp or a bare date, which is read
// as midnight UTC.
func ParseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(dateOnlyFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected RFC3339 or YYYY-MM-DD", value)
	}
	return ts.UTC(), nil
}

// ParseFilter reads list filters from query parameters: status, assignee,
// artifact, from, and to.
func ParseFilter(query url.Values) (maintenance.Filter, error) {
	var filter maintenance.Filter
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		st, ok := maintenance.ParseStatus(raw)
		if !ok {
			return filter, maintenance.Validation("list", fmt.Sprintf("unknown status %q", raw))
		}
		filter.Status = &st
	}
	filter.AssigneeID = strings.TrimSpace(query.Get("assignee"))
	filter.ArtifactID = strings.TrimSpace(query.Get("artifact"))
	for key, target := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		ts, err := ParseDeadline(query.Get(key))
		if err != nil {
			return filter, maintenance.Validation("list", key+": "+err.Error())
		}
		if !ts.IsZero() {
			*target = &ts
		}
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, maintenance.Validation("list", "from must be before to")
	}
	return filter, nil
}

// FilterQuery is the inverse of ParseFilter.
func FilterQuery(filter maintenance.Filter) url.Values {
	query := url.Values{}
	if filter.Status != nil {
		query.Set("status", string(*filter.Status))
	}
	if filter.AssigneeID != "" {
		query.Set("assignee", filter.AssigneeID)
	}
	if filter.ArtifactID != "" {
		query.Set("artifact", filter.ArtifactID)
	}
	if filter.From != nil {
		query.Set("from", filter.From.UTC().Format(time.RFC3339))
	}
	if filter.To != nil {
		query.Set("to", filter.To.UTC().Format(time.RFC3339))
	}
	return query
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateTimeFormat)
}
