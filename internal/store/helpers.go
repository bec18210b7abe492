package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vitrine/internal/maintenance"
)

// timeLayout is fixed-width UTC so lexical comparison in SQL matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const taskColumns = "id, artifact_id, assignee_id, task_type, description, scheduled_start, completed_at, status, notes, created_at, updated_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*maintenance.Task, error) {
	var (
		id           int64
		artifactID   string
		assigneeID   sql.NullString
		taskType     string
		description  sql.NullString
		scheduledRaw sql.NullString
		completedRaw sql.NullString
		statusCode   string
		notes        sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&artifactID,
		&assigneeID,
		&taskType,
		&description,
		&scheduledRaw,
		&completedRaw,
		&statusCode,
		&notes,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	status, ok := maintenance.ParseStatusCode(statusCode)
	if !ok {
		return nil, fmt.Errorf("task %d: unknown status code %q", id, statusCode)
	}

	task := &maintenance.Task{
		ID:          id,
		ArtifactID:  artifactID,
		AssigneeID:  assigneeID.String,
		Type:        maintenance.TaskType(taskType),
		Description: description.String,
		Status:      status,
		Notes:       notes.String,
	}
	var err error
	if task.ScheduledStart, err = scanTimestamp(id, "scheduled_start", scheduledRaw); err != nil {
		return nil, err
	}
	if task.CompletedAt, err = scanTimestamp(id, "completed_at", completedRaw); err != nil {
		return nil, err
	}
	if created, err := scanTimestamp(id, "created_at", createdRaw); err != nil {
		return nil, err
	} else if created != nil {
		task.CreatedAt = *created
	}
	if updated, err := scanTimestamp(id, "updated_at", updatedRaw); err != nil {
		return nil, err
	} else if updated != nil {
		task.UpdatedAt = *updated
	}
	return task, nil
}

// scanTimestamp parses an optional timestamp column. NULL yields nil; a value
// that does not parse is an error.
func scanTimestamp(id int64, column string, raw sql.NullString) (*time.Time, error) {
	if !raw.Valid {
		return nil, nil
	}
	ts, err := parseTimeString(raw.String)
	if err != nil {
		return nil, fmt.Errorf("task %d: bad %s %q: %w", id, column, raw.String, err)
	}
	return &ts, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if ts, err := time.Parse(timeLayout, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
