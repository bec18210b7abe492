package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitrine/internal/maintenance"
)

// Insert stores a new task and returns it with its assigned identifier.
func (s *Store) Insert(ctx context.Context, task *maintenance.Task) (*maintenance.Task, error) {
	if task == nil {
		return nil, maintenance.Validation("insert task", "task is nil")
	}
	now := time.Now().UTC()
	timestamp := formatTime(now)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO maintenance_tasks (
            artifact_id, assignee_id, task_type, description, scheduled_start,
            completed_at, status, notes, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ArtifactID,
		nullableString(task.AssigneeID),
		string(task.Type),
		nullableString(task.Description),
		nullableTime(task.ScheduledStart),
		nullableTime(task.CompletedAt),
		task.Status.Code(),
		task.Notes,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, maintenance.Storage("insert task", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, maintenance.Storage("insert task", fmt.Errorf("last insert id: %w", err))
	}

	stored, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, maintenance.Storage("insert task", fmt.Errorf("task %d vanished after insert", id))
	}
	return stored, nil
}

// Get fetches a task by identifier. It returns nil, nil when the task does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*maintenance.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM maintenance_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, maintenance.Storage("get task", err)
	}
	return task, nil
}

// Update persists every mutable field of an existing task.
func (s *Store) Update(ctx context.Context, task *maintenance.Task) error {
	if task == nil {
		return maintenance.Validation("update task", "task is nil")
	}
	task.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE maintenance_tasks
         SET artifact_id = ?, assignee_id = ?, task_type = ?, description = ?,
             scheduled_start = ?, completed_at = ?, status = ?, notes = ?, updated_at = ?
         WHERE id = ?`,
		task.ArtifactID,
		nullableString(task.AssigneeID),
		string(task.Type),
		nullableString(task.Description),
		nullableTime(task.ScheduledStart),
		nullableTime(task.CompletedAt),
		task.Status.Code(),
		task.Notes,
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return maintenance.Storage("update task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return maintenance.Storage("update task", err)
	}
	if affected == 0 {
		return maintenance.NotFound("update task", task.ID)
	}
	return nil
}

// Delete removes a task. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM maintenance_tasks WHERE id = ?`, id)
	if err != nil {
		return false, maintenance.Storage("delete task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, maintenance.Storage("delete task", err)
	}
	return affected > 0, nil
}

// List returns tasks matching filter, newest scheduled start first.
func (s *Store) List(ctx context.Context, filter maintenance.Filter) ([]maintenance.Task, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status.Code())
	}
	if filter.AssigneeID != "" {
		clauses = append(clauses, "assignee_id = ?")
		args = append(args, filter.AssigneeID)
	}
	if filter.ArtifactID != "" {
		clauses = append(clauses, "artifact_id = ?")
		args = append(args, filter.ArtifactID)
	}
	if filter.From != nil {
		clauses = append(clauses, "scheduled_start >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "scheduled_start < ?")
		args = append(args, formatTime(*filter.To))
	}

	query := `SELECT ` + taskColumns + ` FROM maintenance_tasks`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY scheduled_start DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, maintenance.Storage("list tasks", err)
	}
	defer rows.Close()

	var tasks []maintenance.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, maintenance.Storage("list tasks", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, maintenance.Storage("list tasks", err)
	}
	return tasks, nil
}

// CountByStatus returns the number of tasks in each status. Statuses with no
// tasks are present with a zero count.
func (s *Store) CountByStatus(ctx context.Context) (map[maintenance.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM maintenance_tasks GROUP BY status`)
	if err != nil {
		return nil, maintenance.Storage("count by status", err)
	}
	defer rows.Close()

	counts := make(map[maintenance.Status]int, len(maintenance.AllStatuses()))
	for _, status := range maintenance.AllStatuses() {
		counts[status] = 0
	}
	for rows.Next() {
		var (
			code  string
			count int
		)
		if err := rows.Scan(&code, &count); err != nil {
			return nil, maintenance.Storage("count by status", err)
		}
		status, ok := maintenance.ParseStatusCode(code)
		if !ok {
			return nil, maintenance.Storage("count by status", fmt.Errorf("unknown status code %q", code))
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, maintenance.Storage("count by status", err)
	}
	return counts, nil
}

// CountByAssignee returns task counts keyed by assignee. Unassigned tasks are
// counted under the empty string.
func (s *Store) CountByAssignee(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(assignee_id, ''), COUNT(*) FROM maintenance_tasks GROUP BY COALESCE(assignee_id, '')`)
	if err != nil {
		return nil, maintenance.Storage("count by assignee", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			assignee string
			count    int
		)
		if err := rows.Scan(&assignee, &count); err != nil {
			return nil, maintenance.Storage("count by assignee", err)
		}
		counts[assignee] = count
	}
	if err := rows.Err(); err != nil {
		return nil, maintenance.Storage("count by assignee", err)
	}
	return counts, nil
}
