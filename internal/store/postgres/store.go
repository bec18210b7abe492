// Package postgres is the PostgreSQL backend for maintenance tasks and the
// artifact catalog, used when store.driver is "postgres".
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vitrine/internal/maintenance"
)

const taskColumns = "id, artifact_id, assignee_id, task_type, description, scheduled_start, completed_at, status, notes, created_at, updated_at"

// Store is a PostgreSQL-backed maintenance task store.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Pool exposes the connection pool so the catalog can share it.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the tables if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS maintenance_tasks (
			id              BIGSERIAL PRIMARY KEY,
			artifact_id     TEXT NOT NULL,
			assignee_id     TEXT NOT NULL DEFAULT '',
			task_type       TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			scheduled_start TIMESTAMPTZ,
			completed_at    TIMESTAMPTZ,
			status          TEXT NOT NULL,
			notes           TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_artifact ON maintenance_tasks(artifact_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON maintenance_tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON maintenance_tasks(assignee_id) WHERE assignee_id != ''`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_scheduled_start ON maintenance_tasks(scheduled_start)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Insert stores a new task and returns it with its assigned identifier.
func (s *Store) Insert(ctx context.Context, task *maintenance.Task) (*maintenance.Task, error) {
	if task == nil {
		return nil, maintenance.Validation("insert task", "task is nil")
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	row := s.pool.QueryRow(ctx, `
		INSERT INTO maintenance_tasks (artifact_id, assignee_id, task_type, description, scheduled_start, completed_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+taskColumns,
		task.ArtifactID, task.AssigneeID, string(task.Type), task.Description,
		task.ScheduledStart, task.CompletedAt, task.Status.Code(), task.Notes, now)
	stored, err := scanTask(row)
	if err != nil {
		return nil, maintenance.Storage("insert task", err)
	}
	return stored, nil
}

// Get retrieves a task by ID. It returns nil, nil when the task does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*maintenance.Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM maintenance_tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
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
	task.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	tag, err := s.pool.Exec(ctx, `
		UPDATE maintenance_tasks
		SET artifact_id = $1, assignee_id = $2, task_type = $3, description = $4,
		    scheduled_start = $5, completed_at = $6, status = $7, notes = $8, updated_at = $9
		WHERE id = $10`,
		task.ArtifactID, task.AssigneeID, string(task.Type), task.Description,
		task.ScheduledStart, task.CompletedAt, task.Status.Code(), task.Notes, task.UpdatedAt, task.ID)
	if err != nil {
		return maintenance.Storage("update task", err)
	}
	if tag.RowsAffected() == 0 {
		return maintenance.NotFound("update task", task.ID)
	}
	return nil
}

// Delete removes a task. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM maintenance_tasks WHERE id = $1`, id)
	if err != nil {
		return false, maintenance.Storage("delete task", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns tasks matching filter, newest scheduled start first.
func (s *Store) List(ctx context.Context, filter maintenance.Filter) ([]maintenance.Task, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != nil {
		add("status = $%d", filter.Status.Code())
	}
	if filter.AssigneeID != "" {
		add("assignee_id = $%d", filter.AssigneeID)
	}
	if filter.ArtifactID != "" {
		add("artifact_id = $%d", filter.ArtifactID)
	}
	if filter.From != nil {
		add("scheduled_start >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("scheduled_start < $%d", *filter.To)
	}

	query := `SELECT ` + taskColumns + ` FROM maintenance_tasks`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY scheduled_start DESC NULLS LAST, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, maintenance.Storage("list tasks", err)
	}
	defer rows.Close()

	tasks, err := scanTaskRows(rows)
	if err != nil {
		return nil, maintenance.Storage("list tasks", err)
	}
	return tasks, nil
}

// CountByStatus returns the number of tasks in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[maintenance.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM maintenance_tasks GROUP BY status`)
	if err != nil {
		return nil, maintenance.Storage("count by status", err)
	}
	defer rows.Close()

	counts := make(map[maintenance.Status]int)
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

// CountByAssignee returns task counts keyed by assignee; unassigned tasks use "".
func (s *Store) CountByAssignee(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT assignee_id, COUNT(*) FROM maintenance_tasks GROUP BY assignee_id`)
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

func scanTask(row pgx.Row) (*maintenance.Task, error) {
	var (
		t          maintenance.Task
		taskType   string
		statusCode string
	)
	if err := row.Scan(&t.ID, &t.ArtifactID, &t.AssigneeID, &taskType, &t.Description,
		&t.ScheduledStart, &t.CompletedAt, &statusCode, &t.Notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	status, ok := maintenance.ParseStatusCode(statusCode)
	if !ok {
		return nil, fmt.Errorf("task %d: unknown status code %q", t.ID, statusCode)
	}
	t.Type = maintenance.TaskType(taskType)
	t.Status = status
	return &t, nil
}

func scanTaskRows(rows pgx.Rows) ([]maintenance.Task, error) {
	var tasks []maintenance.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}
