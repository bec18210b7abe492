package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vitrine/internal/catalog"
	"vitrine/internal/logging"
	"vitrine/internal/maintenance"
	"vitrine/internal/services"
)

// AssignedMarker prefixes the note line recorded when a worker is assigned.
const AssignedMarker = "ASSIGNED"

// Store persists maintenance tasks.
type Store interface {
	Insert(ctx context.Context, task *maintenance.Task) (*maintenance.Task, error)
	Get(ctx context.Context, id int64) (*maintenance.Task, error)
	Update(ctx context.Context, task *maintenance.Task) error
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter maintenance.Filter) ([]maintenance.Task, error)
	CountByStatus(ctx context.Context) (map[maintenance.Status]int, error)
	CountByAssignee(ctx context.Context) (map[string]int, error)
}

// Request describes a new maintenance request.
type Request struct {
	ArtifactID  string
	Type        maintenance.TaskType
	Description string
	Deadline    time.Time
}

// Engine applies lifecycle operations to stored tasks.
type Engine struct {
	store        Store
	catalog      catalog.Reader
	logger       *slog.Logger
	now          func() time.Time
	cancellation CancellationMode
	completion   CompletionDatePolicy
}

// New constructs an Engine. Defaults are the state cancellation mode and the
// deadline completion-date policy.
func New(store Store, cat catalog.Reader, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		catalog:      cat,
		logger:       logging.NewComponentLogger(logger, "lifecycle"),
		now:          time.Now,
		cancellation: CancellationState,
		completion:   CompletionDateDeadline,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CancellationMode reports the configured cancellation behaviour.
func (e *Engine) CancellationMode() CancellationMode { return e.cancellation }

// CompletionDatePolicy reports the configured completion-date policy.
func (e *Engine) CompletionDatePolicy() CompletionDatePolicy { return e.completion }

// CreateRequest records a new SCHEDULED task whose scheduled start is the
// requested deadline.
func (e *Engine) CreateRequest(ctx context.Context, req Request) (*maintenance.Task, error) {
	const op = "create request"

	artifactID := strings.TrimSpace(req.ArtifactID)
	if artifactID == "" {
		return nil, maintenance.Validation(op, "artifact id is required")
	}
	taskType, ok := maintenance.ParseTaskType(string(req.Type))
	if !ok {
		return nil, maintenance.Validation(op, fmt.Sprintf("unknown task type %q", req.Type))
	}
	if req.Deadline.IsZero() {
		return nil, maintenance.Validation(op, "deadline is required")
	}

	exists, err := e.catalog.Exists(ctx, artifactID)
	if err != nil {
		return nil, maintenance.Storage(op, fmt.Errorf("artifact lookup: %w", err))
	}
	if !exists {
		return nil, maintenance.ArtifactNotFound(op, artifactID)
	}

	deadline := req.Deadline.UTC()
	task, err := e.store.Insert(ctx, &maintenance.Task{
		ArtifactID:     artifactID,
		Type:           taskType,
		Description:    strings.TrimSpace(req.Description),
		ScheduledStart: &deadline,
		Status:         maintenance.StatusScheduled,
	})
	if err != nil {
		return nil, err
	}

	e.log(ctx, task.ID).Info("maintenance requested",
		logging.String(logging.FieldEventType, "task_requested"),
		logging.String(logging.FieldArtifactID, artifactID),
		logging.String("task_type", string(taskType)),
		logging.Time("deadline", deadline),
	)
	return task, nil
}

// Start moves a SCHEDULED task to IN_PROGRESS. The scheduled start is kept.
func (e *Engine) Start(ctx context.Context, id int64) (*maintenance.Task, error) {
	const op = "start"
	task, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := maintenance.CheckTransition(op, task, maintenance.StatusInProgress); err != nil {
		return nil, err
	}
	from := task.Status
	task.Status = maintenance.StatusInProgress
	if err := e.store.Update(ctx, task); err != nil {
		return nil, err
	}
	e.logTransition(ctx, task, from, "task_started")
	return task, nil
}

// Complete marks a SCHEDULED or IN_PROGRESS task COMPLETED and appends notes.
func (e *Engine) Complete(ctx context.Context, id int64, notes string) (*maintenance.Task, error) {
	const op = "complete"
	task, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := maintenance.CheckTransition(op, task, maintenance.StatusCompleted); err != nil {
		return nil, err
	}
	from := task.Status
	e.markCompleted(task)
	if strings.TrimSpace(notes) != "" {
		task.Notes = maintenance.AppendNote(task.Notes, notes)
	}
	if err := e.store.Update(ctx, task); err != nil {
		return nil, err
	}
	e.logTransition(ctx, task, from, "task_completed")
	return task, nil
}

// CancelPending cancels a task that has not started. Under the legacy
// cancellation mode the row is deleted and the returned task is nil.
func (e *Engine) CancelPending(ctx context.Context, id int64) (*maintenance.Task, error) {
	const op = "cancel pending"
	task, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if task.Status != maintenance.StatusScheduled {
		return nil, maintenance.InvalidState(op, id, task.Status, maintenance.StatusCancelled)
	}

	if e.cancellation == CancellationLegacy {
		if _, err := e.store.Delete(ctx, id); err != nil {
			return nil, err
		}
		e.log(ctx, id).Info("maintenance request withdrawn",
			logging.String(logging.FieldEventType, "task_deleted"),
			logging.String(logging.FieldArtifactID, task.ArtifactID),
		)
		return nil, nil
	}

	from := task.Status
	task.Status = maintenance.StatusCancelled
	task.Notes = maintenance.AppendNote(task.Notes, maintenance.CancelNote(""))
	if err := e.store.Update(ctx, task); err != nil {
		return nil, err
	}
	e.logTransition(ctx, task, from, "task_cancelled")
	return task, nil
}

// CancelWithNote cancels a non-terminal task and records the reason.
func (e *Engine) CancelWithNote(ctx context.Context, id int64, note string) (*maintenance.Task, error) {
	const op = "cancel"
	task, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, maintenance.InvalidState(op, id, task.Status, maintenance.StatusCancelled)
	}

	from := task.Status
	if e.cancellation == CancellationLegacy {
		now := e.now().UTC()
		task.Status = maintenance.StatusCompleted
		task.CompletedAt = &now
	} else {
		task.Status = maintenance.StatusCancelled
		task.CompletedAt = nil
	}
	task.Notes = maintenance.AppendNote(task.Notes, maintenance.CancelNote(note))
	if err := e.store.Update(ctx, task); err != nil {
		return nil, err
	}
	e.logTransition(ctx, task, from, "task_cancelled")
	return task, nil
}

// AppendNote adds a line to the task's notes without changing its status.
func (e *Engine) AppendNote(ctx context.Context, id int64, text string) (*maintenance.Task, error) {
	const op = "append note"
	if strings.TrimSpace(text) == "" {
		return nil, maintenance.Validation(op, "note text is required")
	}
	task, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	task.Notes = maintenance.AppendNote(task.Notes, text)
	if err := e.store.Update(ctx, task); err != nil {
		return nil, err
	}
	e.log(ctx, id).Debug("note appended", logging.String(logging.FieldEventType, "note_added"))
	return task, nil
}

// SetStatus applies a status selected by name or storage code. Selecting the
// current status is a no-op.
func (e *Engine) SetStatus(ctx context.Context, id int64, raw string) (*maintenance.Task, error) {
	const op = "set status"
	target, ok := maintenance.ParseStatus(raw)
	if !ok {
		return nil, maintenance.Validation(op, fmt.Sprintf("unknown status %q", raw))
	}
	if target == maintenance.StatusCancelled && e.cancellation == CancellationLegacy {
		return nil, maintenance.Validation(op, "CANCELLED is not available in legacy cancellation mode")
	}

	task, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if task.Status == target {
		return task, nil
	}
	if err := maintenance.CheckTransition(op, task, target); err != nil {
		return nil, err
	}

	from := task.Status
	switch target {
	case maintenance.StatusCompleted:
		e.markCompleted(task)
	case maintenance.StatusCancelled:
		task.Status = target
		task.CompletedAt = nil
		task.Notes = maintenance.AppendNote(task.Notes, maintenance.CancelNote(""))
	default:
		task.Status = target
	}
	if err := e.store.Update(ctx, task); err != nil {
		return nil, err
	}
	e.logTransition(ctx, task, from, "status_changed")
	return task, nil
}

// Assign sets or changes the worker responsible for a non-terminal task.
func (e *Engine) Assign(ctx context.Context, id int64, assigneeID string) (*maintenance.Task, error) {
	const op = "assign"
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, maintenance.Validation(op, "assignee id is required")
	}
	task, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, &maintenance.Error{
			Kind:   maintenance.KindInvalidState,
			Op:     op,
			TaskID: id,
			Msg:    fmt.Sprintf("cannot assign a %s task", task.Status),
		}
	}
	if task.AssigneeID == assigneeID {
		return task, nil
	}
	task.AssigneeID = assigneeID
	task.Notes = maintenance.AppendNote(task.Notes, AssignedMarker+": "+assigneeID)
	if err := e.store.Update(ctx, task); err != nil {
		return nil, err
	}
	e.log(ctx, id).Info("task assigned",
		logging.String(logging.FieldEventType, "task_assigned"),
		logging.String("assignee_id", assigneeID),
	)
	return task, nil
}

// Get returns a task or a NotFound error.
func (e *Engine) Get(ctx context.Context, id int64) (*maintenance.Task, error) {
	return e.load(ctx, "get", id)
}

// List returns tasks matching filter, newest scheduled start first.
func (e *Engine) List(ctx context.Context, filter maintenance.Filter) ([]maintenance.Task, error) {
	return e.store.List(ctx, filter)
}

// ListAll returns every task.
func (e *Engine) ListAll(ctx context.Context) ([]maintenance.Task, error) {
	return e.store.List(ctx, maintenance.Filter{})
}

// ListByStatus returns tasks currently in status.
func (e *Engine) ListByStatus(ctx context.Context, status maintenance.Status) ([]maintenance.Task, error) {
	return e.store.List(ctx, maintenance.Filter{Status: &status})
}

// ListByAssignee returns tasks assigned to assigneeID.
func (e *Engine) ListByAssignee(ctx context.Context, assigneeID string) ([]maintenance.Task, error) {
	return e.store.List(ctx, maintenance.Filter{AssigneeID: assigneeID})
}

// ListByArtifact returns every task recorded against artifactID.
func (e *Engine) ListByArtifact(ctx context.Context, artifactID string) ([]maintenance.Task, error) {
	return e.store.List(ctx, maintenance.Filter{ArtifactID: artifactID})
}

// ListByDateRange returns tasks whose scheduled start is in [from, to).
func (e *Engine) ListByDateRange(ctx context.Context, from, to time.Time) ([]maintenance.Task, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, maintenance.Validation("list by date range", "from must be before to")
	}
	var filter maintenance.Filter
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		filter.To = &to
	}
	return e.store.List(ctx, filter)
}

// CountByStatus returns task counts for every status.
func (e *Engine) CountByStatus(ctx context.Context) (map[maintenance.Status]int, error) {
	return e.store.CountByStatus(ctx)
}

// CountByAssignee returns task counts keyed by assignee.
func (e *Engine) CountByAssignee(ctx context.Context) (map[string]int, error) {
	return e.store.CountByAssignee(ctx)
}

func (e *Engine) load(ctx context.Context, op string, id int64) (*maintenance.Task, error) {
	if id <= 0 {
		return nil, maintenance.Validation(op, fmt.Sprintf("invalid task id %d", id))
	}
	task, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, maintenance.NotFound(op, id)
	}
	return task, nil
}

// markCompleted sets COMPLETED and the completion date per policy. Under the
// deadline policy the scheduled start is recorded, falling back to now.
func (e *Engine) markCompleted(task *maintenance.Task) {
	var completedAt time.Time
	if e.completion == CompletionDateDeadline && task.ScheduledStart != nil {
		completedAt = *task.ScheduledStart
	} else {
		completedAt = e.now().UTC()
	}
	task.Status = maintenance.StatusCompleted
	task.CompletedAt = &completedAt
}

func (e *Engine) log(ctx context.Context, id int64) *slog.Logger {
	return logging.WithContext(services.WithTaskID(ctx, id), e.logger)
}

func (e *Engine) logTransition(ctx context.Context, task *maintenance.Task, from maintenance.Status, eventType string) {
	e.log(ctx, task.ID).Info("task status changed",
		logging.String(logging.FieldEventType, eventType),
		logging.String(logging.FieldArtifactID, task.ArtifactID),
		logging.String("from", string(from)),
		logging.String("to", string(task.Status)),
	)
}
