package api

import (
	"context"
	"time"

	"vitrine/internal/catalog"
	"vitrine/internal/lifecycle"
	"vitrine/internal/maintenance"
	"vitrine/internal/notifications"
	"vitrine/internal/reconcile"
)

// Lifecycle is the command and query surface TaskService drives.
type Lifecycle interface {
	CreateRequest(ctx context.Context, req lifecycle.Request) (*maintenance.Task, error)
	Start(ctx context.Context, id int64) (*maintenance.Task, error)
	Complete(ctx context.Context, id int64, notes string) (*maintenance.Task, error)
	CancelPending(ctx context.Context, id int64) (*maintenance.Task, error)
	CancelWithNote(ctx context.Context, id int64, note string) (*maintenance.Task, error)
	AppendNote(ctx context.Context, id int64, text string) (*maintenance.Task, error)
	SetStatus(ctx context.Context, id int64, raw string) (*maintenance.Task, error)
	Assign(ctx context.Context, id int64, assigneeID string) (*maintenance.Task, error)
	Get(ctx context.Context, id int64) (*maintenance.Task, error)
	List(ctx context.Context, filter maintenance.Filter) ([]maintenance.Task, error)
	CountByStatus(ctx context.Context) (map[maintenance.Status]int, error)
	CountByAssignee(ctx context.Context) (map[string]int, error)
}

// TaskService exposes lifecycle operations returning API DTOs. Every
// successful change is reported to the observer as a user event.
type TaskService struct {
	engine   Lifecycle
	catalog  catalog.Reader
	observer reconcile.Observer
	now      func() time.Time
}

// NewTaskService constructs a TaskService. observer may be nil.
func NewTaskService(engine Lifecycle, cat catalog.Reader, observer reconcile.Observer) *TaskService {
	if engine == nil {
		return nil
	}
	return &TaskService{engine: engine, catalog: cat, observer: observer, now: time.Now}
}

// Create records a new maintenance request.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	deadline, err := ParseDeadline(req.Deadline)
	if err != nil {
		return nil, maintenance.Validation("create request", err.Error())
	}
	task, err := s.engine.CreateRequest(ctx, lifecycle.Request{
		ArtifactID:  req.ArtifactID,
		Type:        maintenance.TaskType(req.Type),
		Description: req.Description,
		Deadline:    deadline,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventTaskRequested, task, "", "")
	return s.dto(ctx, task), nil
}

// Start moves a task to IN_PROGRESS.
func (s *TaskService) Start(ctx context.Context, id int64) (*Task, error) {
	task, err := s.engine.Start(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventTaskStarted, task, maintenance.StatusScheduled, "")
	return s.dto(ctx, task), nil
}

// Complete marks a task COMPLETED.
func (s *TaskService) Complete(ctx context.Context, id int64, notes string) (*Task, error) {
	before, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	task, err := s.engine.Complete(ctx, id, notes)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventTaskCompleted, task, before.Status, notes)
	return s.dto(ctx, task), nil
}

// Cancel withdraws a task. An empty note cancels a task that has not started;
// otherwise the note is recorded as the reason. A nil task with no error means
// the task was deleted.
func (s *TaskService) Cancel(ctx context.Context, id int64, note string) (*Task, error) {
	before, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var task *maintenance.Task
	if note == "" {
		task, err = s.engine.CancelPending(ctx, id)
	} else {
		task, err = s.engine.CancelWithNote(ctx, id, note)
	}
	if err != nil {
		return nil, err
	}
	if task == nil {
		s.publish(ctx, notifications.EventTaskCancelled, before, before.Status, note)
		return nil, nil
	}
	s.publish(ctx, notifications.EventTaskCancelled, task, before.Status, note)
	return s.dto(ctx, task), nil
}

// AddNote appends a note line.
func (s *TaskService) AddNote(ctx context.Context, id int64, text string) (*Task, error) {
	task, err := s.engine.AppendNote(ctx, id, text)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventNoteAdded, task, task.Status, text)
	return s.dto(ctx, task), nil
}

// SetStatus applies a status by name or storage code.
func (s *TaskService) SetStatus(ctx context.Context, id int64, raw string) (*Task, error) {
	before, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	task, err := s.engine.SetStatus(ctx, id, raw)
	if err != nil {
		return nil, err
	}
	if task.Status != before.Status {
		s.publish(ctx, reconcile.KindForStatus(task.Status), task, before.Status, "")
	}
	return s.dto(ctx, task), nil
}

// Assign sets the responsible worker.
func (s *TaskService) Assign(ctx context.Context, id int64, assignee string) (*Task, error) {
	before, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	task, err := s.engine.Assign(ctx, id, assignee)
	if err != nil {
		return nil, err
	}
	if task.AssigneeID != before.AssigneeID {
		s.publish(ctx, notifications.EventTaskAssigned, task, task.Status, "")
	}
	return s.dto(ctx, task), nil
}

// Describe fetches a single task.
func (s *TaskService) Describe(ctx context.Context, id int64) (*Task, error) {
	task, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.dto(ctx, task), nil
}

// List returns tasks matching filter.
func (s *TaskService) List(ctx context.Context, filter maintenance.Filter) ([]Task, error) {
	tasks, err := s.engine.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.dtos(ctx, tasks), nil
}

// Stats returns counts by status and assignee.
func (s *TaskService) Stats(ctx context.Context) (StatsResponse, error) {
	byStatus, err := s.engine.CountByStatus(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	byAssignee, err := s.engine.CountByAssignee(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	return StatsResponse{ByStatus: FromStatusCounts(byStatus), ByAssignee: byAssignee}, nil
}

// Convert renders tasks already loaded elsewhere, resolving artifact names.
func (s *TaskService) Convert(ctx context.Context, tasks []maintenance.Task) []Task {
	return s.dtos(ctx, tasks)
}

func (s *TaskService) dto(ctx context.Context, task *maintenance.Task) *Task {
	dto := FromTask(task, catalog.DisplayName(ctx, s.catalog, task.ArtifactID))
	return &dto
}

func (s *TaskService) dtos(ctx context.Context, tasks []maintenance.Task) []Task {
	names := make(map[string]string)
	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		id := tasks[i].ArtifactID
		name, ok := names[id]
		if !ok {
			name = catalog.DisplayName(ctx, s.catalog, id)
			names[id] = name
		}
		out = append(out, FromTask(&tasks[i], name))
	}
	return out
}

func (s *TaskService) publish(ctx context.Context, kind notifications.Event, task *maintenance.Task, from maintenance.Status, note string) {
	if s.observer == nil {
		return
	}
	event := reconcile.UserEvent(kind, task, from, s.now())
	event.Note = note
	s.observer.Observe(ctx, event, false)
}
