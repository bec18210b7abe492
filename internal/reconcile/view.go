package reconcile

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vitrine/internal/catalog"
	"vitrine/internal/maintenance"
	"vitrine/internal/notifications"
	"vitrine/internal/status"
)

// Viewer names.
const (
	ViewerCurator = "curator"
	ViewerCleaner = "cleaner"
)

// View is a displayed task collection that is replaced wholesale on rebuild.
type View interface {
	Name() string
	// Rebuild replaces the displayed rows from tasks and calls emit once per
	// re-rendered row.
	Rebuild(ctx context.Context, tasks []maintenance.Task, emit func(Event)) error
	// Current reports the status currently displayed for a task.
	Current(taskID int64) (maintenance.Status, bool)
	Len() int
}

// CuratorView shows one summary row per artifact.
type CuratorView struct {
	catalog catalog.Reader

	mu   sync.RWMutex
	rows []status.Summary
}

// NewCuratorView builds an empty curator view.
func NewCuratorView(cat catalog.Reader) *CuratorView {
	return &CuratorView{catalog: cat}
}

func (v *CuratorView) Name() string { return ViewerCurator }

// Rebuild summarizes every catalog artifact. Artifacts that only appear in the
// task history are appended with placeholder names, and a catalog failure
// degrades to task-derived artifacts rather than failing the cycle.
func (v *CuratorView) Rebuild(ctx context.Context, tasks []maintenance.Task, emit func(Event)) error {
	var artifacts []catalog.Artifact
	if v.catalog != nil {
		if listed, err := v.catalog.List(ctx); err == nil {
			artifacts = listed
		}
	}
	known := make(map[string]int, len(artifacts))
	for i := range artifacts {
		known[artifacts[i].ID] = i
		if strings.TrimSpace(artifacts[i].Name) == "" {
			artifacts[i].Name = catalog.PlaceholderName(artifacts[i].ID)
		}
	}
	for _, task := range tasks {
		if _, ok := known[task.ArtifactID]; ok {
			continue
		}
		known[task.ArtifactID] = len(artifacts)
		artifacts = append(artifacts, catalog.Artifact{
			ID:   task.ArtifactID,
			Name: catalog.DisplayName(ctx, v.catalog, task.ArtifactID),
		})
	}

	rows := status.SummarizeAll(artifacts, tasks)

	v.mu.Lock()
	v.rows = rows
	v.mu.Unlock()

	if emit == nil {
		return nil
	}
	for _, row := range rows {
		emit(Event{
			Kind:       notifications.EventStatusChanged,
			TaskID:     row.TaskID,
			ArtifactID: row.ArtifactID,
			To:         row.Status,
			Value:      row.DisplayStatus,
			Deadline:   row.Deadline,
		})
	}
	return nil
}

// Current returns the status of the open request a row displays.
func (v *CuratorView) Current(taskID int64) (maintenance.Status, bool) {
	if taskID <= 0 {
		return "", false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, row := range v.rows {
		if row.TaskID == taskID {
			return row.Status, true
		}
	}
	return "", false
}

func (v *CuratorView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rows)
}

// Rows returns a copy of the displayed summaries.
func (v *CuratorView) Rows() []status.Summary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	rows := make([]status.Summary, len(v.rows))
	copy(rows, v.rows)
	return rows
}

// CleanerView shows actionable tasks ordered by deadline.
type CleanerView struct {
	assignee string

	mu   sync.RWMutex
	rows []maintenance.Task
}

// NewCleanerView builds a cleaner view. A non-empty assignee limits the view
// to tasks assigned to that worker.
func NewCleanerView(assignee string) *CleanerView {
	return &CleanerView{assignee: strings.TrimSpace(assignee)}
}

func (v *CleanerView) Name() string { return ViewerCleaner }

// Assignee reports the worker scope, if any.
func (v *CleanerView) Assignee() string { return v.assignee }

// Rebuild keeps SCHEDULED and IN_PROGRESS tasks only.
func (v *CleanerView) Rebuild(_ context.Context, tasks []maintenance.Task, emit func(Event)) error {
	rows := make([]maintenance.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status.IsTerminal() {
			continue
		}
		if v.assignee != "" && task.AssigneeID != v.assignee {
			continue
		}
		rows = append(rows, task.Clone())
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return deadlineBefore(rows[i], rows[j])
	})

	v.mu.Lock()
	v.rows = rows
	v.mu.Unlock()

	if emit == nil {
		return nil
	}
	for _, row := range rows {
		emit(Event{
			Kind:       notifications.EventStatusChanged,
			TaskID:     row.ID,
			ArtifactID: row.ArtifactID,
			Type:       row.Type,
			To:         row.Status,
			Value:      string(row.Status),
			Assignee:   row.AssigneeID,
			Deadline:   row.ScheduledStart,
		})
	}
	return nil
}

func (v *CleanerView) Current(taskID int64) (maintenance.Status, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, row := range v.rows {
		if row.ID == taskID {
			return row.Status, true
		}
	}
	return "", false
}

func (v *CleanerView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rows)
}

// Rows returns a copy of the displayed tasks.
func (v *CleanerView) Rows() []maintenance.Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	rows := make([]maintenance.Task, len(v.rows))
	for i, row := range v.rows {
		rows[i] = row.Clone()
	}
	return rows
}

// deadlineBefore orders by scheduled start ascending; tasks without one sort
// last and ties fall back to id.
func deadlineBefore(a, b maintenance.Task) bool {
	switch {
	case a.ScheduledStart == nil && b.ScheduledStart == nil:
		return a.ID < b.ID
	case a.ScheduledStart == nil:
		return false
	case b.ScheduledStart == nil:
		return true
	case a.ScheduledStart.Equal(*b.ScheduledStart):
		return a.ID < b.ID
	default:
		return a.ScheduledStart.Before(*b.ScheduledStart)
	}
}
