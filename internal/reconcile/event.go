package reconcile

import (
	"context"
	"time"

	"vitrine/internal/maintenance"
	"vitrine/internal/notifications"
)

// Origin tells observers where an event came from.
type Origin string

const (
	// OriginRebuild marks rows re-rendered by a reconcile cycle.
	OriginRebuild Origin = "rebuild"
	// OriginUser marks changes a person made.
	OriginUser Origin = "user"
)

// Event describes one observed change.
type Event struct {
	Origin     Origin
	Viewer     string
	Kind       notifications.Event
	TaskID     int64
	ArtifactID string
	Type       maintenance.TaskType
	From       maintenance.Status
	To         maintenance.Status
	// Value is the displayed value for rebuilt rows.
	Value    string
	Note     string
	Assignee string
	Deadline *time.Time
	At       time.Time
}

// Observer receives events. The suppressed flag is set for every event that
// must not surface to users.
type Observer interface {
	Observe(ctx context.Context, event Event, suppressed bool)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event Event, suppressed bool)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, event Event, suppressed bool) {
	f(ctx, event, suppressed)
}

// Observers fans an event out to each member in order.
type Observers []Observer

// Observe forwards the event to every non-nil observer.
func (o Observers) Observe(ctx context.Context, event Event, suppressed bool) {
	for _, observer := range o {
		if observer != nil {
			observer.Observe(ctx, event, suppressed)
		}
	}
}

// UserEvent builds a user-originated event for a task after a successful
// change. from is the status before the change.
func UserEvent(kind notifications.Event, task *maintenance.Task, from maintenance.Status, at time.Time) Event {
	event := Event{
		Origin: OriginUser,
		Kind:   kind,
		From:   from,
		At:     at,
	}
	if task == nil {
		return event
	}
	event.TaskID = task.ID
	event.ArtifactID = task.ArtifactID
	event.Type = task.Type
	event.To = task.Status
	event.Assignee = task.AssigneeID
	if task.ScheduledStart != nil {
		ts := *task.ScheduledStart
		event.Deadline = &ts
	}
	return event
}

// KindForStatus picks the notification event for a status transition.
func KindForStatus(to maintenance.Status) notifications.Event {
	switch to {
	case maintenance.StatusInProgress:
		return notifications.EventTaskStarted
	case maintenance.StatusCompleted:
		return notifications.EventTaskCompleted
	case maintenance.StatusCancelled:
		return notifications.EventTaskCancelled
	default:
		return notifications.EventStatusChanged
	}
}
