package maintenance

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the lifecycle of a maintenance task.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Storage codes for each status. These match the values persisted by the
// system this service replaced and must not change.
const (
	codeScheduled  = "DIJADWALKAN"
	codeInProgress = "SEDANG_BERLANGSUNG"
	codeCompleted  = "SELESAI"
	codeCancelled  = "DIBATALKAN"
)

var allStatuses = []Status{
	StatusScheduled,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a caller-supplied value into a known Status. Both the
// enum names and the storage codes are accepted, case-insensitively.
func ParseStatus(value string) (Status, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if normalized == "" {
		return "", false
	}
	for _, status := range allStatuses {
		if string(status) == normalized {
			return status, true
		}
	}
	return ParseStatusCode(normalized)
}

// ParseStatusCode converts a persisted storage code into a Status.
func ParseStatusCode(code string) (Status, bool) {
	switch strings.TrimSpace(code) {
	case codeScheduled:
		return StatusScheduled, true
	case codeInProgress:
		return StatusInProgress, true
	case codeCompleted:
		return StatusCompleted, true
	case codeCancelled:
		return StatusCancelled, true
	default:
		return "", false
	}
}

// Code returns the stable storage encoding for the status.
func (s Status) Code() string {
	switch s {
	case StatusScheduled:
		return codeScheduled
	case StatusInProgress:
		return codeInProgress
	case StatusCompleted:
		return codeCompleted
	case StatusCancelled:
		return codeCancelled
	default:
		return ""
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Label renders the status for people, e.g. "In Progress".
func (s Status) Label() string {
	return Label(string(s))
}

// Label renders an enum value such as IN_PROGRESS or EMERGENCY as title-cased
// words. Empty input stays empty.
func Label(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(strings.ToLower(strings.ReplaceAll(value, "_", " ")))
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.Code() != ""
}

// TaskType classifies the kind of maintenance requested.
type TaskType string

const (
	TypeRoutine     TaskType = "ROUTINE"
	TypeEmergency   TaskType = "EMERGENCY"
	TypeRestoration TaskType = "RESTORATION"
)

var allTaskTypes = []TaskType{TypeRoutine, TypeEmergency, TypeRestoration}

// AllTaskTypes returns the ordered list of known task types.
func AllTaskTypes() []TaskType {
	cp := make([]TaskType, len(allTaskTypes))
	copy(cp, allTaskTypes)
	return cp
}

// ParseTaskType converts a string into a known TaskType.
func ParseTaskType(value string) (TaskType, bool) {
	normalized := TaskType(strings.ToUpper(strings.TrimSpace(value)))
	for _, t := range allTaskTypes {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}

// Task is a single maintenance activity on one artifact.
//
// ScheduledStart doubles as the deadline while the task has not started and is
// never reset afterwards, so ordering by it also orders by most recent request.
// CompletedAt is set if and only if Status is StatusCompleted.
type Task struct {
	ID             int64
	ArtifactID     string
	AssigneeID     string
	Type           TaskType
	Description    string
	ScheduledStart *time.Time
	CompletedAt    *time.Time
	Status         Status
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy so callers can mutate without aliasing timestamps.
func (t Task) Clone() Task {
	cp := t
	if t.ScheduledStart != nil {
		v := *t.ScheduledStart
		cp.ScheduledStart = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		cp.CompletedAt = &v
	}
	return cp
}

// IsAssigned reports whether a worker has been attached to the task.
func (t Task) IsAssigned() bool {
	return strings.TrimSpace(t.AssigneeID) != ""
}

// Deadline returns the scheduled start while the task is still actionable.
func (t Task) Deadline() (time.Time, bool) {
	if t.ScheduledStart == nil || t.Status.IsTerminal() {
		return time.Time{}, false
	}
	return *t.ScheduledStart, true
}
