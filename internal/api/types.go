package api

import "vitrine/internal/reconcile"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task describes a maintenance task in a transport-friendly format.
type Task struct {
	ID             int64    `json:"id"`
	ArtifactID     string   `json:"artifactId"`
	ArtifactName   string   `json:"artifactName"`
	AssigneeID     string   `json:"assigneeId,omitempty"`
	Type           string   `json:"type"`
	Description    string   `json:"description,omitempty"`
	Status         string   `json:"status"`
	ScheduledStart string   `json:"scheduledStart,omitempty"`
	CompletedAt    string   `json:"completedAt,omitempty"`
	Notes          []string `json:"notes,omitempty"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

// BoardRow is one artifact on the curator board.
type BoardRow struct {
	ArtifactID      string `json:"artifactId"`
	ArtifactName    string `json:"artifactName"`
	Request         string `json:"request"`
	DisplayStatus   string `json:"displayStatus"`
	Deadline        string `json:"deadline,omitempty"`
	LastMaintenance string `json:"lastMaintenance,omitempty"`
	TaskID          int64  `json:"taskId,omitempty"`
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	ArtifactID  string `json:"artifactId"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	// Deadline accepts RFC3339 or YYYY-MM-DD.
	Deadline string `json:"deadline"`
}

// CompleteRequest is the body of POST /api/tasks/{id}/complete.
type CompleteRequest struct {
	Notes string `json:"notes,omitempty"`
}

// CancelRequest is the body of POST /api/tasks/{id}/cancel.
type CancelRequest struct {
	Note string `json:"note,omitempty"`
}

// NoteRequest is the body of POST /api/tasks/{id}/notes.
type NoteRequest struct {
	Text string `json:"text"`
}

// StatusRequest is the body of PUT /api/tasks/{id}/status and of the
// worklist and board select routes.
type StatusRequest struct {
	Status string `json:"status"`
}

// AssigneeRequest is the body of PUT /api/tasks/{id}/assignee.
type AssigneeRequest struct {
	Assignee string `json:"assignee"`
}

// TaskResponse wraps a single task. Deleted is set when a legacy cancellation
// removed the task.
type TaskResponse struct {
	Task    *Task `json:"task,omitempty"`
	Deleted bool  `json:"deleted,omitempty"`
}

// TaskListResponse wraps a collection of tasks.
type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
}

// StatsResponse provides task counts.
type StatsResponse struct {
	ByStatus   map[string]int `json:"byStatus"`
	ByAssignee map[string]int `json:"byAssignee"`
}

// BoardResponse is the curator view snapshot.
type BoardResponse struct {
	Rows   []BoardRow             `json:"rows"`
	Poller reconcile.PollerStatus `json:"poller"`
}

// WorklistResponse is the cleaner view snapshot.
type WorklistResponse struct {
	Tasks  []Task                 `json:"tasks"`
	Poller reconcile.PollerStatus `json:"poller"`
}

// SelectResponse reports the outcome of a selector change.
type SelectResponse struct {
	Result string `json:"result"`
	Task   *Task  `json:"task,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool                      `json:"running"`
	PID          int                       `json:"pid"`
	Driver       string                    `json:"driver"`
	DatabasePath string                    `json:"databasePath,omitempty"`
	LockFilePath string                    `json:"lockFilePath"`
	Scheduler    reconcile.SchedulerStatus `json:"scheduler"`
}

// ErrorResponse is returned for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
