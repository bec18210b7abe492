// Package status derives the curator-facing maintenance summary of an
// artifact from its full task history.
package status

import (
	"time"

	"vitrine/internal/catalog"
	"vitrine/internal/maintenance"
)

// Request labels.
const (
	NoRequest  = "No Request"
	HasRequest = "Request"
)

// Display status labels.
const (
	DisplayNoRequest  = "No Request"
	DisplayNotStarted = "Not Started"
	DisplayInProgress = "In Progress"
)

// Summary is one row of the curator board.
type Summary struct {
	ArtifactID      string     `json:"artifact_id"`
	ArtifactName    string     `json:"artifact_name"`
	Request         string     `json:"request"`
	DisplayStatus   string     `json:"display_status"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	LastMaintenance *time.Time `json:"last_maintenance,omitempty"`
	// TaskID is the latest task while a request is open, or zero.
	TaskID int64 `json:"task_id,omitempty"`
	// Status is the raw status of the open request, if any.
	Status maintenance.Status `json:"status,omitempty"`
}

// HasOpenRequest reports whether the artifact currently has an active request.
func (s Summary) HasOpenRequest() bool {
	return s.Request == HasRequest
}

// Summarize computes the summary for one artifact. Tasks belonging to other
// artifacts are ignored.
//
// The latest task is the one with the greatest scheduled start, ties going to
// the most recently created (larger id). A terminal latest task means there
// is no active request. The last maintenance date is taken independently over
// every COMPLETED task.
func Summarize(artifact catalog.Artifact, tasks []maintenance.Task) Summary {
	summary := Summary{
		ArtifactID:    artifact.ID,
		ArtifactName:  artifact.Name,
		Request:       NoRequest,
		DisplayStatus: DisplayNoRequest,
	}

	var latest *maintenance.Task
	for i := range tasks {
		task := &tasks[i]
		if task.ArtifactID != artifact.ID {
			continue
		}
		if latest == nil || laterThan(task, latest) {
			latest = task
		}
		if task.Status == maintenance.StatusCompleted && task.CompletedAt != nil {
			if summary.LastMaintenance == nil || task.CompletedAt.After(*summary.LastMaintenance) {
				ts := *task.CompletedAt
				summary.LastMaintenance = &ts
			}
		}
	}

	if latest == nil || latest.Status.IsTerminal() {
		return summary
	}

	summary.Request = HasRequest
	summary.TaskID = latest.ID
	summary.Status = latest.Status
	switch latest.Status {
	case maintenance.StatusInProgress:
		summary.DisplayStatus = DisplayInProgress
	default:
		summary.DisplayStatus = DisplayNotStarted
	}
	if latest.ScheduledStart != nil {
		ts := *latest.ScheduledStart
		summary.Deadline = &ts
	}
	return summary
}

// SummarizeAll summarizes every artifact in order, grouping tasks by artifact.
func SummarizeAll(artifacts []catalog.Artifact, tasks []maintenance.Task) []Summary {
	byArtifact := make(map[string][]maintenance.Task, len(artifacts))
	for _, task := range tasks {
		byArtifact[task.ArtifactID] = append(byArtifact[task.ArtifactID], task)
	}
	summaries := make([]Summary, 0, len(artifacts))
	for _, artifact := range artifacts {
		summaries = append(summaries, Summarize(artifact, byArtifact[artifact.ID]))
	}
	return summaries
}

func laterThan(a, b *maintenance.Task) bool {
	as, bs := scheduledOrZero(a), scheduledOrZero(b)
	if as.Equal(bs) {
		return a.ID > b.ID
	}
	return as.After(bs)
}

func scheduledOrZero(task *maintenance.Task) time.Time {
	if task.ScheduledStart == nil {
		return time.Time{}
	}
	return *task.ScheduledStart
}
