package maintenance

import "time"

// Filter narrows a task listing. Zero-valued fields do not constrain the
// result. From and To bound ScheduledStart in the half-open range [From, To).
type Filter struct {
	Status     *Status
	AssigneeID string
	ArtifactID string
	From       *time.Time
	To         *time.Time
}

// Matches reports whether task satisfies every constraint in f.
func (f Filter) Matches(task Task) bool {
	if f.Status != nil && task.Status != *f.Status {
		return false
	}
	if f.AssigneeID != "" && task.AssigneeID != f.AssigneeID {
		return false
	}
	if f.ArtifactID != "" && task.ArtifactID != f.ArtifactID {
		return false
	}
	if f.From != nil || f.To != nil {
		if task.ScheduledStart == nil {
			return false
		}
		if f.From != nil && task.ScheduledStart.Before(*f.From) {
			return false
		}
		if f.To != nil && !task.ScheduledStart.Before(*f.To) {
			return false
		}
	}
	return true
}
