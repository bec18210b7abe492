package maintenance

// CanTransition reports whether a task may move from one status to another.
// The switch is exhaustive over the closed status set; unknown statuses never
// transition.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusScheduled:
		switch to {
		case StatusInProgress, StatusCompleted, StatusCancelled:
			return true
		}
		return false
	case StatusInProgress:
		switch to {
		case StatusCompleted, StatusCancelled:
			return true
		}
		return false
	case StatusCompleted, StatusCancelled:
		return false
	default:
		return false
	}
}

// CheckTransition returns an InvalidState error when the transition is not
// permitted for the given task.
func CheckTransition(op string, task *Task, to Status) error {
	if !to.Valid() {
		return Validation(op, "unknown target status "+string(to))
	}
	if !CanTransition(task.Status, to) {
		return InvalidState(op, task.ID, task.Status, to)
	}
	return nil
}
