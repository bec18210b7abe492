package maintenance_test

import (
	"errors"
	"testing"

	"vitrine/internal/maintenance"
)

func TestCanTransitionTable(t *testing.T) {
	allowed := map[maintenance.Status][]maintenance.Status{
		maintenance.StatusScheduled:  {maintenance.StatusInProgress, maintenance.StatusCompleted, maintenance.StatusCancelled},
		maintenance.StatusInProgress: {maintenance.StatusCompleted, maintenance.StatusCancelled},
	}
	for _, from := range maintenance.AllStatuses() {
		permitted := make(map[maintenance.Status]bool)
		for _, to := range allowed[from] {
			permitted[to] = true
		}
		for _, to := range maintenance.AllStatuses() {
			if got := maintenance.CanTransition(from, to); got != permitted[to] {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, permitted[to])
			}
		}
	}
}

func TestCheckTransitionClassifiesErrors(t *testing.T) {
	task := &maintenance.Task{ID: 7, Status: maintenance.StatusCompleted}
	err := maintenance.CheckTransition("start", task, maintenance.StatusInProgress)
	if !errors.Is(err, maintenance.ErrInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
	err = maintenance.CheckTransition("set status", task, maintenance.Status("DONE"))
	if !errors.Is(err, maintenance.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
