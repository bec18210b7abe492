package reconcile

import (
	"errors"
	"sync"
)

// ErrReconcileInProgress is returned by Guard.Begin while a rebuild is running.
var ErrReconcileInProgress = errors.New("reconcile already in progress")

// Phase is the state of a Guard.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseReconciling Phase = "reconciling"
)

// Guard tracks whether a viewer is rebuilding its display.
type Guard struct {
	mu    sync.Mutex
	phase Phase
}

// Begin moves the guard from idle to reconciling.
func (g *Guard) Begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseReconciling {
		return ErrReconcileInProgress
	}
	g.phase = PhaseReconciling
	return nil
}

// End returns the guard to idle.
func (g *Guard) End() {
	g.mu.Lock()
	g.phase = PhaseIdle
	g.mu.Unlock()
}

// Phase reports the current phase.
func (g *Guard) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == "" {
		return PhaseIdle
	}
	return g.phase
}

// Reconciling is shorthand for Phase() == PhaseReconciling.
func (g *Guard) Reconciling() bool {
	return g.Phase() == PhaseReconciling
}
