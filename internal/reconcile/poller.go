package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vitrine/internal/logging"
	"vitrine/internal/maintenance"
	"vitrine/internal/services"
)

// Source supplies the full task list for a cycle.
type Source interface {
	ListAll(ctx context.Context) ([]maintenance.Task, error)
}

// Commander applies a status chosen in a viewer's selector.
type Commander interface {
	Get(ctx context.Context, id int64) (*maintenance.Task, error)
	SetStatus(ctx context.Context, id int64, raw string) (*maintenance.Task, error)
}

// SelectResult reports what Select did.
type SelectResult string

const (
	SelectSuppressed SelectResult = "suppressed"
	SelectUnchanged  SelectResult = "unchanged"
	SelectApplied    SelectResult = "applied"
)

// PollerStatus is a point-in-time view of a poller.
type PollerStatus struct {
	Viewer    string    `json:"viewer"`
	Phase     Phase     `json:"phase"`
	Interval  string    `json:"interval"`
	Cycles    int       `json:"cycles"`
	CycleID   string    `json:"cycle_id,omitempty"`
	LastCycle time.Time `json:"last_cycle,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Rows      int       `json:"rows"`
}

// Poller drives one viewer's reconcile loop.
type Poller struct {
	view      View
	source    Source
	commander Commander
	observer  Observers
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	guard     Guard

	mu        sync.Mutex
	cycles    int
	cycleID   string
	lastCycle time.Time
	lastErr   error
}

// NewPoller wires a view to its task source and command path.
func NewPoller(view View, source Source, commander Commander, interval time.Duration, logger *slog.Logger, observers ...Observer) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Poller{
		view:      view,
		source:    source,
		commander: commander,
		observer:  Observers(observers),
		interval:  interval,
		logger:    logging.NewComponentLogger(logger, "reconcile").With(logging.String(logging.FieldViewer, view.Name())),
		now:       time.Now,
	}
}

// Name reports the viewer name.
func (p *Poller) Name() string { return p.view.Name() }

// View returns the poller's view.
func (p *Poller) View() View { return p.view }

// Guard exposes the poller's reconcile guard.
func (p *Poller) Guard() *Guard { return &p.guard }

// Interval reports the time between cycles.
func (p *Poller) Interval() time.Duration { return p.interval }

// Cycle reloads every task and rebuilds the view. Rebuilt rows reach
// observers as suppressed events.
func (p *Poller) Cycle(ctx context.Context) error {
	if err := p.guard.Begin(); err != nil {
		return err
	}
	defer p.guard.End()

	cycleID := uuid.NewString()
	ctx = services.WithCycleID(services.WithViewer(ctx, p.view.Name()), cycleID)
	logger := logging.WithContext(ctx, p.logger)

	tasks, err := p.source.ListAll(ctx)
	if err == nil {
		err = p.view.Rebuild(ctx, tasks, func(event Event) {
			event.Origin = OriginRebuild
			event.Viewer = p.view.Name()
			if event.At.IsZero() {
				event.At = p.now()
			}
			p.observer.Observe(ctx, event, true)
		})
	}
	if err != nil {
		p.recordFailure(err)
		logging.WarnWithContext(logger, "reconcile cycle failed; keeping previous view", "reconcile_cycle_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database access"),
			logging.String(logging.FieldImpact, "view may be stale until the next cycle"),
		)
		return err
	}

	p.mu.Lock()
	p.cycles++
	p.cycleID = cycleID
	p.lastCycle = p.now()
	p.lastErr = nil
	p.mu.Unlock()

	logger.Debug("reconcile cycle complete",
		logging.String(logging.FieldEventType, "reconcile_cycle_complete"),
		logging.Int("tasks", len(tasks)),
		logging.Int("rows", p.view.Len()),
	)
	return nil
}

// Select handles a change reported by a status selector for taskID.
//
// During a rebuild the change is a re-render side effect and is dropped.
// A value equal to the displayed or the stored status is a no-op. Otherwise
// the new status is written through the Commander and a user event is
// published with the stored status as its origin.
func (p *Poller) Select(ctx context.Context, taskID int64, value string) (SelectResult, *maintenance.Task, error) {
	ctx = services.WithTaskID(services.WithViewer(ctx, p.view.Name()), taskID)
	logger := logging.WithContext(ctx, p.logger)

	target, ok := maintenance.ParseStatus(value)
	if p.guard.Reconciling() {
		logger.Debug("selector change suppressed during reconcile",
			logging.String(logging.FieldEventType, "selector_suppressed"),
			logging.String("value", value),
		)
		p.observer.Observe(ctx, Event{
			Origin: OriginRebuild,
			Viewer: p.view.Name(),
			Kind:   KindForStatus(target),
			TaskID: taskID,
			To:     target,
			Value:  value,
			At:     p.now(),
		}, true)
		return SelectSuppressed, nil, nil
	}
	if !ok {
		return "", nil, maintenance.Validation("select", fmt.Sprintf("unknown status %q", value))
	}

	current, displayed := p.view.Current(taskID)
	if displayed && current == target {
		return SelectUnchanged, nil, nil
	}
	if p.commander == nil {
		return "", nil, errors.New("reconcile: no commander configured")
	}

	before, err := p.commander.Get(ctx, taskID)
	if err != nil {
		return "", nil, err
	}
	if before.Status == target {
		logger.Debug("selector matches stored status; view is stale",
			logging.String(logging.FieldEventType, "selector_unchanged"),
			logging.String("status", string(target)),
		)
		return SelectUnchanged, before, nil
	}

	task, err := p.commander.SetStatus(ctx, taskID, string(target))
	if err != nil {
		return "", nil, err
	}
	if task.Status == before.Status {
		return SelectUnchanged, task, nil
	}

	event := UserEvent(KindForStatus(task.Status), task, before.Status, p.now())
	event.Viewer = p.view.Name()
	p.observer.Observe(ctx, event, false)
	return SelectApplied, task, nil
}

// Run cycles immediately and then on every interval until ctx is done.
// Cycle errors are logged by Cycle and otherwise ignored.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Cycle(ctx); err != nil && errors.Is(err, context.Canceled) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Status reports cycle counters and the last error.
func (p *Poller) Status() PollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := PollerStatus{
		Viewer:    p.view.Name(),
		Phase:     p.guard.Phase(),
		Interval:  p.interval.String(),
		Cycles:    p.cycles,
		CycleID:   p.cycleID,
		LastCycle: p.lastCycle,
		Rows:      p.view.Len(),
	}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	return st
}

// LastError returns the error from the most recent failed cycle, cleared by
// the next successful one.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Poller) recordFailure(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}
