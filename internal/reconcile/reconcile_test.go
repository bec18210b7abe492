package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vitrine/internal/catalog"
	"vitrine/internal/lifecycle"
	"vitrine/internal/logging"
	"vitrine/internal/maintenance"
	"vitrine/internal/notifications"
	"vitrine/internal/reconcile"
	"vitrine/internal/store"
	"vitrine/internal/testsupport"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	last   notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.last = payload
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	engine   *lifecycle.Engine
	store    *store.Store
	catalog  *catalog.SQLCatalog
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	cat := testsupport.MustOpenCatalog(t, st)
	testsupport.SeedArtifact(t, cat, "A-1", "Bronze Dagger")
	testsupport.SeedArtifact(t, cat, "A-2", "Ming Vase")
	clock := testsupport.NewClock(testsupport.Time(t, "2026-06-10T08:00:00Z"))
	return &fixture{
		engine:   lifecycle.New(st, cat, logging.NewNop(), lifecycle.WithClock(clock.Now)),
		store:    st,
		catalog:  cat,
		notifier: &recordingNotifier{},
	}
}

func (f *fixture) request(t *testing.T, artifactID, deadline string) *maintenance.Task {
	t.Helper()
	task, err := f.engine.CreateRequest(context.Background(), lifecycle.Request{
		ArtifactID: artifactID,
		Type:       maintenance.TypeRoutine,
		Deadline:   testsupport.Time(t, deadline),
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	return task
}

func (f *fixture) poller(view reconcile.View, observers ...reconcile.Observer) *reconcile.Poller {
	observers = append(observers, reconcile.NewNotifyObserver(f.notifier, f.catalog, logging.NewNop()))
	return reconcile.NewPoller(view, f.engine, f.engine, time.Hour, logging.NewNop(), observers...)
}

func TestGuardRejectsReentry(t *testing.T) {
	var guard reconcile.Guard
	if guard.Phase() != reconcile.PhaseIdle {
		t.Fatalf("expected idle guard, got %s", guard.Phase())
	}
	if err := guard.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := guard.Begin(); !errors.Is(err, reconcile.ErrReconcileInProgress) {
		t.Fatalf("expected ErrReconcileInProgress, got %v", err)
	}
	guard.End()
	if guard.Reconciling() {
		t.Fatal("expected guard to be idle after End")
	}
	if err := guard.Begin(); err != nil {
		t.Fatalf("Begin after End failed: %v", err)
	}
}

func TestCleanerViewShowsOnlyActionableTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	late := f.request(t, "A-1", "2026-08-01T00:00:00Z")
	early := f.request(t, "A-2", "2026-07-01T00:00:00Z")
	done := f.request(t, "A-1", "2026-06-20T00:00:00Z")
	if _, err := f.engine.Start(ctx, done.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := f.engine.Complete(ctx, done.ID, "polished"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	cancelled := f.request(t, "A-2", "2026-06-15T00:00:00Z")
	if _, err := f.engine.CancelPending(ctx, cancelled.ID); err != nil {
		t.Fatalf("CancelPending failed: %v", err)
	}

	view := reconcile.NewCleanerView("")
	if err := f.poller(view).Cycle(ctx); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	rows := view.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != early.ID || rows[1].ID != late.ID {
		t.Fatalf("expected deadline order [%d %d], got [%d %d]", early.ID, late.ID, rows[0].ID, rows[1].ID)
	}
	for _, row := range rows {
		if row.Status.IsTerminal() {
			t.Fatalf("terminal task %d shown in cleaner view", row.ID)
		}
	}
}

func TestCleanerViewAssigneeScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.request(t, "A-1", "2026-08-01T00:00:00Z")
	f.request(t, "A-2", "2026-07-01T00:00:00Z")
	if _, err := f.engine.Assign(ctx, mine.ID, "siti"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	view := reconcile.NewCleanerView("siti")
	if err := f.poller(view).Cycle(ctx); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	rows := view.Rows()
	if len(rows) != 1 || rows[0].ID != mine.ID {
		t.Fatalf("expected only task %d, got %+v", mine.ID, rows)
	}
}

func TestCuratorViewSummarizesCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.request(t, "A-2", "2026-07-01T00:00:00Z")
	testsupport.InsertTask(t, f.store, maintenance.Task{
		ArtifactID:     "A-9",
		Type:           maintenance.TypeRoutine,
		Status:         maintenance.StatusScheduled,
		ScheduledStart: testsupport.TimePtr(t, "2026-09-01T00:00:00Z"),
	})

	view := reconcile.NewCuratorView(f.catalog)
	if err := f.poller(view).Cycle(ctx); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	rows := view.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	byID := make(map[string]int, len(rows))
	for i, row := range rows {
		byID[row.ArtifactID] = i
	}
	dagger := rows[byID["A-1"]]
	if dagger.Request != "No Request" || dagger.ArtifactName != "Bronze Dagger" {
		t.Fatalf("unexpected dagger row: %+v", dagger)
	}
	vase := rows[byID["A-2"]]
	if vase.Request != "Request" || vase.DisplayStatus != "Not Started" || vase.TaskID != task.ID {
		t.Fatalf("unexpected vase row: %+v", vase)
	}
	orphan := rows[byID["A-9"]]
	if orphan.ArtifactName != catalog.PlaceholderName("A-9") {
		t.Fatalf("expected placeholder name, got %q", orphan.ArtifactName)
	}
	if current, ok := view.Current(task.ID); !ok || current != maintenance.StatusScheduled {
		t.Fatalf("expected current SCHEDULED, got %q %v", current, ok)
	}
}

func TestCycleWhileReconcilingNeverNotifies(t *testing.T) {
	f := newFixture(t)
	f.request(t, "A-1", "2026-07-01T00:00:00Z")

	poller := f.poller(reconcile.NewCleanerView(""))
	if err := poller.Guard().Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	err := poller.Cycle(context.Background())
	if !errors.Is(err, reconcile.ErrReconcileInProgress) {
		t.Fatalf("expected ErrReconcileInProgress, got %v", err)
	}
	poller.Guard().End()

	if got := f.notifier.count(); got != 0 {
		t.Fatalf("expected no notifications, got %d", got)
	}
}

func TestRebuildSideEffectSelectionIsSuppressed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.request(t, "A-1", "2026-07-01T00:00:00Z")

	var poller *reconcile.Poller
	var results []reconcile.SelectResult
	// A selector widget that reports a "change" every time it is re-rendered.
	widget := reconcile.ObserverFunc(func(ctx context.Context, event reconcile.Event, suppressed bool) {
		if event.Origin != reconcile.OriginRebuild || event.TaskID == 0 {
			return
		}
		result, _, err := poller.Select(ctx, event.TaskID, string(maintenance.StatusInProgress))
		if err != nil {
			t.Errorf("Select during rebuild failed: %v", err)
		}
		results = append(results, result)
	})
	poller = f.poller(reconcile.NewCleanerView(""), widget)

	if err := poller.Cycle(ctx); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	if len(results) != 1 || results[0] != reconcile.SelectSuppressed {
		t.Fatalf("expected one suppressed selection, got %v", results)
	}
	stored, err := f.store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != maintenance.StatusScheduled {
		t.Fatalf("expected no write during rebuild, got %s", stored.Status)
	}
	if got := f.notifier.count(); got != 0 {
		t.Fatalf("expected no notifications, got %d", got)
	}
}

func TestSelectAppliesUserChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.request(t, "A-2", "2026-07-01T00:00:00Z")

	poller := f.poller(reconcile.NewCleanerView(""))
	if err := poller.Cycle(ctx); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}

	result, _, err := poller.Select(ctx, task.ID, "SCHEDULED")
	if err != nil {
		t.Fatalf("Select unchanged failed: %v", err)
	}
	if result != reconcile.SelectUnchanged {
		t.Fatalf("expected unchanged, got %s", result)
	}
	if got := f.notifier.count(); got != 0 {
		t.Fatalf("expected no notification for unchanged value, got %d", got)
	}

	result, updated, err := poller.Select(ctx, task.ID, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if result != reconcile.SelectApplied || updated.Status != maintenance.StatusInProgress {
		t.Fatalf("expected applied IN_PROGRESS, got %s %+v", result, updated)
	}
	if got := f.notifier.count(); got != 1 {
		t.Fatalf("expected 1 notification, got %d", got)
	}
	if f.notifier.events[0] != notifications.EventTaskStarted {
		t.Fatalf("expected task_started, got %s", f.notifier.events[0])
	}
	if f.notifier.last["artifact"] != "Ming Vase" {
		t.Fatalf("expected artifact name in payload, got %v", f.notifier.last["artifact"])
	}
}

func TestSelectOnStaleViewUsesStoredStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.request(t, "A-1", "2026-07-01T00:00:00Z")

	var user []reconcile.Event
	record := reconcile.ObserverFunc(func(_ context.Context, event reconcile.Event, suppressed bool) {
		if !suppressed {
			user = append(user, event)
		}
	})
	curator := f.poller(reconcile.NewCuratorView(f.catalog), record)
	if err := curator.Cycle(ctx); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}

	// A cleaner starts the task after the board was drawn.
	if _, err := f.engine.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	result, current, err := curator.Select(ctx, task.ID, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if result != reconcile.SelectUnchanged {
		t.Fatalf("expected unchanged for stored status, got %s", result)
	}
	if current == nil || current.Status != maintenance.StatusInProgress {
		t.Fatalf("expected stored task to be returned, got %+v", current)
	}
	if got := f.notifier.count(); got != 0 {
		t.Fatalf("expected no notification for a write that changes nothing, got %d", got)
	}
	if len(user) != 0 {
		t.Fatalf("expected no user events, got %+v", user)
	}

	result, done, err := curator.Select(ctx, task.ID, "COMPLETED")
	if err != nil {
		t.Fatalf("Select COMPLETED failed: %v", err)
	}
	if result != reconcile.SelectApplied || done.Status != maintenance.StatusCompleted {
		t.Fatalf("expected applied COMPLETED, got %s %+v", result, done)
	}
	if len(user) != 1 || user[0].From != maintenance.StatusInProgress {
		t.Fatalf("expected one event from IN_PROGRESS, got %+v", user)
	}
	if f.notifier.last["from"] != "In Progress" || f.notifier.last["to"] != "Completed" {
		t.Fatalf("unexpected status labels in payload: %v", f.notifier.last)
	}
}

func TestSelectRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	task := f.request(t, "A-1", "2026-07-01T00:00:00Z")
	poller := f.poller(reconcile.NewCleanerView(""))

	_, _, err := poller.Select(context.Background(), task.ID, "PAUSED")
	if !errors.Is(err, maintenance.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSelectSurfacesWriteErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.request(t, "A-1", "2026-07-01T00:00:00Z")
	if _, err := f.engine.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	poller := f.poller(reconcile.NewCleanerView(""))

	_, _, err := poller.Select(ctx, task.ID, "SCHEDULED")
	if !errors.Is(err, maintenance.ErrInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
	if got := f.notifier.count(); got != 0 {
		t.Fatalf("expected no notification after failed write, got %d", got)
	}
}

type flakySource struct {
	fail  bool
	tasks []maintenance.Task
}

func (s *flakySource) ListAll(context.Context) ([]maintenance.Task, error) {
	if s.fail {
		return nil, maintenance.Storage("list", errors.New("database is locked"))
	}
	return s.tasks, nil
}

func TestCycleFailureKeepsPreviousView(t *testing.T) {
	source := &flakySource{tasks: []maintenance.Task{
		{ID: 1, ArtifactID: "A-1", Status: maintenance.StatusScheduled},
	}}
	view := reconcile.NewCleanerView("")
	poller := reconcile.NewPoller(view, source, nil, time.Hour, logging.NewNop())
	ctx := context.Background()

	if err := poller.Cycle(ctx); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	source.fail = true
	if err := poller.Cycle(ctx); !errors.Is(err, maintenance.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if view.Len() != 1 {
		t.Fatalf("expected previous rows to remain, got %d", view.Len())
	}
	status := poller.Status()
	if status.LastError == "" || status.Cycles != 1 {
		t.Fatalf("unexpected poller status: %+v", status)
	}
	if poller.Guard().Reconciling() {
		t.Fatal("guard left in reconciling phase after failure")
	}

	source.fail = false
	if err := poller.Cycle(ctx); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	if poller.LastError() != nil {
		t.Fatalf("expected last error cleared, got %v", poller.LastError())
	}
}

func TestSchedulerStartStop(t *testing.T) {
	source := &flakySource{tasks: []maintenance.Task{
		{ID: 1, ArtifactID: "A-1", Status: maintenance.StatusInProgress},
	}}
	cleaner := reconcile.NewPoller(reconcile.NewCleanerView(""), source, nil, 10*time.Millisecond, logging.NewNop())
	scheduler := reconcile.NewScheduler(logging.NewNop(), cleaner)

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := scheduler.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for cleaner.Status().Cycles == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poller never completed a cycle")
		}
		time.Sleep(5 * time.Millisecond)
	}

	status := scheduler.Status()
	if !status.Running || len(status.Pollers) != 1 || status.Pollers[0].Rows != 1 {
		t.Fatalf("unexpected scheduler status: %+v", status)
	}
	if scheduler.Poller(reconcile.ViewerCleaner) != cleaner {
		t.Fatal("expected cleaner poller lookup")
	}

	scheduler.Stop()
	if scheduler.Running() {
		t.Fatal("expected scheduler stopped")
	}
}
