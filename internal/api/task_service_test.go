package api_test

import (
	"context"
	"errors"
	"testing"

	"vitrine/internal/api"
	"vitrine/internal/lifecycle"
	"vitrine/internal/logging"
	"vitrine/internal/maintenance"
	"vitrine/internal/notifications"
	"vitrine/internal/reconcile"
	"vitrine/internal/testsupport"
)

type recordedEvent struct {
	event      reconcile.Event
	suppressed bool
}

type recorder struct {
	events []recordedEvent
}

func (r *recorder) Observe(_ context.Context, event reconcile.Event, suppressed bool) {
	r.events = append(r.events, recordedEvent{event: event, suppressed: suppressed})
}

func newService(t *testing.T, opts ...lifecycle.Option) (*api.TaskService, *recorder) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	cat := testsupport.MustOpenCatalog(t, st)
	testsupport.SeedArtifact(t, cat, "A-1", "Bronze Dagger")
	engine := lifecycle.New(st, cat, logging.NewNop(), opts...)
	rec := &recorder{}
	return api.NewTaskService(engine, cat, rec), rec
}

func create(t *testing.T, svc *api.TaskService) *api.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), api.CreateTaskRequest{
		ArtifactID: "A-1",
		Type:       "ROUTINE",
		Deadline:   "2026-07-01",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return task
}

func TestTaskServicePublishesUserEvents(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	task := create(t, svc)
	if task.ArtifactName != "Bronze Dagger" || task.Status != "SCHEDULED" {
		t.Fatalf("unexpected task: %+v", task)
	}

	if _, err := svc.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := svc.Complete(ctx, task.ID, "oiled blade"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	want := []notifications.Event{
		notifications.EventTaskRequested,
		notifications.EventTaskStarted,
		notifications.EventTaskCompleted,
	}
	if len(rec.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(rec.events))
	}
	for i, kind := range want {
		got := rec.events[i]
		if got.event.Kind != kind || got.event.Origin != reconcile.OriginUser || got.suppressed {
			t.Fatalf("event %d: unexpected %+v suppressed=%v", i, got.event, got.suppressed)
		}
	}
	if rec.events[2].event.From != maintenance.StatusInProgress {
		t.Fatalf("expected completion from IN_PROGRESS, got %s", rec.events[2].event.From)
	}
}

func TestTaskServiceFailedCommandPublishesNothing(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	task := create(t, svc)
	rec.events = nil

	if _, err := svc.Complete(ctx, task.ID, ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	rec.events = nil
	if _, err := svc.Start(ctx, task.ID); !errors.Is(err, maintenance.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no events after failure, got %d", len(rec.events))
	}
}

func TestTaskServiceSetStatusSameValueIsQuiet(t *testing.T) {
	svc, rec := newService(t)
	task := create(t, svc)
	rec.events = nil

	if _, err := svc.SetStatus(context.Background(), task.ID, "DIJADWALKAN"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no events for unchanged status, got %d", len(rec.events))
	}
}

func TestTaskServiceLegacyCancelDeletes(t *testing.T) {
	svc, rec := newService(t, lifecycle.WithCancellationMode(lifecycle.CancellationLegacy))
	ctx := context.Background()
	task := create(t, svc)

	cancelled, err := svc.Cancel(ctx, task.ID, "")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled != nil {
		t.Fatalf("expected deleted task, got %+v", cancelled)
	}
	last := rec.events[len(rec.events)-1].event
	if last.Kind != notifications.EventTaskCancelled || last.ArtifactID != "A-1" {
		t.Fatalf("unexpected cancel event: %+v", last)
	}
	if _, err := svc.Describe(ctx, task.ID); !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestTaskServiceCreateRejectsBadDeadline(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(context.Background(), api.CreateTaskRequest{ArtifactID: "A-1", Type: "ROUTINE", Deadline: "soon"})
	if !errors.Is(err, maintenance.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTaskServiceStats(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	task := create(t, svc)
	if _, err := svc.Assign(ctx, task.ID, "siti"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	create(t, svc)

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ByStatus["SCHEDULED"] != 2 || stats.ByAssignee["siti"] != 1 || stats.ByAssignee[""] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
