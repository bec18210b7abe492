package store_test

import (
	"context"
	"errors"
	"testing"

	"vitrine/internal/maintenance"
	"vitrine/internal/store"
	"vitrine/internal/testsupport"
)

func scheduledTask(t *testing.T, artifactID, start string) maintenance.Task {
	t.Helper()
	return maintenance.Task{
		ArtifactID:     artifactID,
		Type:           maintenance.TypeRoutine,
		Description:    "dust display case",
		ScheduledStart: testsupport.TimePtr(t, start),
		Status:         maintenance.StatusScheduled,
	}
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task := scheduledTask(t, "A-1", "2026-05-01T09:30:00Z")
	task.Notes = "first line"
	inserted, err := st.Insert(ctx, &task)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	fetched, err := st.Get(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected task")
	}
	if fetched.ArtifactID != "A-1" || fetched.Status != maintenance.StatusScheduled {
		t.Fatalf("unexpected task: %#v", fetched)
	}
	if fetched.ScheduledStart == nil || !fetched.ScheduledStart.Equal(*task.ScheduledStart) {
		t.Fatalf("scheduled start mismatch: %v", fetched.ScheduledStart)
	}
	if fetched.CompletedAt != nil {
		t.Fatalf("expected nil completedAt, got %v", fetched.CompletedAt)
	}
	if fetched.Notes != "first line" {
		t.Fatalf("unexpected notes %q", fetched.Notes)
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be populated")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	task, err := st.Get(context.Background(), 999)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if task != nil {
		t.Fatalf("expected nil task, got %#v", task)
	}
}

func TestStatusPersistedAsStorageCode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task := scheduledTask(t, "A-1", "2026-05-01T09:30:00Z")
	task.Status = maintenance.StatusInProgress
	inserted := testsupport.InsertTask(t, st, task)

	var raw string
	if err := st.DB().QueryRowContext(ctx, `SELECT status FROM maintenance_tasks WHERE id = ?`, inserted.ID).Scan(&raw); err != nil {
		t.Fatalf("read raw status: %v", err)
	}
	if raw != "SEDANG_BERLANGSUNG" {
		t.Fatalf("expected storage code, got %q", raw)
	}
}

func TestUnknownStatusCodeSurfacesAsStorageError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	inserted := testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-05-01T09:30:00Z"))
	if _, err := st.DB().ExecContext(ctx, `UPDATE maintenance_tasks SET status = 'BOGUS' WHERE id = ?`, inserted.ID); err != nil {
		t.Fatalf("corrupt status: %v", err)
	}
	_, err := st.Get(ctx, inserted.ID)
	if !errors.Is(err, maintenance.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestUnparseableTimestampSurfacesAsStorageError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, column := range []string{"scheduled_start", "completed_at"} {
		inserted := testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-05-01T09:30:00Z"))
		if _, err := st.DB().ExecContext(ctx, `UPDATE maintenance_tasks SET `+column+` = 'next tuesday' WHERE id = ?`, inserted.ID); err != nil {
			t.Fatalf("corrupt %s: %v", column, err)
		}
		if _, err := st.Get(ctx, inserted.ID); !errors.Is(err, maintenance.ErrStorage) {
			t.Fatalf("%s: expected storage error from Get, got %v", column, err)
		}
		if _, err := st.List(ctx, maintenance.Filter{}); !errors.Is(err, maintenance.ErrStorage) {
			t.Fatalf("%s: expected storage error from List, got %v", column, err)
		}
		if _, err := st.Delete(ctx, inserted.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
	}
}

func TestUpdatePersistsAllFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	inserted := testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-05-01T09:30:00Z"))
	inserted.Status = maintenance.StatusCompleted
	inserted.CompletedAt = inserted.ScheduledStart
	inserted.AssigneeID = "worker-9"
	inserted.Notes = maintenance.AppendNote(inserted.Notes, "done")
	if err := st.Update(ctx, inserted); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := st.Get(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Status != maintenance.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", fetched.Status)
	}
	if fetched.CompletedAt == nil || !fetched.CompletedAt.Equal(*inserted.ScheduledStart) {
		t.Fatalf("unexpected completedAt %v", fetched.CompletedAt)
	}
	if fetched.AssigneeID != "worker-9" || fetched.Notes != "done" {
		t.Fatalf("unexpected fields: %#v", fetched)
	}
}

func TestUpdateMissingTaskIsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	task := scheduledTask(t, "A-1", "2026-05-01T09:30:00Z")
	task.ID = 404
	err := st.Update(context.Background(), &task)
	if !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	inserted := testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-05-01T09:30:00Z"))
	removed, err := st.Delete(ctx, inserted.ID)
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v; want true, nil", removed, err)
	}
	removed, err = st.Delete(ctx, inserted.ID)
	if err != nil || removed {
		t.Fatalf("second Delete = %v, %v; want false, nil", removed, err)
	}
}

func TestListFiltersAndOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	early := testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-03-01T00:00:00Z"))
	late := testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-04-01T00:00:00Z"))
	tie := testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-04-01T00:00:00Z"))
	otherTask := scheduledTask(t, "A-2", "2026-03-15T00:00:00Z")
	otherTask.Status = maintenance.StatusInProgress
	otherTask.AssigneeID = "worker-1"
	other := testsupport.InsertTask(t, st, otherTask)

	all, err := st.List(ctx, maintenance.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	wantOrder := []int64{tie.ID, late.ID, other.ID, early.ID}
	if len(all) != len(wantOrder) {
		t.Fatalf("expected %d tasks, got %d", len(wantOrder), len(all))
	}
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Fatalf("position %d: got id %d want %d", i, all[i].ID, id)
		}
	}

	inProgress := maintenance.StatusInProgress
	from := testsupport.Time(t, "2026-03-01T00:00:00Z")
	to := testsupport.Time(t, "2026-04-01T00:00:00Z")
	cases := []struct {
		name   string
		filter maintenance.Filter
		want   []int64
	}{
		{"by artifact", maintenance.Filter{ArtifactID: "A-2"}, []int64{other.ID}},
		{"by status", maintenance.Filter{Status: &inProgress}, []int64{other.ID}},
		{"by assignee", maintenance.Filter{AssigneeID: "worker-1"}, []int64{other.ID}},
		{"half open range", maintenance.Filter{From: &from, To: &to}, []int64{other.ID, early.ID}},
		{"open upper bound", maintenance.Filter{From: &to}, []int64{tie.ID, late.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := st.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d tasks, got %d", len(tc.want), len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("position %d: got id %d want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-03-01T00:00:00Z"))
	assigned := scheduledTask(t, "A-2", "2026-03-02T00:00:00Z")
	assigned.AssigneeID = "worker-1"
	assigned.Status = maintenance.StatusInProgress
	testsupport.InsertTask(t, st, assigned)
	testsupport.InsertTask(t, st, assigned)

	byStatus, err := st.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if byStatus[maintenance.StatusScheduled] != 1 || byStatus[maintenance.StatusInProgress] != 2 {
		t.Fatalf("unexpected status counts: %v", byStatus)
	}
	if count, ok := byStatus[maintenance.StatusCancelled]; !ok || count != 0 {
		t.Fatalf("expected zero entry for CANCELLED, got %v", byStatus)
	}

	byAssignee, err := st.CountByAssignee(ctx)
	if err != nil {
		t.Fatalf("CountByAssignee failed: %v", err)
	}
	if byAssignee[""] != 1 || byAssignee["worker-1"] != 2 {
		t.Fatalf("unexpected assignee counts: %v", byAssignee)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if _, err := st.DB().Exec(`UPDATE schema_version SET version = 99`); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	st.Close()

	_, err := store.Open(cfg)
	if !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	inserted := testsupport.InsertTask(t, st, scheduledTask(t, "A-1", "2026-03-01T00:00:00Z"))
	st.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	fetched, err := reopened.Get(context.Background(), inserted.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected task to survive reopen")
	}
}

func TestClosedStoreReturnsStorageError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	st.Close()

	_, err := st.List(context.Background(), maintenance.Filter{})
	if !errors.Is(err, maintenance.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
