package testsupport

import (
	"context"
	"testing"
	"time"

	"vitrine/internal/catalog"
	"vitrine/internal/config"
	"vitrine/internal/maintenance"
	"vitrine/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustOpenCatalog returns a catalog backed by the store's database.
func MustOpenCatalog(t testing.TB, st *store.Store) *catalog.SQLCatalog {
	t.Helper()
	return catalog.NewSQL(st.DB())
}

// SeedArtifact upserts an artifact and fails the test on error.
func SeedArtifact(t testing.TB, cat catalog.Writer, id, name string) catalog.Artifact {
	t.Helper()

	artifact := catalog.Artifact{ID: id, Name: name}
	if err := cat.Upsert(context.Background(), artifact); err != nil {
		t.Fatalf("seed artifact %s: %v", id, err)
	}
	return artifact
}

// TaskStore is the subset of store behaviour the task seeding helper needs.
type TaskStore interface {
	Insert(ctx context.Context, task *maintenance.Task) (*maintenance.Task, error)
}

// InsertTask stores a task directly, bypassing lifecycle validation. It is
// meant for arranging fixtures such as legacy rows.
func InsertTask(t testing.TB, st TaskStore, task maintenance.Task) *maintenance.Task {
	t.Helper()

	stored, err := st.Insert(context.Background(), &task)
	if err != nil {
		t.Fatalf("insert task: %v", err)
	}
	return stored
}

// Time parses an RFC3339 timestamp and fails the test on error.
func Time(t testing.TB, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

// TimePtr is Time returning a pointer.
func TimePtr(t testing.TB, value string) *time.Time {
	t.Helper()
	ts := Time(t, value)
	return &ts
}

// Clock is a settable clock for deterministic lifecycle tests.
type Clock struct {
	now time.Time
}

// NewClock returns a clock fixed at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fixed time.
func (c *Clock) Now() time.Time { return c.now }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }
