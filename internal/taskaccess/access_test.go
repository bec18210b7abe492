package taskaccess_test

import (
	"context"
	"errors"
	"testing"

	"vitrine/internal/api"
	"vitrine/internal/logging"
	"vitrine/internal/taskaccess"
	"vitrine/internal/testsupport"
)

func openLocal(t *testing.T) taskaccess.Session {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	session, err := taskaccess.Open(context.Background(), cfg, logging.NewNop(), false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestLocalAccessBoardAndWorklist(t *testing.T) {
	session := openLocal(t)
	access := session.Access
	if access.Remote() {
		t.Fatal("expected local access without a daemon")
	}
	ctx := context.Background()

	// Artifacts are unknown to the catalog, so creation fails with not found.
	if _, err := access.Create(ctx, api.CreateTaskRequest{ArtifactID: "A-1", Type: "ROUTINE", Deadline: "2026-07-01"}); err == nil {
		t.Fatal("expected create against unknown artifact to fail")
	}

	board, err := access.Board(ctx)
	if err != nil {
		t.Fatalf("Board failed: %v", err)
	}
	if len(board) != 0 {
		t.Fatalf("expected empty board, got %d rows", len(board))
	}
	worklist, err := access.Worklist(ctx, "")
	if err != nil {
		t.Fatalf("Worklist failed: %v", err)
	}
	if len(worklist) != 0 {
		t.Fatalf("expected empty worklist, got %d", len(worklist))
	}
}

func TestOpenWithFallbackPrefersDaemon(t *testing.T) {
	client := api.NewClient("127.0.0.1:1", "")
	session, err := taskaccess.OpenWithFallback(
		func() (*api.Client, error) { return client, nil },
		func() (taskaccess.Access, func() error, error) {
			t.Fatal("local opener should not be called")
			return nil, nil, nil
		},
	)
	if err != nil {
		t.Fatalf("OpenWithFallback failed: %v", err)
	}
	if !session.Access.Remote() {
		t.Fatal("expected remote access")
	}
}

func TestOpenWithFallbackUsesLocalWhenDaemonDown(t *testing.T) {
	closed := false
	session, err := taskaccess.OpenWithFallback(
		func() (*api.Client, error) { return nil, errors.New("connection refused") },
		func() (taskaccess.Access, func() error, error) {
			return nil, func() error { closed = true; return nil }, nil
		},
	)
	if err != nil {
		t.Fatalf("OpenWithFallback failed: %v", err)
	}
	if err := session.Close(); err != nil || !closed {
		t.Fatalf("expected local closer to run, err=%v closed=%v", err, closed)
	}
}

func TestOpenWithFallbackReportsLocalError(t *testing.T) {
	_, err := taskaccess.OpenWithFallback(nil, func() (taskaccess.Access, func() error, error) {
		return nil, nil, errors.New("disk full")
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLocalAccessSelect(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	seed := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedArtifact(t, testsupport.MustOpenCatalog(t, seed), "A-1", "Bronze Dagger")

	session, err := taskaccess.Open(context.Background(), cfg, logging.NewNop(), true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer session.Close()
	access := session.Access
	ctx := context.Background()

	task, err := access.Create(ctx, api.CreateTaskRequest{ArtifactID: "A-1", Type: "ROUTINE", Deadline: "2026-07-01"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	resp, err := access.Select(ctx, "worklist", task.ID, "SCHEDULED")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if resp.Result != "unchanged" {
		t.Fatalf("expected unchanged, got %s", resp.Result)
	}

	resp, err = access.Select(ctx, "board", task.ID, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if resp.Result != "applied" || resp.Task == nil || resp.Task.Status != "IN_PROGRESS" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if _, err := access.Select(ctx, "gallery", task.ID, "COMPLETED"); err == nil {
		t.Fatal("expected unknown view to fail")
	}
}
