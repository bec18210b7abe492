package services_test

import (
	"context"
	"testing"

	"vitrine/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithTaskID(ctx, 42)
	ctx = services.WithViewer(ctx, "curator")
	ctx = services.WithCycleID(ctx, "cycle-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.TaskIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected task id: %v %v", id, ok)
	}
	if viewer, ok := services.ViewerFromContext(ctx); !ok || viewer != "curator" {
		t.Fatalf("unexpected viewer: %v %v", viewer, ok)
	}
	if cycle, ok := services.CycleIDFromContext(ctx); !ok || cycle != "cycle-1" {
		t.Fatalf("unexpected cycle id: %v %v", cycle, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithViewer(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.ViewerFromContext(ctx); ok {
		t.Fatal("expected no viewer value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
	if _, ok := services.TaskIDFromContext(ctx); ok {
		t.Fatal("expected no task id value")
	}
}
