package services

import "context"

type contextKey string

const (
	taskIDKey    contextKey = "task_id"
	viewerKey    contextKey = "viewer"
	cycleIDKey   contextKey = "cycle_id"
	requestIDKey contextKey = "request_id"
)

// WithTaskID annotates context with the maintenance task identifier.
func WithTaskID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, taskIDKey, id)
}

// TaskIDFromContext extracts the maintenance task identifier if present.
func TaskIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(taskIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithViewer annotates context with the name of the view being reconciled.
func WithViewer(ctx context.Context, viewer string) context.Context {
	if viewer == "" {
		return ctx
	}
	return context.WithValue(ctx, viewerKey, viewer)
}

// ViewerFromContext returns the viewer name if present.
func ViewerFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(viewerKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithCycleID annotates context with a reconcile cycle identifier.
func WithCycleID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFromContext returns the reconcile cycle identifier if present.
func CycleIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(cycleIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
