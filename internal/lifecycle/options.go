package lifecycle

import (
	"time"

	"vitrine/internal/config"
)

// CancellationMode selects how cancellations are recorded.
type CancellationMode string

const (
	// CancellationState moves cancelled tasks to the terminal CANCELLED status.
	CancellationState CancellationMode = config.CancellationState
	// CancellationLegacy deletes tasks cancelled before they start and records
	// later cancellations as COMPLETED with a marker note.
	CancellationLegacy CancellationMode = config.CancellationLegacy
)

// CompletionDatePolicy selects the timestamp recorded when a task completes.
type CompletionDatePolicy string

const (
	// CompletionDateDeadline records the scheduled start, falling back to now.
	CompletionDateDeadline CompletionDatePolicy = config.CompletionDateDeadline
	// CompletionDateActual always records the wall-clock completion time.
	CompletionDateActual CompletionDatePolicy = config.CompletionDateActual
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithCancellationMode selects the cancellation behaviour.
func WithCancellationMode(mode CancellationMode) Option {
	return func(e *Engine) {
		if mode != "" {
			e.cancellation = mode
		}
	}
}

// WithCompletionDate selects the completion-date policy.
func WithCompletionDate(policy CompletionDatePolicy) Option {
	return func(e *Engine) {
		if policy != "" {
			e.completion = policy
		}
	}
}

// OptionsFromConfig maps the [maintenance] config section onto engine options.
func OptionsFromConfig(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithCancellationMode(CancellationMode(cfg.Maintenance.Cancellation)),
		WithCompletionDate(CompletionDatePolicy(cfg.Maintenance.CompletionDate)),
	}
}
