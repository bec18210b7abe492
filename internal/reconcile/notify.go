package reconcile

import (
	"context"
	"log/slog"

	"vitrine/internal/catalog"
	"vitrine/internal/logging"
	"vitrine/internal/maintenance"
	"vitrine/internal/notifications"
)

// NotifyObserver publishes user-originated events to a notifications service.
type NotifyObserver struct {
	notifier notifications.Service
	catalog  catalog.Reader
	logger   *slog.Logger
}

// NewNotifyObserver builds the observer. The catalog resolves artifact names
// for message bodies.
func NewNotifyObserver(notifier notifications.Service, cat catalog.Reader, logger *slog.Logger) *NotifyObserver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NotifyObserver{
		notifier: notifier,
		catalog:  cat,
		logger:   logging.NewComponentLogger(logger, "notify"),
	}
}

// Observe forwards non-suppressed user events. Everything else is logged at
// debug level and dropped.
func (o *NotifyObserver) Observe(ctx context.Context, event Event, suppressed bool) {
	logger := logging.WithContext(ctx, o.logger)
	if suppressed || event.Origin != OriginUser {
		logger.Debug("event not notified",
			logging.String(logging.FieldEventType, "notification_suppressed"),
			logging.String("origin", string(event.Origin)),
			logging.String("kind", string(event.Kind)),
			logging.Int64(logging.FieldTaskID, event.TaskID),
			logging.Bool("suppressed", suppressed),
		)
		return
	}
	if o.notifier == nil || event.Kind == "" {
		return
	}
	if err := o.notifier.Publish(ctx, event.Kind, o.payload(ctx, event)); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String("kind", string(event.Kind)),
			logging.String(logging.FieldErrorHint, "check ntfy topic configuration"),
			logging.String(logging.FieldImpact, "user was not notified of the change"),
		)
	}
}

func (o *NotifyObserver) payload(ctx context.Context, event Event) notifications.Payload {
	payload := notifications.Payload{
		"artifact": catalog.DisplayName(ctx, o.catalog, event.ArtifactID),
		"task_id":  event.TaskID,
		"from":     statusLabel(event.From),
		"to":       statusLabel(event.To),
	}
	if event.Type != "" {
		payload["type"] = string(event.Type)
	}
	if event.Deadline != nil {
		payload["deadline"] = *event.Deadline
	}
	if event.Note != "" {
		payload["note"] = event.Note
	}
	if event.Assignee != "" {
		payload["assignee"] = event.Assignee
	}
	return payload
}

func statusLabel(status maintenance.Status) string {
	if status == "" {
		return "None"
	}
	return status.Label()
}
