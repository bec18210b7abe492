package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vitrine/internal/config"
)

const userAgent = "Vitrine-Go/0.1.0"

// Event identifies a notification-worthy occurrence.
type Event string

const (
	EventTaskRequested Event = "task_requested"
	EventTaskStarted   Event = "task_started"
	EventTaskCompleted Event = "task_completed"
	EventTaskCancelled Event = "task_cancelled"
	EventStatusChanged Event = "status_changed"
	EventTaskAssigned  Event = "task_assigned"
	EventNoteAdded     Event = "note_added"
	EventError         Event = "error"
	EventTest          Event = "test"
)

// Payload carries event-specific values keyed by name.
type Payload map[string]any

// Service defines the notification surface exposed to vitrine components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	artifact := payloadString(payload, "artifact")
	switch event {
	case EventTaskRequested:
		body := fmt.Sprintf("🛠️ Maintenance requested: %s", artifact)
		if kind := strings.ToLower(payloadString(payload, "type")); kind != "" {
			body += " (" + kind + ")"
		}
		if deadline := payloadString(payload, "deadline"); deadline != "" {
			body += "\nDue: " + deadline
		}
		return message{
			title: "Vitrine - Maintenance Requested",
			body:  body,
			tags:  []string{"vitrine", "maintenance", "requested"},
		}, true
	case EventTaskStarted:
		return message{
			title: "Vitrine - Maintenance Started",
			body:  fmt.Sprintf("Started: %s", artifact),
			tags:  []string{"vitrine", "maintenance", "started"},
		}, true
	case EventTaskCompleted:
		return message{
			title: "Vitrine - Maintenance Complete",
			body:  fmt.Sprintf("✅ Maintenance complete: %s", artifact),
			tags:  []string{"vitrine", "maintenance", "completed"},
		}, true
	case EventTaskCancelled:
		body := fmt.Sprintf("Cancelled: %s", artifact)
		if note := payloadString(payload, "note"); note != "" {
			body += "\nNote: " + note
		}
		return message{
			title: "Vitrine - Maintenance Cancelled",
			body:  body,
			tags:  []string{"vitrine", "maintenance", "cancelled"},
		}, true
	case EventStatusChanged:
		return message{
			title: "Vitrine - Status Changed",
			body:  fmt.Sprintf("%s: %s → %s", artifact, payloadString(payload, "from"), payloadString(payload, "to")),
			tags:  []string{"vitrine", "maintenance", "status"},
		}, true
	case EventTaskAssigned:
		return message{
			title: "Vitrine - Task Assigned",
			body:  fmt.Sprintf("%s assigned to %s", artifact, payloadString(payload, "assignee")),
			tags:  []string{"vitrine", "maintenance", "assigned"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if errText := payloadString(payload, "error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Vitrine - Error",
			body:     builder.String(),
			tags:     []string{"vitrine", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Vitrine - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"vitrine", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04 MST")
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
