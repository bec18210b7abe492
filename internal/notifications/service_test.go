package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitrine/internal/config"
	"vitrine/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTaskCompleted, notifications.Payload{"artifact": "Ming Vase"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "requested",
			event: notifications.EventTaskRequested,
			payload: notifications.Payload{
				"artifact": "Bronze Dagger",
				"type":     "RESTORATION",
				"deadline": time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
			},
			expectTitle:   "Vitrine - Maintenance Requested",
			expectMessage: "🛠️ Maintenance requested: Bronze Dagger (restoration)\nDue: 2026-05-01 09:30 UTC",
			expectTags:    "vitrine,maintenance,requested",
		},
		{
			name:          "started",
			event:         notifications.EventTaskStarted,
			payload:       notifications.Payload{"artifact": "Ming Vase"},
			expectTitle:   "Vitrine - Maintenance Started",
			expectMessage: "Started: Ming Vase",
			expectTags:    "vitrine,maintenance,started",
		},
		{
			name:          "completed",
			event:         notifications.EventTaskCompleted,
			payload:       notifications.Payload{"artifact": "Ming Vase"},
			expectTitle:   "Vitrine - Maintenance Complete",
			expectMessage: "✅ Maintenance complete: Ming Vase",
			expectTags:    "vitrine,maintenance,completed",
		},
		{
			name:          "cancelled with note",
			event:         notifications.EventTaskCancelled,
			payload:       notifications.Payload{"artifact": "Ming Vase", "note": "moved to storage"},
			expectTitle:   "Vitrine - Maintenance Cancelled",
			expectMessage: "Cancelled: Ming Vase\nNote: moved to storage",
			expectTags:    "vitrine,maintenance,cancelled",
		},
		{
			name:          "status changed",
			event:         notifications.EventStatusChanged,
			payload:       notifications.Payload{"artifact": "Ming Vase", "from": "SCHEDULED", "to": "IN_PROGRESS"},
			expectTitle:   "Vitrine - Status Changed",
			expectMessage: "Ming Vase: SCHEDULED → IN_PROGRESS",
			expectTags:    "vitrine,maintenance,status",
		},
		{
			name:           "error",
			event:          notifications.EventError,
			payload:        notifications.Payload{"context": "curator reconcile", "error": errors.New("database is locked")},
			expectTitle:    "Vitrine - Error",
			expectMessage:  "❌ Error with curator reconcile: database is locked",
			expectTags:     "vitrine,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceDropsNoteEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for dropped event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{notifications.EventNoteAdded, notifications.Event("unknown")} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"note": "ignored"}); err != nil {
			t.Fatalf("expected no error for dropped event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
