package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vitrine/internal/api"
	"vitrine/internal/maintenance"
)

func TestClientSendsTokenAndDecodesTask(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody api.CompleteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.Method + " " + r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.TaskResponse{Task: &api.Task{ID: 4, Status: "COMPLETED"}})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, "secret")
	task, err := client.CompleteTask(context.Background(), 4, "done")
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if task == nil || task.ID != 4 || task.Status != "COMPLETED" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "POST /api/tasks/4/complete" || gotBody.Notes != "done" {
		t.Fatalf("unexpected request %s %+v", gotPath, gotBody)
	}
}

func TestClientMapsErrorKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "start: task 9 is COMPLETED", Kind: "invalid_state"})
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL, "").StartTask(context.Background(), 9)
	if !errors.Is(err, maintenance.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected api.Error with 409, got %v", err)
	}
}

func TestClientListEncodesFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(api.TaskListResponse{Tasks: []api.Task{{ID: 1}, {ID: 2}}})
	}))
	defer srv.Close()

	st := maintenance.StatusInProgress
	tasks, err := api.NewClient(srv.URL, "").ListTasks(context.Background(), maintenance.Filter{Status: &st, ArtifactID: "A-1"})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if gotQuery != "artifact=A-1&status=IN_PROGRESS" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
}
