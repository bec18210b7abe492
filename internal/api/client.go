package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vitrine/internal/maintenance"
	"vitrine/internal/reconcile"
)

// Error is a non-2xx response from the daemon.
type Error struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("api %d (%s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.StatusCode, e.Message)
}

// Is lets callers match daemon errors against the maintenance sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case maintenance.ErrNotFound:
		return e.Kind == string(maintenance.KindNotFound)
	case maintenance.ErrInvalidState:
		return e.Kind == string(maintenance.KindInvalidState)
	case maintenance.ErrValidation:
		return e.Kind == string(maintenance.KindValidation)
	case maintenance.ErrStorage:
		return e.Kind == string(maintenance.KindStorage)
	}
	return false
}

// Client talks to a running daemon's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for bind (host:port or a full URL).
func NewClient(bind, token string) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var out DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out)
	return out, err
}

// CreateTask submits a new maintenance request.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/api/tasks", req)
}

// Task fetches one task.
func (c *Client) Task(ctx context.Context, id int64) (*Task, error) {
	return c.taskCall(ctx, http.MethodGet, taskPath(id, ""), nil)
}

// ListTasks lists tasks matching filter.
func (c *Client) ListTasks(ctx context.Context, filter maintenance.Filter) ([]Task, error) {
	path := "/api/tasks"
	if query := FilterQuery(filter).Encode(); query != "" {
		path += "?" + query
	}
	var out TaskListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// StartTask moves a task to IN_PROGRESS.
func (c *Client) StartTask(ctx context.Context, id int64) (*Task, error) {
	return c.taskCall(ctx, http.MethodPost, taskPath(id, "start"), nil)
}

// CompleteTask marks a task COMPLETED.
func (c *Client) CompleteTask(ctx context.Context, id int64, notes string) (*Task, error) {
	return c.taskCall(ctx, http.MethodPost, taskPath(id, "complete"), CompleteRequest{Notes: notes})
}

// CancelTask cancels a task. A nil task with no error means it was deleted.
func (c *Client) CancelTask(ctx context.Context, id int64, note string) (*Task, error) {
	return c.taskCall(ctx, http.MethodPost, taskPath(id, "cancel"), CancelRequest{Note: note})
}

// AddNote appends a note line.
func (c *Client) AddNote(ctx context.Context, id int64, text string) (*Task, error) {
	return c.taskCall(ctx, http.MethodPost, taskPath(id, "notes"), NoteRequest{Text: text})
}

// SetStatus applies a status by name or storage code.
func (c *Client) SetStatus(ctx context.Context, id int64, value string) (*Task, error) {
	return c.taskCall(ctx, http.MethodPut, taskPath(id, "status"), StatusRequest{Status: value})
}

// Assign sets the responsible worker.
func (c *Client) Assign(ctx context.Context, id int64, assignee string) (*Task, error) {
	return c.taskCall(ctx, http.MethodPut, taskPath(id, "assignee"), AssigneeRequest{Assignee: assignee})
}

// Stats fetches task counts.
func (c *Client) Stats(ctx context.Context) (StatsResponse, error) {
	var out StatsResponse
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out)
	return out, err
}

// Board fetches the curator view snapshot.
func (c *Client) Board(ctx context.Context) (BoardResponse, error) {
	var out BoardResponse
	err := c.do(ctx, http.MethodGet, "/api/board", nil, &out)
	return out, err
}

// Worklist fetches the cleaner view snapshot.
func (c *Client) Worklist(ctx context.Context) (WorklistResponse, error) {
	var out WorklistResponse
	err := c.do(ctx, http.MethodGet, "/api/worklist", nil, &out)
	return out, err
}

// Select reports a selector change in the named view ("board" or "worklist").
func (c *Client) Select(ctx context.Context, view string, id int64, value string) (SelectResponse, error) {
	var out SelectResponse
	path := "/api/" + view + "/" + strconv.FormatInt(id, 10) + "/select"
	err := c.do(ctx, http.MethodPost, path, StatusRequest{Status: value}, &out)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict && apiErr.Kind == "" {
		// Suppressed selections carry a SelectResponse body, not an error.
		return SelectResponse{Result: string(reconcile.SelectSuppressed)}, nil
	}
	return out, err
}

func (c *Client) taskCall(ctx context.Context, method, path string, body any) (*Task, error) {
	var out TaskResponse
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return out.Task, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var decoded ErrorResponse
		if json.Unmarshal(data, &decoded) == nil && decoded.Error != "" {
			apiErr.Message = decoded.Error
			apiErr.Kind = decoded.Kind
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func taskPath(id int64, action string) string {
	path := "/api/tasks/" + strconv.FormatInt(id, 10)
	if action != "" {
		path += "/" + action
	}
	return path
}
