package taskaccess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vitrine/internal/api"
	"vitrine/internal/catalog"
	"vitrine/internal/lifecycle"
	"vitrine/internal/maintenance"
	"vitrine/internal/reconcile"
)

// Access provides task operations regardless of HTTP or direct store backing.
type Access interface {
	Create(ctx context.Context, req api.CreateTaskRequest) (*api.Task, error)
	Describe(ctx context.Context, id int64) (*api.Task, error)
	List(ctx context.Context, filter maintenance.Filter) ([]api.Task, error)
	Start(ctx context.Context, id int64) (*api.Task, error)
	Complete(ctx context.Context, id int64, notes string) (*api.Task, error)
	Cancel(ctx context.Context, id int64, note string) (*api.Task, error)
	AddNote(ctx context.Context, id int64, text string) (*api.Task, error)
	SetStatus(ctx context.Context, id int64, value string) (*api.Task, error)
	Assign(ctx context.Context, id int64, assignee string) (*api.Task, error)
	Stats(ctx context.Context) (api.StatsResponse, error)
	Board(ctx context.Context) ([]api.BoardRow, error)
	Worklist(ctx context.Context, assignee string) ([]api.Task, error)
	// Select reports a selector change in the board or worklist view.
	Select(ctx context.Context, view string, id int64, value string) (api.SelectResponse, error)
	// Remote reports whether calls go through a running daemon.
	Remote() bool
}

// NewHTTPAccess returns an Access backed by the daemon API.
func NewHTTPAccess(client *api.Client) Access {
	return &httpAccess{client: client}
}

// NewLocalAccess returns an Access backed by direct store access. Selector
// changes run through a one-shot poller whose user events go to observer.
func NewLocalAccess(svc *api.TaskService, engine *lifecycle.Engine, cat catalog.Reader, observer reconcile.Observer, logger *slog.Logger) Access {
	return &localAccess{service: svc, engine: engine, catalog: cat, observer: observer, logger: logger}
}

type httpAccess struct {
	client *api.Client
}

func (a *httpAccess) Create(ctx context.Context, req api.CreateTaskRequest) (*api.Task, error) {
	return a.client.CreateTask(ctx, req)
}

func (a *httpAccess) Describe(ctx context.Context, id int64) (*api.Task, error) {
	return a.client.Task(ctx, id)
}

func (a *httpAccess) List(ctx context.Context, filter maintenance.Filter) ([]api.Task, error) {
	return a.client.ListTasks(ctx, filter)
}

func (a *httpAccess) Start(ctx context.Context, id int64) (*api.Task, error) {
	return a.client.StartTask(ctx, id)
}

func (a *httpAccess) Complete(ctx context.Context, id int64, notes string) (*api.Task, error) {
	return a.client.CompleteTask(ctx, id, notes)
}

func (a *httpAccess) Cancel(ctx context.Context, id int64, note string) (*api.Task, error) {
	return a.client.CancelTask(ctx, id, note)
}

func (a *httpAccess) AddNote(ctx context.Context, id int64, text string) (*api.Task, error) {
	return a.client.AddNote(ctx, id, text)
}

func (a *httpAccess) SetStatus(ctx context.Context, id int64, value string) (*api.Task, error) {
	return a.client.SetStatus(ctx, id, value)
}

func (a *httpAccess) Assign(ctx context.Context, id int64, assignee string) (*api.Task, error) {
	return a.client.Assign(ctx, id, assignee)
}

func (a *httpAccess) Stats(ctx context.Context) (api.StatsResponse, error) {
	return a.client.Stats(ctx)
}

func (a *httpAccess) Board(ctx context.Context) ([]api.BoardRow, error) {
	resp, err := a.client.Board(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// Worklist returns the daemon's cleaner snapshot, narrowed to assignee when
// one is given.
func (a *httpAccess) Worklist(ctx context.Context, assignee string) ([]api.Task, error) {
	resp, err := a.client.Worklist(ctx)
	if err != nil {
		return nil, err
	}
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return resp.Tasks, nil
	}
	out := make([]api.Task, 0, len(resp.Tasks))
	for _, task := range resp.Tasks {
		if task.AssigneeID == assignee {
			out = append(out, task)
		}
	}
	return out, nil
}

func (a *httpAccess) Select(ctx context.Context, view string, id int64, value string) (api.SelectResponse, error) {
	return a.client.Select(ctx, view, id, value)
}

func (a *httpAccess) Remote() bool { return true }

type localAccess struct {
	service  *api.TaskService
	engine   *lifecycle.Engine
	catalog  catalog.Reader
	observer reconcile.Observer
	logger   *slog.Logger
}

func (a *localAccess) Create(ctx context.Context, req api.CreateTaskRequest) (*api.Task, error) {
	return a.service.Create(ctx, req)
}

func (a *localAccess) Describe(ctx context.Context, id int64) (*api.Task, error) {
	return a.service.Describe(ctx, id)
}

func (a *localAccess) List(ctx context.Context, filter maintenance.Filter) ([]api.Task, error) {
	return a.service.List(ctx, filter)
}

func (a *localAccess) Start(ctx context.Context, id int64) (*api.Task, error) {
	return a.service.Start(ctx, id)
}

func (a *localAccess) Complete(ctx context.Context, id int64, notes string) (*api.Task, error) {
	return a.service.Complete(ctx, id, notes)
}

func (a *localAccess) Cancel(ctx context.Context, id int64, note string) (*api.Task, error) {
	return a.service.Cancel(ctx, id, note)
}

func (a *localAccess) AddNote(ctx context.Context, id int64, text string) (*api.Task, error) {
	return a.service.AddNote(ctx, id, text)
}

func (a *localAccess) SetStatus(ctx context.Context, id int64, value string) (*api.Task, error) {
	return a.service.SetStatus(ctx, id, value)
}

func (a *localAccess) Assign(ctx context.Context, id int64, assignee string) (*api.Task, error) {
	return a.service.Assign(ctx, id, assignee)
}

func (a *localAccess) Stats(ctx context.Context) (api.StatsResponse, error) {
	return a.service.Stats(ctx)
}

// Board rebuilds a curator view once from the current store contents.
func (a *localAccess) Board(ctx context.Context) ([]api.BoardRow, error) {
	tasks, err := a.engine.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	view := reconcile.NewCuratorView(a.catalog)
	if err := view.Rebuild(ctx, tasks, nil); err != nil {
		return nil, err
	}
	return api.FromSummaries(view.Rows()), nil
}

// Worklist rebuilds a cleaner view once from the current store contents.
func (a *localAccess) Worklist(ctx context.Context, assignee string) ([]api.Task, error) {
	tasks, err := a.engine.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	view := reconcile.NewCleanerView(assignee)
	if err := view.Rebuild(ctx, tasks, nil); err != nil {
		return nil, err
	}
	return a.service.Convert(ctx, view.Rows()), nil
}

// Select rebuilds the named view and applies the change the way the daemon's
// poller would.
func (a *localAccess) Select(ctx context.Context, view string, id int64, value string) (api.SelectResponse, error) {
	var v reconcile.View
	switch view {
	case "board", reconcile.ViewerCurator:
		v = reconcile.NewCuratorView(a.catalog)
	case "worklist", reconcile.ViewerCleaner:
		v = reconcile.NewCleanerView("")
	default:
		return api.SelectResponse{}, maintenance.Validation("select", fmt.Sprintf("unknown view %q", view))
	}

	poller := reconcile.NewPoller(v, a.engine, a.engine, time.Minute, a.logger, a.observer)
	if err := poller.Cycle(ctx); err != nil {
		return api.SelectResponse{}, err
	}
	result, task, err := poller.Select(ctx, id, value)
	if err != nil {
		return api.SelectResponse{}, err
	}
	resp := api.SelectResponse{Result: string(result)}
	if task != nil {
		converted := a.service.Convert(ctx, []maintenance.Task{*task})
		resp.Task = &converted[0]
	}
	return resp, nil
}

func (a *localAccess) Remote() bool { return false }
