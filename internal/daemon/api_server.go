package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vitrine/internal/api"
	"vitrine/internal/config"
	"vitrine/internal/logging"
	"vitrine/internal/maintenance"
	"vitrine/internal/reconcile"
	"vitrine/internal/services"
)

const requestIDHeader = "X-Request-ID"

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	tasks  *api.TaskService

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		tasks:  d.tasks,
	}
	srv.server = &http.Server{
		Handler:           srv.withRequestID(authMiddleware(cfg.Paths.APIToken, srv.routes())),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/board", s.handleBoard)
	mux.HandleFunc("GET /api/worklist", s.handleWorklist)
	mux.HandleFunc("POST /api/board/{id}/select", s.handleSelect("board"))
	mux.HandleFunc("POST /api/worklist/{id}/select", s.handleSelect("worklist"))

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("POST /api/tasks/{id}/start", s.handleStart)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.handleComplete)
	mux.HandleFunc("POST /api/tasks/{id}/cancel", s.handleCancel)
	mux.HandleFunc("POST /api/tasks/{id}/notes", s.handleAddNote)
	mux.HandleFunc("PUT /api/tasks/{id}/status", s.handleSetStatus)
	mux.HandleFunc("PUT /api/tasks/{id}/assignee", s.handleAssign)
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Driver:       status.Driver,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Scheduler:    status.Scheduler,
	})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tasks.Stats(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *apiServer) handleBoard(w http.ResponseWriter, r *http.Request) {
	poller := s.daemon.curator
	view, _ := poller.View().(*reconcile.CuratorView)
	resp := api.BoardResponse{Rows: []api.BoardRow{}, Poller: poller.Status()}
	if view != nil {
		resp.Rows = api.FromSummaries(view.Rows())
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleWorklist(w http.ResponseWriter, r *http.Request) {
	poller := s.daemon.cleaner
	view, _ := poller.View().(*reconcile.CleanerView)
	resp := api.WorklistResponse{Tasks: []api.Task{}, Poller: poller.Status()}
	if view != nil {
		resp.Tasks = s.tasks.Convert(r.Context(), view.Rows())
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleSelect(viewName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.taskID(w, r)
		if !ok {
			return
		}
		var body api.StatusRequest
		if !s.decode(w, r, &body) {
			return
		}
		poller := s.daemon.Poller(viewName)
		result, task, err := poller.Select(r.Context(), id, body.Status)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		resp := api.SelectResponse{Result: string(result)}
		if task != nil {
			dto := s.tasks.Convert(r.Context(), []maintenance.Task{*task})
			resp.Task = &dto[0]
		}
		code := http.StatusOK
		if result == reconcile.SelectSuppressed {
			code = http.StatusConflict
		}
		s.writeJSON(w, code, resp)
	}
}

func (s *apiServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := api.ParseFilter(r.URL.Query())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	tasks, err := s.tasks.List(r.Context(), filter)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []api.Task{}
	}
	s.writeJSON(w, http.StatusOK, api.TaskListResponse{Tasks: tasks})
}

func (s *apiServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var body api.CreateTaskRequest
	if !s.decode(w, r, &body) {
		return
	}
	task, err := s.tasks.Create(r.Context(), body)
	s.writeTask(w, r, http.StatusCreated, task, err)
}

func (s *apiServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	task, err := s.tasks.Describe(r.Context(), id)
	s.writeTask(w, r, http.StatusOK, task, err)
}

func (s *apiServer) handleStart(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	task, err := s.tasks.Start(r.Context(), id)
	s.writeTask(w, r, http.StatusOK, task, err)
}

func (s *apiServer) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	var body api.CompleteRequest
	if !s.decode(w, r, &body) {
		return
	}
	task, err := s.tasks.Complete(r.Context(), id, body.Notes)
	s.writeTask(w, r, http.StatusOK, task, err)
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	var body api.CancelRequest
	if !s.decode(w, r, &body) {
		return
	}
	task, err := s.tasks.Cancel(r.Context(), id, strings.TrimSpace(body.Note))
	if err == nil && task == nil {
		s.writeJSON(w, http.StatusOK, api.TaskResponse{Deleted: true})
		return
	}
	s.writeTask(w, r, http.StatusOK, task, err)
}

func (s *apiServer) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	var body api.NoteRequest
	if !s.decode(w, r, &body) {
		return
	}
	task, err := s.tasks.AddNote(r.Context(), id, body.Text)
	s.writeTask(w, r, http.StatusOK, task, err)
}

func (s *apiServer) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	var body api.StatusRequest
	if !s.decode(w, r, &body) {
		return
	}
	task, err := s.tasks.SetStatus(r.Context(), id, body.Status)
	s.writeTask(w, r, http.StatusOK, task, err)
}

func (s *apiServer) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	var body api.AssigneeRequest
	if !s.decode(w, r, &body) {
		return
	}
	task, err := s.tasks.Assign(r.Context(), id, body.Assignee)
	s.writeTask(w, r, http.StatusOK, task, err)
}

func (s *apiServer) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid task id", string(maintenance.KindValidation))
		return 0, false
	}
	return id, true
}

// decode reads an optional JSON body. An empty body leaves out untouched.
func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), string(maintenance.KindValidation))
		return false
	}
	return true
}

func (s *apiServer) writeTask(w http.ResponseWriter, r *http.Request, code int, task *api.Task, err error) {
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, code, api.TaskResponse{Task: task})
}

func (s *apiServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	kind := maintenance.KindOf(err)
	code := statusForKind(kind)
	if code >= http.StatusInternalServerError {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
			logging.Error(err),
			logging.String("path", r.URL.Path),
			logging.String(logging.FieldErrorHint, "check database access"),
			logging.String(logging.FieldImpact, "client received an error response"),
		)
	}
	writeJSONError(w, code, err.Error(), string(kind))
}

func statusForKind(kind maintenance.Kind) int {
	switch kind {
	case maintenance.KindNotFound:
		return http.StatusNotFound
	case maintenance.KindInvalidState:
		return http.StatusConflict
	case maintenance.KindValidation:
		return http.StatusBadRequest
	case maintenance.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message, Kind: kind})
}
