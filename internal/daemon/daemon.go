package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"vitrine/internal/api"
	"vitrine/internal/catalog"
	"vitrine/internal/config"
	"vitrine/internal/lifecycle"
	"vitrine/internal/logging"
	"vitrine/internal/notifications"
	"vitrine/internal/reconcile"
)

// Deps are the opened collaborators the daemon serves.
type Deps struct {
	Store        lifecycle.Store
	Catalog      catalog.Reader
	Notifier     notifications.Service
	Driver       string
	DatabasePath string
}

// Daemon owns the pollers and API server and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Deps

	engine    *lifecycle.Engine
	tasks     *api.TaskService
	curator   *reconcile.Poller
	cleaner   *reconcile.Poller
	scheduler *reconcile.Scheduler
	api       *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Driver       string
	DatabasePath string
	LockFilePath string
	Scheduler    reconcile.SchedulerStatus
}

// New constructs a daemon around opened dependencies.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Catalog == nil {
		return nil, errors.New("daemon requires config, store, and catalog")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}

	engine := lifecycle.New(deps.Store, deps.Catalog, logger, lifecycle.OptionsFromConfig(cfg)...)
	notify := reconcile.NewNotifyObserver(deps.Notifier, deps.Catalog, logger)

	curator := reconcile.NewPoller(reconcile.NewCuratorView(deps.Catalog), engine, engine, cfg.CuratorInterval(), logger, notify)
	cleaner := reconcile.NewPoller(reconcile.NewCleanerView(cfg.Reconcile.CleanerAssignee), engine, engine, cfg.CleanerInterval(), logger, notify)

	lockPath := filepath.Join(cfg.Paths.DataDir, "vitrine.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		deps:      deps,
		engine:    engine,
		tasks:     api.NewTaskService(engine, deps.Catalog, notify),
		curator:   curator,
		cleaner:   cleaner,
		scheduler: reconcile.NewScheduler(logger, curator, cleaner),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, launches pollers, and starts the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vitrine daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.scheduler.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start pollers: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.scheduler.Stop()
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("vitrine daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("driver", d.deps.Driver),
	)
	return nil
}

// Stop stops pollers and the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.api.stop()
	d.scheduler.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vitrine daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// APIAddress reports the address the API server is listening on, or "" when
// the API is disabled or not started.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Driver:       d.deps.Driver,
		DatabasePath: d.deps.DatabasePath,
		LockFilePath: d.lockPath,
		Scheduler:    d.scheduler.Status(),
	}
}

// Poller returns the poller behind a view route name ("board" or "worklist").
func (d *Daemon) Poller(view string) *reconcile.Poller {
	switch view {
	case "board", reconcile.ViewerCurator:
		return d.curator
	case "worklist", reconcile.ViewerCleaner:
		return d.cleaner
	default:
		return nil
	}
}
