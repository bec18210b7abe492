package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"vitrine/internal/config"
	"vitrine/internal/logging"
	"vitrine/internal/notifications"
	"vitrine/internal/preflight"
	"vitrine/internal/taskaccess"
)

// RunOptions configures daemon process runtime behavior.
type RunOptions struct {
	LogLevel    string
	Development bool
}

// Run starts the vitrine daemon and blocks until SIGINT, SIGTERM, or ctx
// cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts RunOptions) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("vitrine-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pointer := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	if err := ensureCurrentLogPointer(pointer, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	if removed := logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath, pointer); removed > 0 {
		logger.Info("pruned old logs", logging.Int("count", removed))
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "vitrine.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	backend, err := taskaccess.OpenBackend(signalCtx, cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open task store", "store_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check store.driver and database access"),
		)
		return err
	}
	defer backend.Close()

	results := preflight.RunAll(signalCtx, cfg, backend)
	for _, result := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
		if result.Name == preflight.DatabaseCheck {
			return fmt.Errorf("preflight: database: %s", result.Detail)
		}
	}

	d, err := New(cfg, Deps{
		Store:        backend.Store,
		Catalog:      backend.Catalog,
		Notifier:     notifications.NewService(cfg),
		Driver:       backend.Driver,
		DatabasePath: backend.Location,
	}, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("vitrine daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
