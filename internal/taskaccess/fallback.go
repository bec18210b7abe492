package taskaccess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vitrine/internal/api"
	"vitrine/internal/config"
	"vitrine/internal/lifecycle"
	"vitrine/internal/notifications"
	"vitrine/internal/reconcile"
)

// Session represents a task access handle and its cleanup function.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries daemon-backed access first, then falls back to local
// access.
func OpenWithFallback(
	dial func() (*api.Client, error),
	openLocal func() (Access, func() error, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil && client != nil {
			return Session{Access: NewHTTPAccess(client)}, nil
		}
	}

	if openLocal == nil {
		return Session{}, fmt.Errorf("open task store: no store opener configured")
	}
	access, closer, err := openLocal()
	if err != nil {
		return Session{}, fmt.Errorf("open task store: %w", err)
	}
	return Session{Access: access, close: closer}, nil
}

// Open connects to the daemon configured in cfg when it answers, and opens the
// configured store otherwise. local skips the daemon.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, local bool) (Session, error) {
	var dial func() (*api.Client, error)
	if !local && cfg.Paths.APIBind != "" {
		dial = func() (*api.Client, error) {
			return DialDaemon(ctx, cfg)
		}
	}
	return OpenWithFallback(dial, func() (Access, func() error, error) {
		backend, err := OpenBackend(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		engine := lifecycle.New(backend.Store, backend.Catalog, logger, lifecycle.OptionsFromConfig(cfg)...)
		observer := reconcile.NewNotifyObserver(notifications.NewService(cfg), backend.Catalog, logger)
		svc := api.NewTaskService(engine, backend.Catalog, observer)
		return NewLocalAccess(svc, engine, backend.Catalog, observer, logger), backend.Close, nil
	})
}

// DialDaemon returns a client when the configured daemon answers a status
// request.
func DialDaemon(ctx context.Context, cfg *config.Config) (*api.Client, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	client := api.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
	if _, err := client.Status(probeCtx); err != nil {
		return nil, err
	}
	return client, nil
}
