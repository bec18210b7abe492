package taskaccess

import (
	"context"
	"fmt"
	"net/url"

	"vitrine/internal/catalog"
	"vitrine/internal/config"
	"vitrine/internal/lifecycle"
	"vitrine/internal/store"
	"vitrine/internal/store/postgres"
)

// Catalog is the read/write catalog surface a backend provides.
type Catalog interface {
	catalog.Reader
	catalog.Writer
}

// Backend is an opened task store plus the catalog stored alongside it.
type Backend struct {
	Store    lifecycle.Store
	Catalog  Catalog
	Driver   string
	Location string

	ping  func(context.Context) error
	close func() error
}

// Ping checks the underlying database connection.
func (b *Backend) Ping(ctx context.Context) error {
	if b == nil || b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the database handle.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the store selected by cfg.Store.Driver.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.UsesPostgres() {
		pg, err := postgres.Open(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:    pg,
			Catalog:  postgres.NewCatalog(pg.Pool()),
			Driver:   config.DriverPostgres,
			Location: redactDSN(cfg.Store.PostgresDSN),
			ping:     pg.Ping,
			close:    pg.Close,
		}, nil
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Store:    st,
		Catalog:  catalog.NewSQL(st.DB()),
		Driver:   config.DriverSQLite,
		Location: st.Path(),
		ping:     st.Ping,
		close:    st.Close,
	}, nil
}

// redactDSN hides the password in a postgres URL for display.
func redactDSN(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil || parsed.User == nil {
		return dsn
	}
	return parsed.Redacted()
}
