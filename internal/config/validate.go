package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMaintenance(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case DriverSQLite:
		return nil
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn must be set when store.driver is %q (or set %s)", DriverPostgres, postgresDSNEnv)
		}
		return nil
	default:
		return fmt.Errorf("store.driver: unsupported value %q (want %q or %q)", c.Store.Driver, DriverSQLite, DriverPostgres)
	}
}

func (c *Config) validateMaintenance() error {
	switch c.Maintenance.CompletionDate {
	case CompletionDateDeadline, CompletionDateActual:
	default:
		return fmt.Errorf("maintenance.completion_date: unsupported value %q (want %q or %q)",
			c.Maintenance.CompletionDate, CompletionDateDeadline, CompletionDateActual)
	}
	switch c.Maintenance.Cancellation {
	case CancellationState, CancellationLegacy:
	default:
		return fmt.Errorf("maintenance.cancellation: unsupported value %q (want %q or %q)",
			c.Maintenance.Cancellation, CancellationState, CancellationLegacy)
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if err := ensurePositiveMap(map[string]int{
		"reconcile.curator_interval":    c.Reconcile.CuratorInterval,
		"reconcile.cleaner_interval":    c.Reconcile.CleanerInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
