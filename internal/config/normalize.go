package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeMaintenance()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if value, ok := os.LookupEnv(apiTokenEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIToken = value
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if value, ok := os.LookupEnv(postgresDSNEnv); ok && strings.TrimSpace(value) != "" {
		c.Store.PostgresDSN = value
	}
	c.Store.PostgresDSN = strings.TrimSpace(c.Store.PostgresDSN)
}

func (c *Config) normalizeMaintenance() {
	c.Maintenance.CompletionDate = strings.ToLower(strings.TrimSpace(c.Maintenance.CompletionDate))
	if c.Maintenance.CompletionDate == "" {
		c.Maintenance.CompletionDate = CompletionDateDeadline
	}
	c.Maintenance.Cancellation = strings.ToLower(strings.TrimSpace(c.Maintenance.Cancellation))
	if c.Maintenance.Cancellation == "" {
		c.Maintenance.Cancellation = CancellationState
	}
	c.Reconcile.CleanerAssignee = strings.TrimSpace(c.Reconcile.CleanerAssignee)
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv(ntfyTopicEnv); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
