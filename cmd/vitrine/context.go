package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vitrine/internal/config"
	"vitrine/internal/logging"
	"vitrine/internal/taskaccess"
)

type commandContext struct {
	configFlag *string
	localFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, localFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		localFlag:  localFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) local() bool {
	return c.localFlag != nil && *c.localFlag
}

// logger is the CLI's stderr logger. Only warnings surface so table output
// stays readable.
func (c *commandContext) logger(cfg *config.Config) *slog.Logger {
	format := "console"
	if cfg != nil {
		format = cfg.Logging.Format
	}
	logger, err := logging.New(logging.Options{Level: "warn", Format: format, OutputPaths: []string{"stderr"}})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withAccess runs fn against the daemon when it answers, or the local store.
func (c *commandContext) withAccess(cmd *cobra.Command, fn func(taskaccess.Access) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	session, err := taskaccess.Open(cmd.Context(), cfg, c.logger(cfg), c.local())
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session.Access)
}

// withBackend opens the configured store directly, bypassing the daemon.
func (c *commandContext) withBackend(cmd *cobra.Command, fn func(*taskaccess.Backend) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	backend, err := taskaccess.OpenBackend(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open task store: %w", err)
	}
	defer backend.Close()
	return fn(backend)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
