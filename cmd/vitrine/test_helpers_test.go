package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vitrine/internal/config"
	"vitrine/internal/daemon"
	"vitrine/internal/logging"
	"vitrine/internal/testsupport"
)

const testCatalog = `[[artifact]]
id = "A-1"
name = "Bronze Dagger"

[[artifact]]
id = "A-2"
name = "Ming Vase"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	daemon     *daemon.Daemon
}

// setupLocalEnv writes a config with the API disabled, so every command runs
// against the sqlite store directly.
func setupLocalEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	env := &cliTestEnv{cfg: cfg, configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml")}
	writeTestConfig(t, env.configPath, cfg)
	importCatalog(t, env)
	return env
}

// setupDaemonEnv starts a daemon on a loopback port and points the config at it.
func setupDaemonEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	cat := testsupport.MustOpenCatalog(t, st)
	testsupport.SeedArtifact(t, cat, "A-1", "Bronze Dagger")
	testsupport.SeedArtifact(t, cat, "A-2", "Ming Vase")

	d, err := daemon.New(cfg, daemon.Deps{Store: st, Catalog: cat, Driver: config.DriverSQLite}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})

	cfg.Paths.APIBind = d.APIAddress()
	env := &cliTestEnv{cfg: cfg, daemon: d, configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml")}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func importCatalog(t *testing.T, env *cliTestEnv) {
	t.Helper()
	path := filepath.Join(testsupport.BaseDir(env.cfg), "catalog.toml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	out, _, err := runCLI(t, env, "artifact", "import", path)
	if err != nil {
		t.Fatalf("artifact import: %v", err)
	}
	requireContains(t, out, "Imported 2 artifact(s)")
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[maintenance]\ncancellation = %q\ncompletion_date = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Maintenance.Cancellation,
		cfg.Maintenance.CompletionDate,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
