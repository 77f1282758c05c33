// Package testsupport provides shared helpers for package tests: configs
// seeded with per-test temp directories, task stores with registered
// cleanup, and small file fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"videogen/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Workdir = base
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.TaskTable = filepath.Join(base, "db", "tasks.csv")
	cfg.Remote.APIToken = "test-token"
	cfg.Remote.BaseURL = "http://127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRemoteBaseURL points the test config at a stub server.
func WithRemoteBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Remote.BaseURL = url
	}
}

// WithWaitTimeout overrides the driver's synchronous wait bound in seconds.
func WithWaitTimeout(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Worker.WaitTimeout = seconds
	}
}
