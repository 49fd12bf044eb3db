package testsupport

import (
	"path/filepath"
	"testing"

	"clipforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Extraction.TrustedDomains = []string{"storage.example.com"}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithTrustedDomains overrides the trusted source domains on the test config.
func WithTrustedDomains(domains ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Extraction.TrustedDomains = domains
	}
}

// WithMaxEditDuration overrides the edit duration cap, in seconds.
func WithMaxEditDuration(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Extraction.MaxEditDurationSeconds = seconds
	}
}
