package testsupport

import (
	"path/filepath"
	"testing"

	"jigport/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults to a dry run so no test accidentally depends on the network,
// and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.GamesDir = filepath.Join(base, "games")
	cfg.Paths.LedgerCSV = filepath.Join(base, "games.csv")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.API.DryRun = true
	cfg.API.Token = "test-token"
	cfg.Media.TargetToken = "test-token"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithLiveAPI turns off dry-run and points the platform client at url.
func WithLiveAPI(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.API.DryRun = false
		cfg.API.BaseURL = url
	}
}

// WithSourceURL points the legacy CDN endpoints at url.
func WithSourceURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Media.SourceBaseURL = url
		cfg.Media.ManifestURLPattern = url + "/album/{id}/structure/"
	}
}

// WithTargetURL points the bucket client at url.
func WithTargetURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Media.TargetBaseURL = url
	}
}

// Sequential forces every stage into deterministic single-file execution.
func Sequential() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.ManifestBatchSize = 0
		cfg.Pipeline.SlideBatchSize = 0
		cfg.Pipeline.MediaBatchSize = 0
		cfg.Pipeline.SyncBatchSize = 0
		cfg.Pipeline.TranscodeWorkers = 1
	}
}
