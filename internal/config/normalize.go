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
	c.normalizeAPI()
	c.normalizeMedia()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.GamesDir, err = expandPath(c.Paths.GamesDir); err != nil {
		return fmt.Errorf("paths.games_dir: %w", err)
	}
	if c.Paths.LedgerCSV, err = expandPath(c.Paths.LedgerCSV); err != nil {
		return fmt.Errorf("paths.ledger_csv: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("JIGPORT_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeoutSeconds
	}
}

func (c *Config) normalizeMedia() {
	c.Media.SourceBaseURL = strings.TrimRight(strings.TrimSpace(c.Media.SourceBaseURL), "/")
	if c.Media.SourceBaseURL == "" {
		c.Media.SourceBaseURL = defaultSourceBaseURL
	}
	c.Media.TargetBaseURL = strings.TrimRight(strings.TrimSpace(c.Media.TargetBaseURL), "/")
	if c.Media.TargetBaseURL == "" {
		c.Media.TargetBaseURL = defaultTargetBaseURL
	}
	c.Media.TargetToken = strings.TrimSpace(c.Media.TargetToken)
	if c.Media.TargetToken == "" {
		if value, ok := os.LookupEnv("JIGPORT_MEDIA_TOKEN"); ok {
			c.Media.TargetToken = strings.TrimSpace(value)
		}
	}
	c.Media.ManifestURLPattern = strings.TrimSpace(c.Media.ManifestURLPattern)
	if c.Media.ManifestURLPattern == "" {
		c.Media.ManifestURLPattern = defaultManifestURLPattern
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.ManifestBatchSize < 0 {
		c.Pipeline.ManifestBatchSize = defaultManifestBatchSize
	}
	if c.Pipeline.SlideBatchSize < 0 {
		c.Pipeline.SlideBatchSize = defaultSlideBatchSize
	}
	if c.Pipeline.MediaBatchSize < 0 {
		c.Pipeline.MediaBatchSize = defaultMediaBatchSize
	}
	if c.Pipeline.SyncBatchSize < 0 {
		c.Pipeline.SyncBatchSize = defaultSyncBatchSize
	}
	if c.Pipeline.TranscodeWorkers <= 0 {
		c.Pipeline.TranscodeWorkers = defaultTranscodeWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
