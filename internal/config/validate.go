package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.GamesDir) == "" {
		return errors.New("paths.games_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LedgerCSV) == "" {
		return errors.New("paths.ledger_csv must be set")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if err := ensureHTTPURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if c.API.Token == "" && !c.API.DryRun {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/jigport/config.toml"
		}
		return fmt.Errorf("api.token is required. Set JIGPORT_API_TOKEN env var or edit %s (create with 'jigport config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if err := ensureHTTPURL("media.source_base_url", c.Media.SourceBaseURL); err != nil {
		return err
	}
	if err := ensureHTTPURL("media.target_base_url", c.Media.TargetBaseURL); err != nil {
		return err
	}
	if !strings.Contains(c.Media.ManifestURLPattern, "{id}") {
		return errors.New("media.manifest_url_pattern must contain an {id} placeholder")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	return ensurePositiveMap(map[string]int{
		"pipeline.transcode_workers": c.Pipeline.TranscodeWorkers,
		"api.timeout_seconds":        c.API.TimeoutSeconds,
	})
}

func ensureHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be a valid http(s) URL", key)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", key)
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
