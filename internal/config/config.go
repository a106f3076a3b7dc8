package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	GamesDir  string `toml:"games_dir"`
	LedgerCSV string `toml:"ledger_csv"`
	LogDir    string `toml:"log_dir"`
}

// API contains configuration for the platform REST API.
type API struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	DryRun         bool   `toml:"dry_run"`
}

// Media contains source and target locations for game assets.
type Media struct {
	SourceBaseURL      string `toml:"source_base_url"`
	TargetBaseURL      string `toml:"target_base_url"`
	TargetToken        string `toml:"target_token"`
	ManifestURLPattern string `toml:"manifest_url_pattern"`
}

// Pipeline contains batch sizes and policy flags for a migration run.
type Pipeline struct {
	ManifestBatchSize int `toml:"manifest_batch_size"`
	SlideBatchSize    int `toml:"slide_batch_size"`
	MediaBatchSize    int `toml:"media_batch_size"`
	SyncBatchSize     int `toml:"sync_batch_size"`
	TranscodeWorkers  int `toml:"transcode_workers"`

	// ManifestFileFirst prefers the cached game.json over the network.
	ManifestFileFirst bool `toml:"manifest_file_first"`
	// DataURLEnvelope unwraps the {data: ...} envelope around manifests.
	DataURLEnvelope bool `toml:"data_url_envelope"`
	// AllowBadJumpIndex drops out-of-range jump targets instead of failing
	// the game.
	AllowBadJumpIndex bool `toml:"allow_bad_jump_index"`
	// AllowMissingMedia demotes 404s on audio and image probes to warnings.
	AllowMissingMedia bool `toml:"allow_missing_media"`
	// AllowMissingVideo demotes 404s on direct video files to warnings.
	// Missing video is fatal for the game by default.
	AllowMissingVideo bool `toml:"allow_missing_video"`
	// FailOnParseError aborts the run on a manifest parse failure instead of
	// skipping the game.
	FailOnParseError bool `toml:"fail_on_parse_error"`
	// FailOn404 aborts the run when a required asset or manifest is missing
	// at the source instead of failing only the affected game.
	FailOn404 bool `toml:"fail_on_404"`
	// SkipExistingMedia skips transfers whose target already exists with a
	// matching size (incremental runs).
	SkipExistingMedia bool `toml:"skip_existing_media"`
	// DeleteStaleModules deletes the live modules of an existing JIG and
	// re-posts them during update. Off by default; the baseline update path
	// only refreshes the ledger.
	DeleteStaleModules bool `toml:"delete_stale_modules"`
	// Strict escalates any per-game failure into a run failure.
	Strict bool `toml:"strict"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for jigport.
//
// Configuration sections by subsystem:
//   - Paths: games staging tree, ledger CSV, and log directory
//   - API: platform REST API endpoint and bearer token
//   - Media: legacy CDN source and target bucket endpoints
//   - Pipeline: batch sizes, worker counts, and policy flags
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	API      API      `toml:"api"`
	Media    Media    `toml:"media"`
	Pipeline Pipeline `toml:"pipeline"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/jigport/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with a hook that runs between parsing and
// validation, so command-line flags can overlay file values and still be
// validated as a whole.
func LoadWithOverrides(path string, apply func(*Config)) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if apply != nil {
		apply(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("jigport.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.GamesDir, c.Paths.LogDir}
	if ledgerDir := filepath.Dir(c.Paths.LedgerCSV); ledgerDir != "" && ledgerDir != "." {
		dirs = append(dirs, ledgerDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the transcoder executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// ManifestURL resolves the manifest URL for a game.
func (c *Config) ManifestURL(gameID string) string {
	return strings.ReplaceAll(c.Media.ManifestURLPattern, "{id}", gameID)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
