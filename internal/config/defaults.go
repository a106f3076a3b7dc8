package config

const (
	defaultGamesDir           = "~/.local/share/jigport/games"
	defaultLedgerCSV          = "~/.local/share/jigport/games.csv"
	defaultLogDir             = "~/.local/share/jigport/logs"
	defaultAPIBaseURL         = "https://api.jigzi.org"
	defaultAPITimeoutSeconds  = 60
	defaultSourceBaseURL      = "https://jitap.net/store/api"
	defaultTargetBaseURL      = "https://uploads.jigzi.org/media"
	defaultManifestURLPattern = "https://jitap.net/store/api/album/{id}/structure/"
	defaultManifestBatchSize  = 100
	defaultSlideBatchSize     = 100
	defaultMediaBatchSize     = 100
	defaultSyncBatchSize      = 0
	defaultTranscodeWorkers   = 4
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			GamesDir:  defaultGamesDir,
			LedgerCSV: defaultLedgerCSV,
			LogDir:    defaultLogDir,
		},
		API: API{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: defaultAPITimeoutSeconds,
		},
		Media: Media{
			SourceBaseURL:      defaultSourceBaseURL,
			TargetBaseURL:      defaultTargetBaseURL,
			ManifestURLPattern: defaultManifestURLPattern,
		},
		Pipeline: Pipeline{
			ManifestBatchSize: defaultManifestBatchSize,
			SlideBatchSize:    defaultSlideBatchSize,
			MediaBatchSize:    defaultMediaBatchSize,
			SyncBatchSize:     defaultSyncBatchSize,
			TranscodeWorkers:  defaultTranscodeWorkers,
			ManifestFileFirst: true,
			DataURLEnvelope:   true,
			AllowBadJumpIndex: true,
			AllowMissingMedia: true,
			SkipExistingMedia: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
