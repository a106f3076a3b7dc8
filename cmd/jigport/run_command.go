package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"jigport/internal/config"
	"jigport/internal/logging"
	"jigport/internal/pipeline"
)

// runFlags mirror the config fields a single run commonly overrides.
type runFlags struct {
	dryRun    bool
	gameIDs   string
	strict    bool
	badJump   bool
	panic404  bool
	panicJSON bool
	envelope  bool
	staleMods bool

	manifestBatch  int
	slideBatch     int
	mediaBatch     int
	syncBatch      int
	transcodeCount int

	token     string
	gamesDir  string
	ledgerCSV string
	apiURL    string
	sourceURL string
	targetURL string
}

func newRunCommand(configFlag *string) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the migration pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.LoadWithOverrides(*configFlag, func(cfg *config.Config) {
				applyRunFlags(cfg, cmd, &flags)
			})
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			gameIDs, err := pipeline.ParseGameIDs(flags.gameIDs)
			if err != nil {
				return err
			}

			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return p.Run(ctx, gameIDs)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Log API calls instead of sending them; do not persist the ledger")
	cmd.Flags().StringVar(&flags.gameIDs, "game-ids", "", "Comma separated game ids, or the path of a file with one id per line")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Escalate any per-game failure into a run failure")
	cmd.Flags().BoolVar(&flags.badJump, "allow-bad-jump-index", false, "Drop out-of-range jump targets instead of failing the game")
	cmd.Flags().BoolVar(&flags.panic404, "panic-on-404", false, "Abort the run when a required source asset is missing")
	cmd.Flags().BoolVar(&flags.panicJSON, "panic-on-parse-error", false, "Abort the run on a manifest parse failure")
	cmd.Flags().BoolVar(&flags.envelope, "data-url-envelope", false, "Unwrap the {data: ...} envelope around manifests")
	cmd.Flags().BoolVar(&flags.staleMods, "delete-stale-modules", false, "Rebuild the module list of existing JIGs on update")

	cmd.Flags().IntVar(&flags.manifestBatch, "manifest-batch-size", 0, "Manifest loads in flight (0 = sequential)")
	cmd.Flags().IntVar(&flags.slideBatch, "transcode-batch-size", 0, "Slide translations in flight per game (0 = sequential)")
	cmd.Flags().IntVar(&flags.mediaBatch, "media-batch-size", 0, "Media transfers in flight (0 = sequential)")
	cmd.Flags().IntVar(&flags.syncBatch, "api-batch-size", 0, "Game synchronizations in flight (0 = sequential)")
	cmd.Flags().IntVar(&flags.transcodeCount, "transcode-workers", 0, "Concurrent ffmpeg processes")

	cmd.Flags().StringVar(&flags.token, "token", "", "Bearer token for the platform API")
	cmd.Flags().StringVar(&flags.gamesDir, "games-dir", "", "Staging tree for manifests and media")
	cmd.Flags().StringVar(&flags.ledgerCSV, "ledger-csv", "", "Migration ledger path")
	cmd.Flags().StringVar(&flags.apiURL, "api-base-url", "", "Platform API base URL")
	cmd.Flags().StringVar(&flags.sourceURL, "media-source-base-url", "", "Legacy CDN base URL")
	cmd.Flags().StringVar(&flags.targetURL, "media-target-base-url", "", "Target bucket base URL")

	return cmd
}

// applyRunFlags overlays explicitly set flags onto the loaded config. Flags
// that were not passed leave the file values alone.
func applyRunFlags(cfg *config.Config, cmd *cobra.Command, flags *runFlags) {
	set := cmd.Flags().Changed

	if set("dry-run") {
		cfg.API.DryRun = flags.dryRun
	}
	if set("strict") {
		cfg.Pipeline.Strict = flags.strict
	}
	if set("allow-bad-jump-index") {
		cfg.Pipeline.AllowBadJumpIndex = flags.badJump
	}
	if set("panic-on-404") {
		cfg.Pipeline.FailOn404 = flags.panic404
	}
	if set("panic-on-parse-error") {
		cfg.Pipeline.FailOnParseError = flags.panicJSON
	}
	if set("data-url-envelope") {
		cfg.Pipeline.DataURLEnvelope = flags.envelope
	}
	if set("delete-stale-modules") {
		cfg.Pipeline.DeleteStaleModules = flags.staleMods
	}
	if set("manifest-batch-size") {
		cfg.Pipeline.ManifestBatchSize = flags.manifestBatch
	}
	if set("transcode-batch-size") {
		cfg.Pipeline.SlideBatchSize = flags.slideBatch
	}
	if set("media-batch-size") {
		cfg.Pipeline.MediaBatchSize = flags.mediaBatch
	}
	if set("api-batch-size") {
		cfg.Pipeline.SyncBatchSize = flags.syncBatch
	}
	if set("transcode-workers") {
		cfg.Pipeline.TranscodeWorkers = flags.transcodeCount
	}
	if set("token") {
		cfg.API.Token = flags.token
	}
	if set("games-dir") {
		cfg.Paths.GamesDir = expandedOrRaw(flags.gamesDir)
	}
	if set("ledger-csv") {
		cfg.Paths.LedgerCSV = expandedOrRaw(flags.ledgerCSV)
	}
	if set("api-base-url") {
		cfg.API.BaseURL = strings.TrimRight(flags.apiURL, "/")
	}
	if set("media-source-base-url") {
		cfg.Media.SourceBaseURL = strings.TrimRight(flags.sourceURL, "/")
	}
	if set("media-target-base-url") {
		cfg.Media.TargetBaseURL = strings.TrimRight(flags.targetURL, "/")
	}
}

func expandedOrRaw(path string) string {
	if expanded, err := config.ExpandPath(path); err == nil {
		return expanded
	}
	return path
}
