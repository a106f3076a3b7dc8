// Package pipeline composes the migration stages: manifest loading, slide
// translation, media movement, and platform synchronization. One Pipeline
// drives one run over a set of games, with per-game failures recorded in the
// ledger instead of aborting the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"jigport/internal/api"
	"jigport/internal/config"
	"jigport/internal/ledger"
	"jigport/internal/logging"
	"jigport/internal/manifest"
	"jigport/internal/media"
	"jigport/internal/mediastate"
	"jigport/internal/runlog"
	"jigport/internal/scheduler"
	"jigport/internal/services"
	"jigport/internal/services/ffmpeg"
	"jigport/internal/slide"
	"jigport/internal/storage"
	"jigport/internal/syncer"
)

// Stage names recorded in the ledger's last_stage column.
const (
	StageManifest = "manifest"
	StageSlides   = "slides"
	StageMedia    = "media"
	StageSync     = "sync"
)

// Pipeline owns the per-run components.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	logs      *runlog.Logs
	ledger    *ledger.Ledger
	state     *mediastate.Store
	loader    *manifest.Loader
	converter *slide.Converter
	collector *media.Collector
	mover     *media.Mover
	syncer    *syncer.Syncer
	lock      *flock.Flock

	mu     sync.Mutex
	games  map[string]*manifest.Manifest
	order  []string
	failed map[string]bool
}

// New wires a Pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	logs, err := runlog.Open(cfg.Paths.LogDir)
	if err != nil {
		return nil, err
	}

	led, err := ledger.Open(cfg.Paths.LedgerCSV, cfg.API.DryRun)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	state, err := mediastate.Open(filepath.Join(cfg.Paths.GamesDir, "media.db"))
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second}

	loader := manifest.NewLoader(manifest.LoaderOptions{
		GamesDir:  cfg.Paths.GamesDir,
		URL:       cfg.ManifestURL,
		FileFirst: cfg.Pipeline.ManifestFileFirst,
		Envelope:  cfg.Pipeline.DataURLEnvelope,
	}, httpClient, logger, logs)

	collector := media.NewCollector()
	converter := slide.NewConverter(media.NewHTTPProber(httpClient), collector, logs, logger, slide.Options{
		AllowBadJumpIndex: cfg.Pipeline.AllowBadJumpIndex,
		AllowMissingMedia: cfg.Pipeline.AllowMissingMedia,
		AllowMissingVideo: cfg.Pipeline.AllowMissingVideo,
	})

	bucket := storage.New(cfg.Media.TargetBaseURL, cfg.Media.TargetToken, httpClient)
	transcoder := ffmpeg.New(cfg.FFmpegBinary(), logger)
	mover := media.NewMover(httpClient, bucket, transcoder, state, logger, logs, media.MoverOptions{
		GamesDir:          cfg.Paths.GamesDir,
		TranscodeWorkers:  cfg.Pipeline.TranscodeWorkers,
		AllowMissingMedia: cfg.Pipeline.AllowMissingMedia,
		SkipExisting:      cfg.Pipeline.SkipExistingMedia,
	})

	client := api.New(cfg.API.BaseURL, cfg.API.Token, cfg.API.DryRun, httpClient, logger)
	syn := syncer.New(client, led, logger, logs, syncer.Options{
		DeleteStaleModules: cfg.Pipeline.DeleteStaleModules,
	})

	return &Pipeline{
		cfg:       cfg,
		logger:    logger.With(logging.FieldComponent, "pipeline"),
		logs:      logs,
		ledger:    led,
		state:     state,
		loader:    loader,
		converter: converter,
		collector: collector,
		mover:     mover,
		syncer:    syn,
		lock:      flock.New(filepath.Join(cfg.Paths.LogDir, "jigport.lock")),
		games:     make(map[string]*manifest.Manifest),
		failed:    make(map[string]bool),
	}, nil
}

// Close releases the run's resources. Safe to call after a failed Run.
func (p *Pipeline) Close() error {
	var errs []error
	if err := p.ledger.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := p.state.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.logs.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run executes the four stages over the given games. With an empty slice the
// game set comes from the ledger, or failing that from the staging directory.
func (p *Pipeline) Run(ctx context.Context, gameIDs []string) error {
	locked, err := p.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another migration run is already in progress")
	}
	defer func() { _ = p.lock.Unlock() }()

	gameIDs, err = p.resolveGames(gameIDs)
	if err != nil {
		return err
	}
	if len(gameIDs) == 0 {
		return errors.New("no games to migrate; pass --game-ids or seed the ledger")
	}
	p.logger.Info("run starting",
		"games", len(gameIDs), "dry_run", p.cfg.API.DryRun)

	for _, gameID := range gameIDs {
		if err := p.ledger.Ensure(gameID); err != nil {
			return err
		}
	}

	if err := p.loadManifests(ctx, gameIDs); err != nil {
		return err
	}
	if err := p.translateSlides(ctx); err != nil {
		return err
	}
	if err := p.moveMedia(ctx); err != nil {
		return err
	}
	if err := p.syncGames(ctx); err != nil {
		return err
	}

	p.summarize()
	return nil
}

func (p *Pipeline) resolveGames(gameIDs []string) ([]string, error) {
	if len(gameIDs) > 0 {
		return gameIDs, nil
	}
	if ids := p.ledger.GameIDs(); len(ids) > 0 {
		return ids, nil
	}
	return scanGamesDir(p.cfg.Paths.GamesDir)
}

// scanGamesDir treats every numeric directory under the staging tree as a
// previously fetched game.
func scanGamesDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan games directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && isNumeric(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseGameIDs resolves the --game-ids argument: the path of a file with one
// id per line, or a comma separated list.
func ParseGameIDs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if info, err := os.Stat(raw); err == nil && !info.IsDir() {
		data, err := os.ReadFile(raw)
		if err != nil {
			return nil, fmt.Errorf("read game id file: %w", err)
		}
		return splitIDs(string(data), "\n"), nil
	}
	return splitIDs(raw, ","), nil
}

func splitIDs(raw, sep string) []string {
	var ids []string
	for _, part := range strings.Split(raw, sep) {
		for _, id := range strings.Split(part, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (p *Pipeline) loadManifests(ctx context.Context, gameIDs []string) error {
	jobs := make([]scheduler.Job, 0, len(gameIDs))
	for _, gameID := range gameIDs {
		gameID := gameID
		jobs = append(jobs, func(ctx context.Context) error {
			man, err := p.loader.Load(services.WithGameID(ctx, gameID), gameID)
			if err != nil {
				return p.failGame(gameID, StageManifest, err)
			}
			p.mu.Lock()
			p.games[gameID] = man
			p.order = append(p.order, gameID)
			p.mu.Unlock()
			return p.ledger.SetStage(gameID, StageManifest)
		})
	}
	return p.stageErrors(StageManifest, scheduler.Run(ctx, p.cfg.Pipeline.ManifestBatchSize, jobs))
}

func (p *Pipeline) translateSlides(ctx context.Context) error {
	var stageErr error
	for _, gameID := range p.gameOrder() {
		man := p.games[gameID]
		baseURL := p.sourceBase(gameID, man)
		slideCount := len(man.Structure.Slides)

		jobs := make([]scheduler.Job, 0, slideCount)
		for i := range man.Structure.Slides {
			src := &man.Structure.Slides[i]
			jobs = append(jobs, func(ctx context.Context) error {
				translated, err := p.converter.Convert(ctx, gameID, baseURL, src, slideCount)
				if err != nil {
					return err
				}
				return slide.WriteSlide(p.cfg.Paths.GamesDir, gameID, src.ID(), translated)
			})
		}

		err := scheduler.Run(ctx, p.cfg.Pipeline.SlideBatchSize, jobs)
		if err != nil {
			if ferr := p.failGame(gameID, StageSlides, err); ferr != nil {
				stageErr = errors.Join(stageErr, ferr)
			}
			continue
		}
		if err := p.ledger.SetStage(gameID, StageSlides); err != nil {
			return err
		}
	}
	return p.stageErrors(StageSlides, stageErr)
}

func (p *Pipeline) moveMedia(ctx context.Context) error {
	refs := p.collector.Refs()
	stats, err := p.mover.Move(ctx, refs, p.cfg.Pipeline.MediaBatchSize)
	p.logger.Info("media stage finished",
		"refs", len(refs), "moved", stats.Moved, "skipped", stats.Skipped, "missing", stats.Missing)
	if err != nil {
		// Media failures are not attributable to a single game here; they
		// were already logged per ref by the mover.
		if p.cfg.Pipeline.Strict {
			return err
		}
		p.logger.Warn("media stage had failures", logging.FieldStage, StageMedia)
	}
	for _, gameID := range p.gameOrder() {
		if p.isFailed(gameID) {
			continue
		}
		if err := p.ledger.SetStage(gameID, StageMedia); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) syncGames(ctx context.Context) error {
	order := p.gameOrder()
	jobs := make([]scheduler.Job, 0, len(order))
	for _, gameID := range order {
		if p.isFailed(gameID) {
			continue
		}
		gameID := gameID
		man := p.games[gameID]
		jobs = append(jobs, func(ctx context.Context) error {
			if err := p.syncer.SyncGame(services.WithGameID(ctx, gameID), man); err != nil {
				return p.failGame(gameID, StageSync, err)
			}
			return p.ledger.SetStage(gameID, StageSync)
		})
	}
	return p.stageErrors(StageSync, scheduler.Run(ctx, p.cfg.Pipeline.SyncBatchSize, jobs))
}

// failGame records a per-game failure and decides whether it poisons the run.
func (p *Pipeline) failGame(gameID, stage string, err error) error {
	p.mu.Lock()
	p.failed[gameID] = true
	p.mu.Unlock()

	p.logs.Errorf(gameID, "%s stage failed: %v", stage, err)
	p.logger.Error("game failed",
		logging.FieldGameID, gameID, logging.FieldStage, stage, "error", err)
	if lerr := p.ledger.SetError(gameID, stage, err); lerr != nil {
		return lerr
	}

	if p.cfg.Pipeline.Strict {
		return err
	}
	if errors.Is(err, services.ErrParse) && p.cfg.Pipeline.FailOnParseError {
		return err
	}
	if errors.Is(err, services.ErrNotFound) && p.cfg.Pipeline.FailOn404 {
		return err
	}
	return nil
}

func (p *Pipeline) stageErrors(stage string, err error) error {
	if err == nil {
		return nil
	}
	if p.cfg.Pipeline.Strict {
		return fmt.Errorf("%s stage: %w", stage, err)
	}
	return nil
}

func (p *Pipeline) gameOrder() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	order := make([]string, len(p.order))
	copy(order, p.order)
	return order
}

func (p *Pipeline) isFailed(gameID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed[gameID]
}

func (p *Pipeline) sourceBase(gameID string, man *manifest.Manifest) string {
	if base := strings.TrimRight(man.BaseURL, "/"); base != "" {
		return base
	}
	return p.cfg.Media.SourceBaseURL + "/" + gameID
}

func (p *Pipeline) summarize() {
	ledgerStats := p.ledger.Summarize()
	syncStats := p.syncer.Stats()
	p.logger.Info("run finished",
		"games", ledgerStats.Total,
		"with_jig", ledgerStats.WithJig,
		"new", ledgerStats.New,
		"failed", ledgerStats.Failed,
		"created", syncStats.Created,
		"updated", syncStats.Updated,
		"unknown_backgrounds", syncStats.UnknownBackgrounds)
}
