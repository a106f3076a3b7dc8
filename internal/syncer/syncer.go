// Package syncer drives the platform side of the migration: creating a JIG
// for each legacy game, attaching its translated slides as legacy modules,
// and publishing. The ledger decides between the create and update paths and
// records the resulting jig id.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"jigport/internal/api"
	"jigport/internal/ledger"
	"jigport/internal/logging"
	"jigport/internal/manifest"
	"jigport/internal/runlog"
	"jigport/internal/services"
)

// Platform is the slice of the API client the syncer needs.
type Platform interface {
	Meta(ctx context.Context) (*api.Meta, error)
	CreateJig(ctx context.Context, req api.CreateJigRequest) (uuid.UUID, error)
	UpdateDraft(ctx context.Context, jigID uuid.UUID, req api.UpdateDraftRequest) error
	CreateModule(ctx context.Context, jigID uuid.UUID, req api.CreateModuleRequest) (uuid.UUID, error)
	Publish(ctx context.Context, jigID uuid.UUID) error
	GetLive(ctx context.Context, jigID uuid.UUID) (*api.LiveJig, error)
	DeleteModule(ctx context.Context, jigID, moduleID uuid.UUID) error
	DryRun() bool
}

// Options configure a Syncer.
type Options struct {
	// DeleteStaleModules makes the update path rebuild the module list
	// instead of only refreshing the ledger row.
	DeleteStaleModules bool
}

// Stats counts outcomes across SyncGame calls.
type Stats struct {
	Created            int64
	Updated            int64
	UnknownBackgrounds int64
}

// Syncer synchronizes games with the platform.
type Syncer struct {
	client Platform
	ledger *ledger.Ledger
	logger *slog.Logger
	logs   *runlog.Logs
	opts   Options
	stats  Stats

	metaOnce sync.Once
	meta     *api.Meta
	metaErr  error
}

// New builds a Syncer.
func New(client Platform, led *ledger.Ledger, logger *slog.Logger, logs *runlog.Logs, opts Options) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{
		client: client,
		ledger: led,
		logger: logger.With(logging.FieldComponent, "syncer"),
		logs:   logs,
		opts:   opts,
	}
}

// Stats returns a snapshot of the counters.
func (s *Syncer) Stats() Stats {
	return Stats{
		Created:            atomic.LoadInt64(&s.stats.Created),
		Updated:            atomic.LoadInt64(&s.stats.Updated),
		UnknownBackgrounds: atomic.LoadInt64(&s.stats.UnknownBackgrounds),
	}
}

// SyncGame creates or updates the JIG for one game.
func (s *Syncer) SyncGame(ctx context.Context, man *manifest.Manifest) error {
	gameID := man.GameID()
	record, ok := s.ledger.Get(gameID)
	if ok && record.JigID != "" {
		return s.update(ctx, gameID, record.JigID, man)
	}
	return s.create(ctx, gameID, man)
}

func (s *Syncer) create(ctx context.Context, gameID string, man *manifest.Manifest) error {
	meta, err := s.platformMeta(ctx)
	if err != nil {
		return err
	}

	fields := man.AlbumStore.Album.Fields
	jigID, err := s.client.CreateJig(ctx, api.CreateJigRequest{
		DisplayName:  strings.TrimSpace(fields.Name),
		Language:     NormalizeLanguage(fields.Language),
		Description:  Description(fields.Description, fields.Author),
		AgeRanges:    meta.AgeRangeIDs(),
		Affiliations: meta.AffiliationIDs(),
	})
	if err != nil {
		return err
	}
	s.logger.Info("created jig",
		logging.FieldGameID, gameID, logging.FieldJigID, jigID.String())

	if err := s.client.UpdateDraft(ctx, jigID, s.draftUpdate(gameID, man)); err != nil {
		return err
	}
	if err := s.createModules(ctx, gameID, jigID, man); err != nil {
		return err
	}
	if err := s.client.Publish(ctx, jigID); err != nil {
		return err
	}

	atomic.AddInt64(&s.stats.Created, 1)
	if s.client.DryRun() {
		return nil
	}
	return s.ledger.SetJig(gameID, jigID.String(), ledger.JigNewYes)
}

func (s *Syncer) update(ctx context.Context, gameID, jigIDRaw string, man *manifest.Manifest) error {
	jigID, err := uuid.Parse(jigIDRaw)
	if err != nil {
		return services.Wrap(services.ErrLedger, "sync", "update",
			fmt.Sprintf("game %s has malformed jig_id %q", gameID, jigIDRaw), err)
	}

	if s.opts.DeleteStaleModules {
		live, err := s.client.GetLive(ctx, jigID)
		if err != nil {
			return err
		}
		for _, module := range live.JigData.Modules {
			if err := s.client.DeleteModule(ctx, jigID, module.ID); err != nil {
				return err
			}
		}
		if err := s.createModules(ctx, gameID, jigID, man); err != nil {
			return err
		}
		if err := s.client.Publish(ctx, jigID); err != nil {
			return err
		}
	}

	atomic.AddInt64(&s.stats.Updated, 1)
	if s.client.DryRun() {
		return nil
	}
	return s.ledger.SetJig(gameID, jigIDRaw, ledger.JigNewNo)
}

// createModules posts one legacy module per slide, preserving slide order.
func (s *Syncer) createModules(ctx context.Context, gameID string, jigID uuid.UUID, man *manifest.Manifest) error {
	for _, slide := range man.Structure.Slides {
		_, err := s.client.CreateModule(ctx, jigID, api.CreateModuleRequest{
			ParentID: jigID,
			Body: api.ModuleBody{
				Legacy: &api.LegacyBody{GameID: gameID, SlideID: slide.ID()},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) draftUpdate(gameID string, man *manifest.Manifest) api.UpdateDraftRequest {
	privacy := api.PrivacyPublic
	if public := man.AlbumStore.Public; public != nil && !*public {
		privacy = api.PrivacyUnlisted
	}
	req := api.UpdateDraftRequest{Privacy: &privacy}

	background, found, known := AudioBackground(man.Structure.MusicFile)
	if found {
		req.AudioBackground = &background
	} else if !known {
		atomic.AddInt64(&s.stats.UnknownBackgrounds, 1)
		s.logs.Warnf(gameID, "unrecognized background music file %q", man.Structure.MusicFile)
	}
	return req
}

func (s *Syncer) platformMeta(ctx context.Context) (*api.Meta, error) {
	s.metaOnce.Do(func() {
		s.meta, s.metaErr = s.client.Meta(ctx)
	})
	return s.meta, s.metaErr
}

// Description appends the migration byline crediting the original author.
func Description(description string, author *manifest.Author) string {
	credit := "Ji Tap"
	if author != nil {
		name := strings.TrimSpace(strings.TrimSpace(author.FirstName) + " " + strings.TrimSpace(author.LastName))
		if name != "" {
			credit += " by " + name
		}
	}
	byline := fmt.Sprintf("(Originally created on %s)", credit)
	description = strings.TrimSpace(description)
	if description == "" {
		return byline
	}
	return description + " " + byline
}

// NormalizeLanguage reduces the album's free-form language field to a base
// language code, defaulting to English when it cannot be parsed.
func NormalizeLanguage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "en"
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}
