package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"jigport/internal/fileutil"
	"jigport/internal/logging"
	"jigport/internal/mediastate"
	"jigport/internal/runlog"
	"jigport/internal/scheduler"
	"jigport/internal/services"
	"jigport/internal/services/ffmpeg"
	"jigport/internal/storage"
)

// Bucket is the slice of the storage client the mover needs.
type Bucket interface {
	Exists(ctx context.Context, key string) (bool, int64, error)
	Put(ctx context.Context, key, srcPath string) error
}

// Transcoder converts downloaded assets to their target formats.
type Transcoder interface {
	TranscodeAudio(ctx context.Context, src, dest string) error
	TranscodeVideo(ctx context.Context, src, dest string) error
}

// MoverOptions configure a Mover.
type MoverOptions struct {
	// GamesDir is the root of the local staging tree. Downloads land under
	// <GamesDir>/<gameID>/media/<basepath>/.
	GamesDir string
	// TranscodeWorkers caps concurrent ffmpeg invocations independently of
	// the transfer batch size. Values below one mean a single worker.
	TranscodeWorkers int
	// AllowMissingMedia demotes a missing source asset from a failed
	// transfer to a warning.
	AllowMissingMedia bool
	// SkipExisting treats an object already present in the bucket as done
	// (incremental runs).
	SkipExisting bool
}

// Stats counts outcomes for one Move call.
type Stats struct {
	Moved   int64
	Skipped int64
	Missing int64
}

// Mover drives the download, transcode and upload of collected references.
type Mover struct {
	client     Doer
	bucket     Bucket
	transcoder Transcoder
	store      *mediastate.Store
	logger     *slog.Logger
	logs       *runlog.Logs
	opts       MoverOptions
}

// NewMover builds a Mover. A nil doer falls back to http.DefaultClient and a
// nil transcoder to a default ffmpeg client.
func NewMover(client Doer, bucket Bucket, transcoder Transcoder, store *mediastate.Store, logger *slog.Logger, logs *runlog.Logs, opts MoverOptions) *Mover {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if transcoder == nil {
		transcoder = ffmpeg.New("", logger)
	}
	if opts.TranscodeWorkers < 1 {
		opts.TranscodeWorkers = 1
	}
	return &Mover{
		client:     client,
		bucket:     bucket,
		transcoder: transcoder,
		store:      store,
		logger:     logger.With(logging.FieldComponent, "media"),
		logs:       logs,
		opts:       opts,
	}
}

// Move transfers every reference with at most batchSize in flight. Failures
// are collected per reference; one broken asset never aborts the batch.
func (m *Mover) Move(ctx context.Context, refs []Ref, batchSize int) (Stats, error) {
	var stats Stats
	transcodeSlots := make(chan struct{}, m.opts.TranscodeWorkers)

	jobs := make([]scheduler.Job, 0, len(refs))
	for _, ref := range refs {
		ref := ref
		jobs = append(jobs, func(ctx context.Context) error {
			return m.moveOne(ctx, ref, transcodeSlots, &stats)
		})
	}

	err := scheduler.Run(ctx, batchSize, jobs)
	return stats, err
}

func (m *Mover) moveOne(ctx context.Context, ref Ref, transcodeSlots chan struct{}, stats *Stats) error {
	key := ref.Key()

	if m.store != nil {
		done, err := m.store.IsDone(ctx, key)
		if err != nil {
			return err
		}
		if done {
			atomic.AddInt64(&stats.Skipped, 1)
			return nil
		}
	}

	if m.opts.SkipExisting {
		exists, size, err := m.bucket.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			m.logger.Debug("already in bucket", logging.FieldGameID, ref.GameID, "key", key)
			atomic.AddInt64(&stats.Skipped, 1)
			return m.markDone(ctx, ref, size)
		}
	}

	localPath, found, err := m.download(ctx, ref)
	if err != nil {
		return err
	}
	if !found {
		if m.opts.AllowMissingMedia || ref.Transcode != TranscodeVideo {
			m.logs.Warnf(ref.GameID, "media missing at source: %s", ref.SourceURL)
			atomic.AddInt64(&stats.Missing, 1)
			return nil
		}
		return services.Wrap(services.ErrNotFound, "media", "download", ref.SourceURL, nil)
	}

	uploadPath := localPath
	if ref.Transcode != TranscodeNone {
		uploadPath = filepath.Join(filepath.Dir(localPath), ref.Filename)
		if err := m.transcode(ctx, ref, localPath, uploadPath, transcodeSlots); err != nil {
			return err
		}
	}

	if err := m.bucket.Put(ctx, key, uploadPath); err != nil {
		return err
	}

	info, err := os.Stat(uploadPath)
	if err != nil {
		return services.Wrap(services.ErrUpload, "media", "stat", uploadPath, err)
	}

	m.logger.Info("moved", logging.FieldGameID, ref.GameID, "key", key, "bytes", info.Size())
	atomic.AddInt64(&stats.Moved, 1)
	return m.markDone(ctx, ref, info.Size())
}

// download fetches the source asset into the staging tree, returning the local
// path. A clean 404 reports found=false rather than an error so the caller can
// apply its missing-media policy.
func (m *Mover) download(ctx context.Context, ref Ref) (string, bool, error) {
	localName := ref.Filename
	if ref.Transcode != TranscodeNone {
		localName = path.Base(ref.SourceURL)
	}
	localPath := filepath.Join(m.opts.GamesDir, ref.GameID, "media",
		filepath.FromSlash(ref.BasePath), localName)

	if info, err := os.Stat(localPath); err == nil && info.Size() > 0 {
		return localPath, true, nil
	}

	found := true
	err := services.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.SourceURL, nil)
		if err != nil {
			return services.Wrap(services.ErrTransport, "media", "download", ref.SourceURL, err)
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransport, "media", "download", ref.SourceURL, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			found = true
		case resp.StatusCode == http.StatusNotFound:
			found = false
			return nil
		default:
			return services.Wrap(services.ErrHTTPStatus, "media", "download",
				fmt.Sprintf("%s returned %d", ref.SourceURL, resp.StatusCode), nil)
		}

		if err := fileutil.WriteReaderAtomic(localPath, resp.Body, 0o644); err != nil {
			return services.Wrap(services.ErrTransport, "media", "download", ref.SourceURL, err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	return localPath, true, nil
}

func (m *Mover) transcode(ctx context.Context, ref Ref, src, dest string, slots chan struct{}) error {
	// A source already in the target format downloads straight to the target
	// name; there is nothing for ffmpeg to do.
	if src == dest {
		return nil
	}
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return nil
	}

	select {
	case slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-slots }()

	switch ref.Transcode {
	case TranscodeAudio:
		return m.transcoder.TranscodeAudio(ctx, src, dest)
	case TranscodeVideo:
		return m.transcoder.TranscodeVideo(ctx, src, dest)
	default:
		return nil
	}
}

func (m *Mover) markDone(ctx context.Context, ref Ref, bytes int64) error {
	if m.store == nil {
		return nil
	}
	return m.store.MarkDone(ctx, ref.Key(), ref.GameID, bytes)
}

var _ Bucket = (*storage.Client)(nil)
