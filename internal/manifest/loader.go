package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"jigport/internal/fileutil"
	"jigport/internal/logging"
	"jigport/internal/runlog"
	"jigport/internal/services"
)

// Doer abstracts the HTTP client so tests can substitute transports.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoaderOptions configures manifest acquisition and parsing.
type LoaderOptions struct {
	// GamesDir is the staging tree root; manifests cache at
	// <games_dir>/<id>/json/game.json.
	GamesDir string
	// URL resolves the manifest URL for a game ID.
	URL func(gameID string) string
	// FileFirst prefers the cached file over the network.
	FileFirst bool
	// Envelope unwraps a {"data": ...} wrapper before parsing.
	Envelope bool
}

// Loader fetches, repairs, and parses legacy game manifests.
type Loader struct {
	opts   LoaderOptions
	client Doer
	logger *slog.Logger
	logs   *runlog.Logs
}

// NewLoader builds a Loader. A nil client falls back to http.DefaultClient.
func NewLoader(opts LoaderOptions, client Doer, logger *slog.Logger, logs *runlog.Logs) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{
		opts:   opts,
		client: client,
		logger: logger.With(logging.FieldComponent, "manifest"),
		logs:   logs,
	}
}

// CachePath returns the staging location of a game's manifest.
func (l *Loader) CachePath(gameID string) string {
	return filepath.Join(l.opts.GamesDir, gameID, "json", "game.json")
}

// Load returns the parsed manifest for a game, reading the staging cache
// first and falling back to the network with a write-through.
func (l *Loader) Load(ctx context.Context, gameID string) (*Manifest, error) {
	raw, fromCache, err := l.fetch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("manifest acquired",
		logging.FieldGameID, gameID,
		"from_cache", fromCache,
		"bytes", len(raw))
	return l.parse(gameID, raw)
}

func (l *Loader) fetch(ctx context.Context, gameID string) ([]byte, bool, error) {
	cachePath := l.CachePath(gameID)
	if l.opts.FileFirst {
		data, err := os.ReadFile(cachePath)
		if err == nil {
			return data, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, services.Wrap(services.ErrTransport, "manifest", "read-cache", cachePath, err)
		}
	}

	url := l.opts.URL(gameID)
	var body []byte
	err := services.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return services.Wrap(services.ErrTransport, "manifest", "request", url, err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransport, "manifest", "fetch", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return services.Wrap(services.ErrNotFound, "manifest", "fetch", url, nil)
		}
		if resp.StatusCode != http.StatusOK {
			return services.Wrap(services.ErrHTTPStatus, "manifest", "fetch",
				fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return services.Wrap(services.ErrTransport, "manifest", "read-body", url, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if err := fileutil.WriteFileAtomic(cachePath, body, 0o644); err != nil {
		return nil, false, services.Wrap(services.ErrTransport, "manifest", "write-cache", cachePath, err)
	}
	return body, false, nil
}

var (
	emptyPathObject = []byte(`"path": {}`)
	emptyPathArray  = []byte(`"path": []`)
	nullTransform   = []byte(`"transform": "null"`)
	identTransform  = []byte(`"transform": [1, 0, 0, 1, 0, 0]`)
	nullOriginTf    = []byte(`"originTransform": "null"`)
	identOriginTf   = []byte(`"originTransform": [1, 0, 0, 1, 0, 0]`)
)

// repair applies the literal rewrites legacy exports need before they parse
// as JSON with the expected shapes.
func repair(raw []byte) []byte {
	raw = bytes.ReplaceAll(raw, emptyPathObject, emptyPathArray)
	raw = bytes.ReplaceAll(raw, nullTransform, identTransform)
	raw = bytes.ReplaceAll(raw, nullOriginTf, identOriginTf)
	return raw
}

func (l *Loader) parse(gameID string, raw []byte) (*Manifest, error) {
	raw = repair(raw)
	// Checked after repair so rewritten "path": {} objects are counted too.
	if bytes.Contains(raw, emptyPathArray) {
		l.warnf(gameID, "manifest contains empty hotspot paths")
	}

	if l.opts.Envelope {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
			raw = envelope.Data
		}
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		// The minimal schema recovers the album key so the skip shows up
		// under the right game in the logs.
		if pk, ok := extractPK(raw); ok && gameID == "" {
			gameID = pk
		}
		return nil, services.Wrap(services.ErrParse, "manifest", "decode", "game "+gameID, err)
	}
	if len(m.Structure.Slides) == 0 {
		l.warnf(gameID, "manifest has no slides")
	}
	return &m, nil
}

// extractPK decodes just enough of a malformed manifest to identify it.
func extractPK(raw []byte) (string, bool) {
	var minimal struct {
		AlbumStore struct {
			Album struct {
				PK int64 `json:"pk"`
			} `json:"album"`
		} `json:"album_store"`
	}
	if err := json.Unmarshal(raw, &minimal); err != nil {
		return "", false
	}
	if minimal.AlbumStore.Album.PK == 0 {
		return "", false
	}
	return strconv.FormatInt(minimal.AlbumStore.Album.PK, 10), true
}

func (l *Loader) warnf(gameID, format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), logging.FieldGameID, gameID)
	if l.logs != nil {
		l.logs.Warnf(gameID, format, args...)
	}
}
