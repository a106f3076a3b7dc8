package manifest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"jigport/internal/manifest"
	"jigport/internal/runlog"
	"jigport/internal/services"
)

const sampleManifest = `{
  "album_store": {
    "album": {
      "pk": 7556,
      "fields": {
        "name": "Animal Sounds",
        "description": "A game about animals",
        "language": "en",
        "author": {"first_name": "Rivka", "last_name": "Cohen"}
      }
    },
    "public": true
  },
  "base_url": "https://cdn.example.com/games/7556",
  "structure": {
    "musicFile": "maoz_tzur.mp3",
    "slides": [
      {
        "filePath": "/slide1/",
        "filePathImage": "cover.jpg",
        "activities": [],
        "layers": []
      }
    ]
  }
}`

func newLoader(t *testing.T, server *httptest.Server, fileFirst, envelope bool) (*manifest.Loader, string) {
	t.Helper()
	gamesDir := t.TempDir()
	url := func(gameID string) string { return server.URL + "/album/" + gameID + "/structure/" }
	loader := manifest.NewLoader(manifest.LoaderOptions{
		GamesDir:  gamesDir,
		URL:       url,
		FileFirst: fileFirst,
		Envelope:  envelope,
	}, server.Client(), nil, nil)
	return loader, gamesDir
}

func TestLoadFetchesAndCaches(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleManifest))
	}))
	defer server.Close()

	loader, gamesDir := newLoader(t, server, true, false)

	m, err := loader.Load(context.Background(), "7556")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.GameID() != "7556" {
		t.Fatalf("unexpected game ID: %q", m.GameID())
	}
	if m.AlbumStore.Album.Fields.Name != "Animal Sounds" {
		t.Fatalf("unexpected album name: %q", m.AlbumStore.Album.Fields.Name)
	}
	if len(m.Structure.Slides) != 1 || m.Structure.Slides[0].ID() != "slide1" {
		t.Fatalf("unexpected slides: %+v", m.Structure.Slides)
	}

	cached, err := os.ReadFile(filepath.Join(gamesDir, "7556", "json", "game.json"))
	if err != nil {
		t.Fatalf("expected write-through cache: %v", err)
	}
	if string(cached) != sampleManifest {
		t.Fatal("cache contents differ from response body")
	}

	// Second load must come from the cache.
	if _, err := loader.Load(context.Background(), "7556"); err != nil {
		t.Fatalf("cached Load failed: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 network fetch, got %d", got)
	}
}

func TestLoadRetriesTransportFailures(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = w.Write([]byte(sampleManifest))
	}))
	defer server.Close()

	loader, _ := newLoader(t, server, false, false)
	if _, err := loader.Load(context.Background(), "7556"); err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestLoadMapsStatusCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	loader, _ := newLoader(t, server, false, false)
	_, err := loader.Load(context.Background(), "404game")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestRepairRewritesLegacyLiterals(t *testing.T) {
	body := `{
  "album_store": {"album": {"pk": 9, "fields": {"name": "x"}}},
  "structure": {
    "slides": [
      {
        "filePath": "/s/",
        "activities": [
          {"kind": 1, "shapes": [{"path": {}, "settings": {"transform": "null"}}], "settings": {}}
        ],
        "layers": []
      }
    ]
  }
}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	loader, _ := newLoader(t, server, false, false)
	m, err := loader.Load(context.Background(), "9")
	if err != nil {
		t.Fatalf("expected repaired manifest to parse, got %v", err)
	}
	shape := m.Structure.Slides[0].Activities[0].Shapes[0]
	if len(shape.Path) != 0 {
		t.Fatalf("expected empty path after rewrite, got %+v", shape.Path)
	}
	want := []float64{1, 0, 0, 1, 0, 0}
	if shape.Settings == nil || len(shape.Settings.Transform) != len(want) {
		t.Fatalf("expected identity transform after rewrite, got %+v", shape.Settings)
	}
	for i, v := range want {
		if shape.Settings.Transform[i] != v {
			t.Fatalf("expected identity transform, got %+v", shape.Settings.Transform)
		}
	}
}

func TestEmptyPathObjectsStillWarn(t *testing.T) {
	body := `{
  "album_store": {"album": {"pk": 9, "fields": {"name": "x"}}},
  "structure": {
    "slides": [
      {
        "filePath": "/s/",
        "activities": [
          {"kind": 1, "shapes": [{"path": {}}], "settings": {}}
        ],
        "layers": []
      }
    ]
  }
}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	logDir := t.TempDir()
	logs, err := runlog.Open(logDir)
	if err != nil {
		t.Fatal(err)
	}
	loader := manifest.NewLoader(manifest.LoaderOptions{
		GamesDir: t.TempDir(),
		URL:      func(gameID string) string { return server.URL + "/album/" + gameID + "/structure/" },
	}, server.Client(), nil, logs)

	if _, err := loader.Load(context.Background(), "9"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := logs.Close(); err != nil {
		t.Fatal(err)
	}

	warnings, err := os.ReadFile(filepath.Join(logDir, "warnings.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(warnings), "empty hotspot paths") {
		t.Fatalf("expected empty-path warning, got: %s", warnings)
	}
}

func TestLoadUnwrapsDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": ` + sampleManifest + `}`))
	}))
	defer server.Close()

	loader, _ := newLoader(t, server, false, true)
	m, err := loader.Load(context.Background(), "7556")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.GameID() != "7556" {
		t.Fatalf("unexpected game ID: %q", m.GameID())
	}
}

func TestLoadReportsParseErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"album_store": {"album": {"pk": 42}}, "structure": "not an object"}`))
	}))
	defer server.Close()

	loader, _ := newLoader(t, server, false, false)
	_, err := loader.Load(context.Background(), "42")
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse marker, got %v", err)
	}
}

func TestSlideIDTrimsSlashes(t *testing.T) {
	s := manifest.Slide{FilePath: "/abc/def/"}
	if got := s.ID(); got != "abc/def" {
		t.Fatalf("unexpected slide ID: %q", got)
	}
}
