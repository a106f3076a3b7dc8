package storage_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jigport/internal/services"
	"jigport/internal/storage"
)

func TestExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected method %s", r.Method)
		}
		switch r.URL.Path {
		case "/7/media/slides/s1/cover.jpg":
			w.Header().Set("Content-Length", "1234")
			w.WriteHeader(http.StatusOK)
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := storage.New(server.URL, "tok", server.Client())

	exists, size, err := client.Exists(context.Background(), "7/media/slides/s1/cover.jpg")
	if err != nil || !exists || size != 1234 {
		t.Fatalf("unexpected result: exists=%v size=%d err=%v", exists, size, err)
	}

	exists, _, err = client.Exists(context.Background(), "missing")
	if err != nil || exists {
		t.Fatalf("expected clean miss, got exists=%v err=%v", exists, err)
	}

	if _, _, err = client.Exists(context.Background(), "broken"); !errors.Is(err, services.ErrHTTPStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestPutSendsBodyAuthAndContentType(t *testing.T) {
	var gotBody string
	var gotAuth, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	srcPath := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(srcPath, []byte("video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := storage.New(server.URL, "tok", server.Client())
	if err := client.Put(context.Background(), "7/media/slides/s1/activity/clip.mp4", srcPath); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if gotBody != "video bytes" {
		t.Fatalf("unexpected body: %q", gotBody)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotType != "video/mp4" {
		t.Fatalf("unexpected content type: %q", gotType)
	}
}

func TestPutMapsRejectionsToUploadErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	srcPath := filepath.Join(t.TempDir(), "a.mp3")
	if err := os.WriteFile(srcPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := storage.New(server.URL, "", server.Client())
	err := client.Put(context.Background(), "key.mp3", srcPath)
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in message, got %v", err)
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"a/b/sound.mp3": "audio/mpeg",
		"a/b/clip.mp4":  "video/mp4",
		"a/b/img.png":   "image/png",
		"a/b/raw.bin":   "application/octet-stream",
	}
	for key, want := range cases {
		if got := storage.ContentType(key); !strings.HasPrefix(got, want) {
			t.Errorf("ContentType(%q) = %q, want prefix %q", key, got, want)
		}
	}
}
