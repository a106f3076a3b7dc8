package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content at path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteManifest seeds the staging cache for a game with a raw manifest.
func WriteManifest(t testing.TB, gamesDir, gameID string, raw []byte) {
	t.Helper()

	WriteFile(t, filepath.Join(gamesDir, gameID, "json", "game.json"), raw)
}
