package testsupport

import (
	"path/filepath"
	"testing"

	"jigport/internal/ledger"
	"jigport/internal/mediastate"
)

// MustOpenLedger opens a ledger for tests.
func MustOpenLedger(t testing.TB, path string, dryRun bool) *ledger.Ledger {
	t.Helper()

	led, err := ledger.Open(path, dryRun)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	return led
}

// MustOpenMediaState opens a media transfer store under dir and registers
// cleanup.
func MustOpenMediaState(t testing.TB, dir string) *mediastate.Store {
	t.Helper()

	store, err := mediastate.Open(filepath.Join(dir, "media.db"))
	if err != nil {
		t.Fatalf("mediastate.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
