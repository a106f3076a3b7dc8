// Package ledger maintains the migration ledger, a CSV file with one row per
// legacy game that records the JIG it maps to and how far the pipeline got.
// The ledger is the system of record for resumability: it is reloaded at
// startup, mutated as games progress, and flushed atomically after every
// change so a crash never loses more than the in-flight mutation.
package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"jigport/internal/fileutil"
	"jigport/internal/services"
)

// JigNew values. Empty means no JIG has been created for the game yet.
const (
	JigNewUnset = ""
	JigNewYes   = "YES"
	JigNewNo    = "NO"
)

var header = []string{"game_id", "jig_id", "jig_new", "last_stage", "last_error"}

// Record is one ledger row.
type Record struct {
	GameID    string
	JigID     string
	JigNew    string
	LastStage string
	LastError string
}

// Ledger is the in-memory view of the CSV file. All methods are safe for
// concurrent use.
type Ledger struct {
	mu      sync.Mutex
	path    string
	records map[string]*Record
	order   []string
	dryRun  bool
}

// Open loads the ledger at path, creating an empty one if the file does not
// exist. With dryRun set, mutations stay in memory and the file is never
// written.
func Open(path string, dryRun bool) (*Ledger, error) {
	l := &Ledger{
		path:    path,
		records: make(map[string]*Record),
		dryRun:  dryRun,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l, nil
		}
		return nil, services.Wrap(services.ErrLedger, "ledger", "open", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = len(header)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, services.Wrap(services.ErrLedger, "ledger", "parse", path, err)
	}

	for i, row := range rows {
		if i == 0 && row[0] == header[0] {
			continue
		}
		record := &Record{
			GameID:    row[0],
			JigID:     row[1],
			JigNew:    row[2],
			LastStage: row[3],
			LastError: row[4],
		}
		if record.GameID == "" {
			continue
		}
		if _, exists := l.records[record.GameID]; exists {
			return nil, services.Wrap(services.ErrLedger, "ledger", "parse",
				fmt.Sprintf("duplicate game_id %s", record.GameID), nil)
		}
		l.records[record.GameID] = record
		l.order = append(l.order, record.GameID)
	}
	return l, nil
}

// Has reports whether the game already has a row.
func (l *Ledger) Has(gameID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.records[gameID]
	return ok
}

// Get returns a copy of the game's row.
func (l *Ledger) Get(gameID string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[gameID]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// Ensure creates an empty row for the game if none exists and flushes.
// Calling it again for a known game is a no-op.
func (l *Ledger) Ensure(gameID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[gameID]; ok {
		return nil
	}
	l.records[gameID] = &Record{GameID: gameID}
	l.order = append(l.order, gameID)
	return l.flushLocked()
}

// GameIDs returns every game in insertion order.
func (l *Ledger) GameIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// SetJig records the JIG assigned to a game. The assignment is monotonic: once
// a jig_id is set, overwriting it with a different value is an error.
func (l *Ledger) SetJig(gameID, jigID, jigNew string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[gameID]
	if !ok {
		return services.Wrap(services.ErrLedger, "ledger", "set-jig",
			fmt.Sprintf("unknown game_id %s", gameID), nil)
	}
	if record.JigID != "" && jigID != "" && record.JigID != jigID {
		return services.Wrap(services.ErrLedger, "ledger", "set-jig",
			fmt.Sprintf("game %s already mapped to jig %s, refusing %s", gameID, record.JigID, jigID), nil)
	}
	if jigID != "" {
		record.JigID = jigID
	}
	record.JigNew = jigNew
	return l.flushLocked()
}

// SetStage records the last stage a game reached, clearing any previous error.
func (l *Ledger) SetStage(gameID, stage string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[gameID]
	if !ok {
		return services.Wrap(services.ErrLedger, "ledger", "set-stage",
			fmt.Sprintf("unknown game_id %s", gameID), nil)
	}
	record.LastStage = stage
	record.LastError = ""
	return l.flushLocked()
}

// SetError records the failure that stopped a game.
func (l *Ledger) SetError(gameID, stage string, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[gameID]
	if !ok {
		return services.Wrap(services.ErrLedger, "ledger", "set-error",
			fmt.Sprintf("unknown game_id %s", gameID), nil)
	}
	record.LastStage = stage
	if err != nil {
		record.LastError = err.Error()
	}
	return l.flushLocked()
}

// Stats summarizes the ledger for status reporting.
type Stats struct {
	Total   int
	WithJig int
	New     int
	Failed  int
}

// Summarize computes aggregate counts over all rows.
func (l *Ledger) Summarize() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	var stats Stats
	for _, record := range l.records {
		stats.Total++
		if record.JigID != "" {
			stats.WithJig++
		}
		if record.JigNew == JigNewYes {
			stats.New++
		}
		if record.LastError != "" {
			stats.Failed++
		}
	}
	return stats
}

// Records returns copies of all rows sorted by game ID, for reporting.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, 0, len(l.records))
	for _, record := range l.records {
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out
}

// Flush writes the ledger to disk. Mutating methods flush on their own; this
// exists for the final write at the end of a run.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked()
}

func (l *Ledger) flushLocked() error {
	if l.dryRun {
		return nil
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return services.Wrap(services.ErrLedger, "ledger", "flush", "", err)
	}
	for _, gameID := range l.order {
		record := l.records[gameID]
		row := []string{record.GameID, record.JigID, record.JigNew, record.LastStage, record.LastError}
		if err := writer.Write(row); err != nil {
			return services.Wrap(services.ErrLedger, "ledger", "flush", "", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return services.Wrap(services.ErrLedger, "ledger", "flush", "", err)
	}

	if err := fileutil.WriteFileAtomic(l.path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrLedger, "ledger", "flush", l.path, err)
	}
	return nil
}
