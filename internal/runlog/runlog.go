// Package runlog maintains the append-only per-run log files the pipeline
// leaves behind for operators: warnings.log for tolerated problems and
// errors.log for failures that cost a game. Appends are line-atomic within a
// process so concurrent game workers never interleave partial lines.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logs owns the warnings.log and errors.log files for a run.
type Logs struct {
	mu       sync.Mutex
	warnings *os.File
	errors   *os.File
}

// Open creates or appends to warnings.log and errors.log under dir.
func Open(dir string) (*Logs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	warnings, err := openAppend(filepath.Join(dir, "warnings.log"))
	if err != nil {
		return nil, err
	}
	errs, err := openAppend(filepath.Join(dir, "errors.log"))
	if err != nil {
		_ = warnings.Close()
		return nil, err
	}
	return &Logs{warnings: warnings, errors: errs}, nil
}

func openAppend(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return file, nil
}

// Warnf appends one formatted line to warnings.log. Safe on a nil receiver so
// callers without run logs need no guard.
func (l *Logs) Warnf(gameID, format string, args ...any) {
	if l == nil {
		return
	}
	l.append(l.warnings, gameID, format, args...)
}

// Errorf appends one formatted line to errors.log. Safe on a nil receiver.
func (l *Logs) Errorf(gameID, format string, args ...any) {
	if l == nil {
		return
	}
	l.append(l.errors, gameID, format, args...)
}

func (l *Logs) append(file *os.File, gameID, format string, args ...any) {
	if file == nil {
		return
	}
	line := fmt.Sprintf("%s game=%s %s\n",
		time.Now().UTC().Format(time.RFC3339),
		gameID,
		fmt.Sprintf(format, args...))
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = file.WriteString(line)
}

// Close flushes and closes both files.
func (l *Logs) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	for _, file := range []*os.File{l.warnings, l.errors} {
		if file == nil {
			continue
		}
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.warnings = nil
	l.errors = nil
	return firstErr
}
