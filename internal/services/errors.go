package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport  = errors.New("transport error")
	ErrHTTPStatus = errors.New("http status error")
	ErrNotFound   = errors.New("not found")
	ErrParse      = errors.New("parse error")
	ErrInvariant  = errors.New("invariant violation")
	ErrTranscode  = errors.New("transcode error")
	ErrUpload     = errors.New("upload error")
	ErrLedger     = errors.New("ledger error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error must fail the game it occurred in rather than
// being demoted to a warning. Missing-resource errors are the only kind a
// policy flag may soften; everything else fails the game.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotFound)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
