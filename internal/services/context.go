package services

import "context"

type contextKey string

const (
	gameIDKey contextKey = "game_id"
	stageKey  contextKey = "stage"
)

// WithGameID annotates context with the legacy game identifier.
func WithGameID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, gameIDKey, id)
}

// GameIDFromContext extracts the game identifier if present.
func GameIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(gameIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
