package services_test

import (
	"context"
	"testing"

	"jigport/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithGameID(ctx, "7556")
	ctx = services.WithStage(ctx, "media")

	if id, ok := services.GameIDFromContext(ctx); !ok || id != "7556" {
		t.Fatalf("unexpected game id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "media" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
