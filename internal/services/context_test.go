package services_test

import (
	"context"
	"testing"

	"ledgerflow/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithItemID(ctx, "item-7")
	ctx = services.WithStage(ctx, "clean")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("run id = %q, ok = %v", id, ok)
	}
	if id, ok := services.ItemIDFromContext(ctx); !ok || id != "item-7" {
		t.Fatalf("item id = %q, ok = %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "clean" {
		t.Fatalf("stage = %q, ok = %v", stage, ok)
	}
}

func TestEmptyValuesAreNotStored(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage on context")
	}
}
