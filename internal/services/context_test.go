package services_test

import (
	"context"
	"testing"

	"clipforge/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithProjectID(ctx, "p-1")
	ctx = services.WithJobID(ctx, "j-1")
	ctx = services.WithOperation(ctx, "cut")

	if id, ok := services.ProjectIDFromContext(ctx); !ok || id != "p-1" {
		t.Fatalf("project id not preserved, got %q ok=%v", id, ok)
	}
	if id, ok := services.JobIDFromContext(ctx); !ok || id != "j-1" {
		t.Fatalf("job id not preserved, got %q ok=%v", id, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "cut" {
		t.Fatalf("operation not preserved, got %q ok=%v", op, ok)
	}
}

func TestContextEmptyValuesIgnored(t *testing.T) {
	ctx := services.WithProjectID(context.Background(), "")
	if _, ok := services.ProjectIDFromContext(ctx); ok {
		t.Fatal("empty project id should not be stored")
	}
}
