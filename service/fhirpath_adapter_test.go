package service

import (
	"context"
	"testing"
)

func TestFHIRPathAdapterCaching(t *testing.T) {
	adapter := NewFHIRPathAdapter()
	ctx := context.Background()
	resource := map[string]any{
		"resourceType": "Observation",
		"status":       "final",
	}

	if adapter.CacheSize() != 0 {
		t.Errorf("fresh cache size = %d; want 0", adapter.CacheSize())
	}

	if _, err := adapter.Evaluate(ctx, "status", resource); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if adapter.CacheSize() != 1 {
		t.Errorf("cache size = %d; want 1", adapter.CacheSize())
	}

	// Same expression reuses the compiled form.
	if _, err := adapter.Evaluate(ctx, "status", resource); err != nil {
		t.Fatalf("second Evaluate failed: %v", err)
	}
	if adapter.CacheSize() != 1 {
		t.Errorf("cache size = %d; want 1 after reuse", adapter.CacheSize())
	}

	adapter.ClearCache()
	if adapter.CacheSize() != 0 {
		t.Errorf("cache size = %d after clear; want 0", adapter.CacheSize())
	}
}

func TestFHIRPathAdapterEmptyResult(t *testing.T) {
	adapter := NewFHIRPathAdapter()

	values, err := adapter.Evaluate(context.Background(), "note", map[string]any{
		"resourceType": "Observation",
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if values != nil {
		t.Errorf("values = %v; want nil for an empty selection", values)
	}
}

func TestFHIRPathAdapterInvalidExpression(t *testing.T) {
	adapter := NewFHIRPathAdapter()

	_, err := adapter.Evaluate(context.Background(), "status..", map[string]any{})
	if err == nil {
		t.Error("invalid expression should fail to compile")
	}
	if adapter.CacheSize() != 0 {
		t.Error("failed compilation must not be cached")
	}
}

func TestFHIRPathAdapterInputForms(t *testing.T) {
	adapter := NewFHIRPathAdapter()
	ctx := context.Background()

	// JSON bytes and strings are passed through without re-encoding.
	for _, resource := range []any{
		[]byte(`{"resourceType":"Observation","status":"final"}`),
		`{"resourceType":"Observation","status":"final"}`,
	} {
		if _, err := adapter.Evaluate(ctx, "status", resource); err != nil {
			t.Errorf("Evaluate(%T) failed: %v", resource, err)
		}
	}
}
