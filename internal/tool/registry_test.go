package tool

import (
	"context"
	"encoding/json"
	"testing"
)

// MockTool is a minimal tool for registry tests
type MockTool struct {
	name string
}

func (t *MockTool) Name() string {
	return t.name
}

func (t *MockTool) Description() string {
	return "A mock tool"
}

func (t *MockTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"param": map[string]any{
				"type": "string",
			},
		},
	}
}

func (t *MockTool) Execute(ctx context.Context, params json.RawMessage) (*Result, error) {
	return &Result{Success: true, Output: "mock output"}, nil
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&MockTool{name: "alpha"}); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}

	if err := registry.Register(&MockTool{name: "alpha"}); err == nil {
		t.Error("Expected error when registering duplicate tool name")
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&MockTool{name: "alpha"}); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}

	got, err := registry.Get("alpha")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name() != "alpha" {
		t.Errorf("Expected tool alpha, got %s", got.Name())
	}

	if _, err := registry.Get("missing"); err == nil {
		t.Error("Expected error for unknown tool name")
	}
}

func TestRegistry_Definitions_SortedByName(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(&MockTool{name: name}); err != nil {
			t.Fatalf("Failed to register tool %s: %v", name, err)
		}
	}

	defs := registry.Definitions()
	if len(defs) != 3 {
		t.Fatalf("Expected 3 definitions, got %d", len(defs))
	}

	want := []string{"alpha", "mid", "zeta"}
	for i, def := range defs {
		if def.Type != "function" {
			t.Errorf("Definition %d: expected type function, got %s", i, def.Type)
		}
		if def.Function.Name != want[i] {
			t.Errorf("Definition %d: expected %s, got %s", i, want[i], def.Function.Name)
		}
	}
}
