package llm

import (
	"context"
	"testing"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Anthropic.APIKey = "test-key"
	p, err := NewProvider(ctx, cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "claude-sonnet-4-20250514" {
		t.Fatalf("middleware must forward ModelID, got %q", p.ModelID())
	}

	cfg.Provider = "mock"
	if _, err := NewProvider(ctx, cfg, nil, nil); err != nil {
		t.Fatalf("mock provider: %v", err)
	}

	cfg.Provider = "telepathy"
	if _, err := NewProvider(ctx, cfg, nil, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}

	cfg = DefaultConfig()
	if _, err := NewProvider(ctx, cfg, nil, nil); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
