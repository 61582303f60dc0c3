package llm

import (
	"math"
	"testing"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestDiscoverConfig_Precedence(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")

	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected discovery to succeed")
	}
	if cfg.Provider != "gemini" || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("gemini must win over openai: %+v", cfg)
	}
}

func TestDiscoverConfig_NoKeys(t *testing.T) {
	clearKeyEnv(t)
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected discovery to fail with no keys set")
	}
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("PAPERPLAN_LLM_PROVIDER", "openai")
	t.Setenv("PAPERPLAN_OPENAI_API_KEY", "key")
	t.Setenv("PAPERPLAN_OPENAI_MODEL", "gpt-4o")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" || cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Retry.MaxAttempts != 2 {
		t.Fatalf("defaults lost: %+v", cfg.Retry)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("anthropic without a key must fail validation")
	}

	cfg.Provider = "mock"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mock needs no key: %v", err)
	}

	cfg.Provider = "telepathy"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider must fail validation")
	}
}

func TestCostFor(t *testing.T) {
	u := Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	if got := costFor("gpt-4o-mini", u); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("gpt-4o-mini cost = %v, want 0.75", got)
	}
	if got := costFor("unknown-model", u); got != 0 {
		t.Fatalf("unknown model must cost 0, got %v", got)
	}
}
