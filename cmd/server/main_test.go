package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iho/famledger/internal/infrastructure/config"
)

func TestLoadDotEnv(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FAMLEDGER_DOTENV_PROBE=loaded\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("FAMLEDGER_DOTENV_PROBE", "")
	os.Unsetenv("FAMLEDGER_DOTENV_PROBE")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("FAMLEDGER_DOTENV_PROBE"); got != "loaded" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestNewRateLimiter(t *testing.T) {
	if newRateLimiter(&config.Config{RateLimitRPS: 0}) != nil {
		t.Fatalf("expected limiter to be disabled for zero rps")
	}
	if newRateLimiter(&config.Config{RateLimitRPS: 5, RateLimitBurst: 0}) == nil {
		t.Fatalf("expected limiter for positive rps")
	}
}
