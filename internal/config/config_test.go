package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"PORT", "SERVER_PORT", "LOG_LEVEL", "LOG_FORMAT", "APP_SECRET", "REDIS_URL",
	"REVENUECAT_BASE_URL", "FREE_LIMIT", "SUB_MONTHLY_LIMIT", "LOCK_TTL",
	"GENERATION_TIMEOUT", "PREMIUM_MODELS", "MAX_BODY_BYTES",
}

func clearConfigEnv(t *testing.T) {
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg := NewConfig()

	if cfg.GetServerPort() != "8080" {
		t.Fatalf("expected default server port 8080, got %s", cfg.GetServerPort())
	}
	if cfg.GetLogLevel() != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.GetLogLevel())
	}
	limits := cfg.GetLimits()
	if limits.FreeLimit != 5 || limits.SubMonthlyLimit != 100 {
		t.Fatalf("unexpected default limits %+v", limits)
	}
	if cfg.GetLockTTL() != 120*time.Second {
		t.Fatalf("expected 120s lock ttl, got %s", cfg.GetLockTTL())
	}
	if cfg.GetGenerationTimeout() != 55*time.Second {
		t.Fatalf("expected 55s generation timeout, got %s", cfg.GetGenerationTimeout())
	}
	if cfg.GetSubUsageTTL() != 45*24*time.Hour {
		t.Fatalf("expected 45 day usage ttl, got %s", cfg.GetSubUsageTTL())
	}
	if !cfg.GetModelCatalog().IsPremium("gemini-3-pro-image-preview") {
		t.Fatalf("expected default premium model")
	}
	if cfg.GetRevenueCatBaseURL() != "https://api.revenuecat.com" {
		t.Fatalf("unexpected revenuecat url %s", cfg.GetRevenueCatBaseURL())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestNewConfig_Overrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("FREE_LIMIT", "3")
	t.Setenv("SUB_MONTHLY_LIMIT", "250")
	t.Setenv("LOCK_TTL", "90s")
	t.Setenv("GENERATION_TIMEOUT", "30s")
	t.Setenv("PREMIUM_MODELS", "model-a, model-b,")
	t.Setenv("REVENUECAT_BASE_URL", "http://localhost:9999/")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9090" {
		t.Fatalf("expected server port 9090, got %s", cfg.GetServerPort())
	}
	if l := cfg.GetLimits(); l.FreeLimit != 3 || l.SubMonthlyLimit != 250 {
		t.Fatalf("unexpected limits %+v", l)
	}
	if cfg.GetLockTTL() != 90*time.Second || cfg.GetGenerationTimeout() != 30*time.Second {
		t.Fatalf("unexpected durations %s %s", cfg.GetLockTTL(), cfg.GetGenerationTimeout())
	}
	catalog := cfg.GetModelCatalog()
	if len(catalog.Premium) != 2 || !catalog.IsPremium("model-b") {
		t.Fatalf("unexpected premium models %v", catalog.Premium)
	}
	if cfg.GetRevenueCatBaseURL() != "http://localhost:9999" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.GetRevenueCatBaseURL())
	}
}

func TestNewConfig_Fallbacks(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_PORT", "9091")
	t.Setenv("FREE_LIMIT", "not-a-number")
	t.Setenv("LOCK_TTL", "soon")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9091" {
		t.Fatalf("expected server port 9091, got %s", cfg.GetServerPort())
	}
	if cfg.GetLimits().FreeLimit != 5 {
		t.Fatalf("expected default free limit, got %d", cfg.GetLimits().FreeLimit)
	}
	if cfg.GetLockTTL() != 120*time.Second {
		t.Fatalf("expected default lock ttl, got %s", cfg.GetLockTTL())
	}
}

func TestValidate_RejectsTimeoutBeyondLock(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LOCK_TTL", "30s")
	t.Setenv("GENERATION_TIMEOUT", "55s")

	if err := NewConfig().Validate(); err == nil {
		t.Fatalf("expected validation error when generation outlives the lock")
	}
}

func TestLoadCreditPacks(t *testing.T) {
	packs, err := LoadCreditPacks("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if packs.Credits("credits_25") != 25 {
		t.Fatalf("expected default pack")
	}

	path := filepath.Join(t.TempDir(), "packs.yaml")
	if err := os.WriteFile(path, []byte("credit_packs:\n  credits_10: 10\n  credits_50: 50\n"), 0o600); err != nil {
		t.Fatalf("failed to write packs: %v", err)
	}
	packs, err = LoadCreditPacks(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if packs.Credits("credits_50") != 50 || packs.Credits("credits_25") != 0 {
		t.Fatalf("unexpected packs %v", packs)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("credit_packs:\n  broken: 0\n"), 0o600); err != nil {
		t.Fatalf("failed to write packs: %v", err)
	}
	if _, err := LoadCreditPacks(bad); err == nil {
		t.Fatalf("expected error for non-positive pack")
	}
}
