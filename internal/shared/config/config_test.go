package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DefaultModel != "gemma3" {
		t.Fatalf("expected default model gemma3, got %q", cfg.DefaultModel)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %s", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowOrigin) != 1 || cfg.CORSAllowOrigin[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadFromFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("port: \"9090\"\nenv: prod\nreference_date: \"2025-10-12\"\ninference_timeout: 30s\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:5173, https://dash.example.com")
	t.Setenv("OBJECT_STORE", "S3")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env should override file port, got %q", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected normalized env production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3 store, got %q", cfg.ObjectStoreType)
	}
	if cfg.InferenceTimeout != 30*time.Second {
		t.Fatalf("expected 30s inference timeout, got %s", cfg.InferenceTimeout)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://dash.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowOrigin)
	}

	ref, err := cfg.ReferenceTime()
	if err != nil {
		t.Fatalf("ReferenceTime: %v", err)
	}
	if ref == nil || ref.Format(DateLayout) != "2025-10-12" {
		t.Fatalf("unexpected reference date: %v", ref)
	}
}

func TestReferenceTimeEmptyAndInvalid(t *testing.T) {
	ref, err := Config{}.ReferenceTime()
	if err != nil || ref != nil {
		t.Fatalf("expected nil reference, got %v, %v", ref, err)
	}
	if _, err := (Config{ReferenceDate: "12/10/2025"}).ReferenceTime(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadReportsWarningsInsteadOfPrinting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "")

	cfg, warnings := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production env, got %q", cfg.Env)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected parse and database warnings, got %v", warnings)
	}
	if warnings[1] != "DATABASE_URL is required in production" {
		t.Fatalf("unexpected database warning: %q", warnings[1])
	}
}

func TestWarningsEmptyForDev(t *testing.T) {
	if got := Defaults().Warnings(); len(got) != 0 {
		t.Fatalf("expected no warnings for dev defaults, got %v", got)
	}
}
