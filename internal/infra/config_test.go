package infra

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "BRIA_API_KEY", "BRIA_BASE_URL", "SUPABASE_URL", "SUPABASE_KEY",
		"SUPABASE_BUCKET", "DATABASE_URL", "REDIS_URL", "STORAGE_BACKEND", "STORAGE_PATH",
		"STORAGE_BASE_URL", "SESSION_SECRET", "SESSION_TTL_MINUTES", "POLL_MAX_ATTEMPTS",
		"POLL_INTERVAL_SECONDS", "RATE_LIMIT_PER_MINUTE", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BriaBaseURL != "https://engine.prod.bria-api.com/v1" {
		t.Fatalf("BriaBaseURL = %q", cfg.BriaBaseURL)
	}
	if cfg.SupabaseBucket != "user-files" {
		t.Fatalf("SupabaseBucket = %q, want user-files", cfg.SupabaseBucket)
	}
	if cfg.PollMaxAttempts != 3 || cfg.PollInterval != 2*time.Second {
		t.Fatalf("poll budget = %d x %s, want 3 x 2s", cfg.PollMaxAttempts, cfg.PollInterval)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("SessionTTL = %s, want 12h", cfg.SessionTTL)
	}
	if cfg.SessionSecret == "" {
		t.Fatalf("expected generated session secret")
	}
	if cfg.GenerationEnabled() || cfg.SupabaseEnabled() {
		t.Fatalf("features should be disabled without credentials")
	}
}

func TestLoadConfigInheritsPortInStorageBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "1919")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:1919/static"
	if cfg.StorageBaseURL != expected {
		t.Fatalf("StorageBaseURL mismatch: got %q want %q", cfg.StorageBaseURL, expected)
	}
}

func TestLoadConfigExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRIA_API_KEY", " key-123 ")
	t.Setenv("SUPABASE_URL", "https://demo.supabase.co/")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("POLL_MAX_ATTEMPTS", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BriaAPIKey != "key-123" {
		t.Fatalf("BriaAPIKey = %q, want key-123", cfg.BriaAPIKey)
	}
	if cfg.SupabaseURL != "https://demo.supabase.co" {
		t.Fatalf("SupabaseURL = %q", cfg.SupabaseURL)
	}
	if !cfg.GenerationEnabled() || !cfg.SupabaseEnabled() {
		t.Fatalf("features should be enabled")
	}
	if cfg.StorageBackend != "s3" {
		t.Fatalf("StorageBackend = %q, want s3", cfg.StorageBackend)
	}
	if cfg.PollMaxAttempts != 3 {
		t.Fatalf("PollMaxAttempts = %d, want fallback 3", cfg.PollMaxAttempts)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
}
