package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VERIBUY_CONFIG", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("HistoryLimit: got %d, want 20", cfg.HistoryLimit)
	}
	if cfg.MaxDeals != 4 {
		t.Errorf("MaxDeals: got %d, want 4", cfg.MaxDeals)
	}
	if cfg.Currency != "₹" {
		t.Errorf("Currency: got %q, want ₹", cfg.Currency)
	}
	if cfg.StorageDriver != "sqlite" {
		t.Errorf("StorageDriver: got %q, want sqlite", cfg.StorageDriver)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VERIBUY_CONFIG", "")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("HISTORY_LIMIT", "5")
	t.Setenv("ENRICH_TIMEOUT", "3s")
	t.Setenv("RENDER_PAGES", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://veribuy.app ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Errorf("GeminiAPIKey: got %q", cfg.GeminiAPIKey)
	}
	if cfg.StorageDriver != "memory" {
		t.Errorf("StorageDriver: got %q, want memory", cfg.StorageDriver)
	}
	if cfg.HistoryLimit != 5 {
		t.Errorf("HistoryLimit: got %d, want 5", cfg.HistoryLimit)
	}
	if cfg.EnrichTimeout != 3*time.Second {
		t.Errorf("EnrichTimeout: got %v, want 3s", cfg.EnrichTimeout)
	}
	if !cfg.RenderPages {
		t.Error("RenderPages should be true")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://veribuy.app" {
		t.Errorf("AllowedOrigins: got %v", cfg.AllowedOrigins)
	}
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veribuy.yaml")
	body := "market: UAE\ncurrency_symbol: AED\nmax_deals: 6\nchat_timeout: 10s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VERIBUY_CONFIG", path)
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("MAX_DEALS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Market != "UAE" || cfg.Currency != "AED" {
		t.Errorf("market/currency: got %q/%q", cfg.Market, cfg.Currency)
	}
	if cfg.ChatTimeout != 10*time.Second {
		t.Errorf("ChatTimeout: got %v, want 10s", cfg.ChatTimeout)
	}
	if cfg.MaxDeals != 2 {
		t.Errorf("env should win over file: MaxDeals got %d, want 2", cfg.MaxDeals)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StorageDriver = "mongo" }},
		{"zero history", func(c *Config) { c.HistoryLimit = 0 }},
		{"negative deals", func(c *Config) { c.MaxDeals = -1 }},
		{"zero deals", func(c *Config) { c.MaxDeals = 0 }},
		{"empty currency", func(c *Config) { c.Currency = "" }},
		{"tiny images", func(c *Config) { c.MaxImageDimension = 10 }},
		{"zero timeout", func(c *Config) { c.EnrichTimeout = 0 }},
		{"zero page timeout while rendering", func(c *Config) {
			c.RenderPages = true
			c.PageTimeout = 0
		}},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestValidateIgnoresPageTimeoutWhenNotRendering(t *testing.T) {
	cfg := Default()
	cfg.RenderPages = false
	cfg.PageTimeout = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.PostgresPassword = "secret"
	want := "host=localhost port=5432 user=veribuy password=secret dbname=veribuy sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Errorf("PostgresDSN:\n got %q\nwant %q", got, want)
	}
}
