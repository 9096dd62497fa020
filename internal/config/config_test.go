//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("backend:\n  base_url: http://localhost:8000\n"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.PageSize != 20 {
		t.Errorf("page size = %d, want 20", cfg.Backend.PageSize)
	}
	if cfg.Sync.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %s, want 500ms", cfg.Sync.Debounce)
	}
	if cfg.Sync.CrawlStatusInterval != 30*time.Second {
		t.Errorf("crawl status interval = %s, want 30s", cfg.Sync.CrawlStatusInterval)
	}
	if cfg.Sync.NewJobsInterval != time.Minute {
		t.Errorf("new jobs interval = %s, want 1m", cfg.Sync.NewJobsInterval)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing base url", "log:\n  level: debug\n"},
		{"relative base url", "backend:\n  base_url: /api\n"},
		{"telegram without chat", "backend:\n  base_url: http://x\ntelegram:\n  token: abc\n"},
		{"bad yaml", "backend: ["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml), false); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "backend:\n  base_url: http://backend:8000\n  timeout: 3s\nsync:\n  debounce: 250ms\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not propagated")
	}
	if cfg.Backend.Timeout != 3*time.Second || cfg.Sync.Debounce != 250*time.Millisecond {
		t.Errorf("overrides not applied: %+v %+v", cfg.Backend, cfg.Sync)
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml"), false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseWithOverride(t *testing.T) {
	cfg, err := ParseWith(nil, false, func(c *Config) { c.Backend.BaseURL = "http://cli:8000" })
	if err != nil {
		t.Fatalf("ParseWith: %v", err)
	}
	if cfg.Backend.BaseURL != "http://cli:8000" || cfg.Backend.PageSize != 20 {
		t.Errorf("override not applied before defaults: %+v", cfg.Backend)
	}
	if cfg.Telegram.AlertLimit != 6 || cfg.Telegram.AlertWindow != time.Hour {
		t.Errorf("alert defaults = %d %s", cfg.Telegram.AlertLimit, cfg.Telegram.AlertWindow)
	}
}
