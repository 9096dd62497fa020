// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BackendConfig struct {
	BaseURL  string        `yaml:"base_url"` // e.g. http://localhost:8000
	Timeout  time.Duration `yaml:"timeout"`
	PageSize int           `yaml:"page_size"`
}

type SyncConfig struct {
	Debounce                time.Duration `yaml:"debounce"`
	CrawlStatusInterval     time.Duration `yaml:"crawl_status_interval"`
	NewJobsInterval         time.Duration `yaml:"new_jobs_interval"`
	CountdownTick           time.Duration `yaml:"countdown_tick"`
	AnalysisRecheckInterval time.Duration `yaml:"analysis_recheck_interval"`
	AnalysisMaxRechecks     int           `yaml:"analysis_max_rechecks"`
	StaleTime               time.Duration `yaml:"stale_time"` // 0 = fresh until invalidated
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

// RedisConfig is optional; an empty URL disables the warm-start snapshot.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// TelegramConfig is optional; an empty token disables new-job notifications.
type TelegramConfig struct {
	Token        string        `yaml:"token"`
	ChatID       int64         `yaml:"chat_id"`
	DashboardURL string        `yaml:"dashboard_url"`
	AlertLimit   int           `yaml:"alert_limit"`  // max alerts per window; needs redis
	AlertWindow  time.Duration `yaml:"alert_window"` // e.g. 1h
	Lang         string        `yaml:"lang"`         // en|ko
}

type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Sync     SyncConfig     `yaml:"sync"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes raw YAML, fills defaults and validates.
func Parse(b []byte, dev bool) (*Config, error) {
	return ParseWith(b, dev, nil)
}

// ParseWith is Parse with an override applied before defaults and validation;
// command-line flags use it.
func ParseWith(b []byte, dev bool, override func(*Config)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if override != nil {
		override(&cfg)
	}
	cfg.ApplyDefaults()

	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("backend.base_url is required")
	}
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend.base_url must be an absolute URL, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		return nil, errors.New("telegram.chat_id is required when telegram.token is set")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills zero values. The poll cadences are part of the backend contract.
func (c *Config) ApplyDefaults() {
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Backend.PageSize <= 0 {
		c.Backend.PageSize = 20
	}
	if c.Sync.Debounce <= 0 {
		c.Sync.Debounce = 500 * time.Millisecond
	}
	if c.Sync.CrawlStatusInterval <= 0 {
		c.Sync.CrawlStatusInterval = 30 * time.Second
	}
	if c.Sync.NewJobsInterval <= 0 {
		c.Sync.NewJobsInterval = 60 * time.Second
	}
	if c.Sync.CountdownTick <= 0 {
		c.Sync.CountdownTick = time.Second
	}
	if c.Sync.AnalysisRecheckInterval <= 0 {
		c.Sync.AnalysisRecheckInterval = 3 * time.Second
	}
	if c.Sync.AnalysisMaxRechecks <= 0 {
		c.Sync.AnalysisMaxRechecks = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8090
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
	if c.Telegram.AlertLimit <= 0 {
		c.Telegram.AlertLimit = 6
	}
	if c.Telegram.AlertWindow <= 0 {
		c.Telegram.AlertWindow = time.Hour
	}
	if c.Telegram.Lang == "" {
		c.Telegram.Lang = "en"
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}
