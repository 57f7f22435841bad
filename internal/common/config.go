// Package common provides configuration, logging and version information.
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Notion  NotionConfig  `toml:"notion"`
	Site    SiteConfig    `toml:"site"`
	Slug    SlugConfig    `toml:"slug"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Claude  ClaudeConfig  `toml:"claude"`
	Staging StagingConfig `toml:"staging"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// NotionConfig holds the upstream API settings
type NotionConfig struct {
	APISecret        string  `toml:"api_secret" validate:"required"`
	DatabaseID       string  `toml:"database_id" validate:"required"`
	BaseURL          string  `toml:"base_url" validate:"required,url"`
	Version          string  `toml:"version" validate:"required"`
	RequestTimeout   string  `toml:"request_timeout"`   // e.g. "30s" - per-attempt deadline
	ThrottleInterval string  `toml:"throttle_interval"` // e.g. "300ms" - minimum spacing between calls
	RateLimit        float64 `toml:"rate_limit" validate:"min=0"`
	MaxRetries       int     `toml:"max_retries" validate:"min=0,max=10"`
	MaxConcurrency   int     `toml:"max_concurrency" validate:"min=1,max=16"`
	PageSize         int     `toml:"page_size" validate:"min=1,max=100"`
}

type SiteConfig struct {
	PostsPerPage int `toml:"posts_per_page" validate:"min=1"`
}

type SlugConfig struct {
	MaxLength   int      `toml:"max_length" validate:"min=8"`
	Translators []string `toml:"translators" validate:"dive,oneof=gemini claude pinyin"` // tried in order
}

type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

type ClaudeConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// StagingConfig selects where raw block children are replayed from
type StagingConfig struct {
	Backend string `toml:"backend" validate:"oneof=none dir badger"`
	Dir     string `toml:"dir"`
	Record  bool   `toml:"record"` // write freshly fetched children back to the store
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output" validate:"dive,oneof=stdout console file"`
	TimeFormat string   `toml:"time_format"`
}

// NewDefaultConfig returns the configuration used when no file is given
func NewDefaultConfig() *Config {
	return &Config{
		Notion: NotionConfig{
			BaseURL:          "https://api.notion.com",
			Version:          "2022-06-28",
			RequestTimeout:   "30s",
			ThrottleInterval: "300ms",
			RateLimit:        3,
			MaxRetries:       2,
			MaxConcurrency:   3,
			PageSize:         100,
		},
		Site: SiteConfig{
			PostsPerPage: 12,
		},
		Slug: SlugConfig{
			MaxLength:   50,
			Translators: []string{"gemini", "claude", "pinyin"},
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "15s",
		},
		Claude: ClaudeConfig{
			Model:   "claude-3-5-haiku-latest",
			Timeout: "15s",
		},
		Staging: StagingConfig{
			Backend: "none",
			Dir:     "./staging",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/staging",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Notion credentials (FOLIO_* wins over the bare names)
	if v := firstEnv("FOLIO_NOTION_API_SECRET", "NOTION_API_SECRET"); v != "" {
		config.Notion.APISecret = v
	}
	if v := firstEnv("FOLIO_DATABASE_ID", "DATABASE_ID"); v != "" {
		config.Notion.DatabaseID = v
	}
	if v := os.Getenv("FOLIO_NOTION_BASE_URL"); v != "" {
		config.Notion.BaseURL = v
	}

	// REQUEST_TIMEOUT_MS is a bare millisecond count
	if v := firstEnv("FOLIO_REQUEST_TIMEOUT_MS", "REQUEST_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			config.Notion.RequestTimeout = (time.Duration(ms) * time.Millisecond).String()
		}
	}
	if v := os.Getenv("FOLIO_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Notion.MaxConcurrency = n
		}
	}

	// Translators
	if v := firstEnv("FOLIO_GEMINI_API_KEY", "GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := firstEnv("FOLIO_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("FOLIO_SLUG_TRANSLATORS"); v != "" {
		config.Slug.Translators = splitList(v)
	}

	// Staging
	if v := os.Getenv("FOLIO_STAGING_BACKEND"); v != "" {
		config.Staging.Backend = v
	}
	if v := os.Getenv("FOLIO_STAGING_DIR"); v != "" {
		config.Staging.Dir = v
	}

	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel, stagingBackend string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if stagingBackend != "" {
		config.Staging.Backend = stagingBackend
	}
}

// Validate checks struct tags and the duration fields
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"notion.request_timeout":   c.Notion.RequestTimeout,
		"notion.throttle_interval": c.Notion.ThrottleInterval,
		"gemini.timeout":           c.Gemini.Timeout,
		"claude.timeout":           c.Claude.Timeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s: %w", name, err)
		}
	}
	return nil
}

// Duration parses a configured duration, falling back when empty or invalid
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
