package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Importer  ImporterConfig
	Export    ExportConfig
	Templates TemplatesConfig
	Sessions  SessionConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" toml:"host"`
}

// SandboxConfig holds render context configuration.
type SandboxConfig struct {
	PoolSize     int           `envconfig:"SANDBOX_POOL_SIZE" default:"4" toml:"pool_size"`
	ExecTimeout  time.Duration `envconfig:"SANDBOX_EXEC_TIMEOUT" default:"5s" toml:"exec_timeout"`
	ReadyTimeout time.Duration `envconfig:"SANDBOX_READY_TIMEOUT" default:"10s" toml:"ready_timeout"`
	AckTimeout   time.Duration `envconfig:"SANDBOX_ACK_TIMEOUT" default:"2s" toml:"ack_timeout"`
	QueueSize    int           `envconfig:"SANDBOX_QUEUE_SIZE" default:"64" toml:"queue_size"`
}

// ImporterConfig holds remote document import configuration.
type ImporterConfig struct {
	FetchTimeout time.Duration `envconfig:"IMPORT_FETCH_TIMEOUT" default:"15s" toml:"fetch_timeout"`
	MaxBodyBytes int64         `envconfig:"IMPORT_MAX_BODY" default:"5242880" toml:"max_body_bytes"`
	RetryMax     int           `envconfig:"IMPORT_RETRY_MAX" default:"3" toml:"retry_max"`
	InlineAssets bool          `envconfig:"IMPORT_INLINE_ASSETS" default:"false" toml:"inline_assets"`
}

// ExportConfig holds document export configuration.
type ExportConfig struct {
	Filename string `envconfig:"EXPORT_FILENAME" default:"export.html" toml:"filename"`
	Sanitize bool   `envconfig:"EXPORT_SANITIZE" default:"false" toml:"sanitize"`
}

// TemplatesConfig holds template library configuration.
type TemplatesConfig struct {
	Dir     string `envconfig:"TEMPLATES_DIR" default:"./templates" toml:"dir"`
	Pattern string `envconfig:"TEMPLATES_PATTERN" default:"**/*.html" toml:"pattern"`
}

// SessionConfig holds editor session configuration.
type SessionConfig struct {
	MaxSessions int           `envconfig:"SESSION_MAX" default:"64" toml:"max_sessions"`
	IdleTTL     time.Duration `envconfig:"SESSION_IDLE_TTL" default:"2h" toml:"idle_ttl"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development"`
	File        string `envconfig:"LOG_FILE" default:"" toml:"file"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`
}

// Load loads configuration from environment variables.
// When CONFIG_FILE points at a TOML file, its values are applied first
// and the environment overrides them.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// loadFile overlays configuration from a TOML file.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			PoolSize:     4,
			ExecTimeout:  5 * time.Second,
			ReadyTimeout: 10 * time.Second,
			AckTimeout:   2 * time.Second,
			QueueSize:    64,
		},
		Importer: ImporterConfig{
			FetchTimeout: 15 * time.Second,
			MaxBodyBytes: 5 * 1024 * 1024,
			RetryMax:     3,
			InlineAssets: false,
		},
		Export: ExportConfig{
			Filename: "export.html",
			Sanitize: false,
		},
		Templates: TemplatesConfig{
			Dir:     "./templates",
			Pattern: "**/*.html",
		},
		Sessions: SessionConfig{
			MaxSessions: 64,
			IdleTTL:     2 * time.Hour,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
