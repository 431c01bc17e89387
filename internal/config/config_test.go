package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Sandbox config
	assert.Equal(t, 4, cfg.Sandbox.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.Sandbox.ExecTimeout)
	assert.Equal(t, 2*time.Second, cfg.Sandbox.AckTimeout)

	// Importer config
	assert.Equal(t, int64(5*1024*1024), cfg.Importer.MaxBodyBytes)
	assert.Equal(t, 3, cfg.Importer.RetryMax)

	// Export config
	assert.Equal(t, "export.html", cfg.Export.Filename)
	assert.False(t, cfg.Export.Sanitize)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "export.html", cfg.Export.Filename)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	// Setup environment variables
	envVars := map[string]string{
		"PORT":                "9000",
		"HOST":                "127.0.0.1",
		"SANDBOX_POOL_SIZE":   "8",
		"SANDBOX_ACK_TIMEOUT": "500ms",
		"IMPORT_RETRY_MAX":    "5",
		"EXPORT_FILENAME":     "page.html",
		"EXPORT_SANITIZE":     "true",
		"TEMPLATES_DIR":       "/srv/templates",
		"LOG_LEVEL":           "debug",
		"LOG_DEV":             "true",
		"RATE_LIMIT_RPS":      "500",
		"RATE_LIMIT_BURST":    "1000",
		"RATE_LIMIT_ENABLED":  "false",
	}

	// Set environment variables
	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	// Verify server config
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	// Verify sandbox config
	assert.Equal(t, 8, cfg.Sandbox.PoolSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Sandbox.AckTimeout)

	// Verify importer config
	assert.Equal(t, 5, cfg.Importer.RetryMax)

	// Verify export config
	assert.Equal(t, "page.html", cfg.Export.Filename)
	assert.True(t, cfg.Export.Sanitize)

	// Verify templates config
	assert.Equal(t, "/srv/templates", cfg.Templates.Dir)

	// Verify logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Verify rate limit config
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	// Only set some environment variables
	err := os.Setenv("PORT", "3000")
	require.NoError(t, err)
	defer os.Unsetenv("PORT")

	err = os.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "export.html", cfg.Export.Filename)
	assert.Equal(t, 4, cfg.Sandbox.PoolSize)
}

func TestLoadWithTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[server]
port = "7070"

[export]
filename = "site.html"
sanitize = true

[ratelimit]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, os.Setenv("CONFIG_FILE", path))
	defer os.Unsetenv("CONFIG_FILE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "site.html", cfg.Export.Filename)
	assert.True(t, cfg.Export.Sanitize)
}

func TestLoadWithTOMLFileEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = \"7070\"\n"), 0o644))

	require.NoError(t, os.Setenv("CONFIG_FILE", path))
	defer os.Unsetenv("CONFIG_FILE")
	require.NoError(t, os.Setenv("PORT", "9999"))
	defer os.Unsetenv("PORT")

	cfg, err := Load()
	require.NoError(t, err)

	// Environment wins over the file layer
	assert.Equal(t, "9999", cfg.Server.Port)
}

func TestLoadWithMissingTOMLFile(t *testing.T) {
	require.NoError(t, os.Setenv("CONFIG_FILE", "/nonexistent/config.toml"))
	defer os.Unsetenv("CONFIG_FILE")

	_, err := Load()
	assert.Error(t, err)
}

func TestSandboxConfig(t *testing.T) {
	tests := []struct {
		name        string
		poolSize    string
		ackTimeout  string
		wantPool    int
		wantTimeout time.Duration
	}{
		{
			name:        "default values",
			poolSize:    "",
			ackTimeout:  "",
			wantPool:    4,
			wantTimeout: 2 * time.Second,
		},
		{
			name:        "custom pool",
			poolSize:    "16",
			ackTimeout:  "",
			wantPool:    16,
			wantTimeout: 2 * time.Second,
		},
		{
			name:        "custom timeout",
			poolSize:    "",
			ackTimeout:  "250ms",
			wantPool:    4,
			wantTimeout: 250 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clean environment
			os.Unsetenv("SANDBOX_POOL_SIZE")
			os.Unsetenv("SANDBOX_ACK_TIMEOUT")

			// Set test values
			if tt.poolSize != "" {
				err := os.Setenv("SANDBOX_POOL_SIZE", tt.poolSize)
				require.NoError(t, err)
				defer os.Unsetenv("SANDBOX_POOL_SIZE")
			}
			if tt.ackTimeout != "" {
				err := os.Setenv("SANDBOX_ACK_TIMEOUT", tt.ackTimeout)
				require.NoError(t, err)
				defer os.Unsetenv("SANDBOX_ACK_TIMEOUT")
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantPool, cfg.Sandbox.PoolSize)
			assert.Equal(t, tt.wantTimeout, cfg.Sandbox.AckTimeout)
		})
	}
}

func TestRateLimitConfig(t *testing.T) {
	tests := []struct {
		name        string
		rps         string
		burst       string
		enabled     string
		wantRPS     int
		wantBurst   int
		wantEnabled bool
	}{
		{
			name:        "default values",
			rps:         "",
			burst:       "",
			enabled:     "",
			wantRPS:     100,
			wantBurst:   200,
			wantEnabled: true,
		},
		{
			name:        "high limits",
			rps:         "1000",
			burst:       "2000",
			enabled:     "",
			wantRPS:     1000,
			wantBurst:   2000,
			wantEnabled: true,
		},
		{
			name:        "disabled",
			rps:         "",
			burst:       "",
			enabled:     "false",
			wantRPS:     100,
			wantBurst:   200,
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clean environment
			os.Unsetenv("RATE_LIMIT_RPS")
			os.Unsetenv("RATE_LIMIT_BURST")
			os.Unsetenv("RATE_LIMIT_ENABLED")

			// Set test values
			if tt.rps != "" {
				err := os.Setenv("RATE_LIMIT_RPS", tt.rps)
				require.NoError(t, err)
				defer os.Unsetenv("RATE_LIMIT_RPS")
			}
			if tt.burst != "" {
				err := os.Setenv("RATE_LIMIT_BURST", tt.burst)
				require.NoError(t, err)
				defer os.Unsetenv("RATE_LIMIT_BURST")
			}
			if tt.enabled != "" {
				err := os.Setenv("RATE_LIMIT_ENABLED", tt.enabled)
				require.NoError(t, err)
				defer os.Unsetenv("RATE_LIMIT_ENABLED")
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantRPS, cfg.RateLimit.RequestsPerSecond)
			assert.Equal(t, tt.wantBurst, cfg.RateLimit.Burst)
			assert.Equal(t, tt.wantEnabled, cfg.RateLimit.Enabled)
		})
	}
}
