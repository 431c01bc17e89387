// Package config provides 12-factor configuration management for the editor backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// A TOML file named by CONFIG_FILE can supply a base layer that the
// environment then overrides.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Sandbox: Render context pool and protocol timeouts
//   - Importer: Remote document fetch limits and retries
//   - Export: Download filename and sanitization
//   - Templates: Starter template library location
//   - Sessions: Editor session limits
//   - Logging: Log level, output format, optional rotating file
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CONFIG_FILE
//   - SANDBOX_POOL_SIZE, SANDBOX_EXEC_TIMEOUT, SANDBOX_ACK_TIMEOUT
//   - IMPORT_FETCH_TIMEOUT, IMPORT_MAX_BODY, IMPORT_RETRY_MAX
//   - EXPORT_FILENAME, TEMPLATES_DIR
//   - LOG_LEVEL, LOG_DEV, LOG_FILE
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
package config
