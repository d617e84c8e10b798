// Package config provides centralized configuration management for coordgrid.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Catalog   CatalogConfig
	Window    WindowConfig
	Reproject ReprojectConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxBodyBytes caps pasted or dropped text per request (default: 32MB)
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"33554432"`
}

// DatabaseConfig holds the optional PostGIS connection used to load the
// CRS catalog from spatial_ref_sys.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty disables the PostGIS catalog.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// ConnectTimeout bounds connecting and loading the catalog (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 5m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"5m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool { return c.URL != "" }

// CatalogConfig holds CRS catalog and suggestion settings.
type CatalogConfig struct {
	// Path is a Key,Value CSV file or a directory of EPSG-CRS-<code>.wkt files.
	// Its entries are merged over the built-in list.
	Path string `env:"CRS_CATALOG_PATH"`

	// SuggestLimit caps labels per suggestion list, 0 for no cap (default: 50)
	SuggestLimit int `env:"CRS_SUGGEST_LIMIT" default:"50"`

	// Debounce is the pause after the last keystroke before suggesting (default: 300ms)
	Debounce time.Duration `env:"CRS_DEBOUNCE" default:"300ms"`
}

// WindowConfig holds window session settings.
type WindowConfig struct {
	// IdleTimeout closes windows unused for this long (default: 30m)
	IdleTimeout time.Duration `env:"WINDOW_IDLE_TIMEOUT" default:"30m"`

	// ReapInterval is how often idle windows are looked for (default: 1m)
	ReapInterval time.Duration `env:"WINDOW_REAP_INTERVAL" default:"1m"`

	// Max is the number of windows open at once, 0 for no limit (default: 1000)
	Max int `env:"WINDOW_MAX" default:"1000"`

	// MaxRows caps the rows a table may grow to (default: 100000)
	MaxRows int `env:"WINDOW_MAX_ROWS" default:"100000"`

	// MaxCols caps the columns a table may grow to (default: 256)
	MaxCols int `env:"WINDOW_MAX_COLS" default:"256"`
}

// ReprojectConfig holds reprojection job settings.
type ReprojectConfig struct {
	// MaxConcurrent is the number of reprojections run in parallel (default: 4)
	MaxConcurrent int `env:"REPROJECT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a job slot (default: 10s)
	MaxWaitTime time.Duration `env:"REPROJECT_MAX_WAIT_TIME" default:"10s"`

	// Timeout is the maximum duration of one reprojection (default: 2m)
	Timeout time.Duration `env:"REPROJECT_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// ReprojectLimit is requests per minute for the reproject endpoint (default: 30)
	ReprojectLimit int `env:"RATE_LIMIT_REPROJECT" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
