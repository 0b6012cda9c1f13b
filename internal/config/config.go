// Package config loads the server settings from environment variables.
// Defaults are applied for unset values and the result is validated on
// startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Maps     MapsConfig
	Census   CensusConfig
	Database DatabaseConfig
	Audit    AuditConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3232)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3232"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 45s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"45s"`

	// CORSOrigins lists allowed origins; "*" allows any (default: *)
	CORSOrigins []string `env:"CORS_ORIGINS" default:"*"`
}

// DataConfig controls which files /load may read.
type DataConfig struct {
	// Dir confines loads to one directory tree (default: data)
	Dir string `env:"DATA_DIR" default:"data"`

	// MaxFileSize is the largest loadable file in bytes (default: 100MB)
	MaxFileSize int64 `env:"DATA_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrentLoads bounds parallel parses (default: 2)
	MaxConcurrentLoads int `env:"DATA_MAX_CONCURRENT_LOADS" default:"2"`

	// MaxLoadWait is how long a load waits for a free slot (default: 10s)
	MaxLoadWait time.Duration `env:"DATA_MAX_LOAD_WAIT" default:"10s"`

	// InitialFile is loaded at startup when set
	InitialFile string `env:"DATA_INITIAL_FILE"`
}

// MapsConfig locates the redlining GeoJSON.
type MapsConfig struct {
	// File is the GeoJSON feature collection; empty disables the maps endpoints
	File string `env:"MAPS_FILE" default:"data/geodata/fullDownload.json"`

	// HistorySize is how many keyword searches are remembered (default: 100)
	HistorySize int `env:"MAPS_HISTORY_SIZE" default:"100"`
}

// CensusConfig holds ACS API settings.
type CensusConfig struct {
	Enabled bool          `env:"CENSUS_ENABLED" default:"true"`
	BaseURL string        `env:"CENSUS_BASE_URL" default:"https://api.census.gov/data"`
	APIKey  string        `env:"CENSUS_API_KEY"`
	Timeout time.Duration `env:"CENSUS_TIMEOUT" default:"15s"`

	// CacheTTL is how long broadband answers are reused; 0 disables caching
	CacheTTL time.Duration `env:"CENSUS_CACHE_TTL" default:"1h"`
}

// DatabaseConfig holds the optional audit database connection.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty keeps the audit log in memory.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
}

// AuditConfig sizes the in-memory audit log and controls background cleanup.
type AuditConfig struct {
	MemoryCapacity int `env:"AUDIT_MEMORY_CAPACITY" default:"1000"`

	// Retention is how long entries are kept; 0 keeps them forever (default: 30 days)
	Retention time.Duration `env:"AUDIT_RETENTION" default:"720h"`

	// MaintenanceInterval is how often old audit entries and expired census
	// cache entries are dropped (default: 1h)
	MaintenanceInterval time.Duration `env:"MAINTENANCE_INTERVAL" default:"1h"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// LoadLimit is requests per minute for /load (default: 10)
	LoadLimit int `env:"RATE_LIMIT_LOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects every endpoint with an X-API-Key header
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
