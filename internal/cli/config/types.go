package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all console configuration.
type Config struct {
	APIURL        string          `koanf:"api_url"`
	ListenAddr    string          `koanf:"listen_addr"`
	Environment   string          `koanf:"environment"`
	SessionSecret string          `koanf:"session_secret"`
	PrefsPath     string          `koanf:"prefs_path"`
	Log           LogConfig       `koanf:"log"`
	UI            UIConfig        `koanf:"ui"`
	RateLimit     RateLimitConfig `koanf:"ratelimit"`
	Telemetry     TelemetryConfig `koanf:"telemetry"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // auto, text, json
}

// UIConfig holds web console toggles.
type UIConfig struct {
	Watch    bool `koanf:"watch"`
	AutoOpen bool `koanf:"auto_open"`
}

// RateLimitConfig throttles sign-in attempts through Redis.
type RateLimitConfig struct {
	Enabled     bool          `koanf:"enabled"`
	RedisURL    string        `koanf:"redis_url"`
	MaxAttempts int           `koanf:"max_attempts"`
	Window      time.Duration `koanf:"window"`
}

// TelemetryConfig controls OTLP trace and log export.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
	Headers     string `koanf:"headers"`
}

// Active reports whether telemetry is both enabled and pointed at an
// endpoint.
func (t TelemetryConfig) Active() bool {
	return t.Enabled && t.Endpoint != ""
}

// Default configuration values.
const (
	DefaultAPIURL      = "http://localhost:8000"
	DefaultListenAddr  = ":8090"
	DefaultEnvironment = "development"
	DefaultServiceName = "hygiene-console"
)

// IsProduction reports whether the console runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the console runs in development mode.
func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

// LogLevel parses the configured log level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// JSONLogs reports whether logs should be emitted as JSON. The "auto"
// format follows the environment: JSON in production, text elsewhere.
func (c *Config) JSONLogs() bool {
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return true
	case "text":
		return false
	default:
		return c.IsProduction()
	}
}

// DefaultPrefsPath returns the default preferences database location,
// or "" when the home directory cannot be resolved. An empty path
// leaves column preferences disabled.
func DefaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hygiene", "console.db")
}
