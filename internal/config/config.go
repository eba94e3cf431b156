package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g.
// MENTA_SESSION_BACKEND=redis.
const EnvPrefix = "MENTA"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	file   string
	config *domain.Config
}

// NewManager creates a new configuration manager that searches the
// standard locations for config.yaml
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile creates a manager reading an explicit config file. An
// empty path falls back to the standard search locations.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{file: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/menta-question/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults and environment still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// never appear in a file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.mode", "release")

	// Session store defaults
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.max_entries", 10000)
	v.SetDefault("session.redis.url", "redis://localhost:6379/0")
	v.SetDefault("session.redis.key_prefix", "menta:session:")
	v.SetDefault("session.redis.max_retries", 3)
	v.SetDefault("session.redis.pool_size", 10)
	v.SetDefault("session.redis.pool_timeout", "4s")
	v.SetDefault("session.sqlite.path", "./data/sessions.db")
	v.SetDefault("session.postgres.url", "postgres://postgres@localhost:5432/menta_question?sslmode=disable")
	v.SetDefault("session.postgres.max_open_conns", 25)
	v.SetDefault("session.postgres.max_idle_conns", 5)
	v.SetDefault("session.postgres.conn_max_lifetime", "5m")
	v.SetDefault("session.postgres.migrate_on_start", true)
	v.SetDefault("session.breaker.enabled", true)
	v.SetDefault("session.breaker.max_requests", 1)
	v.SetDefault("session.breaker.interval", "60s")
	v.SetDefault("session.breaker.timeout", "30s")
	v.SetDefault("session.breaker.failure_threshold", 5)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Catalog defaults; an empty dir selects the embedded catalog
	v.SetDefault("catalog.dir", "")
	v.SetDefault("catalog.pattern", "**/*.{yaml,yml,json}")

	// MCP defaults
	v.SetDefault("mcp.server_name", "menta-question")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetSessionConfig returns session store configuration
func (m *Manager) GetSessionConfig() *domain.SessionConfig {
	return &m.config.Session
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[config.Server.Mode] {
		return fmt.Errorf("invalid server mode: %s", config.Server.Mode)
	}

	switch config.Session.Backend {
	case "memory", "sqlite":
	case "redis":
		if config.Session.Redis.URL == "" {
			return fmt.Errorf("redis URL is required for the redis session backend")
		}
	case "postgres":
		if config.Session.Postgres.URL == "" {
			return fmt.Errorf("postgres URL is required for the postgres session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s", config.Session.Backend)
	}
	if config.Session.Backend == "sqlite" && config.Session.SQLite.Path == "" {
		return fmt.Errorf("sqlite path is required for the sqlite session backend")
	}
	if config.Session.TTL < 0 {
		return fmt.Errorf("invalid session ttl: %s", config.Session.TTL)
	}
	if config.Session.MaxEntries < 0 {
		return fmt.Errorf("invalid session max_entries: %d", config.Session.MaxEntries)
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("invalid rate limit: %v requests per second", config.RateLimit.RequestsPerSecond)
		}
		if config.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid rate limit burst: %d", config.RateLimit.Burst)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}

// ConfigFileUsed returns the path of the file that was read, if any
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.v.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.v.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
