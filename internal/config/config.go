package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Supported model providers. ProviderAuto picks OpenRouter or OpenAI
// from the credential prefix.
const (
	ProviderAuto       = "auto"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Supported prompt/record schema variants.
const (
	VariantClassic    = "classic"
	VariantStructured = "structured"
)

// Config represents the application configuration.
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Model       ModelConfig    `toml:"model"`
	Sessions    SessionsConfig `toml:"sessions"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// ModelConfig selects the remote model backend and prompt shape.
type ModelConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`    // empty = provider default
	BaseURL  string `toml:"base_url"` // empty = provider default
	Timeout  string `toml:"timeout"`
	Variant  string `toml:"variant"`
	Language string `toml:"language"` // language the model should answer in
}

// GetTimeout parses the transport timeout, falling back to two minutes.
func (c *ModelConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// ResolveAPIKey returns the configured key, or the first provider
// specific environment variable that is set. Returns "" when none is.
func (c *ModelConfig) ResolveAPIKey() string {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key
	}

	var envNames []string
	switch c.Provider {
	case ProviderOpenRouter:
		envNames = []string{"OPENROUTER_API_KEY"}
	case ProviderOpenAI:
		envNames = []string{"OPENAI_API_KEY"}
	case ProviderGemini:
		envNames = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		envNames = []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY"}
	}
	for _, name := range envNames {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// SessionsConfig bounds the in-memory wizard session store.
type SessionsConfig struct {
	TTL             string `toml:"ttl"`
	MaxSessions     int    `toml:"max_sessions"`
	CleanupInterval string `toml:"cleanup_interval"`
}

// GetTTL parses the idle session lifetime, falling back to two hours.
func (c *SessionsConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// GetCleanupInterval parses the janitor period, falling back to five minutes.
func (c *SessionsConfig) GetCleanupInterval() time.Duration {
	d, err := time.ParseDuration(c.CleanupInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
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

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	config.Environment = normalizeEnvironment(config.Environment)
	config.Model.Provider = strings.ToLower(strings.TrimSpace(config.Model.Provider))
	config.Model.Variant = strings.ToLower(strings.TrimSpace(config.Model.Variant))

	return config, nil
}

// applyEnvOverrides applies MACRO_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MACRO_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("MACRO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MACRO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if level := os.Getenv("MACRO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if provider := os.Getenv("MACRO_MODEL_PROVIDER"); provider != "" {
		config.Model.Provider = provider
	}
	if model := os.Getenv("MACRO_MODEL"); model != "" {
		config.Model.Model = model
	}
	if key := os.Getenv("MACRO_API_KEY"); key != "" {
		config.Model.APIKey = key
	}
	if variant := os.Getenv("MACRO_PROMPT_VARIANT"); variant != "" {
		config.Model.Variant = variant
	}
	if ttl := os.Getenv("MACRO_SESSION_TTL"); ttl != "" {
		config.Sessions.TTL = ttl
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate returns every problem found in the configuration.
// An empty slice means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}

	switch c.Model.Provider {
	case ProviderAuto, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
	default:
		issues = append(issues, fmt.Sprintf("model.provider must be one of auto, openai, openrouter, gemini (got %q)", c.Model.Provider))
	}

	switch c.Model.Variant {
	case VariantClassic, VariantStructured:
	default:
		issues = append(issues, fmt.Sprintf("model.variant must be classic or structured (got %q)", c.Model.Variant))
	}

	if c.Model.Timeout != "" {
		if _, err := time.ParseDuration(c.Model.Timeout); err != nil {
			issues = append(issues, fmt.Sprintf("model.timeout is not a duration: %q", c.Model.Timeout))
		}
	}
	if c.Sessions.TTL != "" {
		if _, err := time.ParseDuration(c.Sessions.TTL); err != nil {
			issues = append(issues, fmt.Sprintf("sessions.ttl is not a duration: %q", c.Sessions.TTL))
		}
	}
	if c.Sessions.CleanupInterval != "" {
		if _, err := time.ParseDuration(c.Sessions.CleanupInterval); err != nil {
			issues = append(issues, fmt.Sprintf("sessions.cleanup_interval is not a duration: %q", c.Sessions.CleanupInterval))
		}
	}
	if c.Sessions.MaxSessions <= 0 {
		issues = append(issues, fmt.Sprintf("sessions.max_sessions must be positive (got %d)", c.Sessions.MaxSessions))
	}

	return issues
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "prod"
}

// BaseURL returns the externally reachable URL of the HTTP server.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// normalizeEnvironment maps "development" to "dev" and "production" to "prod".
func normalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development":
		return "dev"
	case "production":
		return "prod"
	default:
		return env
	}
}
