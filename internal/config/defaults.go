package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4251,
			Host: "localhost",
		},
		Model: ModelConfig{
			Provider: ProviderAuto,
			Timeout:  "120s",
			Variant:  VariantClassic,
			Language: "English",
		},
		Sessions: SessionsConfig{
			TTL:             "2h",
			MaxSessions:     1000,
			CleanupInterval: "5m",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"console"},
		},
	}
}
