package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for taskpri.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Storage    StorageConfig    `koanf:"storage"`
	Assistant  AssistantConfig  `koanf:"assistant"`
	Prioritize PrioritizeConfig `koanf:"prioritize"`
	Dispatch   DispatchConfig   `koanf:"dispatch"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// LoggingConfig is the user-facing subset of logging options.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig controls OTLP export.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Storage backends.
const (
	BackendFile   = "file"
	BackendNATS   = "nats"
	BackendMemory = "memory"
)

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
	NATSURL string `koanf:"nats_url"`
	Bucket  string `koanf:"bucket"`
}

// Assistant providers.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// AssistantConfig configures the optional LLM collaborator.
type AssistantConfig struct {
	Provider  string        `koanf:"provider"`
	Model     string        `koanf:"model"`
	APIKey    Secret        `koanf:"api_key"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"` // requests per minute
	Burst     int           `koanf:"burst"`
}

// PrioritizeConfig tunes the Eisenhower engine.
type PrioritizeConfig struct {
	UrgencyWindow time.Duration `koanf:"urgency_window"`
}

// DispatchConfig controls destination handlers.
type DispatchConfig struct {
	Confirm         bool   `koanf:"confirm"`
	Simulate        bool   `koanf:"simulate"`
	CalendarID      string `koanf:"calendar_id"`
	CredentialsFile string `koanf:"credentials_file"`
	TokenFile       string `koanf:"token_file"`
	NotesDir        string `koanf:"notes_dir"`
}

// MetricsConfig controls prometheus textfile output.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Dispatch.Confirm = true
	cfg.Dispatch.Simulate = true
	applyDefaults(cfg)
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file backend")
		}
	case BackendNATS:
		if c.Storage.NATSURL == "" {
			return fmt.Errorf("storage.nats_url is required for the nats backend")
		}
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the nats backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Assistant.Provider {
	case ProviderNone, ProviderOllama:
	case ProviderOpenAI, ProviderAnthropic:
		if !c.Assistant.APIKey.IsSet() {
			return fmt.Errorf("assistant.api_key is required for provider %q", c.Assistant.Provider)
		}
	default:
		return fmt.Errorf("unknown assistant provider %q", c.Assistant.Provider)
	}
	if c.Assistant.Timeout <= 0 {
		return fmt.Errorf("assistant.timeout must be positive")
	}
	if c.Assistant.RateLimit <= 0 {
		return fmt.Errorf("assistant.rate_limit must be positive")
	}
	if c.Prioritize.UrgencyWindow <= 0 {
		return fmt.Errorf("prioritize.urgency_window must be positive")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %f", c.Telemetry.SampleRate)
	}
	return nil
}
