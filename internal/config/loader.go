// Package config provides configuration loading for taskpri.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
	envPrefix         = "TASKPRI_"
	appDir            = "taskpri"
)

// LoadWithFile loads configuration from a YAML file, then overrides it with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (TASKPRI_ASSISTANT_PROVIDER, TASKPRI_STORAGE_PATH, ...)
//  2. YAML config file (~/.config/taskpri/config.yaml)
//  3. Defaults
//
// The file must live under ~/.config/taskpri/ or /etc/taskpri/, be at most
// 1MB, and have 0600 or 0400 permissions since it may carry API keys. A
// missing file is not an error.
//
// Environment variables drop the prefix and split on the first underscore:
//
//	TASKPRI_ASSISTANT_API_KEY -> assistant.api_key
//	TASKPRI_PRIORITIZE_URGENCY_WINDOW -> prioritize.urgency_window
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(dir, "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		// Validate through the open descriptor to avoid a TOCTOU race.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal over the defaults so booleans absent from the file keep
	// their default values.
	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps TASKPRI_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// DefaultDir returns ~/.config/taskpri.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDir), nil
}

// EnsureConfigDir creates the config directory with 0700 permissions.
func EnsureConfigDir() error {
	dir, err := DefaultDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return nil
}

// validateConfigPath checks that path is inside an allowed directory.
// Runs even if the file does not exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolvedPath = absPath
	}

	dir, err := DefaultDir()
	if err != nil {
		return err
	}
	allowedDirs := []string{dir, filepath.Join("/etc", appDir)}
	for _, allowed := range allowedDirs {
		if strings.HasPrefix(resolvedPath, allowed+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/%s/ or /etc/%s/", appDir, appDir)
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// applyDefaults fills zero values.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = appDir
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.Path == "" {
		if dir, err := DefaultDir(); err == nil {
			cfg.Storage.Path = filepath.Join(dir, "data")
		}
	}
	if cfg.Storage.NATSURL == "" {
		cfg.Storage.NATSURL = "nats://127.0.0.1:4222"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "taskpri"
	}

	if cfg.Assistant.Provider == "" {
		cfg.Assistant.Provider = ProviderNone
	}
	if cfg.Assistant.Timeout == 0 {
		cfg.Assistant.Timeout = 20 * time.Second
	}
	if cfg.Assistant.RateLimit == 0 {
		cfg.Assistant.RateLimit = 50
	}
	if cfg.Assistant.Burst == 0 {
		cfg.Assistant.Burst = 5
	}
	if cfg.Assistant.Model == "" {
		switch cfg.Assistant.Provider {
		case ProviderOpenAI:
			cfg.Assistant.Model = "gpt-4o-mini"
		case ProviderAnthropic:
			cfg.Assistant.Model = "claude-3-5-haiku-latest"
		case ProviderOllama:
			cfg.Assistant.Model = "llama3.1"
		}
	}

	if cfg.Prioritize.UrgencyWindow == 0 {
		cfg.Prioritize.UrgencyWindow = 24 * time.Hour
	}

	if cfg.Dispatch.CalendarID == "" {
		cfg.Dispatch.CalendarID = "primary"
	}
	if dir, err := DefaultDir(); err == nil {
		if cfg.Dispatch.NotesDir == "" {
			cfg.Dispatch.NotesDir = filepath.Join(dir, "notes")
		}
		if cfg.Dispatch.CredentialsFile == "" {
			cfg.Dispatch.CredentialsFile = filepath.Join(dir, "credentials.json")
		}
		if cfg.Dispatch.TokenFile == "" {
			cfg.Dispatch.TokenFile = filepath.Join(dir, "token.json")
		}
	}
}
