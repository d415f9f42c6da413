package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appDir         = ".weatherbot"
	configFileName = "weatherbot.json"
	envPrefix      = "WEATHERBOT"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load reads the config file and overlays WEATHERBOT_* environment variables.
// A missing file yields the defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	configPath := l.GetConfigPath()
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can override keys that the
// config file does not mention.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("model.provider", cfg.Model.Provider)
	v.SetDefault("model.name", cfg.Model.Name)
	v.SetDefault("model.base_url", cfg.Model.BaseURL)
	v.SetDefault("model.api_key_env", cfg.Model.APIKeyEnv)
	v.SetDefault("agent.name", cfg.Agent.Name)
	v.SetDefault("agent.instructions", cfg.Agent.Instructions)
	v.SetDefault("agent.welcome", cfg.Agent.Welcome)
	v.SetDefault("agent.max_turns", cfg.Agent.MaxTurns)
	v.SetDefault("weather.mode", cfg.Weather.Mode)
	v.SetDefault("weather.base_url", cfg.Weather.BaseURL)
	v.SetDefault("weather.units", cfg.Weather.Units)
	v.SetDefault("weather.api_key_env", cfg.Weather.APIKeyEnv)
	v.SetDefault("gateway.port", cfg.Gateway.Port)
	v.SetDefault("gateway.host", cfg.Gateway.Host)
	v.SetDefault("gateway.shutdown_timeout", cfg.Gateway.ShutdownTimeout)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
	v.SetDefault("logging.redaction", cfg.Logging.Redaction)
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, appDir, configFileName)
}

// Save writes cfg to the loader's config path as indented JSON, creating the
// directory if needed. Credentials never live in the config so nothing is
// masked.
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to resolve config path")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
