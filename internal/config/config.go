package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Environment variables holding credentials. Keys never live in the config file.
const (
	ModelAPIKeyEnv   = "GEMINI_API_KEY"
	WeatherAPIKeyEnv = "OPENWEATHER_API_KEY"
)

// Weather tool modes
const (
	WeatherModeLive   = "live"
	WeatherModeStatic = "static"
)

// Config represents the main weatherbot configuration
type Config struct {
	// Model endpoint
	Model ModelConfig `json:"model" mapstructure:"model"`

	// Agent persona
	Agent AgentConfig `json:"agent" mapstructure:"agent"`

	// Weather tool
	Weather WeatherConfig `json:"weather" mapstructure:"weather"`

	// Gateway (WebSocket chat transport)
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ModelConfig selects the hosted model and how to reach it
type ModelConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"` // openai, anthropic
	Name      string `json:"name" mapstructure:"name"`
	BaseURL   string `json:"base_url" mapstructure:"base_url"`
	APIKeyEnv string `json:"api_key_env" mapstructure:"api_key_env"`
}

// AgentConfig holds the agent's name and instructions
type AgentConfig struct {
	Name         string `json:"name" mapstructure:"name"`
	Instructions string `json:"instructions" mapstructure:"instructions"`
	Welcome      string `json:"welcome" mapstructure:"welcome"`
	MaxTurns     int    `json:"max_turns" mapstructure:"max_turns"`
}

// WeatherConfig configures the get_weather tool
type WeatherConfig struct {
	Mode      string `json:"mode" mapstructure:"mode"` // live, static
	BaseURL   string `json:"base_url" mapstructure:"base_url"`
	Units     string `json:"units" mapstructure:"units"`
	APIKeyEnv string `json:"api_key_env" mapstructure:"api_key_env"`
}

// GatewayConfig holds gateway server configuration
type GatewayConfig struct {
	Port            int           `json:"port" mapstructure:"port"`
	Host            string        `json:"host" mapstructure:"host"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:  "openai",
			Name:      "gemini-2.0-flash",
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta/openai/",
			APIKeyEnv: ModelAPIKeyEnv,
		},
		Agent: AgentConfig{
			Name:         "weather assistant",
			Instructions: "You are a helpful assistant that provides real time weather information.",
			Welcome:      "Welcome to the Weather Assistant! You can ask me about the weather in any city.",
			MaxTurns:     10,
		},
		Weather: WeatherConfig{
			Mode:      WeatherModeLive,
			BaseURL:   "https://api.openweathermap.org/data/2.5/weather",
			Units:     "metric",
			APIKeyEnv: WeatherAPIKeyEnv,
		},
		Gateway: GatewayConfig{
			Port:            8080,
			Host:            "127.0.0.1",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Pretty:    true,
			MaxSize:   50,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Addr returns the gateway listen address
func (g GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("model: invalid provider %q (must be: openai, anthropic)", c.Model.Provider)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model: name is required")
	}
	if c.Model.APIKeyEnv == "" {
		return fmt.Errorf("model: api_key_env is required")
	}
	if c.Model.BaseURL != "" {
		if err := validateURL(c.Model.BaseURL); err != nil {
			return fmt.Errorf("model: base_url: %w", err)
		}
	}

	if c.Agent.Name == "" {
		return fmt.Errorf("agent: name is required")
	}
	if c.Agent.MaxTurns < 0 {
		return fmt.Errorf("agent: max_turns cannot be negative")
	}

	switch c.Weather.Mode {
	case WeatherModeLive:
		if err := validateURL(c.Weather.BaseURL); err != nil {
			return fmt.Errorf("weather: base_url: %w", err)
		}
		if c.Weather.APIKeyEnv == "" {
			return fmt.Errorf("weather: api_key_env is required in live mode")
		}
	case WeatherModeStatic:
	default:
		return fmt.Errorf("weather: invalid mode %q (must be: live, static)", c.Weather.Mode)
	}

	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway: invalid port %d", c.Gateway.Port)
	}
	if c.Gateway.ShutdownTimeout < 0 {
		return fmt.Errorf("gateway: shutdown_timeout cannot be negative")
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
