package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model.Name)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/openai/", cfg.Model.BaseURL)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Model.APIKeyEnv)
	assert.Equal(t, "weather assistant", cfg.Agent.Name)
	assert.Equal(t, "You are a helpful assistant that provides real time weather information.", cfg.Agent.Instructions)
	assert.Equal(t, 10, cfg.Agent.MaxTurns)
	assert.Equal(t, WeatherModeLive, cfg.Weather.Mode)
	assert.Equal(t, "metric", cfg.Weather.Units)
	assert.Equal(t, "OPENWEATHER_API_KEY", cfg.Weather.APIKeyEnv)
	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.Equal(t, 10*time.Second, cfg.Gateway.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Model.Provider = "gemini" },
			wantErr: "invalid provider",
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.Model.Name = "" },
			wantErr: "model: name",
		},
		{
			name:    "bad model base url",
			mutate:  func(c *Config) { c.Model.BaseURL = "ftp://example.com" },
			wantErr: "unsupported scheme",
		},
		{
			name:    "empty agent name",
			mutate:  func(c *Config) { c.Agent.Name = "" },
			wantErr: "agent: name",
		},
		{
			name:    "negative max turns",
			mutate:  func(c *Config) { c.Agent.MaxTurns = -1 },
			wantErr: "max_turns",
		},
		{
			name:    "unknown weather mode",
			mutate:  func(c *Config) { c.Weather.Mode = "cached" },
			wantErr: "invalid mode",
		},
		{
			name:    "live mode without base url",
			mutate:  func(c *Config) { c.Weather.BaseURL = "" },
			wantErr: "weather: base_url",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Gateway.Port = 70000 },
			wantErr: "invalid port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("static mode ignores base url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Weather.Mode = WeatherModeStatic
		cfg.Weather.BaseURL = ""

		assert.NoError(t, cfg.Validate())
	})
}

func TestGatewayAddr(t *testing.T) {
	g := GatewayConfig{Host: "0.0.0.0", Port: 9000}
	assert.Equal(t, "0.0.0.0:9000", g.Addr())
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	assert.Contains(t, s, `"gemini-2.0-flash"`)
	assert.Contains(t, s, `"api_key_env": "GEMINI_API_KEY"`)
}
