package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader("/path/to/config.json")
	assert.Equal(t, "/path/to/config.json", loader.GetConfigPath())
}

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when file doesn't exist", func(t *testing.T) {
		cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).Load()

		require.NoError(t, err)
		assert.Equal(t, "gemini-2.0-flash", cfg.Model.Name)
		assert.Equal(t, WeatherModeLive, cfg.Weather.Mode)
		assert.Equal(t, 8080, cfg.Gateway.Port)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "weatherbot.json")
		testConfig := `{
			"weather": {"mode": "static"},
			"gateway": {"port": 9090, "shutdown_timeout": "3s"}
		}`
		require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))

		cfg, err := NewLoader(configPath).Load()

		require.NoError(t, err)
		assert.Equal(t, WeatherModeStatic, cfg.Weather.Mode)
		assert.Equal(t, 9090, cfg.Gateway.Port)
		assert.Equal(t, 3*time.Second, cfg.Gateway.ShutdownTimeout)
		// untouched keys keep their defaults
		assert.Equal(t, "metric", cfg.Weather.Units)
		assert.Equal(t, "openai", cfg.Model.Provider)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("WEATHERBOT_GATEWAY_PORT", "7070")
		t.Setenv("WEATHERBOT_MODEL_NAME", "gemini-2.5-flash")

		cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).Load()

		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.Gateway.Port)
		assert.Equal(t, "gemini-2.5-flash", cfg.Model.Name)
	})

	t.Run("invalid json", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "weatherbot.json")
		require.NoError(t, os.WriteFile(configPath, []byte("{not json"), 0644))

		_, err := NewLoader(configPath).Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestLoaderSave(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "weatherbot.json")
	loader := NewLoader(configPath)

	cfg := DefaultConfig()
	cfg.Weather.Mode = WeatherModeStatic
	cfg.Gateway.Port = 9191
	cfg.Gateway.ShutdownTimeout = 4 * time.Second

	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, WeatherModeStatic, loaded.Weather.Mode)
	assert.Equal(t, 9191, loaded.Gateway.Port)
	assert.Equal(t, 4*time.Second, loaded.Gateway.ShutdownTimeout)
	assert.Equal(t, cfg.Agent, loaded.Agent)
}
