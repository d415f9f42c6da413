package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh global flag state and returns
// what it wrote to stdout.
func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()

	cfgFile, logLevel, envFile = "", "", ""
	forceInit = false
	resetBoolFlags(rootCmd)

	cmd := GetRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// resetBoolFlags clears help/version flags left set by an earlier run.
func resetBoolFlags(cmd *cobra.Command) {
	for _, name := range []string{"help", "version", "force"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
		}
	}
	for _, sub := range cmd.Commands() {
		resetBoolFlags(sub)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weatherbot.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		output, err := execute(t, "", "--version")
		require.NoError(t, err)

		assert.Contains(t, output, "weatherbot version")
		assert.Contains(t, output, GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		output, err := execute(t, "", "--help")
		require.NoError(t, err)

		assert.Contains(t, output, "Weatherbot")
		assert.Contains(t, output, "OpenWeatherMap")
		for _, sub := range []string{"serve", "chat", "status", "config"} {
			assert.Contains(t, output, sub)
		}
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := GetRootCmd()

		configFlag := cmd.PersistentFlags().Lookup("config")
		require.NotNil(t, configFlag)
		assert.Equal(t, "", configFlag.DefValue)

		logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
		require.NotNil(t, logLevelFlag)
		assert.Equal(t, "", logLevelFlag.DefValue)

		envFlag := cmd.PersistentFlags().Lookup("env-file")
		require.NotNil(t, envFlag)
		assert.Equal(t, ".env", envFlag.DefValue)
	})
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	assert.NotEmpty(t, version)
	assert.True(t, strings.HasPrefix(version, "0."))
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), ".env")))
		assert.NoError(t, loadEnvFile(""))
	})

	t.Run("exports variables without overriding the shell", func(t *testing.T) {
		t.Setenv("WEATHERBOT_TEST_PRESET", "shell")
		t.Cleanup(func() { os.Unsetenv("WEATHERBOT_TEST_FROM_FILE") })

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("WEATHERBOT_TEST_FROM_FILE=file\nWEATHERBOT_TEST_PRESET=file\n"), 0644))

		require.NoError(t, loadEnvFile(path))
		assert.Equal(t, "file", os.Getenv("WEATHERBOT_TEST_FROM_FILE"))
		assert.Equal(t, "shell", os.Getenv("WEATHERBOT_TEST_PRESET"))
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("log level flag overrides the file", func(t *testing.T) {
		cfgFile = writeConfig(t, `{"logging": {"level": "warn"}}`)
		logLevel = "debug"
		t.Cleanup(func() { cfgFile, logLevel = "", "" })

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("invalid file values are rejected", func(t *testing.T) {
		cfgFile = writeConfig(t, `{"weather": {"mode": "cloudy"}}`)
		t.Cleanup(func() { cfgFile = "" })

		_, err := loadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
