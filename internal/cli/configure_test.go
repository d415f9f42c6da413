package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCommand(t *testing.T) {
	t.Run("init writes defaults once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf", "weatherbot.json")

		output, err := execute(t, "", "config", "init", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, output, "Configuration saved to: "+path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "gemini-2.0-flash")
		assert.NotContains(t, string(data), "GEMINI_API_KEY=")

		_, err = execute(t, "", "config", "init", "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")

		_, err = execute(t, "", "config", "init", "--config", path, "--force")
		require.NoError(t, err)
	})

	t.Run("show prints the effective config", func(t *testing.T) {
		path := writeConfig(t, `{"weather": {"mode": "static"}}`)

		output, err := execute(t, "", "config", "show", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, output, `"mode": "static"`)
		assert.Contains(t, output, `"name": "gemini-2.0-flash"`)
	})
}
