package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	SetActiveSessions(2)
	RecordChatTurn(true)
	RecordToolExecution("get_weather", 15*time.Millisecond, true)
	RecordAgentRun("openai", time.Second, false)
	RecordWeatherLookup("ok")

	srv := httptest.NewServer(MetricsHandler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "weatherbot_active_sessions 2")
	assert.Contains(t, text, `weatherbot_chat_turns_total{status="success"}`)
	assert.Contains(t, text, `weatherbot_tool_execution_total{status="success",tool="get_weather"}`)
	assert.Contains(t, text, `weatherbot_agent_run_total{provider="openai",status="error"}`)
	assert.Contains(t, text, `weatherbot_weather_lookup_total{outcome="ok"}`)
}

func TestEnsureRegisteredIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		EnsureRegistered()
		EnsureRegistered()
	})
}
