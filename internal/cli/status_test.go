package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		output, err := execute(t, "", "status", "--help")
		require.NoError(t, err)
		assert.Contains(t, output, "chat sessions")
	})
}

func TestPrintStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("running server lists sessions", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"sessions":[{"id":"abc","created_at":"2025-06-01T11:58:30Z","messages":4,"started":true}],"clients":[]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		out := &bytes.Buffer{}
		require.NoError(t, printStatus(out, srv.Client(), srv.URL, now))

		assert.Contains(t, out.String(), "Status: running")
		assert.Contains(t, out.String(), "Sessions: 1")
		assert.Contains(t, out.String(), "abc  age 1m30s  messages 4")
	})

	t.Run("unreachable server is stopped", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		out := &bytes.Buffer{}
		require.NoError(t, printStatus(out, &http.Client{Timeout: time.Second}, url, now))
		assert.Equal(t, "Status: stopped\n", out.String())
	})

	t.Run("failing health check", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		out := &bytes.Buffer{}
		require.NoError(t, printStatus(out, srv.Client(), srv.URL, now))
		assert.Contains(t, out.String(), "Status: unhealthy (503 Service Unavailable)")
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"seconds only", 45 * time.Second, "45s"},
		{"minutes and seconds", 2*time.Minute + 30*time.Second, "2m30s"},
		{"hours minutes seconds", 3*time.Hour + 15*time.Minute + 20*time.Second, "3h15m20s"},
		{"zero", 0, "0s"},
		{"negative clamps to zero", -time.Minute, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}
