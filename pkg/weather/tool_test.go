package weather

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harun/weatherbot/pkg/toolexecutor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lahorePayload = `{
	"weather": [{"id": 800, "main": "Clear", "description": "clear sky"}],
	"main": {"temp": 30, "feels_like": 33, "humidity": 40, "pressure": 1009},
	"name": "Lahore"
}`

func newTestTool(t *testing.T, handler http.HandlerFunc) *Tool {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New("test-key", WithBaseURL(server.URL), WithLogger(zerolog.New(io.Discard)))
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestLookup(t *testing.T) {
	t.Run("should format a successful lookup", func(t *testing.T) {
		var query map[string]string
		tool := newTestTool(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			query = map[string]string{"q": q.Get("q"), "appid": q.Get("appid"), "units": q.Get("units")}
			respond(http.StatusOK, lahorePayload)(w, r)
		})

		got := tool.Lookup(context.Background(), "Lahore")

		assert.Equal(t,
			"The current weather in Lahore is Clear sky with a temperature of 30°C (feels like 33°C) and humidity at 40%.",
			got)
		assert.Equal(t, map[string]string{"q": "Lahore", "appid": "test-key", "units": "metric"}, query)
	})

	t.Run("should keep numbers as the provider wrote them", func(t *testing.T) {
		tool := newTestTool(t, respond(http.StatusOK, `{
			"weather": [{"description": "LIGHT RAIN"}],
			"main": {"temp": 12.5, "feels_like": 11.05, "humidity": 87}
		}`))

		got := tool.Lookup(context.Background(), "London")
		assert.Equal(t,
			"The current weather in London is Light rain with a temperature of 12.5°C (feels like 11.05°C) and humidity at 87%.",
			got)
	})

	t.Run("should report missing api key without a request", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		tool := New("", WithBaseURL(server.URL))
		assert.Equal(t, "OpenWeatherMap API key is not set.", tool.Lookup(context.Background(), "Lahore"))
		assert.False(t, called)
	})

	t.Run("should report non-2xx status as fetch failure", func(t *testing.T) {
		tool := newTestTool(t, respond(http.StatusNotFound, `{"cod":"404","message":"city not found"}`))

		got := tool.Lookup(context.Background(), "Atlantis")
		assert.Contains(t, got, "Failed to fetch weather data for Atlantis: 404 Client Error: Not Found for url: ")
		assert.NotContains(t, got, "test-key")
		assert.Contains(t, got, "appid=REDACTED")
	})

	t.Run("should label 5xx as server error", func(t *testing.T) {
		tool := newTestTool(t, respond(http.StatusBadGateway, `{}`))
		assert.Contains(t, tool.Lookup(context.Background(), "Paris"), "502 Server Error: Bad Gateway")
	})

	t.Run("should report transport errors as fetch failure", func(t *testing.T) {
		tool := New("secret-key",
			WithHTTPClient(&http.Client{Transport: failingTransport{}}),
			WithLogger(zerolog.New(io.Discard)))

		got := tool.Lookup(context.Background(), "Lahore")
		assert.Contains(t, got, "Failed to fetch weather data for Lahore: ")
		assert.Contains(t, got, "connection refused")
		assert.NotContains(t, got, "secret-key")
	})

	t.Run("should report invalid JSON as fetch failure", func(t *testing.T) {
		tool := newTestTool(t, respond(http.StatusOK, `<html>oops</html>`))
		assert.Contains(t, tool.Lookup(context.Background(), "Lahore"), "Failed to fetch weather data for Lahore: ")
	})

	t.Run("should apologize for unexpected payloads", func(t *testing.T) {
		cases := map[string]string{
			"missing main":           `{"weather":[{"description":"clear sky"}]}`,
			"missing weather":        `{"main":{"temp":30,"feels_like":33,"humidity":40}}`,
			"missing humidity":       `{"weather":[{"description":"clear sky"}],"main":{"temp":1,"feels_like":1}}`,
			"empty weather list":     `{"weather":[],"main":{"temp":1,"feels_like":1,"humidity":1}}`,
			"missing description":    `{"weather":[{}],"main":{"temp":1,"feels_like":1,"humidity":1}}`,
			"non-object body":        `[1,2,3]`,
			"wrong type for weather": `{"weather":"clear","main":{"temp":1,"feels_like":1,"humidity":1}}`,
		}

		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				tool := newTestTool(t, respond(http.StatusOK, body))
				assert.Equal(t, "Sorry, could not find weather info for 'Lahore'.", tool.Lookup(context.Background(), "Lahore"))
			})
		}
	})
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"clear sky", "Clear sky"},
		{"BROKEN CLOUDS", "Broken clouds"},
		{"", ""},
		{"ébullition", "Ébullition"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, capitalize(tt.in))
	}
}

func TestDefinition(t *testing.T) {
	t.Run("should register as get_weather", func(t *testing.T) {
		tool := newTestTool(t, respond(http.StatusOK, lahorePayload))

		te := toolexecutor.New()
		require.NoError(t, te.RegisterTool(tool.Definition()))

		def := te.GetTool(ToolName)
		require.NotNil(t, def)
		require.Len(t, def.Parameters, 1)
		assert.Equal(t, "city", def.Parameters[0].Name)
		assert.True(t, def.Parameters[0].Required)

		result := te.Execute(context.Background(), ToolName, map[string]interface{}{"city": "Lahore"}, nil)
		require.True(t, result.Success, result.Error)
		assert.Contains(t, result.Output, "Clear sky")
	})

	t.Run("should reject calls without a city", func(t *testing.T) {
		te := toolexecutor.New()
		require.NoError(t, te.RegisterTool(NewStatic().Definition()))

		result := te.Execute(context.Background(), ToolName, map[string]interface{}{}, nil)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "validation")
	})
}

func TestStaticTool(t *testing.T) {
	s := NewStatic()
	assert.Equal(t, "The weather in Lahore is sunny.", s.Lookup(context.Background(), "Lahore"))

	te := toolexecutor.New()
	require.NoError(t, te.RegisterTool(s.Definition()))
	result := te.Execute(context.Background(), ToolName, map[string]interface{}{"city": "Oslo"}, nil)
	require.True(t, result.Success)
	assert.Equal(t, "The weather in Oslo is sunny.", result.Output)
}
