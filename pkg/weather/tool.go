package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/harun/weatherbot/internal/observability"
	"github.com/harun/weatherbot/pkg/toolexecutor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// ToolName is the name the model uses to call the tool.
	ToolName = "get_weather"

	// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

	toolDescription = "Get real-time weather information for a given city using OpenWeatherMap API."
)

// Looker produces a weather sentence for a city.
type Looker interface {
	Lookup(ctx context.Context, city string) string
}

// Tool queries OpenWeatherMap for the current weather in a city.
type Tool struct {
	client  *http.Client
	baseURL string
	units   string
	apiKey  string
	logger  zerolog.Logger
}

// Option configures a Tool.
type Option func(*Tool)

// WithHTTPClient replaces the HTTP client. The default has no timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Tool) { t.client = c }
}

// WithBaseURL points the tool at another endpoint.
func WithBaseURL(u string) Option {
	return func(t *Tool) { t.baseURL = u }
}

// WithUnits sets the units query parameter.
func WithUnits(units string) Option {
	return func(t *Tool) { t.units = units }
}

// WithLogger sets the logger used for lookup outcomes.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tool) { t.logger = l }
}

// New creates a Tool. An empty apiKey is allowed; lookups then report that
// the key is not set.
func New(apiKey string, opts ...Option) *Tool {
	t := &Tool{
		client:  &http.Client{},
		baseURL: DefaultBaseURL,
		units:   "metric",
		apiKey:  apiKey,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// currentWeather mirrors the fields we read from the provider payload.
// Numbers stay json.Number so they render exactly as the provider sent them.
type currentWeather struct {
	Weather []struct {
		Description *string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp      *json.Number `json:"temp"`
		FeelsLike *json.Number `json:"feels_like"`
		Humidity  *json.Number `json:"humidity"`
	} `json:"main"`
}

// Lookup returns a one-sentence summary of the current weather in city.
func (t *Tool) Lookup(ctx context.Context, city string) string {
	logger := t.logger.With().Str("tool", ToolName).Str("city", city).Logger()

	if t.apiKey == "" {
		observability.RecordWeatherLookup("no_key")
		logger.Warn().Msg("Weather lookup skipped, API key missing")
		return "OpenWeatherMap API key is not set."
	}

	body, err := t.fetch(ctx, city)
	if err != nil {
		observability.RecordWeatherLookup("fetch_error")
		logger.Warn().Err(err).Msg("Weather fetch failed")
		return fmt.Sprintf("Failed to fetch weather data for %s: %v", city, err)
	}

	var payload currentWeather
	if err := json.Unmarshal(body, &payload); err != nil ||
		len(payload.Weather) == 0 || payload.Weather[0].Description == nil ||
		payload.Main == nil || payload.Main.Temp == nil ||
		payload.Main.FeelsLike == nil || payload.Main.Humidity == nil {
		observability.RecordWeatherLookup("bad_payload")
		logger.Warn().Msg("Weather payload missing expected fields")
		return fmt.Sprintf("Sorry, could not find weather info for '%s'.", city)
	}

	observability.RecordWeatherLookup("ok")
	logger.Debug().Msg("Weather lookup succeeded")

	return fmt.Sprintf(
		"The current weather in %s is %s with a temperature of %s°C (feels like %s°C) and humidity at %s%%.",
		city,
		capitalize(*payload.Weather[0].Description),
		payload.Main.Temp.String(),
		payload.Main.FeelsLike.String(),
		payload.Main.Humidity.String(),
	)
}

// fetch performs the GET and returns a body that is at least valid JSON.
// Transport errors, non-2xx statuses and undecodable bodies are all fetch
// failures.
func (t *Tool) fetch(ctx context.Context, city string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	reqURL, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid weather endpoint: %w", err)
	}
	q := reqURL.Query()
	q.Set("q", city)
	q.Set("appid", t.apiKey)
	q.Set("units", t.units)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, redactURLError(err, reqURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := "Client"
		if resp.StatusCode >= 500 {
			kind = "Server"
		}
		return nil, fmt.Errorf("%d %s Error: %s for url: %s",
			resp.StatusCode, kind, http.StatusText(resp.StatusCode), displayURL(reqURL))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON in response body")
	}

	return body, nil
}

// Definition registers Lookup as the get_weather capability.
func (t *Tool) Definition() toolexecutor.ToolDefinition {
	return definition(t)
}

func definition(l Looker) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        ToolName,
		Description: toolDescription,
		Parameters: []toolexecutor.ToolParameter{
			{
				Name:        "city",
				Type:        "string",
				Description: "Name of the city, e.g. Lahore or San Francisco",
				Required:    true,
			},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			city, _ := params["city"].(string)
			return l.Lookup(ctx, city), nil
		},
	}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// displayURL hides the appid so it never ends up in a chat reply.
func displayURL(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has("appid") {
		q.Set("appid", "REDACTED")
	}
	c.RawQuery = q.Encode()
	return c.String()
}

func redactURLError(err error, u *url.URL) error {
	if ue, ok := err.(*url.Error); ok {
		return &url.Error{Op: ue.Op, URL: displayURL(u), Err: ue.Err}
	}
	return err
}
