package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/harun/weatherbot/internal/config"
	"github.com/harun/weatherbot/internal/observability"
	"github.com/harun/weatherbot/internal/tracing"
	"github.com/harun/weatherbot/pkg/agent"
	"github.com/harun/weatherbot/pkg/channels"
	"github.com/harun/weatherbot/pkg/session"
	"github.com/harun/weatherbot/pkg/toolexecutor"
	"github.com/harun/weatherbot/pkg/weather"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ThinkingText is the placeholder shown while the agent runs.
const ThinkingText = "Thinking..."

var (
	// ErrMissingModelKey means the model API key is absent from the environment.
	ErrMissingModelKey = errors.New("model API key is not set")
	// ErrSessionNotStarted means a message arrived before OnChatStart succeeded.
	ErrSessionNotStarted = errors.New("chat session has not been started")
)

// Options configures an Assistant.
type Options struct {
	Config *config.Config

	// Providers builds the model client. Defaults to agent.ProviderFactory.
	Providers agent.ProviderCreator
	// Getenv looks up credentials. Defaults to os.Getenv.
	Getenv func(string) string
	// HTTPClient is used by the live weather tool.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Assistant implements channels.Hooks for the weather agent.
type Assistant struct {
	cfg       *config.Config
	providers agent.ProviderCreator
	getenv    func(string) string
	tools     *toolexecutor.ToolExecutor
	runner    *agent.Runner
	logger    zerolog.Logger
}

var _ channels.Hooks = (*Assistant)(nil)

// New creates an Assistant and registers the weather tool. The weather API
// key is read once here; the model key is read on every chat start.
func New(opts Options) (*Assistant, error) {
	observability.EnsureRegistered()

	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	providers := opts.Providers
	if providers == nil {
		providers = &agent.ProviderFactory{}
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	logger := opts.Logger.With().Str("component", "assistant").Logger()

	tools := toolexecutor.New()
	if err := tools.RegisterTool(weatherTool(cfg.Weather, getenv, opts.HTTPClient, logger).Definition()); err != nil {
		return nil, fmt.Errorf("failed to register weather tool: %w", err)
	}

	runner, err := agent.NewRunner(agent.Config{
		ToolExecutor: tools,
		Logger:       logger,
		MaxTurns:     cfg.Agent.MaxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &Assistant{
		cfg:       cfg,
		providers: providers,
		getenv:    getenv,
		tools:     tools,
		runner:    runner,
		logger:    logger,
	}, nil
}

type definer interface {
	Definition() toolexecutor.ToolDefinition
}

func weatherTool(cfg config.WeatherConfig, getenv func(string) string, client *http.Client, logger zerolog.Logger) definer {
	if cfg.Mode == config.WeatherModeStatic {
		return weather.NewStatic()
	}

	key := getenv(cfg.APIKeyEnv)
	if key == "" {
		logger.Warn().Str("env", cfg.APIKeyEnv).Msg("Weather API key not set; lookups will report it")
	}

	opts := []weather.Option{
		weather.WithBaseURL(cfg.BaseURL),
		weather.WithUnits(cfg.Units),
		weather.WithLogger(logger),
	}
	if client != nil {
		opts = append(opts, weather.WithHTTPClient(client))
	}
	return weather.New(key, opts...)
}

// Tools returns the names of the registered tools.
func (a *Assistant) Tools() []string {
	return a.tools.ListTools()
}

// OnChatStart prepares sess for a new conversation. Without the model API
// key it fails with ErrMissingModelKey, leaves sess untouched and sends
// nothing.
func (a *Assistant) OnChatStart(ctx context.Context, sess *session.Session, r channels.Replier) error {
	ctx = tracing.WithSessionID(ctx, sess.ID())
	ctx, span := tracing.StartSpan(ctx, tracing.TracerAssistant, "chat.start",
		attribute.String("session_id", sess.ID()))
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, a.logger)

	apiKey := a.getenv(a.cfg.Model.APIKeyEnv)
	if apiKey == "" {
		err := fmt.Errorf("%w: %s", ErrMissingModelKey, a.cfg.Model.APIKeyEnv)
		logger.Error().Err(err).Msg("Cannot start chat")
		tracing.FailSpan(span, err)
		return err
	}

	provider, err := a.providers.NewProvider(agent.ProviderConfig{
		Provider: a.cfg.Model.Provider,
		APIKey:   apiKey,
		BaseURL:  a.cfg.Model.BaseURL,
	})
	if err != nil {
		tracing.FailSpan(span, err)
		return fmt.Errorf("failed to create model provider: %w", err)
	}

	sess.SetAgent(agent.Agent{
		Name:         a.cfg.Agent.Name,
		Instructions: a.cfg.Agent.Instructions,
		Model:        agent.ModelRef{Name: a.cfg.Model.Name, Provider: provider},
		Tools:        a.tools.ListTools(),
	})
	sess.SetHistory(nil)

	if _, err := r.Send(ctx, channels.NewMessage(a.cfg.Agent.Name, a.cfg.Agent.Welcome)); err != nil {
		tracing.FailSpan(span, err)
		return fmt.Errorf("failed to send welcome message: %w", err)
	}

	logger.Info().
		Str("provider", provider.Provider()).
		Str("model", a.cfg.Model.Name).
		Msg("Chat started")

	return nil
}

// OnMessage runs one conversational turn. The user message is recorded in the
// session before the agent runs, so it stays in the history even when the run
// fails. Errors from the agent runtime are returned as-is and the placeholder
// keeps its text.
func (a *Assistant) OnMessage(ctx context.Context, sess *session.Session, content string, r channels.Replier) (err error) {
	ctx = tracing.WithSessionID(ctx, sess.ID())
	if tracing.GetTraceID(ctx) == "" {
		ctx = tracing.NewRequestContext(ctx)
	}
	ctx, span := tracing.StartSpan(ctx, tracing.TracerAssistant, "chat.turn",
		attribute.String("session_id", sess.ID()))
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, a.logger)

	defer func() {
		observability.RecordChatTurn(err == nil)
		if err != nil {
			tracing.FailSpan(span, err)
		}
	}()

	placeholder, err := r.Send(ctx, channels.NewMessage(a.cfg.Agent.Name, ThinkingText))
	if err != nil {
		return fmt.Errorf("failed to send placeholder: %w", err)
	}

	ag, ok := sess.Agent()
	if !ok {
		return ErrSessionNotStarted
	}

	history := append(sess.History(), agent.Message{Role: agent.RoleUser, Content: content})
	sess.SetHistory(history)

	result, err := a.runner.Run(ctx, ag, history)
	if err != nil {
		logger.Error().Err(err).Msg("Agent run failed")
		return err
	}

	placeholder.Content = result.FinalOutput
	if err := r.Update(ctx, placeholder); err != nil {
		return fmt.Errorf("failed to update reply: %w", err)
	}

	sess.SetHistory(result.ToInputList())

	logger.Debug().
		Int("turns", result.Turns).
		Int("input_tokens", result.Usage.InputTokens).
		Int("output_tokens", result.Usage.OutputTokens).
		Msg("Turn completed")

	return nil
}
