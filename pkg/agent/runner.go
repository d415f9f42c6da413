package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harun/weatherbot/internal/observability"
	"github.com/harun/weatherbot/internal/tracing"
	"github.com/harun/weatherbot/pkg/toolexecutor"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultMaxTurns bounds the model/tool loop of a single run.
const DefaultMaxTurns = 10

// ErrMaxTurnsExceeded is returned when the model keeps requesting tools.
var ErrMaxTurnsExceeded = errors.New("maximum tool execution turns exceeded")

// Runner executes agents against their model provider, dispatching tool
// calls through the tool executor.
type Runner struct {
	toolExecutor *toolexecutor.ToolExecutor
	logger       zerolog.Logger
	maxTurns     int
	toolTimeout  time.Duration
}

// Config holds runner configuration
type Config struct {
	ToolExecutor *toolexecutor.ToolExecutor
	Logger       zerolog.Logger
	MaxTurns     int
	ToolTimeout  time.Duration // zero means no per-tool deadline
}

// NewRunner creates a new agent runner
func NewRunner(cfg Config) (*Runner, error) {
	observability.EnsureRegistered()

	if cfg.ToolExecutor == nil {
		return nil, fmt.Errorf("tool executor is required")
	}
	if cfg.MaxTurns < 0 {
		return nil, fmt.Errorf("max turns cannot be negative")
	}

	maxTurns := cfg.MaxTurns
	if maxTurns == 0 {
		maxTurns = DefaultMaxTurns
	}

	return &Runner{
		toolExecutor: cfg.ToolExecutor,
		logger:       cfg.Logger,
		maxTurns:     maxTurns,
		toolTimeout:  cfg.ToolTimeout,
	}, nil
}

// Run executes agent over input and returns the final output together with
// the updated conversation. input is not modified. Provider errors are
// returned wrapped; there are no retries.
func (r *Runner) Run(ctx context.Context, agent Agent, input []Message) (RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if tracing.GetTraceID(ctx) == "" {
		ctx = tracing.NewRequestContext(ctx)
	}
	ctx = tracing.NewRunContext(ctx)
	ctx, span := tracing.StartSpan(
		ctx,
		tracing.TracerAgent,
		"agent.run",
		attribute.String("agent", agent.Name),
		attribute.String("model", agent.Model.Name),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, r.logger).With().Str("agent", agent.Name).Logger()

	fail := func(err error) (RunResult, error) {
		tracing.FailSpan(span, err)
		return RunResult{}, err
	}

	if err := agent.Validate(); err != nil {
		return fail(fmt.Errorf("invalid agent: %w", err))
	}
	if err := validateHistory(input); err != nil {
		return fail(fmt.Errorf("invalid input: %w", err))
	}

	tools, err := r.buildTools(agent.Tools)
	if err != nil {
		return fail(fmt.Errorf("failed to build tools: %w", err))
	}

	provider := agent.Model.Provider
	start := time.Now()

	result, err := r.executeWithTools(ctx, logger, agent, tools, cloneMessages(input))
	observability.RecordAgentRun(provider.Provider(), time.Since(start), err == nil)
	if err != nil {
		logger.Error().Err(err).Str("provider", provider.Provider()).Msg("Agent run failed")
		return fail(err)
	}

	span.SetAttributes(
		attribute.Int("turns", result.Turns),
		attribute.Int("input_tokens", result.Usage.InputTokens),
		attribute.Int("output_tokens", result.Usage.OutputTokens),
	)
	logger.Debug().
		Int("turns", result.Turns).
		Int("history", len(result.history)).
		Msg("Agent run completed")

	return result, nil
}

// validateHistory rejects entries no provider can encode.
func validateHistory(messages []Message) error {
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		case RoleTool:
			if msg.ToolCallID == "" {
				return fmt.Errorf("message %d: tool message without tool_call_id", i)
			}
		case "":
			return fmt.Errorf("message %d has empty role", i)
		default:
			return fmt.Errorf("message %d has unknown role %q", i, msg.Role)
		}
	}
	return nil
}

// buildTools converts tool names to the specs advertised to the model.
func (r *Runner) buildTools(toolNames []string) ([]ToolSpec, error) {
	if len(toolNames) == 0 {
		return nil, nil
	}

	tools := make([]ToolSpec, 0, len(toolNames))
	for _, name := range toolNames {
		def := r.toolExecutor.GetTool(name)
		if def == nil {
			return nil, fmt.Errorf("tool not found: %s", name)
		}
		tools = append(tools, ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  toolexecutor.ParameterSchema(*def),
		})
	}

	return tools, nil
}

// executeWithTools handles the tool execution loop
func (r *Runner) executeWithTools(ctx context.Context, logger zerolog.Logger, agent Agent, tools []ToolSpec, history []Message) (RunResult, error) {
	var usage TokenUsage
	policy := &toolexecutor.ToolPolicy{Allow: agent.Tools}

	for turn := 1; turn <= r.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, fmt.Errorf("run interrupted: %w", err)
		}

		response, err := agent.Model.Provider.Call(ctx, LLMRequest{
			Model:        agent.Model.Name,
			Messages:     history,
			Tools:        tools,
			SystemPrompt: agent.Instructions,
		})
		if err != nil {
			return RunResult{}, fmt.Errorf("model call failed: %w", err)
		}
		if response == nil {
			return RunResult{}, fmt.Errorf("model call failed: empty response")
		}
		usage.Add(response.Usage)

		if len(response.ToolCalls) == 0 {
			history = append(history, Message{
				Role:    RoleAssistant,
				Content: response.Content,
			})
			return RunResult{
				FinalOutput: response.Content,
				Usage:       usage,
				Turns:       turn,
				history:     history,
			}, nil
		}

		history = append(history, Message{
			Role:      RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})

		for _, call := range response.ToolCalls {
			logger.Debug().Str("tool", call.Name).Str("tool_call_id", call.ID).Msg("Dispatching tool call")

			result := r.toolExecutor.Execute(ctx, call.Name, call.Parameters, &toolexecutor.ExecutionContext{
				SessionID:  tracing.GetSessionID(ctx),
				Timeout:    r.toolTimeout,
				ToolPolicy: policy,
			})

			content := fmt.Sprintf("%v", result.Output)
			if !result.Success {
				content = result.Error
			}
			history = append(history, Message{
				Role:       RoleTool,
				Content:    content,
				ToolCallID: call.ID,
			})
		}
	}

	return RunResult{}, ErrMaxTurnsExceeded
}
