// Package agent runs an Agent against its model provider with a bounded
// tool loop.
//
// Invariants:
// - Tool calls route through toolexecutor only.
// - Run never mutates its input; the conversation after the run is returned
//   by RunResult.ToInputList.
// - Provider failures are returned to the caller without retry.
//
// Usage:
//
//	runner, _ := agent.NewRunner(agent.Config{ToolExecutor: te})
//	result, _ := runner.Run(ctx, agent.Agent{
//		Name:         "weather assistant",
//		Instructions: "You are a helpful assistant.",
//		Model:        agent.ModelRef{Name: "gemini-2.0-flash", Provider: provider},
//		Tools:        []string{"get_weather"},
//	}, history)
//	history = result.ToInputList()
package agent
