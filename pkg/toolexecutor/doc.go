// Package toolexecutor is the capability registry behind the agent runtime:
// a mapping from tool name to schema and handler.
//
// Invariants:
// - Tool names are unique; registering a name again replaces the tool.
// - Parameters are schema-validated before the handler runs.
// - Handler failures are reported in ToolResult, never returned as errors.
//
// Usage:
//
//	exec := toolexecutor.New()
//	_ = exec.RegisterTool(toolexecutor.ToolDefinition{
//		Name: "get_weather",
//		Description: "Get the current weather for a city",
//		Parameters: []toolexecutor.ToolParameter{{Name: "city", Type: "string", Description: "City name", Required: true}},
//		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) { return "sunny", nil },
//	})
package toolexecutor
