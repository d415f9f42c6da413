package weather

import (
	"context"
	"fmt"

	"github.com/harun/weatherbot/internal/observability"
	"github.com/harun/weatherbot/pkg/toolexecutor"
)

// StaticTool answers every lookup with a fixed sentence and makes no network
// calls. It backs the "static" weather mode used for demos and offline runs.
type StaticTool struct{}

// NewStatic creates a StaticTool.
func NewStatic() *StaticTool {
	return &StaticTool{}
}

// Lookup returns the canned report for city.
func (StaticTool) Lookup(_ context.Context, city string) string {
	observability.RecordWeatherLookup("static")
	return fmt.Sprintf("The weather in %s is sunny.", city)
}

// Definition registers Lookup as the get_weather capability.
func (s *StaticTool) Definition() toolexecutor.ToolDefinition {
	return definition(s)
}
