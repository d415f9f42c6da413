package gateway

import (
	"github.com/rs/zerolog"
)

// EventBroadcaster sends a frame to every connected client
type EventBroadcaster struct {
	clients *ClientRegistry
	logger  zerolog.Logger
}

// NewEventBroadcaster creates a new event broadcaster
func NewEventBroadcaster(clients *ClientRegistry, logger zerolog.Logger) *EventBroadcaster {
	return &EventBroadcaster{
		clients: clients,
		logger:  logger,
	}
}

// Broadcast writes frame to all clients and returns how many received it.
func (b *EventBroadcaster) Broadcast(frame OutboundFrame) int {
	clients := b.clients.GetAll()
	if len(clients) == 0 {
		b.logger.Debug().Str("type", frame.Type).Msg("No clients to broadcast to")
		return 0
	}

	successCount := 0
	for _, client := range clients {
		if err := client.WriteFrame(frame); err != nil {
			b.logger.Warn().
				Err(err).
				Str("client_id", client.ID).
				Str("type", frame.Type).
				Msg("Failed to broadcast to client")
			continue
		}
		successCount++
	}

	b.logger.Debug().
		Str("type", frame.Type).
		Int("success", successCount).
		Int("failed", len(clients)-successCount).
		Msg("Broadcast complete")

	return successCount
}
