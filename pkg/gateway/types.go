package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harun/weatherbot/pkg/channels"
)

// Frame types exchanged over the chat socket.
const (
	FrameMessage       = "message"
	FrameMessageSend   = "message.send"
	FrameMessageUpdate = "message.update"
	FrameError         = "error"
	FrameShutdown      = "server.shutdown"
)

// InboundFrame is a frame sent by the chat client.
type InboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// OutboundFrame is a frame sent to the chat client.
type OutboundFrame struct {
	Type    string            `json:"type"`
	Message *channels.Message `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ClientInfo represents information about a connected client
type ClientInfo struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActivity time.Time `json:"lastActivity"`
	IPAddress    string    `json:"ipAddress"`
	Idle         bool      `json:"idle"`
}

// Client represents a connected WebSocket client. It is the Replier for the
// conversation bound to the connection.
type Client struct {
	ID           string
	SessionID    string
	Conn         *websocket.Conn
	ConnectedAt  time.Time
	LastActivity time.Time
	IPAddress    string

	writeMu sync.Mutex
}
