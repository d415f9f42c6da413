package gateway

import (
	"context"
	"time"

	"github.com/harun/weatherbot/pkg/channels"
)

const writeTimeout = 10 * time.Second

var _ channels.Replier = (*Client)(nil)

// Send delivers a new chat message.
func (c *Client) Send(_ context.Context, msg channels.Message) (channels.Message, error) {
	if msg.ID == "" {
		msg = channels.NewMessage(msg.Author, msg.Content)
	}
	if err := c.WriteFrame(OutboundFrame{Type: FrameMessageSend, Message: &msg}); err != nil {
		return channels.Message{}, err
	}
	return msg, nil
}

// Update tells the client to replace a message it already shows.
func (c *Client) Update(_ context.Context, msg channels.Message) error {
	return c.WriteFrame(OutboundFrame{Type: FrameMessageUpdate, Message: &msg})
}

// WriteFrame serializes writes; gorilla connections allow one writer at a time.
func (c *Client) WriteFrame(frame OutboundFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.Conn.WriteJSON(frame)
}
