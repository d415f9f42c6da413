package channels

import (
	"context"

	"github.com/harun/weatherbot/pkg/session"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Message is a chat message as shown to the user.
type Message struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(author, content string) Message {
	id, _ := gonanoid.New()
	return Message{ID: id, Author: author, Content: content}
}

// Replier delivers assistant messages to the user of one conversation.
type Replier interface {
	// Send shows a new message and returns it as delivered.
	Send(ctx context.Context, msg Message) (Message, error)
	// Update replaces the content of a previously sent message.
	Update(ctx context.Context, msg Message) error
}

// Hooks receives conversation events from a channel.
type Hooks interface {
	OnChatStart(ctx context.Context, sess *session.Session, r Replier) error
	OnMessage(ctx context.Context, sess *session.Session, content string, r Replier) error
}

// Channel is a chat transport runtime (websocket gateway, terminal, ...).
type Channel interface {
	Name() string
	Start(ctx context.Context, hooks Hooks) error
	Stop(ctx context.Context) error
}
