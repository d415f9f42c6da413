package channels

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/harun/weatherbot/pkg/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ExitCommand ends a terminal conversation.
const ExitCommand = "/exit"

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

// TerminalChannel runs a single conversation over line-oriented text streams.
type TerminalChannel struct {
	in     io.Reader
	out    io.Writer
	store  *session.Store
	logger zerolog.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewTerminalChannel creates a terminal channel reading user lines from in
// and writing assistant messages to out.
func NewTerminalChannel(in io.Reader, out io.Writer, store *session.Store) *TerminalChannel {
	return &TerminalChannel{
		in:     in,
		out:    out,
		store:  store,
		logger: log.Logger.With().Str("channel", "terminal").Logger(),
		done:   make(chan struct{}),
	}
}

// Name returns channel name.
func (c *TerminalChannel) Name() string {
	return "terminal"
}

// Start opens the conversation and serves it in the background until the
// input ends, the user types ExitCommand, or Stop is called.
func (c *TerminalChannel) Start(ctx context.Context, hooks Hooks) error {
	if hooks == nil {
		return fmt.Errorf("hooks are required")
	}
	if c.store == nil {
		return fmt.Errorf("session store is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return fmt.Errorf("terminal channel already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.run(runCtx, hooks)

	return nil
}

// Stop ends the conversation and waits for it to wind down.
func (c *TerminalChannel) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the conversation has ended.
func (c *TerminalChannel) Done() <-chan struct{} {
	return c.done
}

// Err reports why the conversation could not start or why reading input
// failed, if either happened.
func (c *TerminalChannel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *TerminalChannel) run(ctx context.Context, hooks Hooks) {
	defer close(c.done)

	sess := c.store.Create(ctx)
	defer func() {
		_ = c.store.Delete(context.Background(), sess.ID())
	}()
	logger := c.logger.With().Str("session_id", sess.ID()).Logger()

	if err := hooks.OnChatStart(ctx, sess, c); err != nil {
		logger.Error().Err(err).Msg("Chat start failed")
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.printf("error: %v\n", err)
		return
	}

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	lines := make(chan string)
	var readErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readCtx.Done():
				return
			}
		}
		readErr = scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				if readErr != nil {
					logger.Error().Err(readErr).Msg("Reading input failed")
					c.mu.Lock()
					c.err = fmt.Errorf("failed to read input: %w", readErr)
					c.mu.Unlock()
					c.printf("error: failed to read input: %v\n", readErr)
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == ExitCommand {
				return
			}
			if err := hooks.OnMessage(ctx, sess, line, c); err != nil {
				logger.Error().Err(err).Msg("Message handling failed")
				c.printf("error: %v\n", err)
			}
		}
	}
}

// Send prints msg and returns it with an ID assigned.
func (c *TerminalChannel) Send(_ context.Context, msg Message) (Message, error) {
	if msg.ID == "" {
		msg = NewMessage(msg.Author, msg.Content)
	}
	if err := c.printf("%s: %s\n", msg.Author, msg.Content); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Update prints the new content. A terminal cannot rewrite earlier output.
func (c *TerminalChannel) Update(_ context.Context, msg Message) error {
	return c.printf("%s: %s\n", msg.Author, msg.Content)
}

func (c *TerminalChannel) printf(format string, args ...interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := fmt.Fprintf(c.out, format, args...)
	return err
}
