package channels

import (
	"context"
	"testing"

	"github.com/harun/weatherbot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testChannel struct {
	name       string
	startCalls int
	stopCalls  int
}

func (c *testChannel) Name() string {
	return c.name
}

func (c *testChannel) Start(_ context.Context, hooks Hooks) error {
	if hooks == nil {
		return assert.AnError
	}
	c.startCalls++
	return nil
}

func (c *testChannel) Stop(_ context.Context) error {
	c.stopCalls++
	return nil
}

type noopHooks struct{}

func (noopHooks) OnChatStart(context.Context, *session.Session, Replier) error { return nil }

func (noopHooks) OnMessage(context.Context, *session.Session, string, Replier) error { return nil }

func TestRegistry_RegisterStartStop(t *testing.T) {
	reg := NewRegistry(noopHooks{})

	ch := &testChannel{name: "gateway"}
	require.NoError(t, reg.Register(ch))
	assert.True(t, reg.IsRegistered("gateway"))
	assert.Equal(t, []string{"gateway"}, reg.Names())

	require.NoError(t, reg.StartAll(context.Background()))
	assert.Equal(t, 1, ch.startCalls)

	// Starting again is a no-op.
	require.NoError(t, reg.Start(context.Background(), "gateway"))
	assert.Equal(t, 1, ch.startCalls)

	require.NoError(t, reg.StopAll(context.Background()))
	assert.Equal(t, 1, ch.stopCalls)

	require.NoError(t, reg.Stop(context.Background(), "gateway"))
	assert.Equal(t, 1, ch.stopCalls)
}

func TestRegistry_StartUnknownChannel(t *testing.T) {
	reg := NewRegistry(noopHooks{})

	err := reg.Start(context.Background(), "telegram")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_RequiresHooks(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(&testChannel{name: "gateway"}))

	err := reg.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hooks")
}

func TestRegistry_RejectsDuplicateChannel(t *testing.T) {
	reg := NewRegistry(noopHooks{})

	require.NoError(t, reg.Register(&testChannel{name: "gateway"}))
	err := reg.Register(&testChannel{name: "gateway"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Error(t, reg.Register(&testChannel{name: "  "}))
	assert.Error(t, reg.Register(nil))
}

func TestNewMessage(t *testing.T) {
	a := NewMessage("bot", "hi")
	b := NewMessage("bot", "hi")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "bot", a.Author)
	assert.Equal(t, "hi", a.Content)
}

func TestRegistry_TrimsChannelNames(t *testing.T) {
	reg := NewRegistry(noopHooks{})

	ch := &testChannel{name: "  terminal "}
	require.NoError(t, reg.Register(ch))
	assert.True(t, reg.IsRegistered("terminal"))
	assert.Equal(t, []string{"terminal"}, reg.Names())

	require.NoError(t, reg.Start(context.Background(), " terminal"))
	assert.Equal(t, 1, ch.startCalls)
	require.NoError(t, reg.Stop(context.Background(), "terminal "))
	assert.Equal(t, 1, ch.stopCalls)
}
