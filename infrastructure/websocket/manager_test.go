package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicschool-news/domain/services"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	failNext bool
	closed   bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConn) messages(t *testing.T) []Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Message
	for _, f := range c.frames {
		var m Message
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func newEvent(visible bool) services.NewsEvent {
	return services.NewsEvent{
		Type:       services.NewsEventCreated,
		NewsID:     uuid.New(),
		Slug:       "concierto-de-primavera",
		Visible:    visible,
		OccurredAt: time.Now(),
	}
}

func TestHub_PublishVisibleReachesEveryone(t *testing.T) {
	hub := NewHub()
	public, admin := &fakeConn{}, &fakeConn{}
	hub.RegisterClient(public, uuid.New(), false)
	hub.RegisterClient(admin, uuid.New(), true)

	hub.Publish(newEvent(true))

	for _, conn := range []*fakeConn{public, admin} {
		msgs := conn.messages(t)
		require.Len(t, msgs, 1)
		assert.Equal(t, "news.created", msgs[0].Type)
	}
}

func TestHub_PublishHiddenOnlyReachesAdmins(t *testing.T) {
	hub := NewHub()
	public, admin := &fakeConn{}, &fakeConn{}
	hub.RegisterClient(public, uuid.New(), false)
	hub.RegisterClient(admin, uuid.New(), true)

	hub.Publish(newEvent(false))

	assert.Empty(t, public.messages(t))
	assert.Len(t, admin.messages(t), 1)
}

func TestHub_FailedWriteDropsClient(t *testing.T) {
	hub := NewHub()
	broken := &fakeConn{failNext: true}
	hub.RegisterClient(broken, uuid.New(), false)
	hub.RegisterClient(&fakeConn{}, uuid.New(), false)

	hub.Publish(newEvent(true))

	assert.Equal(t, 1, hub.ClientCount())
	assert.True(t, broken.closed)
}

func TestHub_Ping(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.RegisterClient(conn, uuid.New(), false)

	hub.HandleMessage(conn, fiberws.TextMessage, []byte(`{"type":"ping"}`))
	hub.HandleMessage(conn, fiberws.TextMessage, []byte(`not json`))
	hub.HandleMessage(conn, fiberws.BinaryMessage, []byte(`{"type":"ping"}`))

	msgs := conn.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, "pong", msgs[0].Type)

	hub.UnregisterClient(conn)
	assert.Zero(t, hub.ClientCount())
}
