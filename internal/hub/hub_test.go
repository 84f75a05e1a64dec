package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/domain"
)

func newTestHub() *Hub {
	h := NewHub(config.WebSocketConfig{
		PingInterval:   time.Second,
		PongWait:       2 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
	})
	go h.Run()
	return h
}

// addClient registers a client backed by no transport; frames land on the
// Send channel where the test reads them.
func addClient(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := NewClient(id, h, nil, h.config)
	before := h.ClientCount()
	h.Register(c)
	require.Eventually(t, func() bool {
		return h.ClientCount() == before+1
	}, time.Second, 5*time.Millisecond)
	return c
}

func recvFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.Send:
		return data
	case <-time.After(time.Second):
		t.Fatalf("client %s: no frame received", c.ID)
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("client %s: unexpected frame %s", c.ID, data)
	case <-time.After(50 * time.Millisecond):
	}
}

func identify(t *testing.T, h *Hub, c *Client, userID string) {
	t.Helper()
	require.NoError(t, h.Identify(c, userID))
	var evt domain.ConnectedEvent
	require.NoError(t, json.Unmarshal(recvFrame(t, c), &evt))
	require.Equal(t, domain.EventConnected, evt.Type)
}

func TestIdentifyJoinsPrivateRoom(t *testing.T) {
	h := newTestHub()
	c := addClient(t, h, "c1")

	identify(t, h, c, "u1")

	assert.True(t, c.Session.IsIdentified())
	assert.Equal(t, 1, h.RoomSize("u1"))
}

func TestIdentifyEmptyUserID(t *testing.T) {
	h := newTestHub()
	c := addClient(t, h, "c1")

	err := h.Identify(c, "")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
	assert.Equal(t, 0, h.RoomSize(""))
	assertNoFrame(t, c)
}

func TestIdentifyRepeatedSameUser(t *testing.T) {
	h := newTestHub()
	c := addClient(t, h, "c1")

	identify(t, h, c, "u1")
	identify(t, h, c, "u1")

	assert.Equal(t, 1, h.RoomSize("u1"))
}

func TestRouteNewMessageDualFanOut(t *testing.T) {
	h := newTestHub()
	sender := addClient(t, h, "c1")
	member := addClient(t, h, "c2")
	offRoom := addClient(t, h, "c3")

	identify(t, h, sender, "u1")
	identify(t, h, member, "u2")
	identify(t, h, offRoom, "u3")

	// Sender and one member have the chat open; the third member never
	// joined the chat room.
	require.NoError(t, h.JoinRoom(sender, "chat1"))
	require.NoError(t, h.JoinRoom(member, "chat1"))

	msg := &domain.MessageResponse{
		ID:      "m1",
		Sender:  domain.UserRef{ID: "u1", Name: "alice"},
		Content: "hello",
		Chat: domain.ChatRef{
			ID:    "chat1",
			Users: []domain.UserRef{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}},
		},
	}
	require.NoError(t, h.RouteNewMessage(sender, msg))

	// Member with the chat open gets the message twice: once through the
	// chat room and once through their private room.
	for i := 0; i < 2; i++ {
		var evt domain.MessageReceivedEvent
		require.NoError(t, json.Unmarshal(recvFrame(t, member), &evt))
		assert.Equal(t, domain.EventMessageReceived, evt.Type)
		assert.Equal(t, "m1", evt.Message.ID)
	}
	assertNoFrame(t, member)

	// Member without the chat open gets exactly one copy via their inbox.
	var evt domain.MessageReceivedEvent
	require.NoError(t, json.Unmarshal(recvFrame(t, offRoom), &evt))
	assert.Equal(t, "m1", evt.Message.ID)
	assertNoFrame(t, offRoom)

	// The sender never gets their own message back.
	assertNoFrame(t, sender)
}

func TestRouteNewMessageMalformed(t *testing.T) {
	h := newTestHub()
	sender := addClient(t, h, "c1")
	other := addClient(t, h, "c2")
	identify(t, h, sender, "u1")
	identify(t, h, other, "u2")

	cases := []*domain.MessageResponse{
		{ID: "m1", Sender: domain.UserRef{ID: "u1"}, Chat: domain.ChatRef{Users: []domain.UserRef{{ID: "u2"}}}}, // no chat id
		{ID: "m2", Sender: domain.UserRef{ID: "u1"}, Chat: domain.ChatRef{ID: "chat1"}},                         // no members
		{ID: "m3", Chat: domain.ChatRef{ID: "chat1", Users: []domain.UserRef{{ID: "u2"}}}},                      // no sender
	}
	for _, msg := range cases {
		assert.ErrorIs(t, h.RouteNewMessage(sender, msg), ErrMalformedPayload)
	}
	assertNoFrame(t, other)
}

func TestRouteTyping(t *testing.T) {
	h := newTestHub()
	typer := addClient(t, h, "c1")
	watcher := addClient(t, h, "c2")
	identify(t, h, typer, "u1")
	identify(t, h, watcher, "u2")
	require.NoError(t, h.JoinRoom(typer, "chat1"))
	require.NoError(t, h.JoinRoom(watcher, "chat1"))

	require.NoError(t, h.RouteTyping(typer, domain.EventTyping, "chat1"))

	var evt domain.TypingEvent
	require.NoError(t, json.Unmarshal(recvFrame(t, watcher), &evt))
	assert.Equal(t, domain.EventTyping, evt.Type)
	assert.Equal(t, "chat1", evt.ChatID)

	// The origin does not get its own typing signal echoed back.
	assertNoFrame(t, typer)

	assert.ErrorIs(t, h.RouteTyping(typer, domain.EventTyping, ""), ErrMalformedPayload)
}

func TestBroadcastProfileUpdated(t *testing.T) {
	h := newTestHub()
	a := addClient(t, h, "c1")
	b := addClient(t, h, "c2")
	identify(t, h, a, "u1")
	identify(t, h, b, "u2")

	require.NoError(t, h.BroadcastProfileUpdated("u1", domain.UserResponse{ID: "u1", Name: "alice"}))

	for _, c := range []*Client{a, b} {
		var evt domain.ProfileUpdatedEvent
		require.NoError(t, json.Unmarshal(recvFrame(t, c), &evt))
		assert.Equal(t, domain.EventProfileUpdated, evt.Type)
		assert.Equal(t, "u1", evt.UserID)
		assert.Equal(t, "alice", evt.UpdatedData.Name)
	}
}

func TestUnregisterTearsDownRooms(t *testing.T) {
	h := newTestHub()
	a := addClient(t, h, "c1")
	b := addClient(t, h, "c2")
	identify(t, h, a, "u1")
	identify(t, h, b, "u2")
	require.NoError(t, h.JoinRoom(a, "chat1"))
	require.NoError(t, h.JoinRoom(b, "chat1"))

	h.Unregister(b)
	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, h.RoomSize("chat1"))
	assert.Equal(t, 0, h.RoomSize("u2"))
	assert.Equal(t, domain.StateDisconnected, b.Session.State())

	// Routing after disconnect silently skips the removed client.
	msg := &domain.MessageResponse{
		ID:     "m1",
		Sender: domain.UserRef{ID: "u1"},
		Chat: domain.ChatRef{
			ID:    "chat1",
			Users: []domain.UserRef{{ID: "u1"}, {ID: "u2"}},
		},
	}
	require.NoError(t, h.RouteNewMessage(a, msg))
	assertNoFrame(t, a)
}

func TestSendEventAfterDisconnect(t *testing.T) {
	h := newTestHub()
	c := addClient(t, h, "c1")
	identify(t, h, c, "u1")

	h.Unregister(c)
	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	// The send channel is already closed; a late event from a racing read
	// pump is dropped rather than panicking on the closed channel.
	assert.NoError(t, c.SendEvent(&domain.ConnectedEvent{Type: domain.EventConnected}))
}
