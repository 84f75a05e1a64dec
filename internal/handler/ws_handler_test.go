package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/hub"
)

func startRelay(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	wsCfg := config.WebSocketConfig{
		PingInterval:   time.Second,
		PongWait:       5 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
	}

	h := hub.NewHub(wsCfg)
	go h.Run()

	r := gin.New()
	NewWSHandler(h, wsCfg).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return srv, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn, out interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func setup(t *testing.T, conn *websocket.Conn, userID string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(domain.SetupEvent{
		Type: domain.EventSetup,
		User: domain.UserRef{ID: userID},
	}))
	var evt domain.ConnectedEvent
	readEvent(t, conn, &evt)
	require.Equal(t, domain.EventConnected, evt.Type)
}

func TestWebSocketSetupAck(t *testing.T) {
	_, wsURL := startRelay(t)
	conn := dial(t, wsURL)
	setup(t, conn, "u1")
}

func TestWebSocketMessageFanOut(t *testing.T) {
	_, wsURL := startRelay(t)

	sender := dial(t, wsURL)
	receiver := dial(t, wsURL)
	setup(t, sender, "u1")
	setup(t, receiver, "u2")

	msg := domain.MessageResponse{
		ID:      "m1",
		Sender:  domain.UserRef{ID: "u1", Name: "alice"},
		Content: "hello over the wire",
		Chat: domain.ChatRef{
			ID:    "chat1",
			Users: []domain.UserRef{{ID: "u1"}, {ID: "u2"}},
		},
	}
	require.NoError(t, sender.WriteJSON(domain.NewMessageEvent{
		Type:    domain.EventNewMessage,
		Message: msg,
	}))

	// Receiver has not joined the chat room, so the copy arrives through
	// their private inbox room.
	var evt domain.MessageReceivedEvent
	readEvent(t, receiver, &evt)
	assert.Equal(t, domain.EventMessageReceived, evt.Type)
	assert.Equal(t, "m1", evt.Message.ID)
	assert.Equal(t, "hello over the wire", evt.Message.Content)

	// The sender gets nothing back.
	require.NoError(t, sender.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := sender.ReadMessage()
	assert.Error(t, err)
}

func TestWebSocketTypingRelay(t *testing.T) {
	_, wsURL := startRelay(t)

	typer := dial(t, wsURL)
	watcher := dial(t, wsURL)
	setup(t, typer, "u1")
	setup(t, watcher, "u2")

	require.NoError(t, typer.WriteJSON(domain.JoinRoomEvent{Type: domain.EventJoinRoom, ChatID: "chat1"}))
	require.NoError(t, watcher.WriteJSON(domain.JoinRoomEvent{Type: domain.EventJoinRoom, ChatID: "chat1"}))

	// Join has no ack; give the relay a moment to register both.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, typer.WriteJSON(domain.TypingEvent{Type: domain.EventTyping, ChatID: "chat1"}))

	var evt domain.TypingEvent
	readEvent(t, watcher, &evt)
	assert.Equal(t, domain.EventTyping, evt.Type)
	assert.Equal(t, "chat1", evt.ChatID)

	require.NoError(t, typer.WriteJSON(domain.TypingEvent{Type: domain.EventStopTyping, ChatID: "chat1"}))
	readEvent(t, watcher, &evt)
	assert.Equal(t, domain.EventStopTyping, evt.Type)
}

func TestWebSocketMalformedFramesDropped(t *testing.T) {
	_, wsURL := startRelay(t)
	conn := dial(t, wsURL)

	// Garbage and unknown events are dropped without feedback and without
	// killing the connection.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"setup"}`)))

	// The connection still works afterwards.
	setup(t, conn, "u1")
}
