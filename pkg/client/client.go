// Package client is the Go client for the relay. It owns a single websocket
// connection with an explicit lifecycle; nothing here is package-level state,
// callers construct a Conn and pass it to the components that need it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/domain"
)

var ErrNotConnected = errors.New("client is not connected")

// Handlers receives dispatched server events. Nil handlers are skipped.
// Callbacks run on the read loop goroutine; do not block in them.
type Handlers struct {
	OnConnected       func()
	OnMessageReceived func(msg domain.MessageResponse)
	OnTyping          func(chatID string)
	OnStopTyping      func(chatID string)
	OnProfileUpdated  func(userID string, updated domain.UserResponse)
}

// Conn is a relay connection. The zero value is not usable; call Dial.
type Conn struct {
	url      string
	handlers Handlers
	logger   zerolog.Logger

	mu   sync.Mutex
	ws   *websocket.Conn
	done chan struct{}
}

// Dial connects to the relay at url and starts the read loop.
func Dial(ctx context.Context, url string, handlers Handlers, logger zerolog.Logger) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		url:      url,
		handlers: handlers,
		logger:   logger,
		ws:       ws,
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return nil
	}
	err := c.ws.Close()
	c.ws = nil
	return err
}

// Done is closed when the read loop exits.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Setup binds the connection to a user and joins the private inbox room.
func (c *Conn) Setup(user domain.UserRef) error {
	return c.send(domain.SetupEvent{Type: domain.EventSetup, User: user})
}

// JoinRoom joins the shared room for a chat.
func (c *Conn) JoinRoom(chatID string) error {
	return c.send(domain.JoinRoomEvent{Type: domain.EventJoinRoom, ChatID: chatID})
}

// SendTyping signals that the user is typing in a chat.
func (c *Conn) SendTyping(chatID string) error {
	return c.send(domain.TypingEvent{Type: domain.EventTyping, ChatID: chatID})
}

// SendStopTyping signals that the user stopped typing in a chat.
func (c *Conn) SendStopTyping(chatID string) error {
	return c.send(domain.TypingEvent{Type: domain.EventStopTyping, ChatID: chatID})
}

// SendMessage hands a created message to the relay for fan-out. The message
// must carry the chat's member list; the REST send endpoint returns it in
// that shape.
func (c *Conn) SendMessage(msg domain.MessageResponse) error {
	return c.send(domain.NewMessageEvent{Type: domain.EventNewMessage, Message: msg})
}

func (c *Conn) send(event interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return ErrNotConnected
	}
	return c.ws.WriteJSON(event)
}

// readLoop reads frames until the connection drops, dispatching each one by
// its type discriminator.
func (c *Conn) readLoop() {
	defer close(c.done)
	defer c.Close()

	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws == nil {
			return
		}

		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("relay connection dropped")
			}
			return
		}

		c.dispatch(data)
	}
}

func (c *Conn) dispatch(data []byte) {
	var base domain.Envelope
	if err := json.Unmarshal(data, &base); err != nil {
		c.logger.Warn().Err(err).Msg("dropping malformed frame")
		return
	}

	switch base.Type {
	case domain.EventConnected:
		if c.handlers.OnConnected != nil {
			c.handlers.OnConnected()
		}

	case domain.EventMessageReceived:
		var evt domain.MessageReceivedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed message event")
			return
		}
		if c.handlers.OnMessageReceived != nil {
			c.handlers.OnMessageReceived(evt.Message)
		}

	case domain.EventTyping:
		var evt domain.TypingEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed typing event")
			return
		}
		if c.handlers.OnTyping != nil {
			c.handlers.OnTyping(evt.ChatID)
		}

	case domain.EventStopTyping:
		var evt domain.TypingEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed typing event")
			return
		}
		if c.handlers.OnStopTyping != nil {
			c.handlers.OnStopTyping(evt.ChatID)
		}

	case domain.EventProfileUpdated:
		var evt domain.ProfileUpdatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed profile event")
			return
		}
		if c.handlers.OnProfileUpdated != nil {
			c.handlers.OnProfileUpdated(evt.UserID, evt.UpdatedData)
		}

	default:
		c.logger.Debug().Str("event", base.Type).Msg("ignoring unknown event type")
	}
}
