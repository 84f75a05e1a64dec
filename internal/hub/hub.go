package hub

import (
	"encoding/json"
	"sync"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/pkg/log"
)

// Hub is the connection registry: it maps client ids to live connections and
// room ids to the clients joined to them. Rooms are opaque identifiers,
// either a user id (private inbox room) or a chat id (shared room), and
// exist only as grouping keys; they have no persistence.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // roomID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

type roomMessage struct {
	RoomID  string // ignored when All is set
	All     bool
	Message []byte
	Exclude string // client ID to exclude
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomMessage, 256),
		config:     cfg,
	}
}

// Run processes register, unregister and broadcast events. Events for a given
// client arrive in order from its read pump; cross-client state is guarded by
// the mutex.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.Component("hub")
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// removeClient tears down all room membership for a disconnecting client
// before any further event for it can be processed. Subsequent routes to the
// removed client silently skip it: disconnect races are expected, not errors.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		for _, roomID := range client.Session.LeaveAll() {
			if members, ok := h.rooms[roomID]; ok {
				delete(members, client.ID)
				if len(members) == 0 {
					delete(h.rooms, roomID)
				}
			}
		}
		delete(h.clients, client.ID)
		client.closeSend()
	}
	h.mu.Unlock()
	l := log.Component("hub")
	l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
}

func (h *Hub) deliver(msg *roomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.All {
		for clientID, client := range h.clients {
			if clientID == msg.Exclude {
				continue
			}
			h.send(client, msg.Message)
		}
		return
	}

	if members, ok := h.rooms[msg.RoomID]; ok {
		for clientID, client := range members {
			if clientID == msg.Exclude {
				continue
			}
			h.send(client, msg.Message)
		}
	}
}

// send is fire-and-forget: a client whose buffer is full is dropped rather
// than blocking the delivery loop.
func (h *Hub) send(client *Client, message []byte) {
	if !client.enqueue(message) {
		go h.Unregister(client)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Identify binds a client to a user id, joins it to the private room keyed by
// that id, and acknowledges with a connected event. Idempotent when repeated
// with the same user id. Returns domain.ErrInvalidIdentity for an unusable id,
// in which case no room join occurs and the client stays unidentified.
func (h *Hub) Identify(client *Client, userID string) error {
	if err := client.Session.Identify(userID); err != nil {
		return err
	}

	// Record the private room on the session too, so disconnect teardown
	// drops the registry's side of the membership.
	if err := client.Session.JoinRoom(userID); err != nil {
		return err
	}
	h.joinRoom(client, userID)

	l := log.Component("hub")
	l.Info().
		Str(log.FieldClientID, client.ID).
		Str(log.FieldUserID, userID).
		Msg("client identified")

	return client.SendEvent(&domain.ConnectedEvent{Type: domain.EventConnected})
}

// JoinRoom adds the client to a room. No-op if already joined.
func (h *Hub) JoinRoom(client *Client, roomID string) error {
	if err := client.Session.JoinRoom(roomID); err != nil {
		return err
	}

	h.joinRoom(client, roomID)

	l := log.Component("hub")
	l.Info().
		Str(log.FieldClientID, client.ID).
		Str(log.FieldRoomID, roomID).
		Msg("client joined room")
	return nil
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][client.ID] = client
}

// BroadcastToRoom sends an event to all clients joined to a room, except the
// excluded client id.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	h.broadcast <- &roomMessage{RoomID: roomID, Message: data, Exclude: exclude}
	return nil
}

// BroadcastRawToRoom sends pre-marshalled bytes to all clients in a room.
func (h *Hub) BroadcastRawToRoom(roomID string, data []byte, exclude string) {
	h.broadcast <- &roomMessage{RoomID: roomID, Message: data, Exclude: exclude}
}

// BroadcastAll sends an event to every connected client, except the excluded
// client id.
func (h *Hub) BroadcastAll(message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	h.broadcast <- &roomMessage{All: true, Message: data, Exclude: exclude}
	return nil
}

// RoomSize returns the number of clients joined to a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
