package domain

// Relay events from client to server.
const (
	EventSetup      = "setup"
	EventJoinRoom   = "join room"
	EventTyping     = "typing"
	EventStopTyping = "stop typing"
	EventNewMessage = "new message"
)

// Relay events from server to client.
const (
	EventConnected       = "connected"
	EventMessageReceived = "message received"
	EventProfileUpdated  = "profile updated"
)

// Envelope is the base structure shared by all relay events. Every frame is a
// JSON object with a "type" discriminator; dispatch is a single switch over
// the closed set of event constants above.
type Envelope struct {
	Type string `json:"type"`
}

// Client -> Server events

// SetupEvent binds the connection to a user and joins the private inbox room.
// The declared user id is taken at face value here: token verification happens
// on the REST layer, not on the socket (see ws handler).
type SetupEvent struct {
	Type string  `json:"type"`
	User UserRef `json:"user"`
}

// JoinRoomEvent joins the shared room for a chat.
type JoinRoomEvent struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id"`
}

// TypingEvent carries typing and stop-typing signals, scoped to a chat room.
type TypingEvent struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id"`
}

// NewMessageEvent asks the relay to fan a created message out. The embedded
// chat reference must carry the full member list.
type NewMessageEvent struct {
	Type    string          `json:"type"`
	Message MessageResponse `json:"message"`
}

// Server -> Client events

// ConnectedEvent acknowledges a successful setup. Clients treat it as the
// readiness signal for typing and room joins.
type ConnectedEvent struct {
	Type string `json:"type"`
}

// MessageReceivedEvent is the delivered copy of a routed message.
type MessageReceivedEvent struct {
	Type    string          `json:"type"`
	Message MessageResponse `json:"message"`
}

// ProfileUpdatedEvent is broadcast to every connected session when a user
// edits their profile, so consumers can patch cached copies.
type ProfileUpdatedEvent struct {
	Type        string       `json:"type"`
	UserID      string       `json:"user_id"`
	UpdatedData UserResponse `json:"updated_data"`
}
