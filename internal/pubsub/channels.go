package pubsub

// Channel names for the chat event bus.
const (
	ChannelMessages = "parley:events:messages"
	ChannelProfiles = "parley:events:profiles"
)

// Event types.
const (
	EventMessageCreated = "message.created"
	EventProfileUpdated = "profile.updated"
)

// MessageCreatedPayload is published when a message is persisted.
type MessageCreatedPayload struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
	SenderID  string `json:"sender_id"`
	HasMedia  bool   `json:"has_media"`
}

// ProfileUpdatedPayload is published when a user edits their profile.
type ProfileUpdatedPayload struct {
	UserID string `json:"user_id"`
}
