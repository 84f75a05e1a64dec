package domain

import (
	"time"
)

// Message is an immutable chat message. The relay never mutates it; it is
// created once over REST and routed as an opaque payload.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	ChatID    string    `json:"chat_id"`
	Content   string    `json:"content,omitempty"`
	Media     string    `json:"media,omitempty"` // storage key of an attachment
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageRequest represents a send message request.
type SendMessageRequest struct {
	ChatID  string `json:"chat_id" binding:"required"`
	Message string `json:"message"`
	Media   string `json:"media"`
}

// MessageResponse represents a message in API responses, with the sender and
// chat expanded so that clients can route and display it without extra
// lookups. The chat carries its member list because the relay's fan-out
// reads membership straight off the payload.
type MessageResponse struct {
	ID        string    `json:"id"`
	Sender    UserRef   `json:"sender"`
	Chat      ChatRef   `json:"chat"`
	Content   string    `json:"content,omitempty"`
	Media     string    `json:"media,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRef is a compact user reference embedded in wire payloads.
type UserRef struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

// ChatRef is a compact chat reference embedded in wire payloads.
type ChatRef struct {
	ID      string    `json:"id"`
	Name    string    `json:"name,omitempty"`
	IsGroup bool      `json:"is_group"`
	Users   []UserRef `json:"users"`
}
