package domain

import (
	"time"
)

// Chat represents a conversation between two or more users. Membership is an
// unordered set of user identifiers; the relay reads it to compute fan-out
// targets and otherwise treats the chat as opaque.
type Chat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"` // group chats only
	IsGroup   bool      `json:"is_group"`
	AdminID   string    `json:"admin_id,omitempty"`
	UserIDs   []string  `json:"user_ids"`
	LatestMsg string    `json:"-"` // latest message id, resolved by the service
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMember reports whether userID belongs to the chat.
func (c *Chat) HasMember(userID string) bool {
	for _, id := range c.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AccessChatRequest requests the one-on-one chat with another user, creating
// it if it does not exist yet.
type AccessChatRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CreateGroupRequest represents a create group chat request.
type CreateGroupRequest struct {
	Name    string   `json:"name" binding:"required,min=1,max=100"`
	UserIDs []string `json:"user_ids" binding:"required,min=2"`
}

// RenameGroupRequest represents a rename group request.
type RenameGroupRequest struct {
	ChatID string `json:"chat_id" binding:"required"`
	Name   string `json:"name" binding:"required,min=1,max=100"`
}

// GroupMemberRequest adds or removes a member from a group chat.
type GroupMemberRequest struct {
	ChatID string `json:"chat_id" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
}

// ChatResponse represents a chat in API responses, with membership expanded.
type ChatResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name,omitempty"`
	IsGroup       bool             `json:"is_group"`
	AdminID       string           `json:"admin_id,omitempty"`
	Users         []UserResponse   `json:"users"`
	LatestMessage *MessageResponse `json:"latest_message,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
