package repository

import (
	"context"
	"errors"

	"github.com/parley-chat/parley/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Search finds users whose name or email contains the query, excluding
	// the requesting user. An empty query returns all other users.
	Search(ctx context.Context, query, excludeUserID string) ([]*domain.User, error)
}

// ChatRepository defines the interface for chat persistence.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByID(ctx context.Context, id string) (*domain.Chat, error)
	// FindDirect returns the existing one-on-one chat between two users.
	FindDirect(ctx context.Context, userA, userB string) (*domain.Chat, error)
	// ListForUser returns the chats a user belongs to, most recently
	// updated first.
	ListForUser(ctx context.Context, userID string) ([]*domain.Chat, error)
	Rename(ctx context.Context, chatID, name string) error
	AddMember(ctx context.Context, chatID, userID string) error
	RemoveMember(ctx context.Context, chatID, userID string) error
	SetLatestMessage(ctx context.Context, chatID, messageID string) error
}

// MessageRepository defines the interface for message persistence.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// ListByChat returns a chat's messages in chronological order.
	ListByChat(ctx context.Context, chatID string) ([]*domain.Message, error)
}
