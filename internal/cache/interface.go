package cache

import (
	"context"
	"time"

	"github.com/parley-chat/parley/internal/domain"
)

// ChatListResult is the cached chat list for a single user.
type ChatListResult struct {
	Chats []domain.ChatResponse `json:"chats"`
}

// ChatListCache caches each user's chat list keyed by user id.
type ChatListCache interface {
	Get(ctx context.Context, key string) (*ChatListResult, error)
	Set(ctx context.Context, key string, result *ChatListResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByUser(userID string) string
	Close() error
}
