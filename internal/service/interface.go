package service

import (
	"context"

	"github.com/parley-chat/parley/internal/domain"
)

// UserService defines user account and profile operations.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	GetProfile(ctx context.Context, userID string) (*domain.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *domain.UpdateUserRequest) (*domain.UserResponse, error)
	SearchUsers(ctx context.Context, userID, query string) ([]domain.UserResponse, error)
}

// ChatService defines chat and group management operations.
type ChatService interface {
	// AccessChat returns the one-on-one chat with the given user, creating
	// it if it does not exist yet.
	AccessChat(ctx context.Context, userID string, req *domain.AccessChatRequest) (*domain.ChatResponse, error)
	ListChats(ctx context.Context, userID string) ([]domain.ChatResponse, error)
	CreateGroup(ctx context.Context, adminID string, req *domain.CreateGroupRequest) (*domain.ChatResponse, error)
	RenameGroup(ctx context.Context, userID string, req *domain.RenameGroupRequest) (*domain.ChatResponse, error)
	AddToGroup(ctx context.Context, requesterID string, req *domain.GroupMemberRequest) (*domain.ChatResponse, error)
	RemoveFromGroup(ctx context.Context, requesterID string, req *domain.GroupMemberRequest) (*domain.ChatResponse, error)
}

// MessageService defines message operations. Messages are immutable: there is
// no edit or delete.
type MessageService interface {
	Send(ctx context.Context, senderID string, req *domain.SendMessageRequest) (*domain.MessageResponse, error)
	ListByChat(ctx context.Context, userID, chatID string) ([]domain.MessageResponse, error)
}

// ProfileBroadcaster pushes profile updates to connected clients. The hub
// satisfies this.
type ProfileBroadcaster interface {
	BroadcastProfileUpdated(userID string, updated domain.UserResponse) error
}
