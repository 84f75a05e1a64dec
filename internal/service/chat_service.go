package service

import (
	"context"
	"errors"
	"time"

	"github.com/parley-chat/parley/internal/audit"
	"github.com/parley-chat/parley/internal/cache"
	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/pkg/log"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrNotMember    = errors.New("user is not a member of this chat")
	ErrNotAdmin     = errors.New("only the group admin can do this")
	ErrNotGroup     = errors.New("chat is not a group chat")
	ErrSelfChat     = errors.New("cannot start a chat with yourself")
)

// chatServiceImpl implements ChatService.
type chatServiceImpl struct {
	chats    repository.ChatRepository
	users    repository.UserRepository
	messages repository.MessageRepository
	cache    cache.ChatListCache
	cacheTTL time.Duration
}

// NewChatService creates a new chat service. cache may be nil to disable the
// chat list cache.
func NewChatService(chats repository.ChatRepository, users repository.UserRepository, messages repository.MessageRepository, listCache cache.ChatListCache, cacheTTL time.Duration) ChatService {
	return &chatServiceImpl{
		chats:    chats,
		users:    users,
		messages: messages,
		cache:    listCache,
		cacheTTL: cacheTTL,
	}
}

// AccessChat returns the one-on-one chat with the requested user, creating it
// on first access.
func (s *chatServiceImpl) AccessChat(ctx context.Context, userID string, req *domain.AccessChatRequest) (*domain.ChatResponse, error) {
	l := log.Ctx(ctx)

	if req.UserID == userID {
		return nil, ErrSelfChat
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	chat, err := s.chats.FindDirect(ctx, userID, req.UserID)
	if err == nil {
		return s.buildChatResponse(ctx, chat)
	}
	if !errors.Is(err, repository.ErrChatNotFound) {
		l.Error().Err(err).Msg("failed to look up direct chat")
		return nil, err
	}

	chat = &domain.Chat{
		IsGroup: false,
		UserIDs: []string{userID, req.UserID},
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		l.Error().Err(err).Msg("failed to create direct chat")
		return nil, err
	}

	s.invalidate(ctx, chat.UserIDs)
	audit.LogWithTarget(ctx, audit.ActionAccessChat, userID, chat.ID, "direct chat created")

	return s.buildChatResponse(ctx, chat)
}

// ListChats returns the caller's chats, newest activity first. Results are
// served from the per-user cache when present.
func (s *chatServiceImpl) ListChats(ctx context.Context, userID string) ([]domain.ChatResponse, error) {
	l := log.Ctx(ctx)

	if s.cache != nil {
		key := s.cache.BuildKeyByUser(userID)
		if cached, err := s.cache.Get(ctx, key); err == nil {
			return cached.Chats, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("chat list cache read failed")
		}
	}

	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.ChatResponse, 0, len(chats))
	for _, c := range chats {
		resp, err := s.buildChatResponse(ctx, c)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}

	if s.cache != nil {
		key := s.cache.BuildKeyByUser(userID)
		if err := s.cache.Set(ctx, key, &cache.ChatListResult{Chats: responses}, s.cacheTTL); err != nil {
			l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("chat list cache write failed")
		}
	}

	return responses, nil
}

// CreateGroup creates a group chat with the caller as admin. The caller is
// added to the membership automatically.
func (s *chatServiceImpl) CreateGroup(ctx context.Context, adminID string, req *domain.CreateGroupRequest) (*domain.ChatResponse, error) {
	l := log.Ctx(ctx)

	userIDs := req.UserIDs
	hasAdmin := false
	for _, id := range userIDs {
		if id == adminID {
			hasAdmin = true
			break
		}
	}
	if !hasAdmin {
		userIDs = append(userIDs, adminID)
	}

	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	if len(users) != len(userIDs) {
		return nil, ErrUserNotFound
	}

	chat := &domain.Chat{
		Name:    req.Name,
		IsGroup: true,
		AdminID: adminID,
		UserIDs: userIDs,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		l.Error().Err(err).Msg("failed to create group chat")
		return nil, err
	}

	s.invalidate(ctx, chat.UserIDs)
	audit.LogWithTarget(ctx, audit.ActionCreateGroup, adminID, chat.ID, "group chat created")

	return s.buildChatResponse(ctx, chat)
}

// RenameGroup renames a group chat. Any member may rename.
func (s *chatServiceImpl) RenameGroup(ctx context.Context, userID string, req *domain.RenameGroupRequest) (*domain.ChatResponse, error) {
	chat, err := s.memberGroup(ctx, userID, req.ChatID)
	if err != nil {
		return nil, err
	}

	if err := s.chats.Rename(ctx, chat.ID, req.Name); err != nil {
		return nil, err
	}
	chat.Name = req.Name

	s.invalidate(ctx, chat.UserIDs)
	audit.LogWithTarget(ctx, audit.ActionRenameGroup, userID, chat.ID, "group renamed")

	return s.buildChatResponse(ctx, chat)
}

// AddToGroup adds a user to a group chat. Admin only.
func (s *chatServiceImpl) AddToGroup(ctx context.Context, requesterID string, req *domain.GroupMemberRequest) (*domain.ChatResponse, error) {
	chat, err := s.memberGroup(ctx, requesterID, req.ChatID)
	if err != nil {
		return nil, err
	}
	if chat.AdminID != requesterID {
		return nil, ErrNotAdmin
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.chats.AddMember(ctx, chat.ID, req.UserID); err != nil {
		return nil, err
	}
	if !chat.HasMember(req.UserID) {
		chat.UserIDs = append(chat.UserIDs, req.UserID)
	}

	s.invalidate(ctx, chat.UserIDs)
	audit.LogWithTarget(ctx, audit.ActionAddMember, requesterID, chat.ID, "member added to group")

	return s.buildChatResponse(ctx, chat)
}

// RemoveFromGroup removes a user from a group chat. The admin may remove
// anyone; members may remove themselves (leave).
func (s *chatServiceImpl) RemoveFromGroup(ctx context.Context, requesterID string, req *domain.GroupMemberRequest) (*domain.ChatResponse, error) {
	chat, err := s.memberGroup(ctx, requesterID, req.ChatID)
	if err != nil {
		return nil, err
	}
	if chat.AdminID != requesterID && req.UserID != requesterID {
		return nil, ErrNotAdmin
	}
	if !chat.HasMember(req.UserID) {
		return nil, ErrNotMember
	}

	if err := s.chats.RemoveMember(ctx, chat.ID, req.UserID); err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(chat.UserIDs))
	for _, id := range chat.UserIDs {
		if id != req.UserID {
			remaining = append(remaining, id)
		}
	}
	removed := chat.UserIDs
	chat.UserIDs = remaining

	s.invalidate(ctx, removed)
	audit.LogWithTarget(ctx, audit.ActionRemoveMember, requesterID, chat.ID, "member removed from group")

	return s.buildChatResponse(ctx, chat)
}

// memberGroup loads a group chat and verifies that userID is a member.
func (s *chatServiceImpl) memberGroup(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !chat.IsGroup {
		return nil, ErrNotGroup
	}
	if !chat.HasMember(userID) {
		return nil, ErrNotMember
	}
	return chat, nil
}

// buildChatResponse expands membership and the latest message.
func (s *chatServiceImpl) buildChatResponse(ctx context.Context, chat *domain.Chat) (*domain.ChatResponse, error) {
	users, err := s.users.GetByIDs(ctx, chat.UserIDs)
	if err != nil {
		return nil, err
	}

	userResponses := make([]domain.UserResponse, 0, len(users))
	userRefs := make(map[string]domain.UserRef, len(users))
	for _, u := range users {
		userResponses = append(userResponses, u.ToResponse())
		userRefs[u.ID] = u.Ref()
	}

	resp := &domain.ChatResponse{
		ID:        chat.ID,
		Name:      chat.Name,
		IsGroup:   chat.IsGroup,
		AdminID:   chat.AdminID,
		Users:     userResponses,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}

	if chat.LatestMsg != "" {
		msg, err := s.messages.GetByID(ctx, chat.LatestMsg)
		if err == nil {
			resp.LatestMessage = &domain.MessageResponse{
				ID:        msg.ID,
				Sender:    userRefs[msg.SenderID],
				Chat:      domain.ChatRef{ID: chat.ID, Name: chat.Name, IsGroup: chat.IsGroup},
				Content:   msg.Content,
				Media:     msg.Media,
				CreatedAt: msg.CreatedAt,
			}
		} else if !errors.Is(err, repository.ErrMessageNotFound) {
			return nil, err
		}
	}

	return resp, nil
}

// invalidate drops the cached chat lists for the given users.
func (s *chatServiceImpl) invalidate(ctx context.Context, userIDs []string) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, s.cache.BuildKeyByUser(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("chat list cache invalidation failed")
	}
}
