package service

import (
	"context"
	"errors"

	"github.com/parley-chat/parley/internal/audit"
	"github.com/parley-chat/parley/internal/cache"
	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/pubsub"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/pkg/log"
)

var ErrEmptyMessage = errors.New("message has no content or media")

// messageServiceImpl implements MessageService.
type messageServiceImpl struct {
	messages  repository.MessageRepository
	chats     repository.ChatRepository
	users     repository.UserRepository
	publisher pubsub.Publisher
	cache     cache.ChatListCache
}

// NewMessageService creates a new message service. listCache may be nil.
func NewMessageService(messages repository.MessageRepository, chats repository.ChatRepository, users repository.UserRepository, publisher pubsub.Publisher, listCache cache.ChatListCache) MessageService {
	return &messageServiceImpl{
		messages:  messages,
		chats:     chats,
		users:     users,
		publisher: publisher,
		cache:     listCache,
	}
}

// Send persists a new message, marks it as the chat's latest, and publishes a
// message.created event. Delivery to connected members happens over the relay
// once the sender forwards the returned payload.
func (s *messageServiceImpl) Send(ctx context.Context, senderID string, req *domain.SendMessageRequest) (*domain.MessageResponse, error) {
	l := log.Ctx(ctx)

	if req.Message == "" && req.Media == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := s.chats.GetByID(ctx, req.ChatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !chat.HasMember(senderID) {
		return nil, ErrNotMember
	}

	msg := &domain.Message{
		SenderID: senderID,
		ChatID:   chat.ID,
		Content:  req.Message,
		Media:    req.Media,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		l.Error().Err(err).Str(log.FieldChatID, chat.ID).Msg("failed to create message")
		return nil, err
	}

	if err := s.chats.SetLatestMessage(ctx, chat.ID, msg.ID); err != nil {
		l.Warn().Err(err).Str(log.FieldChatID, chat.ID).Msg("failed to set latest message")
	}

	// The chat list ordering and previews changed for every member.
	s.invalidate(ctx, chat.UserIDs)

	payload := pubsub.MessageCreatedPayload{
		MessageID: msg.ID,
		ChatID:    chat.ID,
		SenderID:  senderID,
		HasMedia:  msg.Media != "",
	}
	if event, err := pubsub.NewEvent(pubsub.EventMessageCreated, chat.ID, payload); err == nil {
		if err := s.publisher.Publish(ctx, pubsub.ChannelMessages, event); err != nil {
			l.Warn().Err(err).Str(log.FieldChatID, chat.ID).Msg("failed to publish message event")
		}
	}

	audit.LogWithTarget(ctx, audit.ActionSendMessage, senderID, msg.ID, "message sent")

	return s.buildMessageResponse(ctx, msg, chat)
}

// ListByChat returns a chat's messages in chronological order. The caller must
// be a member.
func (s *messageServiceImpl) ListByChat(ctx context.Context, userID, chatID string) ([]domain.MessageResponse, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !chat.HasMember(userID) {
		return nil, ErrNotMember
	}

	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	refs, err := s.memberRefs(ctx, chat)
	if err != nil {
		return nil, err
	}
	chatRef := chatRefOf(chat, refs)

	responses := make([]domain.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		responses = append(responses, domain.MessageResponse{
			ID:        m.ID,
			Sender:    refs[m.SenderID],
			Chat:      chatRef,
			Content:   m.Content,
			Media:     m.Media,
			CreatedAt: m.CreatedAt,
		})
	}
	return responses, nil
}

// buildMessageResponse expands a message with its sender and the chat's
// membership so the relay can fan it out without further lookups.
func (s *messageServiceImpl) buildMessageResponse(ctx context.Context, msg *domain.Message, chat *domain.Chat) (*domain.MessageResponse, error) {
	refs, err := s.memberRefs(ctx, chat)
	if err != nil {
		return nil, err
	}

	return &domain.MessageResponse{
		ID:        msg.ID,
		Sender:    refs[msg.SenderID],
		Chat:      chatRefOf(chat, refs),
		Content:   msg.Content,
		Media:     msg.Media,
		CreatedAt: msg.CreatedAt,
	}, nil
}

func (s *messageServiceImpl) memberRefs(ctx context.Context, chat *domain.Chat) (map[string]domain.UserRef, error) {
	users, err := s.users.GetByIDs(ctx, chat.UserIDs)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]domain.UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = u.Ref()
	}
	return refs, nil
}

func chatRefOf(chat *domain.Chat, refs map[string]domain.UserRef) domain.ChatRef {
	users := make([]domain.UserRef, 0, len(chat.UserIDs))
	for _, id := range chat.UserIDs {
		if ref, ok := refs[id]; ok {
			users = append(users, ref)
		}
	}
	return domain.ChatRef{
		ID:      chat.ID,
		Name:    chat.Name,
		IsGroup: chat.IsGroup,
		Users:   users,
	}
}

func (s *messageServiceImpl) invalidate(ctx context.Context, userIDs []string) {
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
