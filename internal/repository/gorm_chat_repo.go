package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parley-chat/parley/internal/domain"
)

// GormChatRepository implements ChatRepository using GORM.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based chat repository.
func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

// Create creates a chat together with its membership rows.
func (r *GormChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	chat.ID = uuid.New().String()
	model := domain.ChatToModel(chat)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		for _, userID := range chat.UserIDs {
			member := &domain.ChatMemberModel{ChatID: chat.ID, UserID: userID}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		chat.CreatedAt = model.CreatedAt
		chat.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// GetByID retrieves a chat and its membership.
func (r *GormChatRepository) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	var model domain.ChatModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, result.Error
	}

	userIDs, err := r.membersOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return model.ToDomain(userIDs), nil
}

// FindDirect returns the one-on-one chat shared by two users, if any.
func (r *GormChatRepository) FindDirect(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	var model domain.ChatModel
	result := r.db.WithContext(ctx).
		Joins("JOIN chat_members a ON a.chat_id = chats.id AND a.user_id = ?", userA).
		Joins("JOIN chat_members b ON b.chat_id = chats.id AND b.user_id = ?", userB).
		Where("chats.is_group = ?", false).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, result.Error
	}

	userIDs, err := r.membersOf(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	return model.ToDomain(userIDs), nil
}

// ListForUser returns a user's chats, most recently updated first.
func (r *GormChatRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Chat, error) {
	var models []domain.ChatModel
	result := r.db.WithContext(ctx).
		Joins("JOIN chat_members m ON m.chat_id = chats.id AND m.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	chats := make([]*domain.Chat, 0, len(models))
	for i := range models {
		userIDs, err := r.membersOf(ctx, models[i].ID)
		if err != nil {
			return nil, err
		}
		chats = append(chats, models[i].ToDomain(userIDs))
	}
	return chats, nil
}

// Rename updates a chat's name.
func (r *GormChatRepository) Rename(ctx context.Context, chatID, name string) error {
	result := r.db.WithContext(ctx).Model(&domain.ChatModel{}).
		Where("id = ?", chatID).
		Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

// AddMember adds a user to a chat. No-op if already a member.
func (r *GormChatRepository) AddMember(ctx context.Context, chatID, userID string) error {
	if err := r.ensureExists(ctx, chatID); err != nil {
		return err
	}

	var count int64
	r.db.WithContext(ctx).Model(&domain.ChatMemberModel{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count)
	if count > 0 {
		return nil
	}

	member := &domain.ChatMemberModel{ChatID: chatID, UserID: userID}
	return r.db.WithContext(ctx).Create(member).Error
}

// RemoveMember removes a user from a chat.
func (r *GormChatRepository) RemoveMember(ctx context.Context, chatID, userID string) error {
	if err := r.ensureExists(ctx, chatID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&domain.ChatMemberModel{}).Error
}

// SetLatestMessage records the chat's latest message and bumps updated_at so
// the chat list sorts it first.
func (r *GormChatRepository) SetLatestMessage(ctx context.Context, chatID, messageID string) error {
	result := r.db.WithContext(ctx).Model(&domain.ChatModel{}).
		Where("id = ?", chatID).
		Update("latest_message_id", messageID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *GormChatRepository) ensureExists(ctx context.Context, chatID string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ChatModel{}).
		Where("id = ?", chatID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *GormChatRepository) membersOf(ctx context.Context, chatID string) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).Model(&domain.ChatMemberModel{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
