package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/parley-chat/parley/pkg/database"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           string               `gorm:"type:varchar(36);primaryKey"`
	Name         string               `gorm:"type:varchar(100);not null"`
	Email        string               `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string               `gorm:"type:varchar(255);not null"`
	Bio          string               `gorm:"type:varchar(255);default:'Available'"`
	ProfilePic   string               `gorm:"type:text"`
	Contacts     database.StringList `gorm:"type:text"`
	CreatedAt    time.Time            `gorm:"autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt       `gorm:"index"`
}

func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Bio:          m.Bio,
		ProfilePic:   m.ProfilePic,
		Contacts:     []string(m.Contacts),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Bio:          u.Bio,
		ProfilePic:   u.ProfilePic,
		Contacts:     database.StringList(u.Contacts),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ChatModel is the GORM model for the chats table. Membership lives in the
// chat_members join table.
type ChatModel struct {
	ID              string         `gorm:"type:varchar(36);primaryKey"`
	Name            string         `gorm:"type:varchar(100)"`
	IsGroup         bool           `gorm:"not null;default:false"`
	AdminID         string         `gorm:"type:varchar(36)"`
	LatestMessageID string         `gorm:"type:varchar(36)"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (ChatModel) TableName() string {
	return "chats"
}

// ChatMemberModel is the GORM model for the chat_members join table.
type ChatMemberModel struct {
	ChatID string `gorm:"type:varchar(36);primaryKey"`
	UserID string `gorm:"type:varchar(36);primaryKey;index"`
}

func (ChatMemberModel) TableName() string {
	return "chat_members"
}

// ToDomain converts ChatModel plus its membership to a domain Chat.
func (m *ChatModel) ToDomain(userIDs []string) *Chat {
	return &Chat{
		ID:        m.ID,
		Name:      m.Name,
		IsGroup:   m.IsGroup,
		AdminID:   m.AdminID,
		UserIDs:   userIDs,
		LatestMsg: m.LatestMessageID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ChatToModel converts domain Chat to ChatModel.
func ChatToModel(c *Chat) *ChatModel {
	return &ChatModel{
		ID:              c.ID,
		Name:            c.Name,
		IsGroup:         c.IsGroup,
		AdminID:         c.AdminID,
		LatestMessageID: c.LatestMsg,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	SenderID  string    `gorm:"type:varchar(36);index;not null"`
	ChatID    string    `gorm:"type:varchar(36);index;not null"`
	Content   string    `gorm:"type:text"`
	Media     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to a domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:        m.ID,
		SenderID:  m.SenderID,
		ChatID:    m.ChatID,
		Content:   m.Content,
		Media:     m.Media,
		CreatedAt: m.CreatedAt,
	}
}

// MessageToModel converts a domain Message to MessageModel.
func MessageToModel(msg *Message) *MessageModel {
	return &MessageModel{
		ID:        msg.ID,
		SenderID:  msg.SenderID,
		ChatID:    msg.ChatID,
		Content:   msg.Content,
		Media:     msg.Media,
		CreatedAt: msg.CreatedAt,
	}
}
