package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/pubsub"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/pkg/database"
	"github.com/parley-chat/parley/pkg/jwt"
)

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	chats    repository.ChatRepository
	messages repository.MessageRepository

	userSvc    UserService
	chatSvc    ChatService
	messageSvc MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.ChatModel{},
		&domain.ChatMemberModel{},
		&domain.MessageModel{},
	))

	tokens, err := jwt.NewManager("test-secret", time.Hour, 24*time.Hour, "parley-test")
	require.NoError(t, err)

	userRepo := repository.NewGormUserRepository(db)
	chatRepo := repository.NewGormChatRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)
	publisher := pubsub.NewNoopPublisher()

	return &testEnv{
		db:         db,
		users:      userRepo,
		chats:      chatRepo,
		messages:   messageRepo,
		userSvc:    NewUserService(userRepo, tokens, publisher, nil),
		chatSvc:    NewChatService(chatRepo, userRepo, messageRepo, nil, 0),
		messageSvc: NewMessageService(messageRepo, chatRepo, userRepo, publisher, nil),
	}
}

func (e *testEnv) register(t *testing.T, name, email string) domain.UserResponse {
	t.Helper()
	auth, err := e.userSvc.Register(context.Background(), &domain.RegisterRequest{
		FirstName: name,
		Email:     email,
		Password:  "secret123",
	})
	require.NoError(t, err)
	return auth.User
}
