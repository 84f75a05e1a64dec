package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/pubsub"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/pkg/database"
	"github.com/parley-chat/parley/pkg/jwt"
	"github.com/parley-chat/parley/pkg/middleware"
	"github.com/parley-chat/parley/pkg/storage"
)

func startAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	media, err := storage.New(context.Background(), storage.Config{
		Driver: "local",
		Local:  storage.LocalConfig{BasePath: t.TempDir()},
	})
	require.NoError(t, err)

	userRepo := repository.NewGormUserRepository(db)
	chatRepo := repository.NewGormChatRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)
	publisher := pubsub.NewNoopPublisher()

	userSvc := service.NewUserService(userRepo, tokens, publisher, nil)
	chatSvc := service.NewChatService(chatRepo, userRepo, messageRepo, nil, 0)
	messageSvc := service.NewMessageService(messageRepo, chatRepo, userRepo, publisher, nil)

	r := gin.New()
	h := NewHandler(userSvc, chatSvc, messageSvc, media, middleware.NewAuthMiddleware(tokens))
	h.RegisterRoutes(r)
	return r
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.True(t, env.Success, "body: %s", resp.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func registerUser(t *testing.T, r *gin.Engine, name, email string) domain.AuthResponse {
	t.Helper()
	resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", domain.RegisterRequest{
		FirstName: name,
		Email:     email,
		Password:  "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var auth domain.AuthResponse
	decodeData(t, resp, &auth)
	return auth
}

func TestAuthFlow(t *testing.T) {
	r := startAPI(t)

	auth := registerUser(t, r, "Alice", "alice@example.com")
	assert.NotEmpty(t, auth.AccessToken)

	// Duplicate email is a conflict.
	resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", domain.RegisterRequest{
		FirstName: "Clone",
		Email:     "alice@example.com",
		Password:  "secret123",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	// Wrong password is unauthorized.
	resp = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Protected routes reject missing tokens.
	resp = doJSON(t, r, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, r, http.MethodGet, "/api/v1/users/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var me domain.UserResponse
	decodeData(t, resp, &me)
	assert.Equal(t, "Alice", me.Name)
}

func TestChatAndMessageFlow(t *testing.T) {
	r := startAPI(t)

	alice := registerUser(t, r, "Alice", "alice@example.com")
	bob := registerUser(t, r, "Bob", "bob@example.com")

	// Alice opens a chat with Bob.
	resp := doJSON(t, r, http.MethodPost, "/api/v1/chats", alice.AccessToken, domain.AccessChatRequest{
		UserID: bob.User.ID,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var chat domain.ChatResponse
	decodeData(t, resp, &chat)
	assert.Len(t, chat.Users, 2)

	// Alice sends a message.
	resp = doJSON(t, r, http.MethodPost, "/api/v1/messages", alice.AccessToken, domain.SendMessageRequest{
		ChatID:  chat.ID,
		Message: "hi bob",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var msg domain.MessageResponse
	decodeData(t, resp, &msg)
	assert.Equal(t, "hi bob", msg.Content)
	assert.Len(t, msg.Chat.Users, 2)

	// Bob can read it; outsiders cannot.
	resp = doJSON(t, r, http.MethodGet, "/api/v1/messages/"+chat.ID, bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var msgs []domain.MessageResponse
	decodeData(t, resp, &msgs)
	require.Len(t, msgs, 1)

	carol := registerUser(t, r, "Carol", "carol@example.com")
	resp = doJSON(t, r, http.MethodGet, "/api/v1/messages/"+chat.ID, carol.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Bob sees the chat in his list with the latest message attached.
	resp = doJSON(t, r, http.MethodGet, "/api/v1/chats", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var chats []domain.ChatResponse
	decodeData(t, resp, &chats)
	require.Len(t, chats, 1)
	require.NotNil(t, chats[0].LatestMessage)
	assert.Equal(t, "hi bob", chats[0].LatestMessage.Content)
}

func TestGroupFlow(t *testing.T) {
	r := startAPI(t)

	alice := registerUser(t, r, "Alice", "alice@example.com")
	bob := registerUser(t, r, "Bob", "bob@example.com")
	carol := registerUser(t, r, "Carol", "carol@example.com")

	resp := doJSON(t, r, http.MethodPost, "/api/v1/chats/group", alice.AccessToken, domain.CreateGroupRequest{
		Name:    "book club",
		UserIDs: []string{bob.User.ID, carol.User.ID},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var group domain.ChatResponse
	decodeData(t, resp, &group)
	assert.True(t, group.IsGroup)
	assert.Len(t, group.Users, 3)

	// Non-admin cannot add members.
	dave := registerUser(t, r, "Dave", "dave@example.com")
	resp = doJSON(t, r, http.MethodPut, "/api/v1/chats/group/add", bob.AccessToken, domain.GroupMemberRequest{
		ChatID: group.ID,
		UserID: dave.User.ID,
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = doJSON(t, r, http.MethodPut, "/api/v1/chats/group/rename", bob.AccessToken, domain.RenameGroupRequest{
		ChatID: group.ID,
		Name:   "film club",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var renamed domain.ChatResponse
	decodeData(t, resp, &renamed)
	assert.Equal(t, "film club", renamed.Name)
}
