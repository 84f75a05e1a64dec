package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/parley-chat/parley/internal/domain"
)

// API is a thin REST client for the server. It is safe for concurrent use
// once the token is set.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPI creates a REST client for the server at baseURL.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the bearer token used on authenticated calls.
func (a *API) SetToken(token string) {
	a.token = token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Login authenticates and stores the access token for later calls.
func (a *API) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	var result domain.AuthResponse
	err := a.do(ctx, http.MethodPost, "/api/v1/auth/login", domain.LoginRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	a.token = result.AccessToken
	return &result, nil
}

// Register creates an account and stores the access token for later calls.
func (a *API) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	var result domain.AuthResponse
	if err := a.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &result); err != nil {
		return nil, err
	}
	a.token = result.AccessToken
	return &result, nil
}

// ListChats returns the caller's chats.
func (a *API) ListChats(ctx context.Context) ([]domain.ChatResponse, error) {
	var result []domain.ChatResponse
	if err := a.do(ctx, http.MethodGet, "/api/v1/chats", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// AccessChat opens (or creates) the one-on-one chat with a user.
func (a *API) AccessChat(ctx context.Context, userID string) (*domain.ChatResponse, error) {
	var result domain.ChatResponse
	if err := a.do(ctx, http.MethodPost, "/api/v1/chats", domain.AccessChatRequest{UserID: userID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendMessage persists a message and returns the expanded payload to forward
// over the relay.
func (a *API) SendMessage(ctx context.Context, chatID, text string) (*domain.MessageResponse, error) {
	var result domain.MessageResponse
	req := domain.SendMessageRequest{ChatID: chatID, Message: text}
	if err := a.do(ctx, http.MethodPost, "/api/v1/messages", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListMessages returns a chat's messages in chronological order.
func (a *API) ListMessages(ctx context.Context, chatID string) ([]domain.MessageResponse, error) {
	var result []domain.MessageResponse
	if err := a.do(ctx, http.MethodGet, "/api/v1/messages/"+chatID, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if !env.Success {
		if env.Error != nil {
			return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}
