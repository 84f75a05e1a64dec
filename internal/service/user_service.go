package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/parley-chat/parley/internal/audit"
	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/pubsub"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/pkg/jwt"
	"github.com/parley-chat/parley/pkg/log"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
)

// userServiceImpl implements UserService.
type userServiceImpl struct {
	repo        repository.UserRepository
	tokens      *jwt.Manager
	publisher   pubsub.Publisher
	broadcaster ProfileBroadcaster
}

// NewUserService creates a new user service. broadcaster may be nil when no
// relay is attached.
func NewUserService(repo repository.UserRepository, tokens *jwt.Manager, publisher pubsub.Publisher, broadcaster ProfileBroadcaster) UserService {
	return &userServiceImpl{
		repo:        repo,
		tokens:      tokens,
		publisher:   publisher,
		broadcaster: broadcaster,
	}
}

// Register registers a new user.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	name := req.FirstName
	if req.LastName != "" {
		name = req.FirstName + " " + req.LastName
	}

	user := &domain.User{
		Name:         name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	return s.buildAuthResponse(ctx, user)
}

// Login authenticates a user.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", req.Email, "login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, req.Email, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return s.buildAuthResponse(ctx, user)
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (s *userServiceImpl) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	claims, err := s.tokens.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if claims.Type != "refresh" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("failed to get user for token refresh")
		return nil, err
	}

	accessToken, refreshToken, accessExp, _, err := s.tokens.RefreshTokens(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	audit.Log(ctx, audit.ActionRefreshToken, user.ID, "tokens refreshed")

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
	}, nil
}

// Logout revokes all outstanding tokens for the user.
func (s *userServiceImpl) Logout(ctx context.Context, userID string) error {
	s.tokens.RevokeUserTokens(userID)
	audit.Log(ctx, audit.ActionLogout, userID, "user logged out")
	return nil
}

// GetProfile returns a user's profile.
func (s *userServiceImpl) GetProfile(ctx context.Context, userID string) (*domain.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateProfile applies the requested profile changes, then pushes the update
// to every connected client and publishes it on the event bus.
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateUserRequest) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.ProfilePic != nil {
		user.ProfilePic = *req.ProfilePic
	}

	if err := s.repo.Update(ctx, user); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to update user")
		return nil, err
	}

	resp := user.ToResponse()

	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastProfileUpdated(userID, resp); err != nil {
			l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("failed to broadcast profile update")
		}
	}

	if event, err := pubsub.NewEvent(pubsub.EventProfileUpdated, "", pubsub.ProfileUpdatedPayload{UserID: userID}); err == nil {
		if err := s.publisher.Publish(ctx, pubsub.ChannelProfiles, event); err != nil {
			l.Warn().Err(err).Msg("failed to publish profile update event")
		}
	}

	audit.Log(ctx, audit.ActionUpdateProfile, userID, "profile updated")

	return &resp, nil
}

// SearchUsers finds users matching the query, excluding the caller.
func (s *userServiceImpl) SearchUsers(ctx context.Context, userID, query string) ([]domain.UserResponse, error) {
	users, err := s.repo.Search(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, u.ToResponse())
	}
	return results, nil
}

func (s *userServiceImpl) buildAuthResponse(ctx context.Context, user *domain.User) (*domain.AuthResponse, error) {
	accessToken, refreshToken, accessExp, _, err := s.tokens.GenerateTokenPair(user.ID, user.Email, user.Name)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens")
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
	}, nil
}
