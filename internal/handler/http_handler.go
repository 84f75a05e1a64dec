package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/pkg/log"
	"github.com/parley-chat/parley/pkg/middleware"
	"github.com/parley-chat/parley/pkg/response"
	"github.com/parley-chat/parley/pkg/storage"
)

// Handler handles HTTP requests.
type Handler struct {
	userService    service.UserService
	chatService    service.ChatService
	messageService service.MessageService
	media          storage.Storage
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(userService service.UserService, chatService service.ChatService, messageService service.MessageService, media storage.Storage, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		userService:    userService,
		chatService:    chatService,
		messageService: messageService,
		media:          media,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/refresh", h.RefreshToken)
			auth.POST("/logout", h.authMiddleware.RequireAuth(), h.Logout)
		}

		// Protected routes
		users := api.Group("/users")
		users.Use(h.authMiddleware.RequireAuth())
		{
			users.GET("", h.SearchUsers)
			users.GET("/me", h.GetMe)
			users.PUT("/me", h.UpdateMe)
		}

		chats := api.Group("/chats")
		chats.Use(h.authMiddleware.RequireAuth())
		{
			chats.GET("", h.ListChats)
			chats.POST("", h.AccessChat)
			chats.POST("/group", h.CreateGroup)
			chats.PUT("/group/rename", h.RenameGroup)
			chats.PUT("/group/add", h.AddToGroup)
			chats.PUT("/group/remove", h.RemoveFromGroup)
		}

		messages := api.Group("/messages")
		messages.Use(h.authMiddleware.RequireAuth())
		{
			messages.POST("", h.SendMessage)
			messages.GET("/:chatId", h.ListMessages)
		}

		media := api.Group("/media")
		{
			media.POST("", h.authMiddleware.RequireAuth(), h.UploadMedia)
			media.GET("/*key", h.ServeMedia)
		}
	}
}

// Register handles user registration.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.Conflict(c, "email already exists")
			return
		}
		l.Error().Err(err).Msg("register failed")
		response.InternalError(c, "failed to register user")
		return
	}

	response.Created(c, result)
}

// Login handles user login.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, result)
}

// RefreshToken handles token refresh.
func (h *Handler) RefreshToken(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid refresh token request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.RefreshToken(ctx, &req)
	if err != nil {
		l.Warn().Err(err).Msg("refresh token failed")
		response.Unauthorized(c, "invalid or expired refresh token")
		return
	}

	response.Success(c, result)
}

// Logout revokes the caller's tokens.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	if err := h.userService.Logout(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("logout failed")
		response.InternalError(c, "failed to logout")
		return
	}

	response.Success(c, gin.H{"message": "logged out"})
}

// GetMe returns the caller's profile.
func (h *Handler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	profile, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("get profile failed")
		response.InternalError(c, "failed to get profile")
		return
	}

	response.Success(c, profile)
}

// UpdateMe updates the caller's profile.
func (h *Handler) UpdateMe(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid update profile request")
		response.BadRequest(c, err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l.Error().Err(err).Msg("update profile failed")
		response.InternalError(c, "failed to update profile")
		return
	}

	response.Success(c, profile)
}

// SearchUsers finds users by name or email.
func (h *Handler) SearchUsers(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var req domain.SearchUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	users, err := h.userService.SearchUsers(ctx, userID, req.Search)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("user search failed")
		response.InternalError(c, "failed to search users")
		return
	}

	response.Success(c, users)
}
