package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/pkg/log"
	"github.com/parley-chat/parley/pkg/middleware"
	"github.com/parley-chat/parley/pkg/response"
)

// AccessChat opens the one-on-one chat with another user, creating it when it
// does not exist yet.
func (h *Handler) AccessChat(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.AccessChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid access chat request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.AccessChat(ctx, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfChat):
			response.BadRequest(c, "cannot start a chat with yourself")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "user not found")
		default:
			l.Error().Err(err).Msg("access chat failed")
			response.InternalError(c, "failed to access chat")
		}
		return
	}

	response.Success(c, chat)
}

// ListChats returns the caller's chats.
func (h *Handler) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	chats, err := h.chatService.ListChats(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("list chats failed")
		response.InternalError(c, "failed to list chats")
		return
	}

	response.Success(c, chats)
}

// CreateGroup creates a group chat.
func (h *Handler) CreateGroup(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create group request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.CreateGroup(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "one or more users not found")
			return
		}
		l.Error().Err(err).Msg("create group failed")
		response.InternalError(c, "failed to create group")
		return
	}

	response.Created(c, chat)
}

// RenameGroup renames a group chat.
func (h *Handler) RenameGroup(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid rename group request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.RenameGroup(ctx, userID, &req)
	if err != nil {
		h.groupError(c, err, "rename group failed")
		return
	}

	response.Success(c, chat)
}

// AddToGroup adds a member to a group chat.
func (h *Handler) AddToGroup(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid add member request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.AddToGroup(ctx, userID, &req)
	if err != nil {
		h.groupError(c, err, "add member failed")
		return
	}

	response.Success(c, chat)
}

// RemoveFromGroup removes a member from a group chat.
func (h *Handler) RemoveFromGroup(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid remove member request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.chatService.RemoveFromGroup(ctx, userID, &req)
	if err != nil {
		h.groupError(c, err, "remove member failed")
		return
	}

	response.Success(c, chat)
}

// groupError maps group management errors to HTTP responses.
func (h *Handler) groupError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		response.NotFound(c, "chat not found")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, service.ErrNotGroup):
		response.BadRequest(c, "chat is not a group chat")
	case errors.Is(err, service.ErrNotMember):
		response.Forbidden(c, "not a member of this chat")
	case errors.Is(err, service.ErrNotAdmin):
		response.Forbidden(c, "only the group admin can do this")
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(logMsg)
		response.InternalError(c, "group operation failed")
	}
}
