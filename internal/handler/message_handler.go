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

// SendMessage persists a message and returns the expanded payload the client
// forwards to the relay for fan-out.
func (h *Handler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid send message request")
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.Send(ctx, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			response.BadRequest(c, "message has no content or media")
		case errors.Is(err, service.ErrChatNotFound):
			response.NotFound(c, "chat not found")
		case errors.Is(err, service.ErrNotMember):
			response.Forbidden(c, "not a member of this chat")
		default:
			l.Error().Err(err).Msg("send message failed")
			response.InternalError(c, "failed to send message")
		}
		return
	}

	response.Created(c, msg)
}

// ListMessages returns a chat's messages in chronological order.
func (h *Handler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	chatID := c.Param("chatId")

	msgs, err := h.messageService.ListByChat(ctx, userID, chatID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatNotFound):
			response.NotFound(c, "chat not found")
		case errors.Is(err, service.ErrNotMember):
			response.Forbidden(c, "not a member of this chat")
		default:
			l := log.Ctx(ctx)
			l.Error().Err(err).Msg("list messages failed")
			response.InternalError(c, "failed to list messages")
		}
		return
	}

	response.Success(c, msgs)
}
