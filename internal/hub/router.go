package hub

import (
	"encoding/json"
	"errors"

	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/pkg/log"
)

// ErrMalformedPayload is returned when a route request is missing the chat
// id, the member list, or the sender identity. The event is dropped and
// logged; the sender is never informed (fire-and-forget delivery).
var ErrMalformedPayload = errors.New("malformed payload")

// RouteNewMessage fans a message out along two paths:
//
//  1. the shared chat room: every client joined to the chat's room except
//     the origin, and
//  2. each member's private user room except the sender's own, so members
//     who have not opened the chat (and therefore never joined its room)
//     still see the message arrive in their inbox.
//
// A client joined to both rooms receives the same logical message twice.
// That redundancy is intentional; consumers deduplicate by message id.
// Delivery is best-effort: no acknowledgement, no retry, and offline
// sessions never receive the event.
func (h *Hub) RouteNewMessage(origin *Client, msg *domain.MessageResponse) error {
	if msg.Chat.ID == "" || len(msg.Chat.Users) == 0 || msg.Sender.ID == "" {
		l := log.Component("hub")
		l.Warn().
			Str(log.FieldClientID, origin.ID).
			Str(log.FieldChatID, msg.Chat.ID).
			Msg("dropping malformed message event")
		return ErrMalformedPayload
	}

	data, err := json.Marshal(&domain.MessageReceivedEvent{
		Type:    domain.EventMessageReceived,
		Message: *msg,
	})
	if err != nil {
		return err
	}

	h.BroadcastRawToRoom(msg.Chat.ID, data, origin.ID)

	for _, user := range msg.Chat.Users {
		if user.ID == msg.Sender.ID {
			continue
		}
		h.BroadcastRawToRoom(user.ID, data, origin.ID)
	}

	return nil
}

// RouteTyping relays a typing or stop-typing signal to the chat room,
// excluding the origin. Events without a chat id are dropped.
func (h *Hub) RouteTyping(origin *Client, eventType, chatID string) error {
	if chatID == "" {
		return ErrMalformedPayload
	}
	return h.BroadcastToRoom(chatID, &domain.TypingEvent{Type: eventType, ChatID: chatID}, origin.ID)
}

// BroadcastProfileUpdated pushes a profile change to every connected session
// so consumers can patch any cached copies of that user.
func (h *Hub) BroadcastProfileUpdated(userID string, updated domain.UserResponse) error {
	return h.BroadcastAll(&domain.ProfileUpdatedEvent{
		Type:        domain.EventProfileUpdated,
		UserID:      userID,
		UpdatedData: updated,
	}, "")
}
