package client

import (
	"sync"

	"github.com/parley-chat/parley/internal/domain"
)

// NotificationAccumulator collects delivered messages for chats the user is
// not currently looking at. Messages for the active chat are never
// accumulated; the caller shows those directly. Each message id is recorded
// at most once, so the dual fan-out on the relay side collapses back to a
// single notification here.
type NotificationAccumulator struct {
	mu         sync.Mutex
	activeChat string
	pending    []domain.MessageResponse
	seen       map[string]struct{}
}

// NewNotificationAccumulator creates an empty accumulator with no active chat.
func NewNotificationAccumulator() *NotificationAccumulator {
	return &NotificationAccumulator{
		seen: make(map[string]struct{}),
	}
}

// SetActiveChat marks a chat as open and clears its pending notifications.
// An empty id means no chat is open.
func (n *NotificationAccumulator) SetActiveChat(chatID string) {
	n.mu.Lock()
	n.activeChat = chatID
	n.mu.Unlock()

	if chatID != "" {
		n.Clear(chatID)
	}
}

// ActiveChat returns the currently open chat id.
func (n *NotificationAccumulator) ActiveChat() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.activeChat
}

// Record processes a delivered message. It returns true when the message is
// for the active chat and should go straight to the open message list.
// Anything else is added to the pending set. A message id is recorded at
// most once on either path: the relay delivers through both the chat room
// and the private room, and the second copy must never surface again.
func (n *NotificationAccumulator) Record(msg domain.MessageResponse) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, dup := n.seen[msg.ID]; dup {
		return false
	}
	n.seen[msg.ID] = struct{}{}

	if n.activeChat != "" && msg.Chat.ID == n.activeChat {
		return true
	}
	n.pending = append(n.pending, msg)
	return false
}

// Clear removes all pending notifications for a chat.
func (n *NotificationAccumulator) Clear(chatID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	kept := n.pending[:0]
	for _, msg := range n.pending {
		if msg.Chat.ID == chatID {
			delete(n.seen, msg.ID)
			continue
		}
		kept = append(kept, msg)
	}
	n.pending = kept
}

// Pending returns a copy of the pending notifications, newest last.
func (n *NotificationAccumulator) Pending() []domain.MessageResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]domain.MessageResponse, len(n.pending))
	copy(out, n.pending)
	return out
}

// Count returns the number of pending notifications.
func (n *NotificationAccumulator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
