package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parley-chat/parley/internal/domain"
)

func msgFor(id, chatID string) domain.MessageResponse {
	return domain.MessageResponse{
		ID:   id,
		Chat: domain.ChatRef{ID: chatID},
	}
}

func TestAccumulatorActiveChatBypasses(t *testing.T) {
	acc := NewNotificationAccumulator()
	acc.SetActiveChat("chat1")

	assert.True(t, acc.Record(msgFor("m1", "chat1")))
	assert.Equal(t, 0, acc.Count())
}

func TestAccumulatorCollectsOtherChats(t *testing.T) {
	acc := NewNotificationAccumulator()
	acc.SetActiveChat("chat1")

	assert.False(t, acc.Record(msgFor("m1", "chat2")))
	assert.False(t, acc.Record(msgFor("m2", "chat3")))
	assert.Equal(t, 2, acc.Count())

	pending := acc.Pending()
	assert.Equal(t, "m1", pending[0].ID)
	assert.Equal(t, "m2", pending[1].ID)
}

func TestAccumulatorDeduplicatesByMessageID(t *testing.T) {
	acc := NewNotificationAccumulator()

	// The relay delivers through both the chat room and the private room;
	// the second copy must collapse.
	acc.Record(msgFor("m1", "chat2"))
	acc.Record(msgFor("m1", "chat2"))

	assert.Equal(t, 1, acc.Count())
}

func TestAccumulatorOpenChatDuplicateDeliveryShowsOnce(t *testing.T) {
	acc := NewNotificationAccumulator()
	acc.SetActiveChat("chat1")

	// A member with the chat open is joined to both the chat room and their
	// private room, so the same message arrives twice. Only the first copy
	// goes to the open message list.
	displayed := 0
	for i := 0; i < 2; i++ {
		if acc.Record(msgFor("m1", "chat1")) {
			displayed++
		}
	}

	assert.Equal(t, 1, displayed)
	assert.Equal(t, 0, acc.Count())
}

func TestAccumulatorClear(t *testing.T) {
	acc := NewNotificationAccumulator()

	acc.Record(msgFor("m1", "chat2"))
	acc.Record(msgFor("m2", "chat2"))
	acc.Record(msgFor("m3", "chat3"))

	acc.Clear("chat2")

	assert.Equal(t, 1, acc.Count())
	assert.Equal(t, "m3", acc.Pending()[0].ID)
}

func TestAccumulatorOpeningChatClearsIt(t *testing.T) {
	acc := NewNotificationAccumulator()

	acc.Record(msgFor("m1", "chat2"))
	acc.Record(msgFor("m2", "chat3"))

	acc.SetActiveChat("chat2")

	assert.Equal(t, "chat2", acc.ActiveChat())
	assert.Equal(t, 1, acc.Count())

	// New messages for the now-open chat bypass the pending set.
	assert.True(t, acc.Record(msgFor("m4", "chat2")))
	assert.Equal(t, 1, acc.Count())
}

func TestAccumulatorNoActiveChat(t *testing.T) {
	acc := NewNotificationAccumulator()

	assert.False(t, acc.Record(msgFor("m1", "chat1")))
	assert.Equal(t, 1, acc.Count())
}
