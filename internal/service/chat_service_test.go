package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/domain"
)

func TestAccessChatCreatesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")
	bob := env.register(t, "Bob", "bob@example.com")

	chat, err := env.chatSvc.AccessChat(ctx, alice.ID, &domain.AccessChatRequest{UserID: bob.ID})
	require.NoError(t, err)
	assert.False(t, chat.IsGroup)
	assert.Len(t, chat.Users, 2)

	// Accessing from the other side returns the same chat.
	again, err := env.chatSvc.AccessChat(ctx, bob.ID, &domain.AccessChatRequest{UserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)
}

func TestAccessChatValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")

	_, err := env.chatSvc.AccessChat(ctx, alice.ID, &domain.AccessChatRequest{UserID: alice.ID})
	assert.ErrorIs(t, err, ErrSelfChat)

	_, err = env.chatSvc.AccessChat(ctx, alice.ID, &domain.AccessChatRequest{UserID: "missing"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateGroupAddsAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")
	bob := env.register(t, "Bob", "bob@example.com")
	carol := env.register(t, "Carol", "carol@example.com")

	group, err := env.chatSvc.CreateGroup(ctx, alice.ID, &domain.CreateGroupRequest{
		Name:    "weekend plans",
		UserIDs: []string{bob.ID, carol.ID},
	})
	require.NoError(t, err)
	assert.True(t, group.IsGroup)
	assert.Equal(t, alice.ID, group.AdminID)
	assert.Len(t, group.Users, 3)
}

func TestCreateGroupUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")
	bob := env.register(t, "Bob", "bob@example.com")

	_, err := env.chatSvc.CreateGroup(ctx, alice.ID, &domain.CreateGroupRequest{
		Name:    "ghosts",
		UserIDs: []string{bob.ID, "missing"},
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRenameGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")
	bob := env.register(t, "Bob", "bob@example.com")
	carol := env.register(t, "Carol", "carol@example.com")

	group, err := env.chatSvc.CreateGroup(ctx, alice.ID, &domain.CreateGroupRequest{
		Name:    "old name",
		UserIDs: []string{bob.ID, carol.ID},
	})
	require.NoError(t, err)

	// Any member may rename, not just the admin.
	renamed, err := env.chatSvc.RenameGroup(ctx, bob.ID, &domain.RenameGroupRequest{
		ChatID: group.ID,
		Name:   "new name",
	})
	require.NoError(t, err)
	assert.Equal(t, "new name", renamed.Name)

	outsider := env.register(t, "Dave", "dave@example.com")
	_, err = env.chatSvc.RenameGroup(ctx, outsider.ID, &domain.RenameGroupRequest{
		ChatID: group.ID,
		Name:   "hijacked",
	})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestGroupMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")
	bob := env.register(t, "Bob", "bob@example.com")
	carol := env.register(t, "Carol", "carol@example.com")
	dave := env.register(t, "Dave", "dave@example.com")

	group, err := env.chatSvc.CreateGroup(ctx, alice.ID, &domain.CreateGroupRequest{
		Name:    "club",
		UserIDs: []string{bob.ID, carol.ID},
	})
	require.NoError(t, err)

	// Only the admin can add.
	_, err = env.chatSvc.AddToGroup(ctx, bob.ID, &domain.GroupMemberRequest{
		ChatID: group.ID, UserID: dave.ID,
	})
	assert.ErrorIs(t, err, ErrNotAdmin)

	added, err := env.chatSvc.AddToGroup(ctx, alice.ID, &domain.GroupMemberRequest{
		ChatID: group.ID, UserID: dave.ID,
	})
	require.NoError(t, err)
	assert.Len(t, added.Users, 4)

	// Members can leave on their own; removing others needs the admin.
	_, err = env.chatSvc.RemoveFromGroup(ctx, bob.ID, &domain.GroupMemberRequest{
		ChatID: group.ID, UserID: carol.ID,
	})
	assert.ErrorIs(t, err, ErrNotAdmin)

	left, err := env.chatSvc.RemoveFromGroup(ctx, dave.ID, &domain.GroupMemberRequest{
		ChatID: group.ID, UserID: dave.ID,
	})
	require.NoError(t, err)
	assert.Len(t, left.Users, 3)

	removed, err := env.chatSvc.RemoveFromGroup(ctx, alice.ID, &domain.GroupMemberRequest{
		ChatID: group.ID, UserID: carol.ID,
	})
	require.NoError(t, err)
	assert.Len(t, removed.Users, 2)
}

func TestGroupOperationsRejectDirectChats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")
	bob := env.register(t, "Bob", "bob@example.com")

	chat, err := env.chatSvc.AccessChat(ctx, alice.ID, &domain.AccessChatRequest{UserID: bob.ID})
	require.NoError(t, err)

	_, err = env.chatSvc.RenameGroup(ctx, alice.ID, &domain.RenameGroupRequest{
		ChatID: chat.ID, Name: "nope",
	})
	assert.ErrorIs(t, err, ErrNotGroup)
}

func TestListChatsOrderedByActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")
	bob := env.register(t, "Bob", "bob@example.com")
	carol := env.register(t, "Carol", "carol@example.com")

	first, err := env.chatSvc.AccessChat(ctx, alice.ID, &domain.AccessChatRequest{UserID: bob.ID})
	require.NoError(t, err)
	second, err := env.chatSvc.AccessChat(ctx, alice.ID, &domain.AccessChatRequest{UserID: carol.ID})
	require.NoError(t, err)

	// A message in the older chat bumps it to the top.
	_, err = env.messageSvc.Send(ctx, alice.ID, &domain.SendMessageRequest{
		ChatID:  first.ID,
		Message: "hello bob",
	})
	require.NoError(t, err)

	chats, err := env.chatSvc.ListChats(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, first.ID, chats[0].ID)
	assert.Equal(t, second.ID, chats[1].ID)

	require.NotNil(t, chats[0].LatestMessage)
	assert.Equal(t, "hello bob", chats[0].LatestMessage.Content)

	// Carol only sees her own chat.
	carolChats, err := env.chatSvc.ListChats(ctx, carol.ID)
	require.NoError(t, err)
	require.Len(t, carolChats, 1)
	assert.Equal(t, second.ID, carolChats[0].ID)
}
