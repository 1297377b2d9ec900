package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/duochat/duochat/models"
)

func newTestDB(t *testing.T) *GormDB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "duochat_test.db")
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gormDB))
	return &GormDB{DB: gormDB}
}

func seedUser(t *testing.T, g *GormDB, email string) *models.User {
	t.Helper()
	user := &models.User{
		FirstName:      "Test",
		LastName:       "User",
		Email:          email,
		HashedPassword: "hash",
		Active:         true,
	}
	require.NoError(t, g.DB.Create(user).Error)
	return user
}

func TestCreateConversationWithParticipants(t *testing.T) {
	g := newTestDB(t)
	repo := NewConversationRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	bob := seedUser(t, g, "bob@example.com")

	conversation, err := repo.CreateConversation([]uint{alice.ID, bob.ID})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, conversation.ID)
	require.Len(t, conversation.Participants, 2)
	assert.Equal(t, "alice@example.com", conversation.Participants[0].User.Email)
}

func TestListConversationsWithPreviewAndUnread(t *testing.T) {
	g := newTestDB(t)
	conversationRepo := NewConversationRepo(g)
	messageRepo := NewMessageRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	bob := seedUser(t, g, "bob@example.com")

	conversation, err := conversationRepo.CreateConversation([]uint{alice.ID, bob.ID})
	require.NoError(t, err)

	first := &models.Message{ConversationID: conversation.ID, SenderID: bob.ID, Content: "hi", CreatedAt: time.Now().Add(-time.Minute)}
	second := &models.Message{ConversationID: conversation.ID, SenderID: bob.ID, Content: "you there?", CreatedAt: time.Now()}
	require.NoError(t, messageRepo.SaveMessage(first))
	require.NoError(t, messageRepo.SaveMessage(second))

	views, err := conversationRepo.ListConversationsForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	require.NotNil(t, view.LatestMessage)
	assert.Equal(t, "you there?", view.LatestMessage.Content)
	assert.Equal(t, bob.ID, view.LatestMessage.Sender.ID)
	assert.Equal(t, int64(2), view.UnreadCount)

	// the sender's own messages never count against them
	bobViews, err := conversationRepo.ListConversationsForUser(bob.ID)
	require.NoError(t, err)
	require.Len(t, bobViews, 1)
	assert.Equal(t, int64(0), bobViews[0].UnreadCount)
}

func TestListConversationsEmptyConversationHasNoPreview(t *testing.T) {
	g := newTestDB(t)
	repo := NewConversationRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	bob := seedUser(t, g, "bob@example.com")

	_, err := repo.CreateConversation([]uint{alice.ID, bob.ID})
	require.NoError(t, err)

	views, err := repo.ListConversationsForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].LatestMessage)
	assert.Equal(t, int64(0), views[0].UnreadCount)
}

func TestRemoveParticipantKeepsConversationForOthers(t *testing.T) {
	g := newTestDB(t)
	repo := NewConversationRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	bob := seedUser(t, g, "bob@example.com")

	conversation, err := repo.CreateConversation([]uint{alice.ID, bob.ID})
	require.NoError(t, err)

	require.NoError(t, repo.RemoveParticipant(conversation.ID, alice.ID))

	count, err := repo.CountParticipants(conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	bobViews, err := repo.ListConversationsForUser(bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobViews, 1)

	aliceViews, err := repo.ListConversationsForUser(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, aliceViews)
}

func TestRemoveParticipantTwiceReportsNotFound(t *testing.T) {
	g := newTestDB(t)
	repo := NewConversationRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	bob := seedUser(t, g, "bob@example.com")

	conversation, err := repo.CreateConversation([]uint{alice.ID, bob.ID})
	require.NoError(t, err)

	require.NoError(t, repo.RemoveParticipant(conversation.ID, alice.ID))
	err = repo.RemoveParticipant(conversation.ID, alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	g := newTestDB(t)
	conversationRepo := NewConversationRepo(g)
	messageRepo := NewMessageRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	bob := seedUser(t, g, "bob@example.com")

	conversation, err := conversationRepo.CreateConversation([]uint{alice.ID, bob.ID})
	require.NoError(t, err)
	require.NoError(t, messageRepo.SaveMessage(&models.Message{ConversationID: conversation.ID, SenderID: bob.ID, Content: "hi", CreatedAt: time.Now()}))

	require.NoError(t, conversationRepo.DeleteConversation(conversation.ID))

	var messageCount int64
	require.NoError(t, g.DB.Model(&models.Message{}).Where("conversation_id = ?", conversation.ID).Count(&messageCount).Error)
	assert.Equal(t, int64(0), messageCount)

	_, err = conversationRepo.FindConversationByID(conversation.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMarkConversationReadIsIdempotent(t *testing.T) {
	g := newTestDB(t)
	conversationRepo := NewConversationRepo(g)
	messageRepo := NewMessageRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	bob := seedUser(t, g, "bob@example.com")

	conversation, err := conversationRepo.CreateConversation([]uint{alice.ID, bob.ID})
	require.NoError(t, err)
	require.NoError(t, messageRepo.SaveMessage(&models.Message{ConversationID: conversation.ID, SenderID: bob.ID, Content: "hi", CreatedAt: time.Now()}))
	require.NoError(t, messageRepo.SaveMessage(&models.Message{ConversationID: conversation.ID, SenderID: alice.ID, Content: "hello", CreatedAt: time.Now()}))

	require.NoError(t, messageRepo.MarkConversationRead(conversation.ID, alice.ID))
	unread, err := messageRepo.UnreadCount(conversation.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// second call has no further effect
	require.NoError(t, messageRepo.MarkConversationRead(conversation.ID, alice.ID))
	unread, err = messageRepo.UnreadCount(conversation.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// alice's own message stays unread from bob's perspective until he reads it
	unread, err = messageRepo.UnreadCount(conversation.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestListMessagesAscending(t *testing.T) {
	g := newTestDB(t)
	conversationRepo := NewConversationRepo(g)
	messageRepo := NewMessageRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	bob := seedUser(t, g, "bob@example.com")

	conversation, err := conversationRepo.CreateConversation([]uint{alice.ID, bob.ID})
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"one", "two", "three"} {
		require.NoError(t, messageRepo.SaveMessage(&models.Message{
			ConversationID: conversation.ID,
			SenderID:       bob.ID,
			Content:        content,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := messageRepo.ListMessages(conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "three", messages[2].Content)
	assert.Equal(t, bob.ID, messages[0].Sender.ID)
}

func TestSearchActiveUsers(t *testing.T) {
	g := newTestDB(t)
	repo := NewAuthRepo(g)
	alice := seedUser(t, g, "alice@example.com")
	seedUser(t, g, "bob@example.com")
	inactive := seedUser(t, g, "carol@example.com")
	require.NoError(t, g.DB.Model(inactive).Update("active", false).Error)

	results, err := repo.SearchActiveUsers("EXAMPLE", alice.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bob@example.com", results[0].Email)
}

func TestIsTokenInBlacklist(t *testing.T) {
	g := newTestDB(t)
	repo := NewAuthRepo(g)

	assert.False(t, repo.IsTokenInBlacklist("some-token"))
	require.NoError(t, repo.AddToBlackList(&models.Blacklist{Token: "some-token"}))
	assert.True(t, repo.IsTokenInBlacklist("some-token"))
}
