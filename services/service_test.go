package services

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/duochat/duochat/config"
	"github.com/duochat/duochat/db"
	"github.com/duochat/duochat/models"
	"github.com/duochat/duochat/realtime"
)

func newTestStore(t *testing.T) *db.GormDB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "duochat_test.db")
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return &db.GormDB{DB: gormDB}
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", Env: "test"}
}

type recordingMailer struct {
	recipients []string
}

func (m *recordingMailer) SendWelcomeMessage(recipient string, subject string) (string, error) {
	m.recipients = append(m.recipients, recipient)
	return "queued", nil
}

func signupUser(t *testing.T, svc AuthService, email string) *models.UserResponse {
	t.Helper()
	user, err := svc.SignupUser(&models.SignupRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "sw0rdfish",
	})
	require.Nil(t, err)
	return user
}

func TestSignupAndLogin(t *testing.T) {
	store := newTestStore(t)
	mailer := &recordingMailer{}
	svc := NewAuthService(db.NewAuthRepo(store), mailer, testConfig())

	created := signupUser(t, svc, "ada@example.com")
	assert.NotZero(t, created.ID)
	assert.Equal(t, []string{"ada@example.com"}, mailer.recipients)

	login, loginErr := svc.LoginUser(&models.LoginRequest{Email: "ada@example.com", Password: "sw0rdfish"})
	require.Nil(t, loginErr)
	assert.Equal(t, created.ID, login.ID)
	assert.NotEmpty(t, login.AccessToken)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	svc := NewAuthService(db.NewAuthRepo(store), nil, testConfig())

	signupUser(t, svc, "ada@example.com")
	_, err := svc.SignupUser(&models.SignupRequest{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "ada@example.com",
		Password:  "sw0rdfish",
	})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

// A wrong password and an unknown email must be indistinguishable to the
// caller.
func TestLoginNeverRevealsWhetherEmailExists(t *testing.T) {
	store := newTestStore(t)
	svc := NewAuthService(db.NewAuthRepo(store), nil, testConfig())
	signupUser(t, svc, "ada@example.com")

	_, wrongPassword := svc.LoginUser(&models.LoginRequest{Email: "ada@example.com", Password: "nope"})
	require.NotNil(t, wrongPassword)

	_, unknownEmail := svc.LoginUser(&models.LoginRequest{Email: "ghost@example.com", Password: "nope"})
	require.NotNil(t, unknownEmail)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Status)
	assert.Equal(t, wrongPassword.Status, unknownEmail.Status)
	assert.Equal(t, wrongPassword.Message, unknownEmail.Message)
}

func TestEditUserProfileStampsLastSeen(t *testing.T) {
	store := newTestStore(t)
	svc := NewAuthService(db.NewAuthRepo(store), nil, testConfig())
	created := signupUser(t, svc, "ada@example.com")

	profile, err := svc.EditUserProfile(created.ID, &models.UpdateProfileRequest{
		Status:     "  out for lunch ",
		ProfilePic: "https://cdn.example.com/ada.jpg",
	})
	require.Nil(t, err)
	assert.Equal(t, "out for lunch", profile.Status)
	assert.Equal(t, "https://cdn.example.com/ada.jpg", profile.ProfilePic)
	assert.False(t, profile.LastSeen.IsZero())
}

func TestStartConversationRequiresTwoParticipants(t *testing.T) {
	store := newTestStore(t)
	authRepo := db.NewAuthRepo(store)
	svc := NewConversationService(db.NewConversationRepo(store), authRepo, testConfig())
	authSvc := NewAuthService(authRepo, nil, testConfig())
	ada := signupUser(t, authSvc, "ada@example.com")

	_, err := svc.StartConversation([]uint{ada.ID})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)

	// duplicates collapse to one participant
	_, err = svc.StartConversation([]uint{ada.ID, ada.ID})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestStartConversationUnknownParticipant(t *testing.T) {
	store := newTestStore(t)
	authRepo := db.NewAuthRepo(store)
	svc := NewConversationService(db.NewConversationRepo(store), authRepo, testConfig())
	authSvc := NewAuthService(authRepo, nil, testConfig())
	ada := signupUser(t, authSvc, "ada@example.com")

	_, err := svc.StartConversation([]uint{ada.ID, 9999})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.Status)
}

func TestLeaveConversationDeletesWhenLastParticipantLeaves(t *testing.T) {
	store := newTestStore(t)
	authRepo := db.NewAuthRepo(store)
	conversationRepo := db.NewConversationRepo(store)
	svc := NewConversationService(conversationRepo, authRepo, testConfig())
	authSvc := NewAuthService(authRepo, nil, testConfig())
	ada := signupUser(t, authSvc, "ada@example.com")
	bob := signupUser(t, authSvc, "bob@example.com")

	conversation, err := svc.StartConversation([]uint{ada.ID, bob.ID})
	require.Nil(t, err)

	require.Nil(t, svc.LeaveConversation(conversation.ID, ada.ID))
	views, listErr := svc.ListConversations(bob.ID)
	require.Nil(t, listErr)
	assert.Len(t, views, 1)

	require.Nil(t, svc.LeaveConversation(conversation.ID, bob.ID))
	views, listErr = svc.ListConversations(bob.ID)
	require.Nil(t, listErr)
	assert.Empty(t, views)

	_, findErr := conversationRepo.FindConversationByID(conversation.ID)
	assert.ErrorIs(t, findErr, gorm.ErrRecordNotFound)
}

func TestLeaveConversationMissingParameters(t *testing.T) {
	store := newTestStore(t)
	svc := NewConversationService(db.NewConversationRepo(store), db.NewAuthRepo(store), testConfig())

	err := svc.LeaveConversation(uuid.Nil, 1)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)

	err = svc.LeaveConversation(uuid.New(), 0)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestSendMessagePublishesToHub(t *testing.T) {
	store := newTestStore(t)
	authRepo := db.NewAuthRepo(store)
	conversationRepo := db.NewConversationRepo(store)
	hub := realtime.NewHub()
	messageSvc := NewMessageService(db.NewMessageRepo(store), conversationRepo, hub, testConfig())
	conversationSvc := NewConversationService(conversationRepo, authRepo, testConfig())
	authSvc := NewAuthService(authRepo, nil, testConfig())
	ada := signupUser(t, authSvc, "ada@example.com")
	bob := signupUser(t, authSvc, "bob@example.com")

	conversation, err := conversationSvc.StartConversation([]uint{ada.ID, bob.ID})
	require.Nil(t, err)

	sub := hub.Subscribe(conversation.ID)
	defer sub.Close()

	sent, sendErr := messageSvc.SendMessage(conversation.ID, bob.ID, "hi")
	require.Nil(t, sendErr)
	assert.False(t, sent.IsRead)
	assert.Equal(t, bob.ID, sent.Sender.ID)

	streamed := <-sub.C
	assert.Equal(t, sent.ID, streamed.ID)
	assert.Equal(t, "hi", streamed.Content)

	// the conversation preview follows the newest message
	views, listErr := conversationSvc.ListConversations(ada.ID)
	require.Nil(t, listErr)
	require.Len(t, views, 1)
	assert.Equal(t, "hi", views[0].LastMessage)
	assert.Equal(t, int64(1), views[0].UnreadCount)
}

func TestSendMessageValidation(t *testing.T) {
	store := newTestStore(t)
	hub := realtime.NewHub()
	svc := NewMessageService(db.NewMessageRepo(store), db.NewConversationRepo(store), hub, testConfig())

	_, err := svc.SendMessage(uuid.Nil, 1, "hi")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)

	_, err = svc.SendMessage(uuid.New(), 1, "   ")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)

	_, err = svc.SendMessage(uuid.New(), 1, "hi")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.Status)
}

func TestMarkReadScenario(t *testing.T) {
	store := newTestStore(t)
	authRepo := db.NewAuthRepo(store)
	conversationRepo := db.NewConversationRepo(store)
	hub := realtime.NewHub()
	messageSvc := NewMessageService(db.NewMessageRepo(store), conversationRepo, hub, testConfig())
	conversationSvc := NewConversationService(conversationRepo, authRepo, testConfig())
	authSvc := NewAuthService(authRepo, nil, testConfig())
	ada := signupUser(t, authSvc, "ada@example.com")
	bob := signupUser(t, authSvc, "bob@example.com")

	conversation, err := conversationSvc.StartConversation([]uint{ada.ID, bob.ID})
	require.Nil(t, err)

	_, sendErr := messageSvc.SendMessage(conversation.ID, bob.ID, "hi")
	require.Nil(t, sendErr)

	views, listErr := conversationSvc.ListConversations(ada.ID)
	require.Nil(t, listErr)
	require.Len(t, views, 1)
	require.Equal(t, int64(1), views[0].UnreadCount)

	require.Nil(t, messageSvc.MarkRead(conversation.ID, ada.ID))
	views, listErr = conversationSvc.ListConversations(ada.ID)
	require.Nil(t, listErr)
	assert.Equal(t, int64(0), views[0].UnreadCount)

	// idempotent
	require.Nil(t, messageSvc.MarkRead(conversation.ID, ada.ID))
	views, listErr = conversationSvc.ListConversations(ada.ID)
	require.Nil(t, listErr)
	assert.Equal(t, int64(0), views[0].UnreadCount)
}
