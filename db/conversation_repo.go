package db

import (
	"log"

	"github.com/duochat/duochat/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	CreateConversation(participantIDs []uint) (*models.Conversation, error)
	FindConversationByID(conversationID uuid.UUID) (*models.Conversation, error)
	ListConversationsForUser(userID uint) ([]models.ConversationView, error)
	RemoveParticipant(conversationID uuid.UUID, userID uint) error
	CountParticipants(conversationID uuid.UUID) (int64, error)
	DeleteConversation(conversationID uuid.UUID) error
}

type conversationRepo struct {
	DB *gorm.DB
}

func NewConversationRepo(db *GormDB) ConversationRepository {
	return &conversationRepo{db.DB}
}

// CreateConversation creates the conversation and one participant row per
// user id in a single transaction, so a half-created participant set never
// persists.
func (r *conversationRepo) CreateConversation(participantIDs []uint) (*models.Conversation, error) {
	conversation := &models.Conversation{ID: uuid.New()}

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conversation).Error; err != nil {
			return err
		}
		for _, userID := range participantIDs {
			participant := models.ConversationParticipant{
				ConversationID: conversation.ID,
				UserID:         userID,
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("CreateConversation error: %v", err)
		return nil, errors.Wrap(err, "could not create conversation")
	}

	return r.FindConversationByID(conversation.ID)
}

func (r *conversationRepo) FindConversationByID(conversationID uuid.UUID) (*models.Conversation, error) {
	conversation := &models.Conversation{}
	err := r.DB.Preload("Participants.User").Where("id = ?", conversationID).First(conversation).Error
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListConversationsForUser returns every conversation the user participates
// in, most recently active first. Each entry carries the latest message and
// the user's unread count, both recomputed fresh on every call.
func (r *conversationRepo) ListConversationsForUser(userID uint) ([]models.ConversationView, error) {
	var conversations []models.Conversation
	err := r.DB.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Preload("Participants.User").
		Find(&conversations).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list conversations")
	}

	views := make([]models.ConversationView, 0, len(conversations))
	for _, conversation := range conversations {
		view := models.ConversationView{Conversation: conversation}

		latest := &models.Message{}
		err := r.DB.
			Where("conversation_id = ?", conversation.ID).
			Order("created_at DESC").
			Preload("Sender").
			First(latest).Error
		switch {
		case err == nil:
			view.LatestMessage = latest
		case errors.Is(err, gorm.ErrRecordNotFound):
			// conversation has no messages yet
		default:
			return nil, errors.Wrap(err, "could not load latest message")
		}

		var unread int64
		err = r.DB.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversation.ID, userID, false).
			Count(&unread).Error
		if err != nil {
			return nil, errors.Wrap(err, "could not count unread messages")
		}
		view.UnreadCount = unread

		views = append(views, view)
	}

	return views, nil
}

func (r *conversationRepo) RemoveParticipant(conversationID uuid.UUID, userID uint) error {
	result := r.DB.
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&models.ConversationParticipant{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not remove participant")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *conversationRepo) CountParticipants(conversationID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

// DeleteConversation removes the conversation together with its messages and
// any remaining participant rows. Deletes run in one transaction and do not
// rely on database-level cascades.
func (r *conversationRepo) DeleteConversation(conversationID uuid.UUID) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&models.ConversationParticipant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", conversationID).Delete(&models.Conversation{}).Error
	})
}
