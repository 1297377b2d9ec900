package db

import (
	"time"

	"github.com/duochat/duochat/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type MessageRepository interface {
	SaveMessage(message *models.Message) error
	FindMessageByID(messageID uuid.UUID) (*models.Message, error)
	ListMessages(conversationID uuid.UUID) ([]models.Message, error)
	MarkConversationRead(conversationID uuid.UUID, readerID uint) error
	UnreadCount(conversationID uuid.UUID, userID uint) (int64, error)
	UpdateConversationLastMessage(conversationID uuid.UUID, content string, at time.Time) error
}

type messageRepo struct {
	DB *gorm.DB
}

func NewMessageRepo(db *GormDB) MessageRepository {
	return &messageRepo{db.DB}
}

func (r *messageRepo) SaveMessage(message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if err := r.DB.Create(message).Error; err != nil {
		return errors.Wrap(err, "could not save message")
	}
	return nil
}

func (r *messageRepo) FindMessageByID(messageID uuid.UUID) (*models.Message, error) {
	message := &models.Message{}
	err := r.DB.Preload("Sender").Where("id = ?", messageID).First(message).Error
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (r *messageRepo) ListMessages(conversationID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list messages")
	}
	return messages, nil
}

// MarkConversationRead flips is_read on every message in the conversation not
// authored by the reader. Running it again once everything is read is a no-op.
func (r *messageRepo) MarkConversationRead(conversationID uuid.UUID, readerID uint) error {
	err := r.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true).Error
	if err != nil {
		return errors.Wrap(err, "could not mark messages read")
	}
	return nil
}

func (r *messageRepo) UnreadCount(conversationID uuid.UUID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, userID, false).
		Count(&count).Error
	return count, err
}

func (r *messageRepo) UpdateConversationLastMessage(conversationID uuid.UUID, content string, at time.Time) error {
	err := r.DB.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message": content,
			"updated_at":   at,
		}).Error
	if err != nil {
		return errors.Wrap(err, "could not update conversation preview")
	}
	return nil
}
