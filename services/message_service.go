package services

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/duochat/duochat/config"
	"github.com/duochat/duochat/db"
	apiError "github.com/duochat/duochat/errors"
	"github.com/duochat/duochat/models"
	"github.com/duochat/duochat/realtime"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageService interface
type MessageService interface {
	SendMessage(conversationID uuid.UUID, senderID uint, content string) (*models.Message, *apiError.Error)
	MarkRead(conversationID uuid.UUID, readerID uint) *apiError.Error
	History(conversationID uuid.UUID) ([]models.Message, *apiError.Error)
}

type messageService struct {
	Config           *config.Config
	messageRepo      db.MessageRepository
	conversationRepo db.ConversationRepository
	hub              *realtime.Hub
}

func NewMessageService(messageRepo db.MessageRepository, conversationRepo db.ConversationRepository, hub *realtime.Hub, conf *config.Config) MessageService {
	return &messageService{
		Config:           conf,
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		hub:              hub,
	}
}

// SendMessage persists the message unread, refreshes the conversation
// preview and hands the stored row to the hub. Publishing after the insert
// means a streamed message always exists in the store.
func (s *messageService) SendMessage(conversationID uuid.UUID, senderID uint, content string) (*models.Message, *apiError.Error) {
	if conversationID == uuid.Nil || senderID == 0 {
		return nil, apiError.ErrMissingParameter
	}
	if strings.TrimSpace(content) == "" {
		return nil, apiError.New("message content is required", http.StatusBadRequest)
	}

	if _, err := s.conversationRepo.FindConversationByID(conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("SendMessage error finding conversation: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		IsRead:         false,
		CreatedAt:      time.Now(),
	}
	if err := s.messageRepo.SaveMessage(message); err != nil {
		log.Printf("SendMessage error saving message: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if err := s.messageRepo.UpdateConversationLastMessage(conversationID, message.Content, message.CreatedAt); err != nil {
		log.Printf("SendMessage error updating conversation preview: %v", err)
	}

	stored, err := s.messageRepo.FindMessageByID(message.ID)
	if err != nil {
		log.Printf("SendMessage error reloading message: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	s.hub.Publish(conversationID, stored)
	return stored, nil
}

// MarkRead flips every unread message in the conversation not authored by the
// reader. Calling it again has no further effect.
func (s *messageService) MarkRead(conversationID uuid.UUID, readerID uint) *apiError.Error {
	if conversationID == uuid.Nil || readerID == 0 {
		return apiError.ErrMissingParameter
	}
	if err := s.messageRepo.MarkConversationRead(conversationID, readerID); err != nil {
		log.Printf("MarkRead error: %v", err)
		return apiError.ErrInternalServerError
	}
	return nil
}

func (s *messageService) History(conversationID uuid.UUID) ([]models.Message, *apiError.Error) {
	if conversationID == uuid.Nil {
		return nil, apiError.ErrMissingParameter
	}
	messages, err := s.messageRepo.ListMessages(conversationID)
	if err != nil {
		log.Printf("History error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return messages, nil
}
