package services

import (
	"errors"
	"log"
	"net/http"

	"github.com/duochat/duochat/config"
	"github.com/duochat/duochat/db"
	apiError "github.com/duochat/duochat/errors"
	"github.com/duochat/duochat/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationService interface
type ConversationService interface {
	StartConversation(participantIDs []uint) (*models.Conversation, *apiError.Error)
	ListConversations(userID uint) ([]models.ConversationView, *apiError.Error)
	LeaveConversation(conversationID uuid.UUID, userID uint) *apiError.Error
}

type conversationService struct {
	Config           *config.Config
	conversationRepo db.ConversationRepository
	authRepo         db.AuthRepository
}

func NewConversationService(conversationRepo db.ConversationRepository, authRepo db.AuthRepository, conf *config.Config) ConversationService {
	return &conversationService{
		Config:           conf,
		conversationRepo: conversationRepo,
		authRepo:         authRepo,
	}
}

// StartConversation creates a conversation for the given participant set.
// At least two distinct user ids are required, and every id must resolve to
// an existing user.
func (s *conversationService) StartConversation(participantIDs []uint) (*models.Conversation, *apiError.Error) {
	distinct := make([]uint, 0, len(participantIDs))
	seen := make(map[uint]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if id == 0 {
			return nil, apiError.New("participant id is required", http.StatusBadRequest)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	if len(distinct) < 2 {
		return nil, apiError.New("a conversation needs at least two participants", http.StatusBadRequest)
	}

	for _, id := range distinct {
		if _, err := s.authRepo.FindUserByID(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apiError.New("participant not found", http.StatusNotFound)
			}
			log.Printf("StartConversation error looking up user %d: %v", id, err)
			return nil, apiError.ErrInternalServerError
		}
	}

	conversation, err := s.conversationRepo.CreateConversation(distinct)
	if err != nil {
		log.Printf("StartConversation error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return conversation, nil
}

func (s *conversationService) ListConversations(userID uint) ([]models.ConversationView, *apiError.Error) {
	if userID == 0 {
		return nil, apiError.ErrMissingParameter
	}

	views, err := s.conversationRepo.ListConversationsForUser(userID)
	if err != nil {
		log.Printf("ListConversations error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return views, nil
}

// LeaveConversation removes only the caller's participant row. When that row
// was the last one, the conversation itself and its messages are removed, so
// an empty conversation never persists.
func (s *conversationService) LeaveConversation(conversationID uuid.UUID, userID uint) *apiError.Error {
	if conversationID == uuid.Nil || userID == 0 {
		return apiError.ErrMissingParameter
	}

	if err := s.conversationRepo.RemoveParticipant(conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("LeaveConversation error removing participant: %v", err)
		return apiError.ErrInternalServerError
	}

	remaining, err := s.conversationRepo.CountParticipants(conversationID)
	if err != nil {
		log.Printf("LeaveConversation error counting participants: %v", err)
		return apiError.ErrInternalServerError
	}
	if remaining == 0 {
		if err := s.conversationRepo.DeleteConversation(conversationID); err != nil {
			log.Printf("LeaveConversation error deleting conversation: %v", err)
			return apiError.ErrInternalServerError
		}
	}
	return nil
}
