package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/duochat/duochat/errors"
	"github.com/duochat/duochat/server/response"
)

type createConversationRequest struct {
	ParticipantIDs []uint `json:"participant_ids" binding:"required"`
}

func (s *Server) handleCreateConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request createConversationRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		conversation, err := s.ConversationService.StartConversation(request.ParticipantIDs)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "conversation created successfully", http.StatusCreated, conversation, nil)
	}
}

func (s *Server) handleListConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conversations, err := s.ConversationService.ListConversations(userID)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "conversations retrieved successfully", http.StatusOK, conversations, nil)
	}
}

// handleDeleteConversation removes one participant from a conversation. Both
// ids are required query parameters; leaving as the last participant removes
// the conversation itself.
func (s *Server) handleDeleteConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationIDParam := c.Query("conversationId")
		userIDParam := c.Query("userId")
		if conversationIDParam == "" || userIDParam == "" {
			response.JSON(c, "", errs.ErrMissingParameter.Status, nil, errs.New("conversation id and user id are required", http.StatusBadRequest))
			return
		}

		conversationID, err := uuid.Parse(conversationIDParam)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid conversation id", http.StatusBadRequest))
			return
		}
		userID, err := strconv.ParseUint(userIDParam, 10, 64)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid user id", http.StatusBadRequest))
			return
		}

		if svcErr := s.ConversationService.LeaveConversation(conversationID, uint(userID)); svcErr != nil {
			response.JSON(c, "", svcErr.Status, nil, svcErr)
			return
		}
		response.JSON(c, "conversation deleted successfully", http.StatusOK, gin.H{"success": true}, nil)
	}
}
