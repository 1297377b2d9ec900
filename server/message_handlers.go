package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/duochat/duochat/errors"
	"github.com/duochat/duochat/models"
	"github.com/duochat/duochat/server/response"
)

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		senderID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var request models.SendMessageRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		message, err := s.MessageService.SendMessage(request.ConversationID, senderID, request.Content)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "message sent successfully", http.StatusCreated, message, nil)
	}
}

func (s *Server) handleMarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		readerID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var request models.MarkReadRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if err := s.MessageService.MarkRead(request.ConversationID, readerID); err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "messages marked read", http.StatusOK, gin.H{"success": true}, nil)
	}
}

// streamFrame is one newline-delimited JSON event on the message stream.
type streamFrame struct {
	Type     string           `json:"type"`
	Messages []models.Message `json:"messages"`
}

// handleMessageStream serves the live message feed for one conversation as
// newline-delimited JSON. The first frame carries the full history in
// creation order; after that, each message published to the conversation
// arrives in its own "update" frame. The subscription is torn down as soon as
// the client disconnects.
func (s *Server) handleMessageStream() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationIDParam := c.Query("conversationId")
		if conversationIDParam == "" {
			response.JSON(c, "", errs.ErrMissingParameter.Status, nil, errs.New("conversation id is required", http.StatusBadRequest))
			return
		}
		conversationID, err := uuid.Parse(conversationIDParam)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid conversation id", http.StatusBadRequest))
			return
		}

		history, svcErr := s.MessageService.History(conversationID)
		if svcErr != nil {
			response.JSON(c, "", svcErr.Status, nil, svcErr)
			return
		}

		// Subscribe before writing the initial frame so messages sent while
		// the history is on the wire are not lost.
		sub := s.Hub.Subscribe(conversationID)
		defer sub.Close()

		c.Writer.Header().Set("Content-Type", "application/x-ndjson")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.WriteHeader(http.StatusOK)

		if !writeFrame(c, streamFrame{Type: "initial", Messages: history}) {
			return
		}

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-sub.C:
				if !ok {
					return
				}
				if !writeFrame(c, streamFrame{Type: "update", Messages: []models.Message{*message}}) {
					return
				}
			}
		}
	}
}

func writeFrame(c *gin.Context, frame streamFrame) bool {
	if frame.Messages == nil {
		frame.Messages = []models.Message{}
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("stream marshal error: %v", err)
		return false
	}
	if _, err := c.Writer.Write(append(payload, '\n')); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}
