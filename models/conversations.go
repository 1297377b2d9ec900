package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation groups the participants and the messages exchanged among them.
// A conversation with zero participants must never persist; the repository
// removes it together with its messages when the last participant leaves.
type Conversation struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`
	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants"`
	LastMessage  string                    `json:"last_message"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// ConversationParticipant links one user to one conversation.
type ConversationParticipant struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_user" json:"conversation_id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_conversation_user" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"user"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// ConversationView is a conversation annotated for one user's list call: the
// most recent message, if any, and how many messages are still unread for
// that user. Both are recomputed on every call.
type ConversationView struct {
	Conversation
	LatestMessage *Message `json:"latest_message,omitempty"`
	UnreadCount   int64    `json:"unread_count"`
}

type CreateConversationRequest struct {
	ParticipantIDs []uint `json:"participant_ids" binding:"required"`
}
