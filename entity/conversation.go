package entity

import (
	"time"
)

type ConversationStatus string

const (
	StatusActive   ConversationStatus = "active"
	StatusResolved ConversationStatus = "resolved"
	StatusArchived ConversationStatus = "archived"
)

func (s ConversationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusArchived:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Conversation is a thread of messages owned by exactly one case.
// ExternalPhone is set on the canonical conversation bridged to a WhatsApp number.
type Conversation struct {
	ID            string             `json:"id" bson:"_id"`
	CaseID        string             `json:"case_id" bson:"case_id"`
	Title         string             `json:"title" bson:"title"`
	Status        ConversationStatus `json:"status" bson:"status"`
	Priority      Priority           `json:"priority" bson:"priority"`
	CreatedBy     string             `json:"created_by" bson:"created_by"`
	ExternalPhone string             `json:"external_phone,omitempty" bson:"external_phone,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
	LastMessageAt *time.Time         `json:"last_message_at" bson:"last_message_at,omitempty"`
}

// ActivityTime is the recency key used for ordering conversation lists.
func (c *Conversation) ActivityTime() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

// ConversationDetails is a conversation with its roster, as returned by create and get.
type ConversationDetails struct {
	Conversation
	CreatedByUser *UserInfo         `json:"created_by_user,omitempty"`
	Participants  []ParticipantInfo `json:"participants"`
	UnreadCount   int64             `json:"unread_count"`
}

// ConversationSummary is a list item with unread and last message info for one user.
type ConversationSummary struct {
	Conversation
	UnreadCount     int64      `json:"unread_count"`
	LastMessage     *string    `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
}

// LastMessage is the newest message preview of a conversation.
type LastMessage struct {
	ConversationID string    `bson:"_id"`
	Content        string    `bson:"content"`
	CreatedAt      time.Time `bson:"created_at"`
}

type ConversationStats struct {
	Active        int64 `json:"active_conversations"`
	Resolved      int64 `json:"resolved_conversations"`
	Archived      int64 `json:"archived_conversations"`
	MessagesToday int64 `json:"messages_today"`
}

type ConversationExport struct {
	Conversation Conversation      `json:"conversation"`
	Participants []ParticipantInfo `json:"participants"`
	Messages     []Message         `json:"messages"`
	ExportDate   time.Time         `json:"export_date"`
	ExportedBy   string            `json:"exported_by"`
}

// AdminConversation is a conversation with its creator, as listed for admins.
type AdminConversation struct {
	Conversation
	CreatedByUser *UserInfo `json:"created_by_user"`
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

type AdminConversationPage struct {
	Conversations []AdminConversation `json:"conversations"`
	Pagination    Pagination          `json:"pagination"`
}
