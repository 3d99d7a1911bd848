package entity

import (
	"strings"
	"time"
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageFile, MessageSystem:
		return true
	}
	return false
}

const (
	DeletedPlaceholder   = "[Message deleted]"
	ExternalSenderPrefix = "whatsapp:"
)

// ExternalSender returns the sender handle used for messages ingested from WhatsApp.
func ExternalSender(phone string) string {
	return ExternalSenderPrefix + phone
}

// Message ids come from a store-wide counter; ordering within a conversation is by id only.
type Message struct {
	ID             int64       `json:"id" bson:"_id"`
	ConversationID string      `json:"conversation_id" bson:"conversation_id"`
	SenderID       string      `json:"sender_id" bson:"sender_id"`
	SenderName     string      `json:"sender_name,omitempty" bson:"sender_name,omitempty"`
	Content        string      `json:"content" bson:"content"`
	Type           MessageType `json:"message_type" bson:"message_type"`
	FileID         *string     `json:"-" bson:"file_id,omitempty"`
	FileURL        *string     `json:"file_url" bson:"file_url,omitempty"`
	FileName       *string     `json:"file_name" bson:"file_name,omitempty"`
	FileSize       *int64      `json:"file_size" bson:"file_size,omitempty"`
	FileType       *string     `json:"file_type" bson:"file_type,omitempty"`
	ExternalID     *string     `json:"external_id,omitempty" bson:"external_id,omitempty"`
	IsDeleted      bool        `json:"is_deleted" bson:"is_deleted"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`

	Sender     *UserInfo `json:"sender,omitempty" bson:"-"`
	IsReadByMe bool      `json:"is_read_by_me" bson:"-"`
}

func (m *Message) IsExternal() bool {
	return strings.HasPrefix(m.SenderID, ExternalSenderPrefix)
}

// SoftDelete replaces the content with the placeholder and clears file fields.
func (m *Message) SoftDelete() {
	m.Content = DeletedPlaceholder
	m.FileID = nil
	m.FileURL = nil
	m.FileName = nil
	m.FileSize = nil
	m.FileType = nil
	m.IsDeleted = true
}
