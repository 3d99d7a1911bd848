package entity

import "time"

const (
	EventNewMessage          = "new_message"
	EventUserTyping          = "user_typing"
	EventMessageReadReceipt  = "message_read_receipt"
	EventMessageDeleted      = "message_deleted"
	EventConversationUpdated = "conversation_updated"
	EventError               = "error"
)

type NewMessageEvent struct {
	ConversationID string   `json:"conversation_id"`
	Message        *Message `json:"message"`
}

type TypingEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

type ReadReceiptEvent struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      int64     `json:"message_id"`
	UserID         string    `json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}

type MessageDeletedEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
}

type ConversationUpdatedEvent struct {
	ConversationID string `json:"conversation_id"`
	Reason         string `json:"reason"`
}

type ErrorEvent struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
