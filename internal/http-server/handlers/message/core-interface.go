package message

import (
	"CaseLink/entity"
	"CaseLink/impl/core"
	"context"
)

type Core interface {
	SendMessage(ctx context.Context, req core.SendMessageRequest) (*entity.Message, error)
	GetMessages(ctx context.Context, conversationID, userID string, beforeID int64, limit int) (*core.MessagePage, error)
	MarkMessageRead(ctx context.Context, messageID int64, conversationID, userID string) (*entity.ReadReceiptEvent, error)
	DeleteMessage(ctx context.Context, messageID int64, conversationID, userID string) error
}
