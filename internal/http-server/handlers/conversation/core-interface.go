package conversation

import (
	"CaseLink/entity"
	"CaseLink/impl/core"
	"context"
)

type Core interface {
	CreateConversation(ctx context.Context, req core.CreateConversationRequest) (*entity.ConversationDetails, error)
	GetConversation(ctx context.Context, conversationID, userID string) (*entity.ConversationDetails, error)
	GetConversationsForCase(ctx context.Context, caseID, userID string) ([]entity.ConversationSummary, error)
	RecentConversations(ctx context.Context, userID string, limit int) ([]entity.ConversationSummary, error)
	SearchConversations(ctx context.Context, userID, query string) ([]entity.ConversationSummary, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	SetStatus(ctx context.Context, conversationID, userID string, status entity.ConversationStatus) (*entity.Conversation, error)
	SetPriority(ctx context.Context, conversationID, userID string, priority entity.Priority) (*entity.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, userID, actingUserID string) (bool, error)
	ListParticipants(ctx context.Context, conversationID, userID string) ([]entity.ParticipantInfo, error)
	Statistics(ctx context.Context, actor *entity.UserAuth) (*entity.ConversationStats, error)
	AllConversations(ctx context.Context, actor *entity.UserAuth, page, limit int) (*entity.AdminConversationPage, error)
	ExportConversation(ctx context.Context, conversationID string, actor *entity.UserAuth) (*entity.ConversationExport, error)
}
