package core

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/sl"
	"context"
	"io"
	"log/slog"
	"time"
)

type Repository interface {
	GetCase(ctx context.Context, caseID string) (*entity.Case, error)
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	GetUsers(ctx context.Context, userIDs []string) (map[string]*entity.User, error)

	CreateConversation(ctx context.Context, conv *entity.Conversation) error
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	SetConversationStatus(ctx context.Context, id string, status entity.ConversationStatus, at time.Time) error
	SetConversationPriority(ctx context.Context, id string, priority entity.Priority, at time.Time) error
	TouchConversation(ctx context.Context, id string, at time.Time) error
	ConversationsByCase(ctx context.Context, caseID string) ([]entity.Conversation, error)
	ConversationsByUser(ctx context.Context, userID string, limit int) ([]entity.Conversation, error)
	ConversationByPhone(ctx context.Context, caseID, phone string) (*entity.Conversation, error)
	SearchConversations(ctx context.Context, userID, query string, limit int) ([]entity.Conversation, error)
	ConversationStats(ctx context.Context, since time.Time) (*entity.ConversationStats, error)
	AllConversations(ctx context.Context, skip, limit int) ([]entity.Conversation, int64, error)

	AddParticipant(ctx context.Context, p *entity.Participant) (bool, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	Participants(ctx context.Context, conversationID string) ([]entity.Participant, error)
	TouchParticipant(ctx context.Context, conversationID, userID string, at time.Time) error

	InsertMessage(ctx context.Context, msg *entity.Message) error
	GetMessage(ctx context.Context, id int64) (*entity.Message, error)
	MessageByExternalID(ctx context.Context, externalID string) (*entity.Message, error)
	MessagesBefore(ctx context.Context, conversationID string, beforeID int64, limit int) ([]entity.Message, error)
	AllMessages(ctx context.Context, conversationID string) ([]entity.Message, error)
	SoftDeleteMessage(ctx context.Context, id int64) error

	UpsertReceipts(ctx context.Context, userID string, messageIDs []int64, at time.Time) error
	ReadMessageIDs(ctx context.Context, userID string, messageIDs []int64) (map[int64]bool, error)
	UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int64, error)
	UnreadTotal(ctx context.Context, userID string) (int64, error)
	LastMessages(ctx context.Context, conversationIDs []string) (map[string]entity.LastMessage, error)

	UpsertPhoneMapping(ctx context.Context, mapping *entity.PhoneCaseMapping) error
	GetPhoneMapping(ctx context.Context, phone string) (*entity.PhoneCaseMapping, error)
	ListPhoneMappings(ctx context.Context) ([]entity.PhoneCaseMapping, error)
}

type FileStorage interface {
	UploadFile(ctx context.Context, filename string, reader io.Reader, meta entity.FileMetadata) (string, int64, error)
	DownloadFile(ctx context.Context, fileID string) (string, entity.FileMetadata, io.ReadCloser, error)
	DeleteFile(ctx context.Context, fileID string) error
}

type URLSigner interface {
	SignURL(fileID string) string
	Verify(fileID, expires, sig string) bool
}

// Gateway is the external WhatsApp messaging provider.
type Gateway interface {
	Send(ctx context.Context, to, body string) (sid string, status string, err error)
	Account(ctx context.Context) (*entity.GatewayAccount, error)
	History(ctx context.Context, address string) ([]entity.GatewayMessage, error)
}

// Publisher fans events out to sockets. Calls must not block.
type Publisher interface {
	PublishToConversation(conversationID, eventType string, data interface{})
	PublishToUser(userID, eventType string, data interface{})
}

type Presence interface {
	Online(ctx context.Context, userIDs []string) (map[string]bool, error)
}

type Core struct {
	repo      Repository
	files     FileStorage
	signer    URLSigner
	gateway   Gateway
	publisher Publisher
	presence  Presence
	now       func() time.Time
	log       *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		now: time.Now,
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetFileStorage(files FileStorage, signer URLSigner) {
	c.files = files
	c.signer = signer
}

func (c *Core) SetGateway(gateway Gateway) {
	c.gateway = gateway
}

func (c *Core) SetPublisher(publisher Publisher) {
	c.publisher = publisher
}

func (c *Core) SetPresence(presence Presence) {
	c.presence = presence
}

func (c *Core) publishToConversation(conversationID, eventType string, data interface{}) {
	if c.publisher != nil {
		c.publisher.PublishToConversation(conversationID, eventType, data)
	}
}

// notifyParticipants sends conversation_updated to the user rooms of all members.
func (c *Core) notifyParticipants(ctx context.Context, conversationID, reason string) {
	if c.publisher == nil {
		return
	}
	participants, err := c.repo.Participants(ctx, conversationID)
	if err != nil {
		c.log.With(
			slog.String("conversation_id", conversationID),
		).Warn("list participants for notification", sl.Err(err))
		return
	}
	event := entity.ConversationUpdatedEvent{ConversationID: conversationID, Reason: reason}
	for _, p := range participants {
		c.publisher.PublishToUser(p.UserID, entity.EventConversationUpdated, event)
	}
}
