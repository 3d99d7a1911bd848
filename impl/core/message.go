package core

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type SendMessageRequest struct {
	ConversationID string
	SenderID       string
	Content        string
	Type           entity.MessageType
	Attachment     *entity.Upload
}

type MessagePage struct {
	Messages []entity.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

// appendMessage stores the message and advances the conversation activity,
// then publishes new_message. Callers check access.
func (c *Core) appendMessage(ctx context.Context, conversationID string, msg *entity.Message) (*entity.Message, error) {
	now := c.now()
	msg.ConversationID = conversationID
	msg.CreatedAt = now

	if err := c.repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := c.repo.TouchConversation(ctx, conversationID, now); err != nil {
		return nil, err
	}

	if err := c.attachSender(ctx, msg); err != nil {
		c.log.With(
			slog.Int64("message_id", msg.ID),
		).Warn("sender lookup", sl.Err(err))
	}

	c.publishToConversation(conversationID, entity.EventNewMessage, entity.NewMessageEvent{
		ConversationID: conversationID,
		Message:        msg,
	})
	c.notifyParticipants(ctx, conversationID, reasonMessage)
	return msg, nil
}

func (c *Core) systemMessage(ctx context.Context, conversationID, actorID, content string) (*entity.Message, error) {
	return c.appendMessage(ctx, conversationID, &entity.Message{
		SenderID: actorID,
		Content:  content,
		Type:     entity.MessageSystem,
	})
}

func (c *Core) SendMessage(ctx context.Context, req SendMessageRequest) (*entity.Message, error) {
	if err := c.checkParticipant(ctx, req.ConversationID, req.SenderID); err != nil {
		return nil, err
	}

	msg := &entity.Message{
		SenderID: req.SenderID,
		Content:  req.Content,
		Type:     req.Type,
	}
	if msg.Type == "" {
		msg.Type = entity.MessageText
	}

	if req.Attachment != nil {
		stored, err := c.StoreAttachment(ctx, req.ConversationID, req.SenderID, req.Attachment)
		if err != nil {
			return nil, err
		}
		msg.FileID = &stored.FileID
		msg.FileName = &stored.Filename
		msg.FileSize = &stored.Size
		msg.FileType = &stored.MIMEType
		if strings.TrimSpace(msg.Content) == "" {
			msg.Type = entity.MessageFile
		}
	}

	if !msg.Type.Valid() {
		return nil, entity.Invalid("message type %q", msg.Type)
	}
	if strings.TrimSpace(msg.Content) == "" && msg.FileID == nil {
		return nil, entity.Invalid("content or attachment is required")
	}

	return c.appendMessage(ctx, req.ConversationID, msg)
}

// GetMessages returns a page of messages older than beforeID in ascending id order
// and marks the returned messages of other senders as read.
func (c *Core) GetMessages(ctx context.Context, conversationID, userID string, beforeID int64, limit int) (*MessagePage, error) {
	if err := c.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	messages, err := c.repo.MessagesBefore(ctx, conversationID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)

	ids := make([]int64, 0, len(messages))
	unseen := make([]int64, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
		if m.SenderID != userID {
			unseen = append(unseen, m.ID)
		}
	}

	read, err := c.repo.ReadMessageIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].IsReadByMe = read[messages[i].ID]
	}

	if len(messages) > 0 {
		now := c.now()
		if err = c.repo.UpsertReceipts(ctx, userID, unseen, now); err != nil {
			return nil, err
		}
		if err = c.repo.TouchParticipant(ctx, conversationID, userID, now); err != nil {
			return nil, err
		}
	}

	if err = c.attachSenders(ctx, messages); err != nil {
		return nil, err
	}

	return &MessagePage{
		Messages: messages,
		HasMore:  len(messages) == limit,
	}, nil
}

func (c *Core) MarkMessageRead(ctx context.Context, messageID int64, conversationID, userID string) (*entity.ReadReceiptEvent, error) {
	if err := c.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	msg, err := c.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ConversationID != conversationID {
		return nil, entity.NotFound(fmt.Sprintf("message %d", messageID))
	}

	now := c.now()
	if err = c.repo.UpsertReceipts(ctx, userID, []int64{messageID}, now); err != nil {
		return nil, err
	}
	if err = c.repo.TouchParticipant(ctx, conversationID, userID, now); err != nil {
		return nil, err
	}

	event := &entity.ReadReceiptEvent{
		ConversationID: conversationID,
		MessageID:      messageID,
		UserID:         userID,
		ReadAt:         now,
	}
	c.publishToConversation(conversationID, entity.EventMessageReadReceipt, event)
	return event, nil
}

// HandleMessageRead serves message_read events from sockets.
func (c *Core) HandleMessageRead(ctx context.Context, userID, conversationID string, messageID int64) error {
	_, err := c.MarkMessageRead(ctx, messageID, conversationID, userID)
	return err
}

// DeleteMessage soft-deletes a message; only its sender may do so.
func (c *Core) DeleteMessage(ctx context.Context, messageID int64, conversationID, userID string) error {
	if err := c.checkParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	msg, err := c.repo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ConversationID != conversationID {
		return entity.NotFound(fmt.Sprintf("message %d", messageID))
	}
	if msg.SenderID != userID {
		return fmt.Errorf("delete message %d: %w", messageID, entity.ErrForbidden)
	}

	if err = c.repo.SoftDeleteMessage(ctx, messageID); err != nil {
		return err
	}

	c.publishToConversation(conversationID, entity.EventMessageDeleted, entity.MessageDeletedEvent{
		ConversationID: conversationID,
		MessageID:      messageID,
	})
	return nil
}

func (c *Core) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return c.repo.UnreadTotal(ctx, userID)
}

// signFileURL issues a fresh download link for a stored attachment.
// Links of external media are kept as received.
func (c *Core) signFileURL(msg *entity.Message) {
	if msg.FileID == nil || c.signer == nil {
		return
	}
	u := c.signer.SignURL(*msg.FileID)
	msg.FileURL = &u
}

func (c *Core) attachSender(ctx context.Context, msg *entity.Message) error {
	c.signFileURL(msg)
	if msg.IsExternal() {
		msg.Sender = externalSender(msg)
		return nil
	}
	u, err := c.repo.GetUser(ctx, msg.SenderID)
	if err != nil {
		return err
	}
	msg.Sender = u.Info()
	return nil
}

func (c *Core) attachSenders(ctx context.Context, messages []entity.Message) error {
	ids := make([]string, 0)
	for _, m := range messages {
		if !m.IsExternal() && !slices.Contains(ids, m.SenderID) {
			ids = append(ids, m.SenderID)
		}
	}
	users, err := c.repo.GetUsers(ctx, ids)
	if err != nil {
		return err
	}
	for i := range messages {
		c.signFileURL(&messages[i])
		if messages[i].IsExternal() {
			messages[i].Sender = externalSender(&messages[i])
			continue
		}
		if u, ok := users[messages[i].SenderID]; ok {
			messages[i].Sender = u.Info()
		}
	}
	return nil
}

func externalSender(msg *entity.Message) *entity.UserInfo {
	name := msg.SenderName
	if name == "" {
		name = "Client"
	}
	return &entity.UserInfo{ID: msg.SenderID, Name: name, Role: "client"}
}
