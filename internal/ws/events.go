package ws

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/sl"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

const (
	clientJoinConversation  = "join_conversation"
	clientLeaveConversation = "leave_conversation"
	clientTyping            = "typing"
	clientMessageRead       = "message_read"
)

// clientEvent is an incoming socket message.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type conversationData struct {
	ConversationID string `json:"conversation_id"`
}

type typingData struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type messageReadData struct {
	ConversationID string `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
}

// HandleClientMessage parses and dispatches an incoming message from a client.
func (h *Hub) HandleClientMessage(c *Client, raw []byte) {
	log := h.log.With(slog.String("user_id", c.userID))

	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Debug("failed to parse client ws message", sl.Err(err))
		h.sendError(c, "invalid_argument", "malformed event")
		return
	}

	switch event.Type {
	case clientJoinConversation:
		var data conversationData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			h.sendError(c, "invalid_argument", "conversation_id is required")
			return
		}
		h.joinConversation(c, data.ConversationID)

	case clientLeaveConversation:
		var data conversationData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		h.Leave(c, ConversationRoom(data.ConversationID))

	case clientTyping:
		var data typingData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		room := ConversationRoom(data.ConversationID)
		if !h.inRoom(c, room) {
			return
		}
		h.publish(&roomEvent{
			room: room,
			event: &Event{Type: entity.EventUserTyping, Data: entity.TypingEvent{
				ConversationID: data.ConversationID,
				UserID:         c.userID,
				IsTyping:       data.IsTyping,
			}},
			exclude: c,
			relay:   true,
		})

	case clientMessageRead:
		var data messageReadData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" || data.MessageID <= 0 {
			h.sendError(c, "invalid_argument", "conversation_id and message_id are required")
			return
		}
		if h.handler == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := h.handler.HandleMessageRead(ctx, c.userID, data.ConversationID, data.MessageID); err != nil {
			log.With(
				slog.String("conversation_id", data.ConversationID),
				slog.Int64("message_id", data.MessageID),
			).Debug("message read rejected", sl.Err(err))
			h.sendError(c, errorKind(err), "message_read failed")
		}

	default:
		log.Debug("unknown client event", slog.String("type", event.Type))
	}
}

func (h *Hub) joinConversation(c *Client, conversationID string) {
	if h.handler == nil {
		h.sendError(c, "access_denied", "conversation access cannot be verified")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := h.handler.CanJoinConversation(ctx, c.userID, conversationID); err != nil {
		h.log.With(
			slog.String("user_id", c.userID),
			slog.String("conversation_id", conversationID),
		).Debug("join rejected", sl.Err(err))
		h.sendError(c, errorKind(err), "cannot join conversation")
		return
	}
	h.Join(c, ConversationRoom(conversationID))
}

func (h *Hub) inRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.rooms[room]
}

func (h *Hub) refreshPresence(c *Client) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := h.presence.Refresh(ctx, c.userID); err != nil {
		h.log.Debug("presence refresh", sl.Err(err))
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, entity.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, entity.ErrNotFound):
		return "not_found"
	case errors.Is(err, entity.ErrInvalidArgument):
		return "invalid_argument"
	}
	return "internal"
}
