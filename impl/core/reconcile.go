package core

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/phone"
	"CaseLink/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// IngestResult tells the webhook what happened to an inbound message.
type IngestResult string

const (
	IngestStored    IngestResult = "stored"
	IngestDuplicate IngestResult = "duplicate"
	IngestUnmapped  IngestResult = "unmapped"
	IngestNoThread  IngestResult = "no_conversation"
)

func (c *Core) MapPhoneToCase(ctx context.Context, phoneRaw, caseID string) (*entity.PhoneCaseMapping, error) {
	digits := phone.Normalize(phoneRaw)
	if digits == "" {
		return nil, entity.Invalid("phone number %q", phoneRaw)
	}
	if caseID == "" {
		return nil, entity.Invalid("case id is required")
	}
	if _, err := c.repo.GetCase(ctx, caseID); err != nil {
		return nil, err
	}

	mapping := &entity.PhoneCaseMapping{
		Phone:     digits,
		CaseID:    caseID,
		UpdatedAt: c.now(),
	}
	if err := c.repo.UpsertPhoneMapping(ctx, mapping); err != nil {
		return nil, err
	}

	c.log.With(
		sl.Secret("phone", digits),
		slog.String("case_id", caseID),
	).Info("phone mapped to case")
	return mapping, nil
}

func (c *Core) ResolveCaseForPhone(ctx context.Context, phoneRaw string) (string, error) {
	digits := phone.Normalize(phoneRaw)
	if digits == "" {
		return "", entity.Invalid("phone number %q", phoneRaw)
	}
	mapping, err := c.repo.GetPhoneMapping(ctx, digits)
	if err != nil {
		return "", err
	}
	return mapping.CaseID, nil
}

func (c *Core) ListPhoneMappings(ctx context.Context) ([]entity.PhoneCaseMapping, error) {
	return c.repo.ListPhoneMappings(ctx)
}

// IngestInboundMessage appends a WhatsApp message to the conversation of the mapped case.
// Messages for unmapped numbers or cases without a conversation are dropped.
// Redelivery of the same provider message id is a no-op.
func (c *Core) IngestInboundMessage(ctx context.Context, in entity.InboundMessage) (IngestResult, error) {
	digits := phone.Normalize(in.From)
	if digits == "" {
		return "", entity.Invalid("sender %q", in.From)
	}
	log := c.log.With(
		sl.Secret("from", digits),
		slog.String("sid", in.ExternalID),
	)

	if in.ExternalID != "" {
		if _, err := c.repo.MessageByExternalID(ctx, in.ExternalID); err == nil {
			log.Debug("inbound message already ingested")
			return IngestDuplicate, nil
		} else if !errors.Is(err, entity.ErrNotFound) {
			return "", err
		}
	}

	mapping, err := c.repo.GetPhoneMapping(ctx, digits)
	if errors.Is(err, entity.ErrNotFound) {
		log.Warn("inbound message from unmapped phone dropped")
		return IngestUnmapped, nil
	}
	if err != nil {
		return "", err
	}

	conv, err := c.ExternalConversation(ctx, mapping.CaseID, digits, false)
	if errors.Is(err, entity.ErrNotFound) {
		log.With(
			slog.String("case_id", mapping.CaseID),
		).Warn("inbound message for case without conversation dropped")
		return IngestNoThread, nil
	}
	if err != nil {
		return "", err
	}

	msg := &entity.Message{
		SenderID:   entity.ExternalSender(digits),
		SenderName: strings.TrimSpace(in.ProfileName),
		Content:    in.Body,
		Type:       entity.MessageText,
	}
	if in.ExternalID != "" {
		sid := in.ExternalID
		msg.ExternalID = &sid
	}
	if in.MediaURL != "" {
		url, mime := in.MediaURL, in.MediaContentType
		name := strings.TrimSpace(in.Body)
		if name == "" {
			name = "attachment"
		}
		msg.Type = entity.MessageFile
		msg.FileURL = &url
		msg.FileName = &name
		if mime != "" {
			msg.FileType = &mime
		}
	}

	if _, err = c.appendMessage(ctx, conv.ID, msg); err != nil {
		// a concurrent delivery of the same sid won the unique index
		if errors.Is(err, entity.ErrDuplicate) {
			log.Debug("inbound message stored concurrently")
			return IngestDuplicate, nil
		}
		return "", err
	}

	log.With(
		slog.String("conversation_id", conv.ID),
		slog.Int64("message_id", msg.ID),
	).Info("inbound message ingested")
	return IngestStored, nil
}

// SendOutboundMessage sends text to a WhatsApp number on behalf of an operator.
// An unmapped number is mapped to caseID first. After delivery the text is appended
// to the case conversation; a failure there does not fail the send.
func (c *Core) SendOutboundMessage(ctx context.Context, toRaw, body, caseID, operatorID string) (*entity.OutboundResult, error) {
	digits := phone.Normalize(toRaw)
	if digits == "" {
		return nil, entity.Invalid("phone number %q", toRaw)
	}
	if strings.TrimSpace(body) == "" {
		return nil, entity.Invalid("message body is required")
	}
	if c.gateway == nil {
		return nil, &entity.GatewayError{Message: "gateway is not configured"}
	}

	result := &entity.OutboundResult{Phone: digits}

	mapping, err := c.repo.GetPhoneMapping(ctx, digits)
	switch {
	case err == nil:
		result.CaseID = mapping.CaseID
	case errors.Is(err, entity.ErrNotFound):
		if caseID == "" {
			return nil, entity.Invalid("phone %s is not mapped and no case id given", digits)
		}
		if _, err = c.MapPhoneToCase(ctx, digits, caseID); err != nil {
			return nil, err
		}
		result.CaseID = caseID
		result.AutoMapped = true
	default:
		return nil, err
	}

	sid, status, err := c.gateway.Send(ctx, phone.Address(digits), body)
	if err != nil {
		return nil, fmt.Errorf("send to gateway: %w", err)
	}
	result.ExternalID = sid
	result.Status = status

	msgID, err := c.recordOutbound(ctx, result.CaseID, digits, body, sid, operatorID)
	if err != nil {
		c.log.With(
			slog.String("sid", sid),
			slog.String("case_id", result.CaseID),
		).Error("outbound message sent but not stored", sl.Err(err))
	}
	result.MessageID = msgID
	return result, nil
}

func (c *Core) recordOutbound(ctx context.Context, caseID, digits, body, sid, operatorID string) (int64, error) {
	conv, err := c.ExternalConversation(ctx, caseID, digits, true)
	if err != nil {
		return 0, err
	}

	if operatorID != "" {
		role := ""
		if u, err := c.repo.GetUser(ctx, operatorID); err == nil {
			role = u.Role
		}
		if _, err = c.repo.AddParticipant(ctx, &entity.Participant{
			ConversationID: conv.ID,
			UserID:         operatorID,
			Role:           role,
			JoinedAt:       c.now(),
		}); err != nil {
			return 0, err
		}
	}

	msg := &entity.Message{
		SenderID: operatorID,
		Content:  body,
		Type:     entity.MessageText,
	}
	if sid != "" {
		msg.ExternalID = &sid
	}
	if _, err = c.appendMessage(ctx, conv.ID, msg); err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// MessageHistory lists the provider's recent messages exchanged with a phone number.
func (c *Core) MessageHistory(ctx context.Context, phoneRaw string) ([]entity.GatewayMessage, error) {
	digits := phone.Normalize(phoneRaw)
	if digits == "" {
		return nil, entity.Invalid("phone number %q", phoneRaw)
	}
	if c.gateway == nil {
		return nil, &entity.GatewayError{Message: "gateway is not configured"}
	}
	return c.gateway.History(ctx, phone.Address(digits))
}

// GatewayStatus checks connectivity with the provider account.
func (c *Core) GatewayStatus(ctx context.Context) (*entity.GatewayAccount, error) {
	if c.gateway == nil {
		return nil, &entity.GatewayError{Message: "gateway is not configured"}
	}
	return c.gateway.Account(ctx)
}
