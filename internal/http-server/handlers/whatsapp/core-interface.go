package whatsapp

import (
	"CaseLink/entity"
	"CaseLink/impl/core"
	"context"
	"net/url"
)

type Core interface {
	MapPhoneToCase(ctx context.Context, phoneRaw, caseID string) (*entity.PhoneCaseMapping, error)
	ListPhoneMappings(ctx context.Context) ([]entity.PhoneCaseMapping, error)
	SendOutboundMessage(ctx context.Context, toRaw, body, caseID, operatorID string) (*entity.OutboundResult, error)
	GatewayStatus(ctx context.Context) (*entity.GatewayAccount, error)
	MessageHistory(ctx context.Context, phoneRaw string) ([]entity.GatewayMessage, error)
	IngestInboundMessage(ctx context.Context, in entity.InboundMessage) (core.IngestResult, error)
}

// Verifier checks the provider signature of a webhook delivery.
type Verifier interface {
	ValidateSignature(callbackURL string, params url.Values, signature string) bool
}
