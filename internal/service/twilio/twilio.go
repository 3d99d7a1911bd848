package twilio

import (
	"CaseLink/entity"
	"CaseLink/internal/config"
	"CaseLink/internal/lib/sl"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	twiliogo "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const historyLimit = 100

// Service talks to the Twilio REST API for the WhatsApp channel.
type Service struct {
	accountSID string
	authToken  string
	from       string
	baseURL    *url.URL
	httpClient *http.Client
	validator  client.RequestValidator
	log        *slog.Logger
}

func NewTwilioService(conf *config.Config, logger *slog.Logger) *Service {
	s := &Service{
		accountSID: conf.Twilio.AccountSID,
		authToken:  conf.Twilio.AuthToken,
		from:       conf.Twilio.From,
		httpClient: &http.Client{Timeout: conf.Twilio.RequestTimeout},
		validator:  client.NewRequestValidator(conf.Twilio.AuthToken),
		log:        logger.With(sl.Module("twilio")),
	}
	if u, err := url.Parse(strings.TrimRight(conf.Twilio.BaseURL, "/")); err == nil && u.Host != "" {
		s.baseURL = u
	}
	return s
}

func (s *Service) Configured() bool {
	return s.accountSID != "" && s.authToken != ""
}

// rest builds an API client bound to ctx; the SDK calls have no context variants.
func (s *Service) rest(ctx context.Context) *twiliogo.RestClient {
	next := s.httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c := &client.Client{
		Credentials: client.NewCredentials(s.accountSID, s.authToken),
		HTTPClient: &http.Client{
			Timeout:   s.httpClient.Timeout,
			Transport: &boundTransport{ctx: ctx, base: s.baseURL, next: next},
		},
	}
	c.SetAccountSid(s.accountSID)
	return twiliogo.NewRestClientWithParams(twiliogo.ClientParams{Client: c})
}

// boundTransport attaches the caller context and redirects requests to the configured API host.
type boundTransport struct {
	ctx  context.Context
	base *url.URL
	next http.RoundTripper
}

func (t *boundTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if t.base != nil {
		req.URL.Scheme = t.base.Scheme
		req.URL.Host = t.base.Host
		req.Host = t.base.Host
	}
	return t.next.RoundTrip(req)
}

func (s *Service) ready(ctx context.Context) error {
	if !s.Configured() {
		return &entity.GatewayError{Status: http.StatusServiceUnavailable, Message: "gateway is not configured"}
	}
	return ctx.Err()
}

// Send delivers a text message to a WhatsApp address and returns the provider message sid.
// Every provider or transport failure is returned as *entity.GatewayError.
func (s *Service) Send(ctx context.Context, to, body string) (string, string, error) {
	if err := s.ready(ctx); err != nil {
		return "", "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.rest(ctx).Api.CreateMessage(params)
	if err != nil {
		return "", "", s.gatewayError(err)
	}
	sid, status := deref(resp.Sid), deref(resp.Status)

	s.log.With(
		sl.Secret("to", to),
		slog.String("sid", sid),
		slog.String("status", status),
	).Debug("message sent")
	return sid, status, nil
}

// Account fetches the configured account, used as a connectivity check.
func (s *Service) Account(ctx context.Context) (*entity.GatewayAccount, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	resp, err := s.rest(ctx).Api.FetchAccount(s.accountSID)
	if err != nil {
		return nil, s.gatewayError(err)
	}
	return &entity.GatewayAccount{
		SID:          deref(resp.Sid),
		FriendlyName: deref(resp.FriendlyName),
		Status:       deref(resp.Status),
		From:         s.from,
	}, nil
}

// History lists the most recent provider messages exchanged with a WhatsApp address.
func (s *Service) History(ctx context.Context, address string) ([]entity.GatewayMessage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	params := &openapi.ListMessageParams{}
	params.SetLimit(historyLimit)

	list, err := s.rest(ctx).Api.ListMessage(params)
	if err != nil {
		return nil, s.gatewayError(err)
	}

	bare := strings.TrimPrefix(address, "whatsapp:")
	messages := make([]entity.GatewayMessage, 0)
	for _, m := range list {
		from, to := deref(m.From), deref(m.To)
		if from != address && to != address && from != bare && to != bare {
			continue
		}
		direction := deref(m.Direction)
		messages = append(messages, entity.GatewayMessage{
			SID:       deref(m.Sid),
			From:      from,
			To:        to,
			Body:      deref(m.Body),
			Status:    deref(m.Status),
			Direction: direction,
			Inbound:   direction == "inbound",
			CreatedAt: deref(m.DateCreated),
		})
	}
	return messages, nil
}

func (s *Service) gatewayError(err error) error {
	gwErr := &entity.GatewayError{Status: http.StatusBadGateway, Message: err.Error(), Err: err}

	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		gwErr.Code = restErr.Code
		gwErr.Message = restErr.Message
		if restErr.Status != 0 {
			gwErr.Status = restErr.Status
		}
		s.log.With(
			slog.Int("code", gwErr.Code),
			slog.Int("status", gwErr.Status),
			slog.String("more_info", restErr.MoreInfo),
		).Warn("gateway error", sl.Err(gwErr))
		return gwErr
	}

	s.log.Warn("gateway unreachable", sl.Err(err))
	return gwErr
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
