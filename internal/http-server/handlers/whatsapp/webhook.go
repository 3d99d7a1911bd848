package whatsapp

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/sl"
	"context"
	"log/slog"
	"net/http"
	"time"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type WebhookOptions struct {
	// CallbackURL is the public URL the provider signs; when empty it is rebuilt from the request.
	CallbackURL       string
	ValidateSignature bool
	Timeout           time.Duration
}

// Webhook ingests inbound messages. Every delivery is acknowledged with empty TwiML so the
// provider does not retry; failures are only logged. A bad signature is rejected with 403.
func Webhook(log *slog.Logger, handler Core, verifier Verifier, opts WebhookOptions) http.HandlerFunc {
	logger := log.With(sl.Module("http.handlers.whatsapp.webhook"))
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			logger.Warn("invalid webhook form", sl.Err(err))
			ack(w)
			return
		}

		if opts.ValidateSignature {
			callbackURL := opts.CallbackURL
			if callbackURL == "" {
				callbackURL = requestURL(r)
			}
			if verifier == nil || !verifier.ValidateSignature(callbackURL, r.PostForm, r.Header.Get("X-Twilio-Signature")) {
				logger.Warn("webhook signature rejected", slog.String("remote_addr", r.RemoteAddr))
				w.WriteHeader(http.StatusForbidden)
				return
			}
		}

		in := entity.InboundMessage{
			From:             r.PostForm.Get("From"),
			To:               r.PostForm.Get("To"),
			Body:             r.PostForm.Get("Body"),
			ExternalID:       r.PostForm.Get("MessageSid"),
			ProfileName:      r.PostForm.Get("ProfileName"),
			MediaURL:         r.PostForm.Get("MediaUrl0"),
			MediaContentType: r.PostForm.Get("MediaContentType0"),
		}
		if in.From == "" {
			logger.Warn("webhook without sender ignored", slog.String("sid", in.ExternalID))
			ack(w)
			return
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), opts.Timeout)
		defer cancel()

		result, err := handler.IngestInboundMessage(ctx, in)
		if err != nil {
			logger.Error("inbound message not ingested", sl.Err(err), slog.String("sid", in.ExternalID))
		} else {
			logger.Debug("inbound message processed",
				slog.String("sid", in.ExternalID),
				slog.String("result", string(result)),
			)
		}
		ack(w)
	}
}

func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
