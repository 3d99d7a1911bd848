package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Alerter delivers a plain text message to the operators.
type Alerter interface {
	SendMessage(msg string)
}

// TelegramHandler forwards records at or above level to an Alerter and passes
// every record to the wrapped handler.
type TelegramHandler struct {
	next  slog.Handler
	bot   Alerter
	level slog.Level
	attrs []slog.Attr
}

func SetupTelegramHandler(log *slog.Logger, bot Alerter, level slog.Level) *slog.Logger {
	return slog.New(&TelegramHandler{
		next:  log.Handler(),
		bot:   bot,
		level: level,
	})
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level && h.bot != nil {
		// sending is a network call, never hold the logging goroutine
		go h.bot.SendMessage(h.format(r))
	}
	return h.next.Handle(ctx, r)
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TelegramHandler{
		next:  h.next.WithAttrs(attrs),
		bot:   h.bot,
		level: h.level,
		attrs: merged,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	return &TelegramHandler{
		next:  h.next.WithGroup(name),
		bot:   h.bot,
		level: h.level,
		attrs: h.attrs,
	}
}

func (h *TelegramHandler) format(r slog.Record) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: %s", r.Level.String(), r.Message))
	for _, a := range h.attrs {
		b.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
		return true
	})
	return b.String()
}
