package bot

import (
	"CaseLink/internal/lib/sl"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// TgBot sends operational alerts to the admin chat.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	adminId     int64
}

func NewTgBot(botName, apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminId:     adminId,
		botUsername: botName,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) SendMessage(msg string) {
	t.plainResponse(t.adminId, msg)
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	sanitized := sanitize(text, false)
	if sanitized == "" {
		return
	}

	_, err := t.api.SendMessage(chatId, sanitized, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		// the alert handler sits on top of this logger, so failures go to stderr only
		fmt.Printf("tgbot: sending message to %d: %v\n", chatId, err)
		_, _ = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
	}
}

func sanitize(input string, preserveLinks bool) string {
	reservedChars := "\\`_{}#+-.!|()[]*~>=<"
	if preserveLinks {
		reservedChars = "\\`_{}#+-.!|"
	}

	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
