package notifier

import (
	"context"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"sjsage522/dealwatcher/pkg/errors"
)

// TelegramSender sends messages through the Telegram Bot API
type TelegramSender struct {
	bot    *telego.Bot
	chatID telego.ChatID
}

// NewTelegramSender creates a sender for chatID, which is either a numeric id or an @channel name
func NewTelegramSender(token, chatID string, opts ...telego.BotOption) (*TelegramSender, error) {
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, errors.NewConfiguration("invalid telegram bot token", err)
	}

	return &TelegramSender{
		bot:    bot,
		chatID: ParseChatID(chatID),
	}, nil
}

// ParseChatID turns a configured chat id into a telego chat reference
func ParseChatID(raw string) telego.ChatID {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return tu.ID(id)
	}
	if !strings.HasPrefix(raw, "@") {
		raw = "@" + raw
	}
	return tu.Username(raw)
}

// SendText sends an HTML message
func (s *TelegramSender) SendText(ctx context.Context, text string, disablePreview bool) error {
	msg := tu.Message(s.chatID, text).WithParseMode(telego.ModeHTML)
	if disablePreview {
		msg = msg.WithLinkPreviewOptions(&telego.LinkPreviewOptions{IsDisabled: true})
	}

	if _, err := s.bot.SendMessage(ctx, msg); err != nil {
		return errors.NewNotify("telegram", "send message", err)
	}
	return nil
}

// SendPhoto sends a photo by URL with an HTML caption
func (s *TelegramSender) SendPhoto(ctx context.Context, photoURL, caption string) error {
	photo := tu.Photo(s.chatID, tu.FileFromURL(photoURL)).
		WithCaption(caption).
		WithParseMode(telego.ModeHTML)

	if _, err := s.bot.SendPhoto(ctx, photo); err != nil {
		return errors.NewNotify("telegram", "send photo", err)
	}
	return nil
}
