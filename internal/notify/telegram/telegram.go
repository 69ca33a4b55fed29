// Package telegram posts desk alerts to a Telegram chat through a bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/zulandar/supportdesk/internal/notify"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// botAPI abstracts the Bot API methods we use, enabling test mocks.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier implements notify.Notifier for Telegram.
type Notifier struct {
	bot    botAPI
	chatID int64
}

// Opts holds parameters for creating a Telegram Notifier.
type Opts struct {
	BotToken string
	ChatID   string // numeric chat id, negative for groups
	// For testing: inject a mock bot instead of the real Bot API.
	Bot botAPI
}

// New creates a Telegram Notifier. Without an injected bot it verifies the
// token with getMe.
func New(opts Opts) (*Notifier, error) {
	if opts.Bot == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	chatID, err := strconv.ParseInt(opts.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: chat id %q: %w", opts.ChatID, err)
	}
	bot := opts.Bot
	if bot == nil {
		api, err := tgbotapi.NewBotAPI(opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("telegram: connect bot: %w", err)
		}
		bot = api
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Notify sends evt as an HTML message.
func (n *Notifier) Notify(ctx context.Context, evt notify.Event) error {
	msg := tgbotapi.NewMessage(n.chatID, render(notify.Format(evt)))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	err := retryOnRateLimit(ctx, func() error {
		_, sendErr := n.bot.Send(msg)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// render lays out a formatted event as Telegram HTML.
func render(f notify.Formatted) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(f.Title))
	if f.Body != "" {
		fmt.Fprintf(&b, "\n%s", html.EscapeString(f.Body))
	}
	for _, fld := range f.Fields {
		fmt.Fprintf(&b, "\n<i>%s:</i> %s", html.EscapeString(fld.Name), html.EscapeString(fld.Value))
	}
	return b.String()
}

// retryOnRateLimit calls fn and retries on Telegram 429 answers, waiting the
// retry_after the API asks for.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var apiErr *tgbotapi.Error
		if !errors.As(err, &apiErr) || apiErr.Code != 429 {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(apiErr.RetryAfter) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}
