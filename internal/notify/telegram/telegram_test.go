package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/zulandar/supportdesk/internal/models"
	"github.com/zulandar/supportdesk/internal/notify"
)

// --- Mock bot ---

type mockBot struct {
	sent    []tgbotapi.MessageConfig
	sendErr error
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m.sendErr != nil {
		return tgbotapi.Message{}, m.sendErr
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.sent = append(m.sent, msg)
	}
	return tgbotapi.Message{MessageID: len(m.sent)}, nil
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Opts{ChatID: "1"}); err == nil {
		t.Error("expected error without token")
	}
	if _, err := New(Opts{Bot: &mockBot{}, ChatID: "general"}); err == nil {
		t.Error("expected error for non-numeric chat id")
	}
}

func TestNotify_SendsHTML(t *testing.T) {
	bot := &mockBot{}
	n, err := New(Opts{Bot: bot, ChatID: "-100123"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	evt := notify.Event{Kind: notify.ChatCreated, ChatID: 3, UserName: "A<b>", Message: "help & more"}
	if err := n.Notify(context.Background(), evt); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(bot.sent))
	}
	msg := bot.sent[0]
	if msg.ChatID != -100123 || msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("message = %+v", msg)
	}
	if !strings.Contains(msg.Text, "A&lt;b&gt;") || !strings.Contains(msg.Text, "help &amp; more") {
		t.Errorf("text not escaped: %q", msg.Text)
	}
}

func TestNotify_Error(t *testing.T) {
	n, _ := New(Opts{Bot: &mockBot{sendErr: errors.New("chat not found")}, ChatID: "1"})
	if err := n.Notify(context.Background(), notify.Event{Kind: notify.ChatClosed}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRender_Fields(t *testing.T) {
	f := notify.Format(notify.Event{Kind: notify.ChatClosed, ChatID: 2, UserName: "Vic", Resolution: models.ResolutionSolved, Operator: "Ann"})
	got := render(f)
	want := "<b>Chat #2 closed (solved)</b>\n<i>Visitor:</i> Vic\n<i>Closed by:</i> Ann"
	if got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	calls := 0
	err := retryOnRateLimit(context.Background(), func() error {
		calls++
		return errors.New("forbidden")
	})
	if err == nil || calls != 1 {
		t.Errorf("err = %v, calls = %d; want error after 1 call", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retryOnRateLimit(ctx, func() error {
		return &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 30}}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
