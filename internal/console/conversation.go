package console

import (
	"context"
	"log"
	"strings"

	"github.com/zulandar/supportdesk/internal/deskapi"
	"github.com/zulandar/supportdesk/internal/models"
	"golang.org/x/sync/errgroup"
)

// conversation is the detail held for the selected chat. gen identifies the
// selection: it increments whenever the selection changes, and every fetch
// carries the gen it was issued under.
type conversation struct {
	gen         uint64
	chat        *models.Chat
	messages    []models.Message
	history     []models.HistoryItem
	showHistory bool
	draft       string
}

// Selected returns the selected chat snapshot.
func (c *Coordinator) Selected() (models.Chat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conv.chat == nil {
		return models.Chat{}, false
	}
	return *c.conv.chat, true
}

// Messages returns the loaded thread of the selected chat, oldest first.
func (c *Coordinator) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.conv.messages...)
}

// History returns the loaded audit trail of the selected chat, oldest first.
func (c *Coordinator) History() []models.HistoryItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.HistoryItem(nil), c.conv.history...)
}

// ShowingHistory reports whether the history pane is visible instead of
// the message pane.
func (c *Coordinator) ShowingHistory() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.showHistory
}

// TogglePane flips between the message and history panes without
// re-fetching. It returns the new ShowingHistory value.
func (c *Coordinator) TogglePane() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv.showHistory = !c.conv.showHistory
	return c.conv.showHistory
}

// Draft returns the unsent reply text.
func (c *Coordinator) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.draft
}

// SetDraft replaces the unsent reply text for the selected chat.
func (c *Coordinator) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv.draft = text
}

// ClearSelection drops the selected chat, its loaded detail and the draft.
func (c *Coordinator) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv = conversation{gen: c.conv.gen + 1, showHistory: c.conv.showHistory}
}

// SelectChat makes the cached chat with chatID the selection. Previously
// loaded detail and the draft are discarded, then messages and history are
// fetched concurrently. Results that arrive after the selection has moved
// on are dropped.
func (c *Coordinator) SelectChat(ctx context.Context, chatID uint) error {
	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return ErrNotSignedIn
	}
	chat, ok := c.findChat(chatID)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownChat
	}
	c.conv = conversation{gen: c.conv.gen + 1, chat: &chat, showHistory: c.conv.showHistory}
	gen := c.conv.gen
	c.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error { return c.loadMessages(ctx, gen, chatID) })
	g.Go(func() error { return c.loadHistory(ctx, gen, chatID) })
	return g.Wait()
}

func (c *Coordinator) loadMessages(ctx context.Context, gen uint64, chatID uint) error {
	msgs, err := c.store.ListMessages(ctx, chatID)
	c.mu.Lock()
	if c.conv.gen != gen {
		c.mu.Unlock()
		log.Printf("console: discarding messages for chat %d: selection changed", chatID)
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.fail("Could not load messages")
		return &TransportError{Op: "load messages", Err: err}
	}
	c.conv.messages = msgs
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) loadHistory(ctx context.Context, gen uint64, chatID uint) error {
	items, err := c.store.ListHistory(ctx, chatID)
	c.mu.Lock()
	if c.conv.gen != gen {
		c.mu.Unlock()
		log.Printf("console: discarding history for chat %d: selection changed", chatID)
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.fail("Could not load history")
		return &TransportError{Op: "load history", Err: err}
	}
	c.conv.history = items
	c.mu.Unlock()
	return nil
}

// active returns the signed-in identity and the open selected chat with its
// gen. Callers must not hold c.mu.
func (c *Coordinator) active() (models.Employee, models.Chat, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return models.Employee{}, models.Chat{}, 0, ErrNotSignedIn
	}
	if c.conv.chat == nil {
		return models.Employee{}, models.Chat{}, 0, ErrNoSelection
	}
	if c.conv.chat.IsClosed {
		return models.Employee{}, models.Chat{}, 0, ErrChatClosed
	}
	return *c.identity, *c.conv.chat, c.conv.gen, nil
}

// SendMessage posts the draft to the selected chat as the signed-in
// operator, then reloads the thread so the stored copy is shown. A closed
// chat or a blank draft is rejected without a request and the draft is
// kept.
func (c *Coordinator) SendMessage(ctx context.Context) error {
	emp, chat, gen, err := c.active()
	if err != nil {
		return err
	}
	text := c.Draft()
	if strings.TrimSpace(text) == "" {
		return required("message")
	}

	sender := emp.ID
	err = c.store.PostMessage(ctx, deskapi.NewMessage{
		ChatID:     chat.ID,
		SenderType: models.SenderOperator,
		SenderID:   &sender,
		Message:    text,
	})
	if err != nil {
		c.fail("Could not send message")
		return &TransportError{Op: "send message", Err: err}
	}

	c.mu.Lock()
	if c.conv.gen == gen && c.conv.draft == text {
		c.conv.draft = ""
	}
	c.mu.Unlock()

	// The message is stored; a failed reload is reported as a notice only.
	c.loadMessages(ctx, gen, chat.ID)
	c.RefreshChats(ctx)
	return nil
}

// CloseChat closes the selected chat with a terminal resolution, clears the
// selection and refreshes the chat list. A closed chat is never reopened.
func (c *Coordinator) CloseChat(ctx context.Context, resolution models.Resolution) error {
	emp, chat, gen, err := c.active()
	if err != nil {
		return err
	}
	if !resolution.Valid() {
		return &ValidationError{Field: "resolution", Reason: "must be solved or unsolved"}
	}

	if err := c.store.CloseChat(ctx, chat.ID, resolution, emp.ID); err != nil {
		c.fail("Could not close chat")
		return &TransportError{Op: "close chat", Err: err}
	}

	c.mu.Lock()
	if c.closed != nil {
		c.closed[chat.ID] = resolution
	}
	for i := range c.chats {
		if c.chats[i].ID == chat.ID {
			c.chats[i].IsClosed = true
			c.chats[i].Resolution = resolution
		}
	}
	if c.conv.gen == gen {
		c.conv = conversation{gen: gen + 1, showHistory: c.conv.showHistory}
	}
	c.mu.Unlock()
	c.info("Chat closed as %s", resolution)

	c.RefreshChats(ctx)
	return nil
}
