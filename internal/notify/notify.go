// Package notify posts staff alerts about chat lifecycle events to chat
// platforms such as Slack and Discord.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/zulandar/supportdesk/internal/models"
)

// Kind names a chat lifecycle event.
type Kind string

const (
	ChatCreated Kind = "chat_created"
	ChatClosed  Kind = "chat_closed"
)

// Event is one chat lifecycle change worth telling staff about.
type Event struct {
	Kind       Kind
	ChatID     uint
	UserName   string
	UserEmail  string
	Message    string // first visitor message, for ChatCreated
	Status     models.ChatStatus
	Resolution models.Resolution // for ChatClosed
	Operator   string            // assigned or closing employee, if any
}

// Notifier delivers an event to one destination.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, evt Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Queue delivers events on a background goroutine so request handlers never
// wait on a chat platform. Events published while the buffer is full are
// dropped and logged.
type Queue struct {
	target Notifier
	events chan Event
	wg     sync.WaitGroup
}

// NewQueue returns a queue delivering to target with room for size pending
// events.
func NewQueue(target Notifier, size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{target: target, events: make(chan Event, size)}
}

// Publish enqueues evt without blocking.
func (q *Queue) Publish(evt Event) {
	select {
	case q.events <- evt:
	default:
		log.Printf("notify: queue full, dropping %s for chat %d", evt.Kind, evt.ChatID)
	}
}

// Start delivers queued events in a new goroutine until ctx is done.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.run(ctx)
	}()
}

func (q *Queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-q.events:
			if err := q.target.Notify(ctx, evt); err != nil {
				log.Printf("notify: %s for chat %d: %v", evt.Kind, evt.ChatID, err)
			}
		}
	}
}

// Wait blocks until the goroutines begun by Start have returned.
func (q *Queue) Wait() { q.wg.Wait() }

// Color constants for event severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
)

// Field is a key-value pair displayed in an alert.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// Formatted is an event rendered for display, shared by all platforms.
type Formatted struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Format renders evt for posting.
func Format(evt Event) Formatted {
	switch evt.Kind {
	case ChatCreated:
		f := Formatted{
			Title: fmt.Sprintf("New chat #%d from %s", evt.ChatID, evt.UserName),
			Body:  truncate(evt.Message, 300),
			Color: ColorInfo,
		}
		if evt.UserEmail != "" {
			f.Fields = append(f.Fields, Field{Name: "Email", Value: evt.UserEmail, Short: true})
		}
		if evt.Operator != "" {
			f.Fields = append(f.Fields, Field{Name: "Assigned to", Value: evt.Operator, Short: true})
		} else {
			f.Color = ColorWarning
			f.Fields = append(f.Fields, Field{Name: "Status", Value: "waiting for an operator", Short: true})
		}
		return f
	case ChatClosed:
		f := Formatted{
			Title: fmt.Sprintf("Chat #%d closed (%s)", evt.ChatID, evt.Resolution),
			Color: ColorSuccess,
		}
		if evt.Resolution == models.ResolutionUnsolved {
			f.Color = ColorWarning
		}
		f.Fields = append(f.Fields, Field{Name: "Visitor", Value: evt.UserName, Short: true})
		if evt.Operator != "" {
			f.Fields = append(f.Fields, Field{Name: "Closed by", Value: evt.Operator, Short: true})
		}
		return f
	default:
		return Formatted{Title: fmt.Sprintf("Chat #%d: %s", evt.ChatID, evt.Kind), Color: ColorInfo}
	}
}

// Text is a plain-text fallback for f.
func (f Formatted) Text() string {
	if f.Body == "" {
		return f.Title
	}
	return f.Title + "\n" + f.Body
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
