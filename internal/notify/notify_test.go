package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zulandar/supportdesk/internal/models"
)

// ---------------------------------------------------------------------------
// Recording notifier for tests
// ---------------------------------------------------------------------------

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Notify(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	a := &recorder{}
	b := &recorder{err: errors.New("boom")}
	err := Multi{a, b}.Notify(context.Background(), Event{Kind: ChatCreated, ChatID: 1})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want boom", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("counts = %d, %d; want 1, 1", a.count(), b.count())
	}
}

func TestMulti_Empty(t *testing.T) {
	if err := (Multi{}).Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestQueue_Delivers(t *testing.T) {
	r := &recorder{}
	q := NewQueue(r, 4)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.Publish(Event{Kind: ChatCreated, ChatID: 5})
	deadline := time.Now().Add(2 * time.Second)
	for r.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	q.Wait()
	if r.count() != 1 {
		t.Fatalf("delivered = %d, want 1", r.count())
	}
}

func TestQueue_WaitBlocksUntilStopped(t *testing.T) {
	q := NewQueue(&recorder{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	stopped := make(chan struct{})
	go func() {
		q.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Wait returned while the queue was still running")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue(&recorder{}, 1)
	q.Publish(Event{ChatID: 1})
	q.Publish(Event{ChatID: 2}) // not started: buffer full, must not block
	if len(q.events) != 1 {
		t.Errorf("queued = %d, want 1", len(q.events))
	}
}

func TestFormat_ChatCreated(t *testing.T) {
	f := Format(Event{Kind: ChatCreated, ChatID: 9, UserName: "Ann", UserEmail: "ann@x.com", Message: "help", Operator: "Bo"})
	if f.Title != "New chat #9 from Ann" {
		t.Errorf("Title = %q", f.Title)
	}
	if f.Color != ColorInfo || f.Body != "help" {
		t.Errorf("formatted = %+v", f)
	}
	if len(f.Fields) != 2 || f.Fields[1].Value != "Bo" {
		t.Errorf("Fields = %+v", f.Fields)
	}
}

func TestFormat_ChatCreatedWaiting(t *testing.T) {
	f := Format(Event{Kind: ChatCreated, ChatID: 9, UserName: "Ann", Message: strings.Repeat("x", 400)})
	if f.Color != ColorWarning {
		t.Errorf("Color = %q, want warning", f.Color)
	}
	if n := len([]rune(f.Body)); n != 300 {
		t.Errorf("body length = %d, want 300", n)
	}
}

func TestFormat_ChatClosed(t *testing.T) {
	solved := Format(Event{Kind: ChatClosed, ChatID: 3, UserName: "Ann", Resolution: models.ResolutionSolved})
	if solved.Color != ColorSuccess || solved.Title != "Chat #3 closed (solved)" {
		t.Errorf("solved = %+v", solved)
	}
	unsolved := Format(Event{Kind: ChatClosed, ChatID: 3, Resolution: models.ResolutionUnsolved, Operator: "Bo"})
	if unsolved.Color != ColorWarning || len(unsolved.Fields) != 2 {
		t.Errorf("unsolved = %+v", unsolved)
	}
	if got := unsolved.Text(); got != unsolved.Title {
		t.Errorf("Text = %q", got)
	}
}
