// Package console coordinates a support desk client session: who is signed
// in and which role view is showing, the cached employee and chat lists, the
// selected chat's messages and history, and the actions that mutate remote
// state. The remote store is only ever polled; every mutation is followed by
// a re-fetch of the collection it invalidates.
package console

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/zulandar/supportdesk/internal/deskapi"
	"github.com/zulandar/supportdesk/internal/models"
)

// Store is the remote request/response contract the coordinator depends on.
// *deskapi.Client implements it.
type Store interface {
	Authenticate(ctx context.Context, login, password string) (models.Employee, error)
	ListChats(ctx context.Context, operatorID uint) ([]models.Chat, error)
	CreateChat(ctx context.Context, req deskapi.NewChat) (deskapi.CreatedChat, error)
	CloseChat(ctx context.Context, chatID uint, resolution models.Resolution, employeeID uint) error
	ListMessages(ctx context.Context, chatID uint) ([]models.Message, error)
	PostMessage(ctx context.Context, req deskapi.NewMessage) error
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	CreateEmployee(ctx context.Context, req deskapi.NewEmployee) (models.Employee, error)
	UpdateEmployeeStatus(ctx context.Context, id uint, status models.EmployeeStatus) (models.Employee, error)
	ListHistory(ctx context.Context, chatID uint) ([]models.HistoryItem, error)
}

var _ Store = (*deskapi.Client)(nil)

// NoticeLevel classifies a transient notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a short message for the user about the outcome of an action.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Coordinator owns all client-side state. State changes only through its
// named actions; completion handlers of in-flight fetches are fenced so a
// stale response never overwrites newer state.
type Coordinator struct {
	store Store

	mu       sync.Mutex
	view     View
	identity *models.Employee
	// session increments on every login and logout so that fetches issued
	// under a previous identity are discarded.
	session   uint64
	employees []models.Employee
	chats     []models.Chat
	conv      conversation
	// closed holds the resolution of every chat closed in this session.
	closed map[uint]models.Resolution

	employeeDraft EmployeeDraft
	visitorDraft  VisitorDraft
	notices       []Notice
}

// Options holds parameters for creating a Coordinator.
type Options struct {
	Store Store
}

// New creates a Coordinator showing the visitor form.
func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("console: store is required")
	}
	return &Coordinator{
		store:         opts.Store,
		view:          VisitorView{},
		employeeDraft: EmployeeDraft{Role: models.RoleOperator},
	}, nil
}

// View returns the active role view.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Notices returns and clears the pending notices, oldest first.
func (c *Coordinator) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

func (c *Coordinator) info(format string, args ...any) {
	c.notify(NoticeInfo, fmt.Sprintf(format, args...))
}

func (c *Coordinator) fail(format string, args ...any) {
	c.notify(NoticeError, fmt.Sprintf(format, args...))
}

func (c *Coordinator) notify(level NoticeLevel, text string) {
	log.Printf("console: %s: %s", level, text)
	c.mu.Lock()
	c.notices = append(c.notices, Notice{Level: level, Text: text})
	c.mu.Unlock()
}

// staff returns the signed-in identity and session token, or
// ErrNotSignedIn.
func (c *Coordinator) staff() (models.Employee, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return models.Employee{}, 0, ErrNotSignedIn
	}
	return *c.identity, c.session, nil
}

// responded reports whether a mutation reached the server, successfully or
// not. Cache refreshes follow any mutation the server answered.
func responded(err error) bool {
	if err == nil {
		return true
	}
	var se *deskapi.StatusError
	return errors.As(err, &se)
}
