package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/zulandar/supportdesk/internal/deskapi"
	"github.com/zulandar/supportdesk/internal/models"
)

// ---------------------------------------------------------------------------
// Fake store for tests
// ---------------------------------------------------------------------------

var errNetwork = errors.New("connection refused")

type fakeStore struct {
	mu    sync.Mutex
	calls []string

	accounts  map[string]models.Employee // login -> employee (password "pw")
	employees []models.Employee
	chats     []models.Chat
	messages  map[uint][]models.Message
	history   map[uint][]models.HistoryItem

	// errs forces the named method to fail.
	errs map[string]error
	// gates blocks ListMessages/ListHistory for a chat until closed.
	gates map[uint]chan struct{}

	lastChatsScope uint
	posted         []deskapi.NewMessage
	closedReqs     []deskapi.CloseChat
	created        []deskapi.NewEmployee
	statusReqs     []deskapi.StatusUpdate
	newChats       []deskapi.NewChat
}

func newFakeStore() *fakeStore {
	admin := models.Employee{ID: 1, Login: "root", Name: "Root", Role: models.RoleAdmin, Status: models.StatusOffline}
	op := models.Employee{ID: 7, Login: "ann", Name: "Ann", Role: models.RoleOperator, Status: models.StatusOffline}
	seven := uint(7)
	return &fakeStore{
		accounts:  map[string]models.Employee{"root": admin, "ann": op},
		employees: []models.Employee{op, admin},
		chats: []models.Chat{
			{ID: 12, UserName: "Bob", Status: models.ChatActive, AssignedTo: &seven},
			{ID: 13, UserName: "Cid", Status: models.ChatWaiting},
			{ID: 14, UserName: "Dee", Status: models.ChatClosed, AssignedTo: &seven, IsClosed: true, Resolution: models.ResolutionSolved},
		},
		messages: map[uint][]models.Message{
			12: {{ID: 1, ChatID: 12, SenderType: models.SenderUser, Text: "help"}},
			13: {{ID: 2, ChatID: 13, SenderType: models.SenderUser, Text: "hello?"}},
		},
		history: map[uint][]models.HistoryItem{
			12: {{ID: 1, ChatID: 12, Action: models.ActionCreated}},
			13: {{ID: 2, ChatID: 13, Action: models.ActionCreated}},
		},
		errs:  make(map[string]error),
		gates: make(map[uint]chan struct{}),
	}
}

func (f *fakeStore) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeStore) failWith(call string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[call] = err
}

func (f *fakeStore) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeStore) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeStore) gate(chatID uint) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[chatID] = ch
	return ch
}

func (f *fakeStore) wait(ctx context.Context, chatID uint) {
	f.mu.Lock()
	ch := f.gates[chatID]
	f.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-ctx.Done():
	}
}

func (f *fakeStore) Authenticate(_ context.Context, login, password string) (models.Employee, error) {
	if err := f.record("Authenticate"); err != nil {
		return models.Employee{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.accounts[login]
	if !ok || password != "pw" {
		return models.Employee{}, deskapi.ErrUnauthorized
	}
	return emp, nil
}

func (f *fakeStore) ListChats(_ context.Context, operatorID uint) ([]models.Chat, error) {
	if err := f.record("ListChats"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastChatsScope = operatorID
	var out []models.Chat
	for _, ch := range f.chats {
		if operatorID == 0 || ch.AssignedToID() == operatorID || ch.Status == models.ChatWaiting {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateChat(_ context.Context, req deskapi.NewChat) (deskapi.CreatedChat, error) {
	if err := f.record("CreateChat"); err != nil {
		return deskapi.CreatedChat{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newChats = append(f.newChats, req)
	id := uint(100 + len(f.newChats))
	f.chats = append(f.chats, models.Chat{ID: id, UserName: req.UserName, UserEmail: req.UserEmail, Status: models.ChatWaiting})
	return deskapi.CreatedChat{ChatID: id, Status: models.ChatWaiting}, nil
}

func (f *fakeStore) CloseChat(_ context.Context, chatID uint, resolution models.Resolution, employeeID uint) error {
	if err := f.record("CloseChat"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedReqs = append(f.closedReqs, deskapi.CloseChat{Action: "close", ChatID: chatID, Resolution: resolution, EmployeeID: employeeID})
	for i := range f.chats {
		if f.chats[i].ID == chatID {
			f.chats[i].IsClosed = true
			f.chats[i].Resolution = resolution
			f.chats[i].Status = models.ChatClosed
		}
	}
	return nil
}

func (f *fakeStore) ListMessages(ctx context.Context, chatID uint) ([]models.Message, error) {
	f.wait(ctx, chatID)
	if err := f.record("ListMessages"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Message(nil), f.messages[chatID]...), nil
}

func (f *fakeStore) PostMessage(_ context.Context, req deskapi.NewMessage) error {
	if err := f.record("PostMessage"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, req)
	id := uint(1000 + len(f.posted))
	f.messages[req.ChatID] = append(f.messages[req.ChatID], models.Message{
		ID: id, ChatID: req.ChatID, SenderType: req.SenderType, SenderID: req.SenderID, Text: req.Message,
	})
	return nil
}

func (f *fakeStore) ListEmployees(context.Context) ([]models.Employee, error) {
	if err := f.record("ListEmployees"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Employee(nil), f.employees...), nil
}

func (f *fakeStore) CreateEmployee(_ context.Context, req deskapi.NewEmployee) (models.Employee, error) {
	if err := f.record("CreateEmployee"); err != nil {
		return models.Employee{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	emp := models.Employee{ID: uint(50 + len(f.created)), Login: req.Login, Name: req.Name, Role: req.Role, Status: models.StatusOffline}
	f.employees = append([]models.Employee{emp}, f.employees...)
	return emp, nil
}

func (f *fakeStore) UpdateEmployeeStatus(_ context.Context, id uint, status models.EmployeeStatus) (models.Employee, error) {
	if err := f.record("UpdateEmployeeStatus"); err != nil {
		return models.Employee{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusReqs = append(f.statusReqs, deskapi.StatusUpdate{ID: id, Status: status})
	for i := range f.employees {
		if f.employees[i].ID == id {
			f.employees[i].Status = status
			return f.employees[i], nil
		}
	}
	return models.Employee{}, &deskapi.StatusError{Op: "update employee status", Code: 404, Detail: fmt.Sprintf("employee %d not found", id)}
}

func (f *fakeStore) ListHistory(ctx context.Context, chatID uint) ([]models.HistoryItem, error) {
	f.wait(ctx, chatID)
	if err := f.record("ListHistory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.HistoryItem(nil), f.history[chatID]...), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	c, err := New(Options{Store: fs})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fs
}

func signIn(t *testing.T, c *Coordinator, login string) models.Employee {
	t.Helper()
	emp, err := c.Login(context.Background(), login, "pw")
	if err != nil {
		t.Fatalf("Login(%s): %v", login, err)
	}
	c.Notices()
	return emp
}
