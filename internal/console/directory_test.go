package console

import (
	"context"
	"errors"
	"testing"

	"github.com/zulandar/supportdesk/internal/models"
)

func TestRefresh_RequiresSignIn(t *testing.T) {
	c, fs := newTestCoordinator(t)
	if _, err := c.RefreshChats(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("RefreshChats err = %v, want ErrNotSignedIn", err)
	}
	if _, err := c.RefreshEmployees(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("RefreshEmployees err = %v, want ErrNotSignedIn", err)
	}
	if fs.totalCalls() != 0 {
		t.Errorf("calls = %d, want 0", fs.totalCalls())
	}
}

func TestRefreshEmployees_AdminOnly(t *testing.T) {
	c, fs := newTestCoordinator(t)
	signIn(t, c, "ann")
	before := fs.callCount("ListEmployees")

	if _, err := c.RefreshEmployees(context.Background()); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("err = %v, want ErrAdminOnly", err)
	}
	if fs.callCount("ListEmployees") != before {
		t.Error("operator refresh issued a request")
	}
}

func TestRefreshEmployees_KeepsServerOrder(t *testing.T) {
	c, fs := newTestCoordinator(t)
	signIn(t, c, "root")
	fs.mu.Lock()
	fs.employees = []models.Employee{
		{ID: 9, Name: "Zed", Role: models.RoleOperator},
		{ID: 1, Name: "Root", Role: models.RoleAdmin, Status: models.StatusOnline},
		{ID: 4, Name: "Amy", Role: models.RoleOperator},
	}
	fs.mu.Unlock()

	list, err := c.RefreshEmployees(context.Background())
	if err != nil {
		t.Fatalf("RefreshEmployees: %v", err)
	}
	want := []uint{9, 1, 4}
	for i, e := range list {
		if e.ID != want[i] {
			t.Errorf("list[%d] = %d, want %d", i, e.ID, want[i])
		}
	}
}

func TestRefreshChats_FailureKeepsLastGood(t *testing.T) {
	c, fs := newTestCoordinator(t)
	signIn(t, c, "root")
	before := c.Chats()
	fs.failWith("ListChats", errNetwork)

	_, err := c.RefreshChats(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	after := c.Chats()
	if len(after) != len(before) {
		t.Errorf("len(Chats) = %d, want unchanged %d", len(after), len(before))
	}
	if n := c.Notices(); len(n) == 0 || n[len(n)-1].Level != NoticeError {
		t.Errorf("notices = %+v, want an error notice", n)
	}
}

func TestRefreshChats_FullReplace(t *testing.T) {
	c, fs := newTestCoordinator(t)
	signIn(t, c, "root")
	fs.mu.Lock()
	fs.chats = []models.Chat{{ID: 99, UserName: "New", Status: models.ChatWaiting}}
	fs.mu.Unlock()

	list, err := c.RefreshChats(context.Background())
	if err != nil {
		t.Fatalf("RefreshChats: %v", err)
	}
	if len(list) != 1 || list[0].ID != 99 {
		t.Errorf("list = %+v, want only chat 99", list)
	}
}

func TestRefreshChats_UpdatesSelectedSnapshot(t *testing.T) {
	c, fs := newTestCoordinator(t)
	signIn(t, c, "root")
	if err := c.SelectChat(context.Background(), 13); err != nil {
		t.Fatalf("SelectChat: %v", err)
	}
	fs.mu.Lock()
	fs.chats[1].Status = models.ChatActive
	fs.mu.Unlock()

	if _, err := c.RefreshChats(context.Background()); err != nil {
		t.Fatalf("RefreshChats: %v", err)
	}
	sel, ok := c.Selected()
	if !ok || sel.Status != models.ChatActive {
		t.Errorf("selected = %+v, want status active", sel)
	}
}

func TestRefreshChats_ResultAfterLogoutDiscarded(t *testing.T) {
	c, fs := newTestCoordinator(t)
	signIn(t, c, "root")
	c.Logout(context.Background())

	if _, err := c.RefreshChats(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("err = %v, want ErrNotSignedIn", err)
	}
	if len(c.Chats()) != 0 {
		t.Error("chats repopulated after logout")
	}
	_ = fs
}
