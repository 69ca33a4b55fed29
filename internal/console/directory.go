package console

import (
	"context"

	"github.com/zulandar/supportdesk/internal/models"
)

// Employees returns the cached employee list in server order.
func (c *Coordinator) Employees() []models.Employee {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Employee(nil), c.employees...)
}

// Chats returns the cached chat list in server order.
func (c *Coordinator) Chats() []models.Chat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Chat(nil), c.chats...)
}

// RefreshEmployees replaces the employee cache with the server's list. Only
// the admin view carries an employee list.
func (c *Coordinator) RefreshEmployees(ctx context.Context) ([]models.Employee, error) {
	emp, session, err := c.staff()
	if err != nil {
		return nil, err
	}
	if emp.Role != models.RoleAdmin {
		return nil, ErrAdminOnly
	}

	list, err := c.store.ListEmployees(ctx)
	if err != nil {
		c.fail("Could not load employees")
		return nil, &TransportError{Op: "refresh employees", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session {
		return nil, ErrNotSignedIn
	}
	c.employees = list
	for _, e := range list {
		if e.ID == c.identity.ID {
			c.identity.Status = e.Status
			c.view = homeView(*c.identity)
		}
	}
	return append([]models.Employee(nil), list...), nil
}

// RefreshChats replaces the chat cache with the server's list. Operators
// see the list scoped to themselves; admins see every chat. The selected
// chat's snapshot is updated from the new list.
func (c *Coordinator) RefreshChats(ctx context.Context) ([]models.Chat, error) {
	emp, session, err := c.staff()
	if err != nil {
		return nil, err
	}
	var scope uint
	if emp.Role == models.RoleOperator {
		scope = emp.ID
	}

	list, err := c.store.ListChats(ctx, scope)
	if err != nil {
		c.fail("Could not load chats")
		return nil, &TransportError{Op: "refresh chats", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session {
		return nil, ErrNotSignedIn
	}
	for i := range list {
		if res, ok := c.closed[list[i].ID]; ok && !list[i].IsClosed {
			// A chat closed from this session never reads as open again.
			list[i].IsClosed = true
			list[i].Resolution = res
		}
	}
	c.chats = list
	if sel := c.conv.chat; sel != nil {
		for _, ch := range list {
			if ch.ID == sel.ID {
				fresh := ch
				c.conv.chat = &fresh
				break
			}
		}
	}
	return append([]models.Chat(nil), list...), nil
}

// findChat looks up a cached chat by id. Callers hold c.mu.
func (c *Coordinator) findChat(id uint) (models.Chat, bool) {
	for _, ch := range c.chats {
		if ch.ID == id {
			return ch, true
		}
	}
	return models.Chat{}, false
}
