package console

import (
	"context"
	"errors"
	"strings"

	"github.com/zulandar/supportdesk/internal/deskapi"
	"github.com/zulandar/supportdesk/internal/models"
)

// Identity returns the signed-in employee, if any.
func (c *Coordinator) Identity() (models.Employee, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return models.Employee{}, false
	}
	return *c.identity, true
}

// ShowLogin switches from the visitor form to the staff sign-in form. It
// does nothing while signed in.
func (c *Coordinator) ShowLogin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		c.view = LoginView{}
	}
}

// ShowVisitor switches from the sign-in form back to the visitor form. It
// does nothing while signed in.
func (c *Coordinator) ShowVisitor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		c.view = VisitorView{}
	}
}

// Login authenticates a staff member. On success the view moves to the
// role's console, the employee is marked online and the directory is loaded;
// failures of those follow-ups are reported as notices and do not undo the
// sign-in. On failure an *AuthError is returned and the view is unchanged.
func (c *Coordinator) Login(ctx context.Context, login, password string) (models.Employee, error) {
	if strings.TrimSpace(login) == "" {
		return models.Employee{}, required("login")
	}
	if password == "" {
		return models.Employee{}, required("password")
	}
	if _, ok := c.Identity(); ok {
		return models.Employee{}, ErrSignedIn
	}

	emp, err := c.store.Authenticate(ctx, login, password)
	if err != nil {
		if errors.Is(err, deskapi.ErrUnauthorized) {
			c.fail("Invalid login or password")
		} else {
			c.fail("Connection error")
		}
		return models.Employee{}, &AuthError{Err: err}
	}
	if !emp.Role.Valid() {
		c.fail("Account has no staff role")
		return models.Employee{}, &AuthError{Err: errors.New("unknown role " + string(emp.Role))}
	}

	c.mu.Lock()
	c.session++
	session := c.session
	c.identity = &emp
	c.view = homeView(emp)
	c.employees = nil
	c.chats = nil
	c.closed = make(map[uint]models.Resolution)
	c.conv = conversation{gen: c.conv.gen + 1}
	c.mu.Unlock()
	c.info("Signed in as %s", emp.Name)

	if updated, err := c.store.UpdateEmployeeStatus(ctx, emp.ID, models.StatusOnline); err != nil {
		c.fail("Could not set status online: %v", err)
	} else {
		c.setOwnStatus(session, updated.Status)
	}

	c.RefreshChats(ctx)
	if emp.Role == models.RoleAdmin {
		c.RefreshEmployees(ctx)
	}

	out, _ := c.Identity()
	return out, nil
}

// Logout sends exactly one best-effort offline status update for the
// signed-in employee, then clears the session and returns to the visitor
// form. The update's outcome never blocks the sign-out.
func (c *Coordinator) Logout(ctx context.Context) {
	emp, _, err := c.staff()
	if err != nil {
		return
	}

	if _, err := c.store.UpdateEmployeeStatus(ctx, emp.ID, models.StatusOffline); err != nil {
		c.fail("Could not set status offline: %v", err)
	}

	c.mu.Lock()
	c.session++
	c.identity = nil
	c.view = VisitorView{}
	c.employees = nil
	c.chats = nil
	c.closed = nil
	c.conv = conversation{gen: c.conv.gen + 1}
	c.employeeDraft = EmployeeDraft{Role: models.RoleOperator}
	c.mu.Unlock()
	c.info("Signed out")
}

// setOwnStatus records a presence change of the signed-in employee if the
// session that requested it is still current.
func (c *Coordinator) setOwnStatus(session uint64, status models.EmployeeStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil || c.session != session {
		return
	}
	c.identity.Status = status
	c.view = homeView(*c.identity)
}
