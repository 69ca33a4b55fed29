package console

import (
	"context"
	"strings"

	"github.com/zulandar/supportdesk/internal/deskapi"
	"github.com/zulandar/supportdesk/internal/models"
)

// EmployeeDraft is the admin's unsaved new-employee form.
type EmployeeDraft struct {
	Login    string
	Password string
	Name     string
	Role     models.Role
}

// VisitorDraft is the visitor's unsent question form.
type VisitorDraft struct {
	Name    string
	Email   string
	Message string
}

// ChangeEmployeeStatus sets any employee's presence. Any signed-in staff
// member may change any employee's status. A change to the signed-in
// employee updates the session identity, and the employee list is
// refreshed whenever the server answered.
func (c *Coordinator) ChangeEmployeeStatus(ctx context.Context, employeeID uint, status models.EmployeeStatus) error {
	emp, session, err := c.staff()
	if err != nil {
		return err
	}
	if !status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be online, offline or break"}
	}

	updated, err := c.store.UpdateEmployeeStatus(ctx, employeeID, status)
	if err == nil {
		if employeeID == emp.ID {
			s := updated.Status
			if s == "" {
				s = status
			}
			c.setOwnStatus(session, s)
		}
		c.info("Status updated")
	} else {
		c.fail("Could not update status")
	}
	if responded(err) && emp.Role == models.RoleAdmin {
		c.RefreshEmployees(ctx)
	}
	if err != nil {
		return &TransportError{Op: "change status", Err: err}
	}
	return nil
}

// ToggleOwnStatus flips the signed-in employee between online and break.
func (c *Coordinator) ToggleOwnStatus(ctx context.Context) error {
	emp, _, err := c.staff()
	if err != nil {
		return err
	}
	next := models.StatusOnline
	if emp.Status == models.StatusOnline {
		next = models.StatusBreak
	}
	return c.ChangeEmployeeStatus(ctx, emp.ID, next)
}

// EmployeeDraft returns the new-employee form.
func (c *Coordinator) EmployeeDraft() EmployeeDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.employeeDraft
}

// SetEmployeeDraft replaces the new-employee form.
func (c *Coordinator) SetEmployeeDraft(d EmployeeDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.employeeDraft = d
}

// AddEmployee creates a staff account from the draft. Login, password and
// name must be present; the role defaults to operator. On success the draft
// is reset; the employee list is refreshed whenever the server answered.
func (c *Coordinator) AddEmployee(ctx context.Context) error {
	emp, _, err := c.staff()
	if err != nil {
		return err
	}
	if emp.Role != models.RoleAdmin {
		return ErrAdminOnly
	}

	d := c.EmployeeDraft()
	switch {
	case strings.TrimSpace(d.Login) == "":
		return required("login")
	case d.Password == "":
		return required("password")
	case strings.TrimSpace(d.Name) == "":
		return required("name")
	}
	if d.Role == "" {
		d.Role = models.RoleOperator
	}
	if !d.Role.Valid() {
		return &ValidationError{Field: "role", Reason: "must be admin or operator"}
	}

	_, err = c.store.CreateEmployee(ctx, deskapi.NewEmployee{
		Login:    strings.TrimSpace(d.Login),
		Password: d.Password,
		Name:     strings.TrimSpace(d.Name),
		Role:     d.Role,
	})
	if err == nil {
		c.SetEmployeeDraft(EmployeeDraft{Role: models.RoleOperator})
		c.info("Employee %s added", strings.TrimSpace(d.Name))
	} else {
		c.fail("Could not add employee")
	}
	if responded(err) {
		c.RefreshEmployees(ctx)
	}
	if err != nil {
		return &TransportError{Op: "add employee", Err: err}
	}
	return nil
}

// VisitorDraft returns the visitor question form.
func (c *Coordinator) VisitorDraft() VisitorDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visitorDraft
}

// SetVisitorDraft replaces the visitor question form.
func (c *Coordinator) SetVisitorDraft(d VisitorDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visitorDraft = d
}

// SubmitVisitorChat sends the visitor form as a new chat. Name and message
// are required, email is optional. On success the form is reset.
func (c *Coordinator) SubmitVisitorChat(ctx context.Context) (deskapi.CreatedChat, error) {
	d := c.VisitorDraft()
	if strings.TrimSpace(d.Name) == "" {
		return deskapi.CreatedChat{}, required("name")
	}
	if strings.TrimSpace(d.Message) == "" {
		return deskapi.CreatedChat{}, required("message")
	}

	out, err := c.store.CreateChat(ctx, deskapi.NewChat{
		UserName:  strings.TrimSpace(d.Name),
		UserEmail: strings.TrimSpace(d.Email),
		Message:   d.Message,
	})
	if err != nil {
		c.fail("Could not send your request")
		return deskapi.CreatedChat{}, &TransportError{Op: "submit chat", Err: err}
	}

	c.mu.Lock()
	if c.visitorDraft == d {
		c.visitorDraft = VisitorDraft{}
	}
	c.mu.Unlock()
	c.info("Your request has been sent")
	return out, nil
}
