package console

import "github.com/zulandar/supportdesk/internal/models"

// View is the role-gated screen the coordinator is showing. It is a closed
// set: VisitorView, LoginView, OperatorView or AdminView. Switch on the
// concrete type to render it.
type View interface {
	isView()
	// Name is a stable identifier for the view.
	Name() string
}

// VisitorView is the anonymous question form.
type VisitorView struct{}

// LoginView is the staff sign-in form.
type LoginView struct{}

// OperatorView is the operator console: own chats plus a presence toggle.
type OperatorView struct {
	Identity models.Employee
}

// AdminView is the admin console: all chats plus employee management.
type AdminView struct {
	Identity models.Employee
}

func (VisitorView) isView()  {}
func (LoginView) isView()    {}
func (OperatorView) isView() {}
func (AdminView) isView()    {}

func (VisitorView) Name() string  { return "visitor" }
func (LoginView) Name() string    { return "login" }
func (OperatorView) Name() string { return "operator" }
func (AdminView) Name() string    { return "admin" }

// homeView returns the console view for a signed-in employee's role.
func homeView(e models.Employee) View {
	if e.Role == models.RoleAdmin {
		return AdminView{Identity: e}
	}
	return OperatorView{Identity: e}
}
