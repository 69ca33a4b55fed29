package shell

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/zulandar/supportdesk/internal/console"
	"github.com/zulandar/supportdesk/internal/models"
)

const visitorHelp = `Commands:
  name <text>       set your name
  email <text>      set your email (optional)
  message <text>    set your question
  form              show the form
  submit            send the question to support
  staff             switch to the staff sign-in
  quit
`

const loginHelp = `Commands:
  login <user> [password]
  back              return to the visitor form
  quit
`

const staffHelp = `Commands:
  chats | refresh   show cached / reload chat list
  open <id>         select a chat
  show              redraw the selected chat
  pane              toggle messages / history
  say <text>        send a reply
  draft <text>      set the reply without sending; send sends it
  close solved|unsolved
  leave             clear the selection
  toggle            switch between online and break
  status <online|offline|break> [id]
  whoami | logout | quit
`

const adminHelp = `Admin:
  employees         list employees
  add <login> <password> <name> [--admin]
`

func banner(v console.View) string {
	switch v := v.(type) {
	case console.VisitorView:
		return "Support desk. Fill in name and message, then submit. Type help for commands."
	case console.LoginView:
		return "Staff sign-in. Type help for commands."
	case console.OperatorView:
		return fmt.Sprintf("Signed in as %s (operator, %s).", v.Identity.Name, v.Identity.Status)
	case console.AdminView:
		return fmt.Sprintf("Signed in as %s (admin, %s).", v.Identity.Name, v.Identity.Status)
	}
	return ""
}

func (s *Shell) printChats(chats []models.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	WriteChats(s.out, chats)
}

// WriteChats renders chats as a table, or "No chats." when empty.
func WriteChats(out io.Writer, chats []models.Chat) {
	if len(chats) == 0 {
		fmt.Fprintln(out, "No chats.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVISITOR\tSTATUS\tOPERATOR\tRESOLUTION\tCREATED")
	for _, c := range chats {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.UserName, c.Status, deref(c.OperatorName), orDash(string(c.Resolution)),
			c.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func (s *Shell) printEmployees(emps []models.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLOGIN\tNAME\tROLE\tSTATUS")
	for _, e := range emps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Login, e.Name, e.Role, e.Status)
	}
	w.Flush()
}

func (s *Shell) printConversation() {
	chat, ok := s.c.Selected()
	if !ok {
		s.printf("No chat selected.\n")
		return
	}
	var b strings.Builder
	state := string(chat.Status)
	if chat.IsClosed {
		state = "closed, " + string(chat.Resolution)
	}
	fmt.Fprintf(&b, "-- chat #%d with %s (%s) --\n", chat.ID, chat.UserName, state)
	if s.c.ShowingHistory() {
		for _, h := range s.c.History() {
			who := deref(h.EmployeeName)
			fmt.Fprintf(&b, "%s  %-9s %s", h.CreatedAt.Local().Format("15:04"), h.Action, h.Details)
			if who != "-" {
				fmt.Fprintf(&b, " (%s)", who)
			}
			b.WriteString("\n")
		}
	} else {
		for _, m := range s.c.Messages() {
			who := chat.UserName
			if m.SenderType == models.SenderOperator {
				who = deref(m.SenderName)
				if who == "-" {
					who = "operator"
				}
			}
			fmt.Fprintf(&b, "%s  %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Text)
		}
	}
	if d := s.c.Draft(); d != "" {
		fmt.Fprintf(&b, "draft: %s\n", d)
	}
	s.printf("%s", b.String())
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
