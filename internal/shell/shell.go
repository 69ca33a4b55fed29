// Package shell is a line-oriented front end for the desk console. Each
// input line is one command; the available commands follow the active view.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zulandar/supportdesk/internal/console"
	"github.com/zulandar/supportdesk/internal/models"
)

// Shell reads commands and renders the coordinator's state.
type Shell struct {
	c            *console.Coordinator
	readPassword func() (string, error)

	mu  sync.Mutex // guards out; background refreshes print too
	out io.Writer
}

// Opts holds parameters for creating a Shell.
type Opts struct {
	Coordinator *console.Coordinator
	Out         io.Writer
	// ReadPassword prompts for a password when "login" is given only a
	// user name. Optional.
	ReadPassword func() (string, error)
}

// New creates a Shell.
func New(opts Opts) (*Shell, error) {
	if opts.Coordinator == nil {
		return nil, fmt.Errorf("shell: coordinator is required")
	}
	if opts.Out == nil {
		return nil, fmt.Errorf("shell: output is required")
	}
	return &Shell{c: opts.Coordinator, out: opts.Out, readPassword: opts.ReadPassword}, nil
}

// Run reads commands from in until EOF, "quit" or ctx is done. A signed-in
// staff member is signed out on every exit path.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	defer s.signOut()
	s.printf("%s\n", banner(s.c.View()))
	scanner := bufio.NewScanner(in)
	for {
		s.printf("%s", s.Prompt())
		if !scanner.Scan() {
			s.printf("\n")
			return scanner.Err()
		}
		if quit := s.Execute(ctx, scanner.Text()); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Prompt returns the prompt for the active view.
func (s *Shell) Prompt() string {
	switch v := s.c.View().(type) {
	case console.OperatorView:
		return fmt.Sprintf("%s@operator> ", v.Identity.Login)
	case console.AdminView:
		return fmt.Sprintf("%s@admin> ", v.Identity.Login)
	default:
		return s.c.View().Name() + "> "
	}
}

// Execute runs one command line and prints the outcome followed by any
// pending notices. It returns true when the user asked to quit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	cmd, rest := splitCommand(line)
	if cmd == "" {
		return false
	}
	if cmd == "quit" || cmd == "exit" {
		if _, ok := s.c.Identity(); ok {
			s.c.Logout(ctx)
		}
		s.flushNotices()
		return true
	}

	before := s.c.View().Name()
	var err error
	switch s.c.View().(type) {
	case console.VisitorView:
		err = s.visitor(ctx, cmd, rest)
	case console.LoginView:
		err = s.login(ctx, cmd, rest)
	default:
		err = s.staff(ctx, cmd, rest)
	}
	s.report(err)
	s.flushNotices()
	if after := s.c.View(); after.Name() != before {
		s.printf("%s\n", banner(after))
	}
	return false
}

// RefreshChats reloads the chat list in the background. Pending notices,
// including ones queued by a command still running, are printed together
// with a short summary when the list changed. It is safe to call from
// another goroutine.
func (s *Shell) RefreshChats(ctx context.Context) {
	if _, ok := s.c.Identity(); !ok {
		return
	}
	before := len(s.c.Chats())
	chats, err := s.c.RefreshChats(ctx)
	changed := err == nil && len(chats) != before

	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.c.Notices()
	if len(notices) == 0 && !changed {
		return
	}
	fmt.Fprintln(s.out)
	for _, n := range notices {
		fmt.Fprintf(s.out, "[%s] %s\n", n.Level, n.Text)
	}
	if changed {
		fmt.Fprintf(s.out, "[info] %d chats (%d open)\n", len(chats), countOpen(chats))
	}
	fmt.Fprint(s.out, s.Prompt())
}

func (s *Shell) visitor(ctx context.Context, cmd, rest string) error {
	d := s.c.VisitorDraft()
	switch cmd {
	case "name":
		d.Name = rest
	case "email":
		d.Email = rest
	case "message", "msg":
		d.Message = rest
	case "form":
		s.printf("name:    %s\nemail:   %s\nmessage: %s\n", d.Name, d.Email, d.Message)
		return nil
	case "submit", "send":
		out, err := s.c.SubmitVisitorChat(ctx)
		if err == nil {
			s.printf("chat #%d (%s)\n", out.ChatID, out.Status)
		}
		return err
	case "staff", "login":
		s.c.ShowLogin()
		return nil
	case "help":
		s.printf("%s", visitorHelp)
		return nil
	default:
		return unknown(cmd)
	}
	s.c.SetVisitorDraft(d)
	return nil
}

func (s *Shell) login(ctx context.Context, cmd, rest string) error {
	switch cmd {
	case "login":
		args := strings.Fields(rest)
		if len(args) == 0 {
			return errors.New("usage: login <user> [password]")
		}
		password := ""
		if len(args) > 1 {
			password = args[1]
		} else if s.readPassword != nil {
			p, err := s.readPassword()
			if err != nil {
				return err
			}
			password = p
		}
		_, err := s.c.Login(ctx, args[0], password)
		return err
	case "back", "visitor":
		s.c.ShowVisitor()
		return nil
	case "help":
		s.printf("%s", loginHelp)
		return nil
	default:
		return unknown(cmd)
	}
}

func (s *Shell) staff(ctx context.Context, cmd, rest string) error {
	_, admin := s.c.View().(console.AdminView)
	switch cmd {
	case "chats":
		s.printChats(s.c.Chats())
		return nil
	case "refresh":
		chats, err := s.c.RefreshChats(ctx)
		if err == nil {
			s.printChats(chats)
		}
		return err
	case "open":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		if err := s.c.SelectChat(ctx, id); err != nil {
			return err
		}
		s.printConversation()
		return nil
	case "show":
		s.printConversation()
		return nil
	case "pane":
		if s.c.TogglePane() {
			s.printf("showing history\n")
		} else {
			s.printf("showing messages\n")
		}
		s.printConversation()
		return nil
	case "draft":
		s.c.SetDraft(rest)
		return nil
	case "say":
		s.c.SetDraft(rest)
		fallthrough
	case "send":
		if err := s.c.SendMessage(ctx); err != nil {
			return err
		}
		s.printConversation()
		return nil
	case "close":
		return s.c.CloseChat(ctx, models.Resolution(strings.TrimSpace(rest)))
	case "leave":
		s.c.ClearSelection()
		return nil
	case "toggle":
		return s.c.ToggleOwnStatus(ctx)
	case "status":
		return s.status(ctx, rest)
	case "employees":
		if !admin {
			return console.ErrAdminOnly
		}
		emps, err := s.c.RefreshEmployees(ctx)
		if err == nil {
			s.printEmployees(emps)
		}
		return err
	case "add":
		return s.addEmployee(ctx, rest)
	case "whoami":
		emp, _ := s.c.Identity()
		s.printf("%s (%s, %s, %s)\n", emp.Name, emp.Login, emp.Role, emp.Status)
		return nil
	case "logout":
		s.c.Logout(ctx)
		return nil
	case "help":
		s.printf("%s", staffHelp)
		if admin {
			s.printf("%s", adminHelp)
		}
		return nil
	default:
		return unknown(cmd)
	}
}

// status handles "status <online|offline|break> [employee id]".
func (s *Shell) status(ctx context.Context, rest string) error {
	args := strings.Fields(rest)
	if len(args) == 0 {
		return errors.New("usage: status <online|offline|break> [employee id]")
	}
	emp, _ := s.c.Identity()
	id := emp.ID
	if len(args) > 1 {
		n, err := parseID(args[1])
		if err != nil {
			return err
		}
		id = n
	}
	return s.c.ChangeEmployeeStatus(ctx, id, models.EmployeeStatus(args[0]))
}

// addEmployee handles "add <login> <password> <name...> [--admin]".
func (s *Shell) addEmployee(ctx context.Context, rest string) error {
	args := strings.Fields(rest)
	role := models.RoleOperator
	var kept []string
	for _, a := range args {
		if a == "--admin" {
			role = models.RoleAdmin
			continue
		}
		kept = append(kept, a)
	}
	d := console.EmployeeDraft{Role: role}
	if len(kept) > 0 {
		d.Login = kept[0]
	}
	if len(kept) > 1 {
		d.Password = kept[1]
	}
	if len(kept) > 2 {
		d.Name = strings.Join(kept[2:], " ")
	}
	s.c.SetEmployeeDraft(d)
	return s.c.AddEmployee(ctx)
}

func (s *Shell) report(err error) {
	if err == nil {
		return
	}
	var te *console.TransportError
	var ae *console.AuthError
	if errors.As(err, &te) || errors.As(err, &ae) {
		// Already surfaced as an error notice.
		return
	}
	s.printf("error: %s\n", strings.TrimPrefix(err.Error(), "console: "))
}

// signOut sends the offline update when the shell exits while signed in.
// ctx may already be cancelled, so the update gets its own.
func (s *Shell) signOut() {
	if _, ok := s.c.Identity(); !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.c.Logout(ctx)
	s.flushNotices()
}

func (s *Shell) flushNotices() {
	for _, n := range s.c.Notices() {
		s.printf("[%s] %s\n", n.Level, n.Text)
	}
}

func (s *Shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	cmd, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}

func unknown(cmd string) error {
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

func countOpen(chats []models.Chat) int {
	n := 0
	for _, c := range chats {
		if !c.IsClosed {
			n++
		}
	}
	return n
}
