// Package deskapi is the HTTP client for the support desk's remote resources:
// auth, chats, messages, employees and chat history. Every call is a single
// JSON request/response; a non-2xx status is returned as a *StatusError.
package deskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zulandar/supportdesk/internal/config"
	"github.com/zulandar/supportdesk/internal/models"
)

// ErrUnauthorized is returned by Authenticate when the server rejects the
// credentials with 401.
var ErrUnauthorized = errors.New("deskapi: invalid login or password")

// StatusError reports a non-2xx response.
type StatusError struct {
	Op     string // e.g. "list chats"
	Code   int    // HTTP status code
	Detail string // server-provided error text, if any
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("deskapi: %s: status %d: %s", e.Op, e.Code, e.Detail)
	}
	return fmt.Sprintf("deskapi: %s: status %d", e.Op, e.Code)
}

// Endpoints holds the absolute URL of each resource.
type Endpoints struct {
	Auth      string
	Chats     string
	Messages  string
	Employees string
	History   string
}

// EndpointsFromConfig joins the configured base URL and resource paths.
func EndpointsFromConfig(c config.APIConfig) Endpoints {
	return Endpoints{
		Auth:      c.BaseURL + c.AuthPath,
		Chats:     c.BaseURL + c.ChatsPath,
		Messages:  c.BaseURL + c.MessagesPath,
		Employees: c.BaseURL + c.EmployeesPath,
		History:   c.BaseURL + c.HistoryPath,
	}
}

// Client talks to the desk resources over HTTP.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	Endpoints  Endpoints
	Timeout    time.Duration // ignored when HTTPClient is set
	HTTPClient *http.Client
}

// New creates a Client.
func New(opts ClientOpts) (*Client, error) {
	e := opts.Endpoints
	if e.Auth == "" || e.Chats == "" || e.Messages == "" || e.Employees == "" || e.History == "" {
		return nil, fmt.Errorf("deskapi: all five endpoints are required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{endpoints: e, httpClient: hc}, nil
}

// NewFromConfig creates a Client from the api section of the config.
func NewFromConfig(c config.APIConfig) (*Client, error) {
	return New(ClientOpts{Endpoints: EndpointsFromConfig(c), Timeout: c.Timeout})
}

// Credentials is the Auth request body.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// NewChat is the Chats POST body submitted by a visitor.
type NewChat struct {
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Message   string `json:"message"`
}

// CreatedChat is the Chats POST response.
type CreatedChat struct {
	ChatID uint              `json:"chat_id"`
	Status models.ChatStatus `json:"status"`
}

// CloseChat is the Chats PUT body for the terminal close action.
type CloseChat struct {
	Action     string            `json:"action"`
	ChatID     uint              `json:"chat_id"`
	Resolution models.Resolution `json:"resolution_status"`
	EmployeeID uint              `json:"employee_id"`
}

// NewMessage is the Messages POST body.
type NewMessage struct {
	ChatID     uint              `json:"chat_id"`
	SenderType models.SenderType `json:"sender_type"`
	SenderID   *uint             `json:"sender_id,omitempty"`
	Message    string            `json:"message"`
}

// NewEmployee is the Employees POST body.
type NewEmployee struct {
	Login    string      `json:"login"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

// StatusUpdate is the Employees PUT body.
type StatusUpdate struct {
	ID     uint                  `json:"id"`
	Status models.EmployeeStatus `json:"status"`
}

// Authenticate exchanges credentials for the staff account. A 401 yields
// ErrUnauthorized.
func (c *Client) Authenticate(ctx context.Context, login, password string) (models.Employee, error) {
	var emp models.Employee
	err := c.do(ctx, "authenticate", http.MethodPost, c.endpoints.Auth, Credentials{Login: login, Password: password}, &emp)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
		return models.Employee{}, ErrUnauthorized
	}
	return emp, err
}

// ListChats returns chats in server order. A non-zero operatorID scopes the
// list to that operator.
func (c *Client) ListChats(ctx context.Context, operatorID uint) ([]models.Chat, error) {
	u := c.endpoints.Chats
	if operatorID != 0 {
		q := url.Values{}
		q.Set("operator_id", strconv.FormatUint(uint64(operatorID), 10))
		q.Set("role", string(models.RoleOperator))
		u = withQuery(u, q)
	}
	var chats []models.Chat
	if err := c.do(ctx, "list chats", http.MethodGet, u, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChat submits a visitor's question.
func (c *Client) CreateChat(ctx context.Context, req NewChat) (CreatedChat, error) {
	var out CreatedChat
	err := c.do(ctx, "create chat", http.MethodPost, c.endpoints.Chats, req, &out)
	return out, err
}

// CloseChat sends the close action for chatID.
func (c *Client) CloseChat(ctx context.Context, chatID uint, resolution models.Resolution, employeeID uint) error {
	body := CloseChat{Action: "close", ChatID: chatID, Resolution: resolution, EmployeeID: employeeID}
	return c.do(ctx, "close chat", http.MethodPut, c.endpoints.Chats, body, nil)
}

// ListMessages returns a chat's thread, oldest first.
func (c *Client) ListMessages(ctx context.Context, chatID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.do(ctx, "list messages", http.MethodGet, chatQuery(c.endpoints.Messages, chatID), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PostMessage appends a message to a chat.
func (c *Client) PostMessage(ctx context.Context, req NewMessage) error {
	return c.do(ctx, "post message", http.MethodPost, c.endpoints.Messages, req, nil)
}

// ListEmployees returns staff accounts in server order.
func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var emps []models.Employee
	if err := c.do(ctx, "list employees", http.MethodGet, c.endpoints.Employees, nil, &emps); err != nil {
		return nil, err
	}
	return emps, nil
}

// CreateEmployee adds a staff account.
func (c *Client) CreateEmployee(ctx context.Context, req NewEmployee) (models.Employee, error) {
	var emp models.Employee
	err := c.do(ctx, "create employee", http.MethodPost, c.endpoints.Employees, req, &emp)
	return emp, err
}

// UpdateEmployeeStatus changes an employee's presence and returns the
// updated account.
func (c *Client) UpdateEmployeeStatus(ctx context.Context, id uint, status models.EmployeeStatus) (models.Employee, error) {
	var emp models.Employee
	err := c.do(ctx, "update employee status", http.MethodPut, c.endpoints.Employees, StatusUpdate{ID: id, Status: status}, &emp)
	return emp, err
}

// ListHistory returns a chat's audit trail, oldest first.
func (c *Client) ListHistory(ctx context.Context, chatID uint) ([]models.HistoryItem, error) {
	var items []models.HistoryItem
	if err := c.do(ctx, "list history", http.MethodGet, chatQuery(c.endpoints.History, chatID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// do performs one JSON round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("deskapi: %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("deskapi: %s: new request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deskapi: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("deskapi: %s: decode: %w", op, err)
	}
	return nil
}

// errorDetail extracts {"error": "..."} from a failed response, if present.
func errorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return ""
}

func chatQuery(base string, chatID uint) string {
	q := url.Values{}
	q.Set("chat_id", strconv.FormatUint(uint64(chatID), 10))
	return withQuery(base, q)
}

func withQuery(base string, q url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?" + q.Encode()
	}
	existing := u.Query()
	for k, vs := range q {
		for _, v := range vs {
			existing.Add(k, v)
		}
	}
	u.RawQuery = existing.Encode()
	return u.String()
}
