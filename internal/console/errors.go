package console

import (
	"errors"
	"fmt"
)

// Sentinel errors for actions that are rejected before any request is made.
var (
	ErrNotSignedIn = errors.New("console: not signed in")
	ErrSignedIn    = errors.New("console: already signed in")
	ErrAdminOnly   = errors.New("console: admin view required")
	ErrNoSelection = errors.New("console: no chat selected")
	ErrUnknownChat = errors.New("console: chat not in list")
	ErrChatClosed  = errors.New("console: chat is closed")
)

// AuthError reports a failed sign-in: rejected credentials or a transport
// failure while authenticating. Session state is unchanged.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("console: sign in: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// TransportError reports a failed remote call for a non-auth action. The
// local cache keeps its last known good value.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("console: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError reports missing or malformed input caught before any
// request was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("console: %s %s", e.Field, e.Reason)
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}
