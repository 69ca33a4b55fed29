package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChatStatus is the server-assigned lifecycle label of an open chat. Beyond
// IsClosed the value is opaque to clients.
type ChatStatus string

const (
	ChatWaiting  ChatStatus = "waiting"
	ChatAssigned ChatStatus = "assigned"
	ChatActive   ChatStatus = "active"
	ChatClosed   ChatStatus = "closed"
)

// Resolution is the outcome recorded when a chat is closed. The zero value
// means the chat has no resolution yet and is encoded as JSON null.
type Resolution string

const (
	ResolutionNone     Resolution = ""
	ResolutionSolved   Resolution = "solved"
	ResolutionUnsolved Resolution = "unsolved"
)

// Valid reports whether r is a terminal resolution (solved or unsolved).
func (r Resolution) Valid() bool {
	return r == ResolutionSolved || r == ResolutionUnsolved
}

// MarshalJSON encodes ResolutionNone as null.
func (r Resolution) MarshalJSON() ([]byte, error) {
	if r == ResolutionNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON accepts null, "", "solved" and "unsolved".
func (r *Resolution) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ResolutionNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("resolution: %w", err)
	}
	v := Resolution(s)
	if v != ResolutionNone && !v.Valid() {
		return fmt.Errorf("resolution: unknown value %q", s)
	}
	*r = v
	return nil
}

// Chat is one support conversation between a visitor and staff.
//
// A chat is closed exactly once: IsClosed flips false->true together with a
// non-empty Resolution, and nothing reopens it.
type Chat struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserName     string     `gorm:"size:128;not null" json:"user_name"`
	UserEmail    string     `gorm:"size:256" json:"user_email"`
	Status       ChatStatus `gorm:"size:16;not null;default:waiting;index" json:"status"`
	AssignedTo   *uint      `gorm:"index" json:"assigned_to"`
	OperatorName *string    `gorm:"->;-:migration" json:"operator_name"`
	IsClosed     bool       `gorm:"not null;default:false;index" json:"is_closed"`
	Resolution   Resolution `gorm:"column:resolution_status;size:16" json:"resolution_status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"-"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// Consistent reports whether the closed flag and resolution agree: a chat
// has a resolution iff it is closed.
func (c Chat) Consistent() bool {
	if c.IsClosed {
		return c.Resolution.Valid()
	}
	return c.Resolution == ResolutionNone
}

// AssignedToID returns the assigned operator id, or 0 when unassigned.
func (c Chat) AssignedToID() uint {
	if c.AssignedTo == nil {
		return 0
	}
	return *c.AssignedTo
}
