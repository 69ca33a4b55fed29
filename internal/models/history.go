package models

import "time"

// History actions written by the desk server.
const (
	ActionCreated  = "created"
	ActionAssigned = "assigned"
	ActionAccepted = "accepted"
	ActionClosed   = "closed"
)

// HistoryItem is one audit trail entry for a state-changing action on a
// chat. Entries are append-only and read-only for clients.
type HistoryItem struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID       uint      `gorm:"not null;index" json:"chat_id"`
	Action       string    `gorm:"size:32;not null" json:"action"`
	Details      string    `gorm:"type:text" json:"details"`
	EmployeeID   *uint     `json:"-"`
	EmployeeName *string   `gorm:"->;-:migration" json:"employee_name"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps the audit table name stable.
func (HistoryItem) TableName() string { return "chat_history" }
