package models

import "time"

// Role is a staff account's permission level.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

// EmployeeStatus is a staff member's presence.
type EmployeeStatus string

const (
	StatusOnline  EmployeeStatus = "online"
	StatusOffline EmployeeStatus = "offline"
	StatusBreak   EmployeeStatus = "break"
)

// Valid reports whether s is a known presence status.
func (s EmployeeStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusBreak:
		return true
	}
	return false
}

// Employee is an authenticated staff account (operator or admin) with a
// presence status. The console refers to the signed-in Employee as the
// session identity.
type Employee struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Login        string         `gorm:"size:64;not null;uniqueIndex" json:"login"`
	PasswordHash string         `gorm:"size:128;not null" json:"-"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	Role         Role           `gorm:"size:16;not null;default:operator;index" json:"role"`
	Status       EmployeeStatus `gorm:"size:16;not null;default:offline;index" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}
