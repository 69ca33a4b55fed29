package models

import "time"

// SenderType identifies who wrote a chat message.
type SenderType string

const (
	SenderUser     SenderType = "user"
	SenderOperator SenderType = "operator"
)

// Message is a single append-only entry in a chat thread. Threads are
// ordered by CreatedAt ascending.
type Message struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID     uint       `gorm:"not null;index" json:"chat_id"`
	SenderType SenderType `gorm:"size:16;not null;default:user" json:"sender_type"`
	SenderID   *uint      `json:"sender_id,omitempty"`
	Text       string     `gorm:"column:message;type:text;not null" json:"message"`
	SenderName *string    `gorm:"->;-:migration" json:"sender_name"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
