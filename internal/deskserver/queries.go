package deskserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/supportdesk/internal/models"
	"gorm.io/gorm"
)

var (
	errNotFound  = errors.New("not found")
	errClosed    = errors.New("chat is closed")
	errDuplicate = errors.New("login already exists")
)

// chatQuery selects chats with the assigned operator's name joined in.
func chatQuery(db *gorm.DB) *gorm.DB {
	return db.Table("chats").
		Select("chats.*, employees.name AS operator_name").
		Joins("LEFT JOIN employees ON employees.id = chats.assigned_to")
}

// ListChats returns chats newest first. A non-zero operatorID restricts the
// list to chats assigned to that operator plus chats still waiting for one.
func ListChats(db *gorm.DB, operatorID uint) ([]models.Chat, error) {
	q := chatQuery(db)
	if operatorID != 0 {
		q = q.Where("chats.assigned_to = ? OR (chats.assigned_to IS NULL AND chats.status = ?)", operatorID, models.ChatWaiting)
	}
	chats := []models.Chat{}
	if err := q.Order("chats.created_at DESC, chats.id DESC").Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// GetChat loads one chat with its operator name.
func GetChat(db *gorm.DB, id uint) (models.Chat, error) {
	var chat models.Chat
	err := chatQuery(db).Where("chats.id = ?", id).Take(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return chat, errNotFound
	}
	if err != nil {
		return chat, fmt.Errorf("get chat %d: %w", id, err)
	}
	return chat, nil
}

// CreateChat opens a chat for a visitor with their first message. The chat
// goes to the lowest-id online operator when one exists, otherwise it waits.
func CreateChat(db *gorm.DB, userName, userEmail, text string) (models.Chat, *models.Employee, error) {
	var (
		chat     models.Chat
		operator *models.Employee
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var op models.Employee
		err := tx.Where("status = ? AND role = ?", models.StatusOnline, models.RoleOperator).
			Order("id ASC").Take(&op).Error
		switch {
		case err == nil:
			operator = &op
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		chat = models.Chat{UserName: userName, UserEmail: userEmail, Status: models.ChatWaiting}
		if operator != nil {
			chat.Status = models.ChatAssigned
			chat.AssignedTo = &operator.ID
			chat.OperatorName = &operator.Name
		}
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		msg := models.Message{ChatID: chat.ID, SenderType: models.SenderUser, Text: text}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		if err := addHistory(tx, chat.ID, models.ActionCreated, "chat opened by "+userName, nil); err != nil {
			return err
		}
		if operator != nil {
			return addHistory(tx, chat.ID, models.ActionAssigned, "assigned to "+operator.Name, &operator.ID)
		}
		return nil
	})
	if err != nil {
		return models.Chat{}, nil, fmt.Errorf("create chat: %w", err)
	}
	return chat, operator, nil
}

// CloseChat marks an open chat closed with a resolution. Closing is
// conditional on the chat still being open, so two racing closes cannot
// both succeed.
func CloseChat(db *gorm.DB, id uint, resolution models.Resolution, employeeID uint) (models.Chat, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Chat{}).
			Where("id = ? AND is_closed = ?", id, false).
			Updates(map[string]interface{}{
				"is_closed":         true,
				"resolution_status": resolution,
				"status":            models.ChatClosed,
				"closed_at":         now,
				"updated_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Chat{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return errNotFound
			}
			return errClosed
		}
		return addHistory(tx, id, models.ActionClosed, "closed as "+string(resolution), optionalID(employeeID))
	})
	if err != nil {
		return models.Chat{}, err
	}
	return GetChat(db, id)
}

// SetChatStatus changes the lifecycle label of an open chat.
func SetChatStatus(db *gorm.DB, id uint, status models.ChatStatus) error {
	res := db.Model(&models.Chat{}).
		Where("id = ? AND is_closed = ?", id, false).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("set chat status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := GetChat(db, id); err != nil {
			return err
		}
		return errClosed
	}
	return nil
}

// ListMessages returns a chat's thread oldest first with sender names.
func ListMessages(db *gorm.DB, chatID uint) ([]models.Message, error) {
	msgs := []models.Message{}
	err := db.Table("messages").
		Select("messages.*, employees.name AS sender_name").
		Joins("LEFT JOIN employees ON employees.id = messages.sender_id").
		Where("messages.chat_id = ?", chatID).
		Order("messages.created_at ASC, messages.id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// PostMessage appends to an open chat's thread. The first operator reply to
// a waiting or assigned chat makes it active and assigns it to the sender
// when nobody holds it yet.
func PostMessage(db *gorm.DB, msg *models.Message) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		err := tx.Where("id = ?", msg.ChatID).Take(&chat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound
		}
		if err != nil {
			return err
		}
		if chat.IsClosed {
			return errClosed
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		if msg.SenderType != models.SenderOperator || msg.SenderID == nil {
			return nil
		}
		if chat.Status != models.ChatWaiting && chat.Status != models.ChatAssigned {
			return nil
		}
		updates := map[string]interface{}{"status": models.ChatActive, "updated_at": time.Now()}
		if chat.AssignedTo == nil {
			updates["assigned_to"] = *msg.SenderID
		}
		if err := tx.Model(&models.Chat{}).Where("id = ?", chat.ID).Updates(updates).Error; err != nil {
			return err
		}
		return addHistory(tx, chat.ID, models.ActionAccepted, "operator replied", msg.SenderID)
	})
}

// ListHistory returns a chat's audit trail oldest first.
func ListHistory(db *gorm.DB, chatID uint) ([]models.HistoryItem, error) {
	items := []models.HistoryItem{}
	err := db.Table("chat_history").
		Select("chat_history.*, employees.name AS employee_name").
		Joins("LEFT JOIN employees ON employees.id = chat_history.employee_id").
		Where("chat_history.chat_id = ?", chatID).
		Order("chat_history.created_at ASC, chat_history.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return items, nil
}

func addHistory(tx *gorm.DB, chatID uint, action, details string, employeeID *uint) error {
	return tx.Create(&models.HistoryItem{
		ChatID:     chatID,
		Action:     action,
		Details:    details,
		EmployeeID: employeeID,
	}).Error
}

// ListEmployees returns all staff newest first.
func ListEmployees(db *gorm.DB) ([]models.Employee, error) {
	emps := []models.Employee{}
	if err := db.Order("created_at DESC, id DESC").Find(&emps).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return emps, nil
}

// FindEmployeeByLogin loads an employee for sign-in.
func FindEmployeeByLogin(db *gorm.DB, login string) (models.Employee, error) {
	var emp models.Employee
	err := db.Where("login = ?", login).Take(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emp, errNotFound
	}
	return emp, err
}

// CreateEmployee inserts a staff account. Logins are unique.
func CreateEmployee(db *gorm.DB, emp *models.Employee) error {
	var n int64
	if err := db.Model(&models.Employee{}).Where("login = ?", emp.Login).Count(&n).Error; err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	if n > 0 {
		return errDuplicate
	}
	if err := db.Create(emp).Error; err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") || strings.Contains(err.Error(), "Duplicate") {
			return errDuplicate
		}
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// SetEmployeeStatus updates presence and returns the updated employee.
func SetEmployeeStatus(db *gorm.DB, id uint, status models.EmployeeStatus) (models.Employee, error) {
	res := db.Model(&models.Employee{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return models.Employee{}, fmt.Errorf("set employee status: %w", res.Error)
	}
	var emp models.Employee
	err := db.Where("id = ?", id).Take(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emp, errNotFound
	}
	return emp, err
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
