package deskserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/supportdesk/internal/config"
	"github.com/zulandar/supportdesk/internal/db"
	"github.com/zulandar/supportdesk/internal/deskapi"
	"github.com/zulandar/supportdesk/internal/models"
	"github.com/zulandar/supportdesk/internal/notify"
	"gorm.io/gorm"
)

// registerRoutes sets up the five desk resources on the Gin router.
func registerRoutes(router *gin.Engine, gdb *gorm.DB, pub Publisher, paths config.APIConfig) {
	router.POST(paths.AuthPath, handleAuth(gdb))

	router.GET(paths.ChatsPath, handleChatList(gdb))
	router.POST(paths.ChatsPath, handleChatCreate(gdb, pub))
	router.PUT(paths.ChatsPath, handleChatUpdate(gdb, pub))

	router.GET(paths.MessagesPath, handleMessageList(gdb))
	router.POST(paths.MessagesPath, handleMessageCreate(gdb))

	router.GET(paths.EmployeesPath, handleEmployeeList(gdb))
	router.POST(paths.EmployeesPath, handleEmployeeCreate(gdb))
	router.PUT(paths.EmployeesPath, handleEmployeeStatus(gdb))

	router.GET(paths.HistoryPath, handleHistoryList(gdb))
}

func handleAuth(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deskapi.Credentials
		if err := c.ShouldBindJSON(&req); err != nil || req.Login == "" || req.Password == "" {
			badRequest(c, "login and password required")
			return
		}
		emp, err := FindEmployeeByLogin(gdb, req.Login)
		if err != nil && !errors.Is(err, errNotFound) {
			internalError(c, "auth", err)
			return
		}
		if err != nil || !db.CheckPassword(emp.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid login or password"})
			return
		}
		c.JSON(http.StatusOK, emp)
	}
}

func handleChatList(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var operatorID uint
		if v := c.Query("operator_id"); v != "" {
			id, ok := parseID(v)
			if !ok {
				badRequest(c, "operator_id must be a positive integer")
				return
			}
			operatorID = id
		}
		chats, err := ListChats(gdb, operatorID)
		if err != nil {
			internalError(c, "list chats", err)
			return
		}
		c.JSON(http.StatusOK, chats)
	}
}

func handleChatCreate(gdb *gorm.DB, pub Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deskapi.NewChat
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		req.UserName = strings.TrimSpace(req.UserName)
		if req.UserName == "" || strings.TrimSpace(req.Message) == "" {
			badRequest(c, "user name and message required")
			return
		}
		chat, operator, err := CreateChat(gdb, req.UserName, strings.TrimSpace(req.UserEmail), req.Message)
		if err != nil {
			internalError(c, "create chat", err)
			return
		}

		evt := notify.Event{
			Kind:      notify.ChatCreated,
			ChatID:    chat.ID,
			UserName:  chat.UserName,
			UserEmail: chat.UserEmail,
			Message:   req.Message,
			Status:    chat.Status,
		}
		if operator != nil {
			evt.Operator = operator.Name
		}
		pub.Publish(evt)

		c.JSON(http.StatusCreated, deskapi.CreatedChat{ChatID: chat.ID, Status: chat.Status})
	}
}

// chatUpdate is the PUT body: either a close action or a plain status change.
type chatUpdate struct {
	Action     string            `json:"action"`
	ChatID     uint              `json:"chat_id"`
	Status     models.ChatStatus `json:"status"`
	Resolution models.Resolution `json:"resolution_status"`
	EmployeeID uint              `json:"employee_id"`
}

func handleChatUpdate(gdb *gorm.DB, pub Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		if req.ChatID == 0 {
			badRequest(c, "chat_id required")
			return
		}

		switch req.Action {
		case "close":
			if !req.Resolution.Valid() {
				badRequest(c, "resolution_status must be solved or unsolved")
				return
			}
			chat, err := CloseChat(gdb, req.ChatID, req.Resolution, req.EmployeeID)
			if err != nil {
				chatError(c, "close chat", err)
				return
			}
			evt := notify.Event{
				Kind:       notify.ChatClosed,
				ChatID:     chat.ID,
				UserName:   chat.UserName,
				Status:     chat.Status,
				Resolution: chat.Resolution,
			}
			if closer, err := employeeName(gdb, req.EmployeeID); err == nil {
				evt.Operator = closer
			}
			pub.Publish(evt)
			c.JSON(http.StatusOK, chat)
		case "":
			switch req.Status {
			case models.ChatWaiting, models.ChatAssigned, models.ChatActive:
			default:
				badRequest(c, "status must be waiting, assigned or active")
				return
			}
			if err := SetChatStatus(gdb, req.ChatID, req.Status); err != nil {
				chatError(c, "set chat status", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true})
		default:
			badRequest(c, "unknown action "+strconv.Quote(req.Action))
		}
	}
}

func handleMessageList(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID, ok := parseID(c.Query("chat_id"))
		if !ok {
			badRequest(c, "chat_id required")
			return
		}
		msgs, err := ListMessages(gdb, chatID)
		if err != nil {
			internalError(c, "list messages", err)
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

func handleMessageCreate(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deskapi.NewMessage
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		if req.ChatID == 0 || strings.TrimSpace(req.Message) == "" {
			badRequest(c, "chat_id and message required")
			return
		}
		if req.SenderType == "" {
			req.SenderType = models.SenderUser
		}
		if req.SenderType != models.SenderUser && req.SenderType != models.SenderOperator {
			badRequest(c, "sender_type must be user or operator")
			return
		}
		msg := models.Message{
			ChatID:     req.ChatID,
			SenderType: req.SenderType,
			SenderID:   req.SenderID,
			Text:       req.Message,
		}
		if err := PostMessage(gdb, &msg); err != nil {
			chatError(c, "post message", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message_id": msg.ID})
	}
}

func handleEmployeeList(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		emps, err := ListEmployees(gdb)
		if err != nil {
			internalError(c, "list employees", err)
			return
		}
		c.JSON(http.StatusOK, emps)
	}
}

func handleEmployeeCreate(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deskapi.NewEmployee
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		req.Login = strings.TrimSpace(req.Login)
		req.Name = strings.TrimSpace(req.Name)
		if req.Login == "" || req.Password == "" || req.Name == "" {
			badRequest(c, "login, password and name required")
			return
		}
		if req.Role == "" {
			req.Role = models.RoleOperator
		}
		if !req.Role.Valid() {
			badRequest(c, "role must be admin or operator")
			return
		}
		hash, err := db.HashPassword(req.Password)
		if err != nil {
			internalError(c, "create employee", err)
			return
		}
		emp := models.Employee{
			Login:        req.Login,
			PasswordHash: hash,
			Name:         req.Name,
			Role:         req.Role,
			Status:       models.StatusOffline,
		}
		if err := CreateEmployee(gdb, &emp); err != nil {
			if errors.Is(err, errDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			internalError(c, "create employee", err)
			return
		}
		c.JSON(http.StatusCreated, emp)
	}
}

func handleEmployeeStatus(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deskapi.StatusUpdate
		if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 || req.Status == "" {
			badRequest(c, "employee id and status required")
			return
		}
		if !req.Status.Valid() {
			badRequest(c, "status must be online, offline or break")
			return
		}
		emp, err := SetEmployeeStatus(gdb, req.ID, req.Status)
		if errors.Is(err, errNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
			return
		}
		if err != nil {
			internalError(c, "set employee status", err)
			return
		}
		c.JSON(http.StatusOK, emp)
	}
}

func handleHistoryList(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID, ok := parseID(c.Query("chat_id"))
		if !ok {
			badRequest(c, "chat_id required")
			return
		}
		items, err := ListHistory(gdb, chatID)
		if err != nil {
			internalError(c, "list history", err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func employeeName(gdb *gorm.DB, id uint) (string, error) {
	if id == 0 {
		return "", errNotFound
	}
	var emp models.Employee
	if err := gdb.Select("name").Where("id = ?", id).Take(&emp).Error; err != nil {
		return "", err
	}
	return emp.Name, nil
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func chatError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
	case errors.Is(err, errClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		internalError(c, op, err)
	}
}

func internalError(c *gin.Context, op string, err error) {
	log.Printf("deskserver: %s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
