package db

import (
	"errors"
	"fmt"
	"log"

	"github.com/zulandar/supportdesk/internal/config"
	"github.com/zulandar/supportdesk/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AllModels returns every table the desk server owns.
func AllModels() []interface{} {
	return []interface{}{
		&models.Employee{},
		&models.Chat{},
		&models.Message{},
		&models.HistoryItem{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// HashPassword returns the bcrypt hash stored for an employee password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("db: hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SeedAdmin creates the configured admin account unless an employee with
// that login already exists. It returns true when a row was inserted.
func SeedAdmin(db *gorm.DB, seed config.SeedAdmin) (bool, error) {
	if seed.Login == "" {
		return false, nil
	}
	var existing models.Employee
	err := db.Where("login = ?", seed.Login).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("db: seed admin %q: %w", seed.Login, err)
	}

	hash, err := HashPassword(seed.Password)
	if err != nil {
		return false, err
	}
	name := seed.Name
	if name == "" {
		name = seed.Login
	}
	emp := models.Employee{
		Login:        seed.Login,
		PasswordHash: hash,
		Name:         name,
		Role:         models.RoleAdmin,
		Status:       models.StatusOffline,
	}
	if err := db.Create(&emp).Error; err != nil {
		return false, fmt.Errorf("db: seed admin %q: %w", seed.Login, err)
	}
	log.Printf("db: seeded admin %q (id %d)", emp.Login, emp.ID)
	return true, nil
}
