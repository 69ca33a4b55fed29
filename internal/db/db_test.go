package db

import (
	"path/filepath"
	"testing"

	"github.com/zulandar/supportdesk/internal/config"
	"github.com/zulandar/supportdesk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func TestAllModels(t *testing.T) {
	if got := len(AllModels()); got != 4 {
		t.Errorf("AllModels() = %d models, want 4", got)
	}
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"employees", "chats", "messages", "chat_history"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s missing after migrate", table)
		}
	}
	if db.Migrator().HasColumn(&models.Chat{}, "operator_name") {
		t.Error("operator_name is read-only and should not be migrated")
	}
	if !db.Migrator().HasColumn(&models.Chat{}, "resolution_status") {
		t.Error("resolution_status column missing")
	}
}

func TestConnect_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.db")
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: path}, false)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	if _, err := Connect(config.DatabaseConfig{Driver: "postgres"}, false); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("CheckPassword rejected the right password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestSeedAdmin(t *testing.T) {
	db := testDB(t)
	seed := config.SeedAdmin{Login: "root", Password: "pw"}

	created, err := SeedAdmin(db, seed)
	if err != nil || !created {
		t.Fatalf("SeedAdmin = %v, %v; want true, nil", created, err)
	}
	var emp models.Employee
	if err := db.Where("login = ?", "root").First(&emp).Error; err != nil {
		t.Fatalf("load seeded admin: %v", err)
	}
	if emp.Role != models.RoleAdmin || emp.Name != "root" || !CheckPassword(emp.PasswordHash, "pw") {
		t.Errorf("seeded = %+v", emp)
	}

	created, err = SeedAdmin(db, seed)
	if err != nil || created {
		t.Fatalf("second SeedAdmin = %v, %v; want false, nil", created, err)
	}
	var n int64
	db.Model(&models.Employee{}).Count(&n)
	if n != 1 {
		t.Errorf("employees = %d, want 1", n)
	}
}

func TestSeedAdmin_Disabled(t *testing.T) {
	db := testDB(t)
	created, err := SeedAdmin(db, config.SeedAdmin{})
	if err != nil || created {
		t.Fatalf("SeedAdmin = %v, %v; want false, nil", created, err)
	}
}
