package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"handscan/models"
)

var db *gorm.DB

// openDB connects to Postgres and, unless disabled, migrates and seeds.
func openDB(dsn string, migrate bool) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if migrate {
		migrateModels(gdb)
	}
	seedDB(gdb)
	return gdb, nil
}

// migrateModels migrates tables one by one so a failure on one (for
// instance missing privileges) does not block the others. Roles go first
// so the users FK can be applied.
func migrateModels(gdb *gorm.DB) {
	steps := []struct {
		table string
		model any
	}{
		{"roles", &models.Role{}},
		{"users", &models.User{}},
		{"refresh_tokens", &models.RefreshToken{}},
		{"events", &models.Event{}},
		{"hands", &models.Hand{}},
	}
	for _, s := range steps {
		if err := gdb.AutoMigrate(s.model); err != nil {
			logger.Warn("migration warning", zap.String("table", s.table), zap.Error(err))
		}
	}
}

func seedDB(gdb *gorm.DB) {
	roles := []models.Role{{Name: roleAdmin, Description: "full access"}, {Name: roleUser, Description: "regular user"}}
	for _, r := range roles {
		if err := gdb.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			logger.Warn("seed role", zap.String("role", r.Name), zap.Error(err))
		}
	}

	var count int64
	gdb.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := gdb.Where("name = ?", roleAdmin).First(&role).Error; err != nil {
			logger.Warn("failed to find administrator role", zap.Error(err))
		}
		rid := role.ID
		admin := models.User{Username: "admin", RoleID: &rid}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		if err := gdb.Create(&admin).Error; err != nil {
			logger.Warn("seed admin", zap.Error(err))
		} else {
			logger.Info("seeded admin user", zap.String("username", "admin"), zap.String("password", "admin123"))
		}
	}
	ensureUploadBase()
}

func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0o755); err != nil {
		logger.Warn("failed to create upload base dir", zap.String("dir", base), zap.Error(err))
	}
}

// uploadBaseDir is where uploaded videos live (UPLOAD_BASE).
func uploadBaseDir() string {
	if appCfg != nil && appCfg.UploadBase != "" {
		return appCfg.UploadBase
	}
	return "uploads"
}

// isUniqueConstraintError matches duplicate key errors by message.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "UNIQUE constraint failed")
}
