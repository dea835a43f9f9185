// Command create_user adds a user to the handscan database.
package main

import (
	"errors"
	"fmt"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"handscan/internal/config"
	applog "handscan/internal/logger"
	"handscan/models"
)

type CLI struct {
	Username string `arg:"" help:"Login name"`
	Password string `arg:"" help:"Plain text password"`
	Role     string `default:"user" enum:"user,administrator" help:"Role to grant"`
	Reset    bool   `help:"Replace the password of an existing user instead"`
}

var errExists = errors.New("user already exists")

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Name("create_user"), kong.UsageOnError())

	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)
	log, err := applog.NewConsole(cfg.LogLevel)
	kctx.FatalIfErrorf(err)
	defer log.Sync()

	if cfg.DBDSN == "" {
		kctx.Fatalf("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	kctx.FatalIfErrorf(err, "failed to open db")

	if len(cli.Password) < 6 {
		kctx.Fatalf("password too short (min 6)")
	}
	if cli.Reset {
		kctx.FatalIfErrorf(resetPassword(db, cli.Username, cli.Password))
		fmt.Printf("password reset for user %s\n", cli.Username)
		return
	}
	user, err := createUser(db, cli.Username, cli.Password, cli.Role)
	if errors.Is(err, errExists) {
		fmt.Printf("user %s already exists (id=%d)\n", cli.Username, user.ID)
		return
	}
	kctx.FatalIfErrorf(err)
	log.Info("user created", zap.String("username", user.Username), zap.Uint("id", user.ID), zap.String("role", cli.Role))
	fmt.Printf("created user %s id=%d\n", user.Username, user.ID)
}

// createUser ensures the role exists and inserts the user. An existing user
// is returned together with errExists.
func createUser(db *gorm.DB, username, password, roleName string) (models.User, error) {
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return existing, errExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	role := models.Role{Name: roleName}
	if err := db.Where("name = ?", roleName).FirstOrCreate(&role).Error; err != nil {
		return models.User{}, fmt.Errorf("role %s: %w", roleName, err)
	}
	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("bcrypt: %w", err)
	}
	rid := role.ID
	user := models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func resetPassword(db *gorm.DB, username, password string) error {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return fmt.Errorf("user %s: %w", username, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bcrypt: %w", err)
	}
	return db.Model(&user).Update("hashed_password", hash).Error
}
