package database

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"companies-backend/config"
	"companies-backend/models"
)

// SeedAdmin creates the configured admin user if no user with that email exists.
// It is a no-op when no admin credentials are configured.
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	user := models.User{
		Name:  cfg.Name,
		Email: email,
		Role:  models.RoleAdmin,
	}
	if err := user.SetPassword(cfg.Password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	zap.L().Info("admin user seeded", zap.String("email", email))
	return nil
}
