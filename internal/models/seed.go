package models

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"launchkit/internal/config"
	console "launchkit/internal/utils/logger"
)

var log = console.New("SEEDER")

// CreateSuperAdminFromEnv creates the first system admin from SUPERADMIN_* settings.
// It is a no-op once any admin exists.
func CreateSuperAdminFromEnv(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&User{}).Where("role = ?", SystemRoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	log.Info("Admin count: %d", count)
	if count > 0 {
		return nil
	}

	if cfg.Auth.AdminEmail == "" {
		return errors.New("SUPERADMIN_EMAIL not set")
	}
	if cfg.Auth.AdminPassword == "" {
		return errors.New("SUPERADMIN_PASSWORD not set")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.AdminPassword), cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		Name:          cfg.Auth.AdminName,
		Email:         strings.ToLower(cfg.Auth.AdminEmail),
		EmailVerified: true,
		Role:          SystemRoleAdmin,
		PasswordHash:  string(hashedPassword),
	}

	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create superadmin user: %w", err)
	}

	return nil
}
