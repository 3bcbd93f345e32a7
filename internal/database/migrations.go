package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lenskeep/lenskeep/internal/models"
	"gorm.io/gorm"
)

// AdminUserID is the reserved user ID for the built-in admin account
const AdminUserID = 1

// RunBaselineMigrations creates the baseline schema. Versioned migrations in
// the registry evolve the schema beyond this point.
func RunBaselineMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Client{},
		&models.Photo{},
		&models.SchemaMigration{},
	); err != nil {
		return fmt.Errorf("failed to run auto-migrations: %w", err)
	}

	if err := createAdminUser(db); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}

// createAdminUser seeds the built-in admin account. The password is a
// placeholder hash; the operator sets a real one on first login.
func createAdminUser(db *gorm.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", AdminUserID).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		// Admin user already exists
		return nil
	}

	admin := &models.User{
		Email:     "admin@lenskeep.local",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := admin.SetPassword("changeme"); err != nil {
		return err
	}

	if err := db.WithContext(ctx).Exec(
		"INSERT INTO users (id, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		AdminUserID, admin.Email, admin.Password, admin.CreatedAt, admin.UpdatedAt,
	).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}
