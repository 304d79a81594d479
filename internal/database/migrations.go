package database

import (
	"log"
	"os"

	"github.com/gobikevn/bikerental-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Station{},
		&models.Bike{},
		&models.Transaction{},
		&models.CatalogService{},
		&models.OTP{},
	)
	if err != nil {
		return err
	}

	// Older deployments predate the role column and the status constraints
	if db.Migrator().HasTable(&models.User{}) {
		columns := []string{
			"ADD COLUMN IF NOT EXISTS role text DEFAULT 'customer'",
			"ADD COLUMN IF NOT EXISTS avatar_url text DEFAULT ''",
		}
		for _, column := range columns {
			if err := db.Exec("ALTER TABLE users " + column).Error; err != nil {
				return err
			}
		}

		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`)
		db.Exec(`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('admin', 'customer'))`)
	}

	if db.Migrator().HasTable(&models.Bike{}) {
		db.Exec(`ALTER TABLE bikes DROP CONSTRAINT IF EXISTS bikes_status_check`)
		db.Exec(`ALTER TABLE bikes ADD CONSTRAINT bikes_status_check CHECK (status IN ('available', 'rented', 'maintenance'))`)
	}

	if db.Migrator().HasTable(&models.Transaction{}) {
		db.Exec(`ALTER TABLE transactions DROP CONSTRAINT IF EXISTS transactions_status_check`)
		db.Exec(`ALTER TABLE transactions ADD CONSTRAINT transactions_status_check CHECK (status IN ('confirmed', 'return_requested', 'completed', 'cancelled'))`)
	}

	return ensureAdminExists(db)
}

// ensureAdminExists seeds the first admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Skipped when the variables are unset or an admin already
// exists.
func ensureAdminExists(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := models.User{
		FullName: "Administrator",
		Email:    email,
		Password: password,
		Role:     models.UserRoleAdmin,
	}
	if err := admin.HashPassword(); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin account %s", email)
	return nil
}
