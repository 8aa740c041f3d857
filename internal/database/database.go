package database

import (
	"fmt"
	"os"

	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrateAll creates every table the application uses. Shared with the
// test helpers so the sqlite test database matches production.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.InstantPhotoRequest{},
		&models.PhotographerResponse{},
		&models.PhotographerLocation{},
		&models.InstantBooking{},
		&models.GuestUsageRecord{},
		&models.Subscription{},
		&models.PlanLimit{},
		&models.FeatureUsage{},
		&models.PhotoSession{},
		&models.SessionSlot{},
		&models.SlotBooking{},
		&models.Photobook{},
		&models.Notification{},
	)
}
