package database

import (
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return err
	}

	// Update users table for installs created before photographer profiles
	if db.Migrator().HasTable(&models.User{}) {
		columns := []string{
			"ADD COLUMN IF NOT EXISTS bio text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS portfolio_url text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS fcm_token text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS user_type text DEFAULT 'guest'",
		}

		for _, column := range columns {
			if err := db.Exec("ALTER TABLE users " + column).Error; err != nil {
				return err
			}
		}

		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`)
		db.Exec(`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('guest', 'photographer', 'organizer'))`)
	}

	return SeedPlanLimits(db)
}

// SeedPlanLimits inserts the default (plan, feature) quota rows if they are
// missing. Existing rows are left alone so operators can tune limits in place.
func SeedPlanLimits(db *gorm.DB) error {
	defaults := []models.PlanLimit{
		{PlanName: models.PlanFree, FeatureName: models.FeaturePhotoSessions, MonthlyLimit: 3},
		{PlanName: models.PlanFree, FeatureName: models.FeaturePhotobooks, MonthlyLimit: 3},
		{PlanName: models.PlanPro, FeatureName: models.FeaturePhotoSessions, MonthlyLimit: 30},
		{PlanName: models.PlanPro, FeatureName: models.FeaturePhotobooks, MonthlyLimit: 20},
		{PlanName: models.PlanStudio, FeatureName: models.FeaturePhotoSessions, MonthlyLimit: 300},
		{PlanName: models.PlanStudio, FeatureName: models.FeaturePhotobooks, MonthlyLimit: 200},
	}

	for _, limit := range defaults {
		var existing models.PlanLimit
		err := db.Where("plan_name = ? AND feature_name = ?", limit.PlanName, limit.FeatureName).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&limit).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	return nil
}
