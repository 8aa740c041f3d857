package services

import (
	"log"
	"time"

	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/gorm"
)

// FeatureLimitService is the plan-based quota gate shared by photo-session
// and photobook creation. Limits come from the seeded plan_limits rows; any
// failure to resolve a plan or limit falls back to the free-tier default
// rather than blocking the user.
type FeatureLimitService struct {
	DB *gorm.DB
}

func NewFeatureLimitService(db *gorm.DB) *FeatureLimitService {
	return &FeatureLimitService{DB: db}
}

// LimitStatus is the gate's verdict for one (user, feature) pair this month.
type LimitStatus struct {
	Allowed      bool   `json:"allowed"`
	CurrentUsage int    `json:"current_usage"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
	PlanName     string `json:"plan_name"`
}

// CheckLimit resolves the user's active plan, looks up the feature's monthly
// limit and compares it to this month's usage counter.
func (s *FeatureLimitService) CheckLimit(userID uint, featureName string) (*LimitStatus, error) {
	planName := models.PlanFree
	var subscription models.Subscription
	err := s.DB.Where("user_id = ? AND status = ?", userID, "active").
		Order("created_at DESC").
		First(&subscription).Error
	if err == nil {
		planName = subscription.PlanName
	} else if err != gorm.ErrRecordNotFound {
		log.Printf("Subscription lookup failed for user %d, falling back to free plan: %v", userID, err)
	}

	limit := models.FreeTierLimit
	var planLimit models.PlanLimit
	err = s.DB.Where("plan_name = ? AND feature_name = ?", planName, featureName).
		First(&planLimit).Error
	if err == nil {
		limit = planLimit.MonthlyLimit
	} else {
		log.Printf("Plan limit lookup failed for plan %s feature %s, using free-tier default: %v", planName, featureName, err)
	}

	currentUsage := 0
	var usage models.FeatureUsage
	err = s.DB.Where("user_id = ? AND feature_name = ? AND month_bucket = ?",
		userID, featureName, models.MonthBucket(time.Now())).
		First(&usage).Error
	if err == nil {
		currentUsage = usage.UsedCount
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	remaining := limit - currentUsage
	if remaining < 0 {
		remaining = 0
	}

	return &LimitStatus{
		Allowed:      currentUsage < limit,
		CurrentUsage: currentUsage,
		Limit:        limit,
		Remaining:    remaining,
		PlanName:     planName,
	}, nil
}

// RecordUsage increments the user's monthly counter for a feature.
func (s *FeatureLimitService) RecordUsage(userID uint, featureName string, amount int) error {
	bucket := models.MonthBucket(time.Now())

	var usage models.FeatureUsage
	err := s.DB.Where("user_id = ? AND feature_name = ? AND month_bucket = ?",
		userID, featureName, bucket).
		First(&usage).Error
	if err == gorm.ErrRecordNotFound {
		usage = models.FeatureUsage{
			UserID:      userID,
			FeatureName: featureName,
			MonthBucket: bucket,
			UsedCount:   amount,
		}
		return s.DB.Create(&usage).Error
	}
	if err != nil {
		return err
	}

	return s.DB.Model(&usage).Update("used_count", gorm.Expr("used_count + ?", amount)).Error
}
