package models

import (
	"time"

	"gorm.io/gorm"
)

// Plan name constants
const (
	PlanFree   = "free"
	PlanPro    = "pro"
	PlanStudio = "studio"
)

// Feature name constants used by the feature-limit gate
const (
	FeaturePhotoSessions = "photo_sessions"
	FeaturePhotobooks    = "photobooks"
)

// FreeTierLimit is the fallback monthly limit when no plan row can be
// resolved for a user.
const FreeTierLimit = 3

// Subscription ties a user to a paid plan through the payments provider.
type Subscription struct {
	gorm.Model
	UserID                 uint   `json:"userId" gorm:"not null;index"`
	PlanName               string `json:"planName" gorm:"not null;default:'free'"`
	Status                 string `json:"status" gorm:"not null;default:'active'"` // active, past_due, cancelled
	ProviderCustomerID     string `json:"-" gorm:"column:provider_customer_id"`
	ProviderSubscriptionID string `json:"-" gorm:"column:provider_subscription_id"`
	CurrentPeriodEnd       *time.Time `json:"currentPeriodEnd,omitempty"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (Subscription) TableName() string {
	return "subscriptions"
}

// PlanLimit is one (plan, feature) monthly quota row, seeded at migration
// time.
type PlanLimit struct {
	gorm.Model
	PlanName     string `json:"planName" gorm:"not null;index:idx_plan_feature,unique"`
	FeatureName  string `json:"featureName" gorm:"not null;index:idx_plan_feature,unique"`
	MonthlyLimit int    `json:"monthlyLimit" gorm:"not null"`
}

// TableName specifies the table name
func (PlanLimit) TableName() string {
	return "plan_limits"
}

// FeatureUsage is a per-user, per-feature monthly counter.
type FeatureUsage struct {
	gorm.Model
	UserID      uint   `json:"userId" gorm:"not null;index:idx_feature_usage,unique"`
	FeatureName string `json:"featureName" gorm:"not null;index:idx_feature_usage,unique"`
	MonthBucket string `json:"monthBucket" gorm:"not null;index:idx_feature_usage,unique"`
	UsedCount   int    `json:"usedCount" gorm:"not null;default:0"`
}

// TableName specifies the table name
func (FeatureUsage) TableName() string {
	return "feature_usage"
}
