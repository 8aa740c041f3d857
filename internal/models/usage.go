package models

import (
	"time"

	"gorm.io/gorm"
)

// GuestUsageLimit is the number of instant requests one phone number may
// create per calendar month.
const GuestUsageLimit = 3

// GuestUsageRecord counts one created instant request against a guest phone
// number's monthly quota.
type GuestUsageRecord struct {
	gorm.Model
	GuestPhone  string `json:"guestPhone" gorm:"not null;index:idx_usage_phone_month"`
	MonthBucket string `json:"monthBucket" gorm:"not null;index:idx_usage_phone_month"` // YYYY-MM
	RequestID   uint   `json:"requestId" gorm:"not null"`
}

// TableName specifies the table name
func (GuestUsageRecord) TableName() string {
	return "guest_usage_records"
}

// MonthBucket formats a time as the YYYY-MM quota bucket key.
func MonthBucket(t time.Time) string {
	return t.Format("2006-01")
}
