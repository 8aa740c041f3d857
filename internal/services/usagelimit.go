package services

import (
	"time"

	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/gorm"
)

// GuestUsageService enforces the monthly instant-request cap per guest phone
// number. Usage rows are appended after request creation and are not
// transactional with it; a crash in between under-counts one use.
type GuestUsageService struct {
	DB *gorm.DB
}

func NewGuestUsageService(db *gorm.DB) *GuestUsageService {
	return &GuestUsageService{DB: db}
}

// UsageStatus reports a guest's standing against the monthly cap.
type UsageStatus struct {
	CanUse     bool `json:"canUse"`
	UsageCount int  `json:"usageCount"`
	Limit      int  `json:"limit"`
}

// CheckUsage counts this month's usage rows for a phone number.
func (s *GuestUsageService) CheckUsage(phone string) (*UsageStatus, error) {
	var count int64
	err := s.DB.Model(&models.GuestUsageRecord{}).
		Where("guest_phone = ? AND month_bucket = ?", phone, models.MonthBucket(time.Now())).
		Count(&count).Error
	if err != nil {
		return nil, err
	}

	return &UsageStatus{
		CanUse:     count < models.GuestUsageLimit,
		UsageCount: int(count),
		Limit:      models.GuestUsageLimit,
	}, nil
}

// RecordUsage appends one usage row for a created request.
func (s *GuestUsageService) RecordUsage(phone string, requestID uint) error {
	record := models.GuestUsageRecord{
		GuestPhone:  phone,
		MonthBucket: models.MonthBucket(time.Now()),
		RequestID:   requestID,
	}
	return s.DB.Create(&record).Error
}
