package services

import (
	"testing"
	"time"

	"github.com/shutterhub/shutterhub-backend/internal/models"
)

func TestCheckUsageFreshPhone(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestUsageService(db)

	status, err := svc.CheckUsage("+819011112222")
	if err != nil {
		t.Fatalf("CheckUsage failed: %v", err)
	}
	if !status.CanUse {
		t.Error("fresh phone number should be allowed")
	}
	if status.UsageCount != 0 || status.Limit != models.GuestUsageLimit {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestCheckUsageAtCap(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestUsageService(db)
	phone := "+819011113333"

	for i := 0; i < models.GuestUsageLimit; i++ {
		if err := svc.RecordUsage(phone, uint(i+1)); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
	}

	status, err := svc.CheckUsage(phone)
	if err != nil {
		t.Fatalf("CheckUsage failed: %v", err)
	}
	if status.CanUse {
		t.Error("phone at cap should be blocked")
	}
	if status.UsageCount != models.GuestUsageLimit {
		t.Errorf("expected usage %d, got %d", models.GuestUsageLimit, status.UsageCount)
	}
}

func TestUsageResetsWithNewMonth(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestUsageService(db)
	phone := "+819011114444"

	// Fill last month's bucket directly.
	lastMonth := models.MonthBucket(time.Now().AddDate(0, -1, 0))
	for i := 0; i < models.GuestUsageLimit; i++ {
		record := models.GuestUsageRecord{
			GuestPhone:  phone,
			MonthBucket: lastMonth,
			RequestID:   uint(i + 1),
		}
		if err := db.Create(&record).Error; err != nil {
			t.Fatalf("failed to seed usage: %v", err)
		}
	}

	status, err := svc.CheckUsage(phone)
	if err != nil {
		t.Fatalf("CheckUsage failed: %v", err)
	}
	if !status.CanUse {
		t.Error("last month's usage must not count against this month")
	}
	if status.UsageCount != 0 {
		t.Errorf("expected 0 usage this month, got %d", status.UsageCount)
	}
}

func TestMonthBucketFormat(t *testing.T) {
	ts := time.Date(2026, time.March, 7, 15, 4, 5, 0, time.UTC)
	if got := models.MonthBucket(ts); got != "2026-03" {
		t.Errorf("expected 2026-03, got %s", got)
	}
}
