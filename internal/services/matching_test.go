package services

import (
	"testing"
	"time"

	"github.com/shutterhub/shutterhub-backend/internal/models"
)

func matchingRequest() *models.InstantPhotoRequest {
	return &models.InstantPhotoRequest{
		GuestName:    "Yuki Tanaka",
		GuestPhone:   "+819012345678",
		Latitude:     35.6586,
		Longitude:    139.7016,
		SessionType:  models.SessionTypeCouple,
		Urgency:      models.UrgencyASAP,
		BudgetAmount: 10000,
		Status:       models.RequestStatusPending,
		ExpiresAt:    time.Now().Add(models.RequestExpiry),
	}
}

func onlineLocation(photographerID uint, lat, lng float64, coupleRate int64) models.PhotographerLocation {
	return models.PhotographerLocation{
		PhotographerID:    photographerID,
		Latitude:          lat,
		Longitude:         lng,
		IsOnline:          true,
		AcceptingRequests: true,
		ResponseRadius:    3000,
		CoupleRate:        coupleRate,
		LastSeen:          time.Now(),
	}
}

func TestRankCandidatesFiltersByRadius(t *testing.T) {
	request := matchingRequest()
	locations := []models.PhotographerLocation{
		onlineLocation(1, 35.6595, 139.7005, 8000), // a few hundred meters
		onlineLocation(2, 35.7000, 139.9000, 8000), // ~19km, outside radius
	}

	candidates := RankCandidates(request, locations, time.Now())
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].PhotographerID != 1 {
		t.Errorf("expected photographer 1, got %d", candidates[0].PhotographerID)
	}
}

func TestRankCandidatesFiltersByBudgetAndRate(t *testing.T) {
	request := matchingRequest() // budget 10000, couple session

	overBudget := onlineLocation(1, 35.6590, 139.7010, 12000)
	noRate := onlineLocation(2, 35.6590, 139.7010, 0)
	affordable := onlineLocation(3, 35.6590, 139.7010, 9000)

	candidates := RankCandidates(request, []models.PhotographerLocation{overBudget, noRate, affordable}, time.Now())
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].PhotographerID != 3 {
		t.Errorf("expected photographer 3, got %d", candidates[0].PhotographerID)
	}
	if candidates[0].Rate != 9000 {
		t.Errorf("expected rate 9000, got %d", candidates[0].Rate)
	}
}

func TestRankCandidatesFiltersByAvailabilityWindow(t *testing.T) {
	request := matchingRequest()
	now := time.Now()

	expired := onlineLocation(1, 35.6590, 139.7010, 8000)
	past := now.Add(-10 * time.Minute)
	expired.AvailableUntil = &past

	open := onlineLocation(2, 35.6590, 139.7010, 8000)
	future := now.Add(2 * time.Hour)
	open.AvailableUntil = &future

	unbounded := onlineLocation(3, 35.6590, 139.7010, 8000)

	candidates := RankCandidates(request, []models.PhotographerLocation{expired, open, unbounded}, now)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.PhotographerID == 1 {
			t.Error("photographer past their availability window must be excluded")
		}
	}
}

func TestRankCandidatesOrdersByScore(t *testing.T) {
	request := matchingRequest()

	closeExpensive := onlineLocation(1, 35.6588, 139.7014, 10000) // ~30m
	farCheap := onlineLocation(2, 35.6650, 139.7100, 6000)        // ~1km

	candidates := RankCandidates(request, []models.PhotographerLocation{farCheap, closeExpensive}, time.Now())
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	// For asap urgency distance dominates: the close photographer wins even
	// at a higher rate.
	if candidates[0].PhotographerID != 1 {
		t.Errorf("expected close photographer first, got %d", candidates[0].PhotographerID)
	}
	if candidates[0].Score >= candidates[1].Score {
		t.Error("candidates must be ordered by ascending score")
	}
}

func TestRankCandidatesArrivalEstimate(t *testing.T) {
	request := matchingRequest()
	location := onlineLocation(1, 35.6588, 139.7014, 8000)

	candidates := RankCandidates(request, []models.PhotographerLocation{location}, time.Now())
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ArrivalMins < 1 {
		t.Errorf("arrival estimate must be at least 1 minute, got %d", candidates[0].ArrivalMins)
	}
}

func TestAutoMatchSkipsNonPendingRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, nil)

	request := matchingRequest()
	request.Status = models.RequestStatusMatched
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	result, err := svc.AutoMatch(request.ID)
	if err != nil {
		t.Fatalf("AutoMatch failed: %v", err)
	}
	if result.PhotographerID != nil {
		t.Error("non-pending request must not produce a candidate")
	}
}

func TestAutoMatchNoPhotographersOnline(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, nil)

	request := matchingRequest()
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	result, err := svc.AutoMatch(request.ID)
	if err != nil {
		t.Fatalf("AutoMatch failed: %v", err)
	}
	if result.PhotographerID != nil || result.NotifiedCount != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestAutoMatchNotifiesCandidates(t *testing.T) {
	db := newTestDB(t)
	svc := NewMatchingService(db, nil)

	request := matchingRequest()
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	for i := uint(1); i <= 7; i++ {
		location := onlineLocation(i, 35.6590, 139.7010, 8000)
		if err := db.Create(&location).Error; err != nil {
			t.Fatalf("failed to create location: %v", err)
		}
	}

	result, err := svc.AutoMatch(request.ID)
	if err != nil {
		t.Fatalf("AutoMatch failed: %v", err)
	}
	if result.PhotographerID == nil {
		t.Fatal("expected a best candidate")
	}
	if result.NotifiedCount != maxNotifiedCandidates {
		t.Errorf("expected %d notified, got %d", maxNotifiedCandidates, result.NotifiedCount)
	}
}
