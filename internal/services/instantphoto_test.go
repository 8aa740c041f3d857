package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shutterhub/shutterhub-backend/internal/database"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrateAll(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*InstantPhotoService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewInstantPhotoService(db, NewGuestUsageService(db), nil)
	return svc, db
}

func createTestRequest(t *testing.T, svc *InstantPhotoService, phone string) *models.InstantPhotoRequest {
	t.Helper()
	request, err := svc.CreateRequest(CreateRequestInput{
		GuestName:    "Yuki Tanaka",
		GuestPhone:   phone,
		Latitude:     35.6586,
		Longitude:    139.7016,
		SessionType:  models.SessionTypeCouple,
		Urgency:      models.UrgencyASAP,
		BudgetAmount: 10000,
	})
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return request
}

func TestCreateRequestDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	request, err := svc.CreateRequest(CreateRequestInput{
		GuestName:    "Yuki Tanaka",
		GuestPhone:   "+819000000001",
		Latitude:     35.6586,
		Longitude:    139.7016,
		BudgetAmount: 8000,
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if request.Status != models.RequestStatusPending {
		t.Errorf("expected status pending, got %s", request.Status)
	}
	if request.SessionType != models.SessionTypePortrait {
		t.Errorf("expected default session type portrait, got %s", request.SessionType)
	}
	if request.Urgency != models.UrgencyASAP {
		t.Errorf("expected default urgency asap, got %s", request.Urgency)
	}
	if request.PartySize != 1 {
		t.Errorf("expected default party size 1, got %d", request.PartySize)
	}
	if request.DurationMinutes != 30 {
		t.Errorf("expected default duration 30, got %d", request.DurationMinutes)
	}
	if time.Until(request.ExpiresAt) < 71*time.Hour {
		t.Errorf("expected expiry around 72h out, got %v", request.ExpiresAt)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name  string
		input CreateRequestInput
	}{
		{"missing name", CreateRequestInput{GuestPhone: "+81900", Latitude: 35, Longitude: 139, BudgetAmount: 5000}},
		{"missing phone", CreateRequestInput{GuestName: "A", Latitude: 35, Longitude: 139, BudgetAmount: 5000}},
		{"zero budget", CreateRequestInput{GuestName: "A", GuestPhone: "+81900", Latitude: 35, Longitude: 139}},
		{"bad coordinates", CreateRequestInput{GuestName: "A", GuestPhone: "+81900", Latitude: 95, Longitude: 139, BudgetAmount: 5000}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateRequest(tc.input); err != ErrInvalidInput {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateRequestEnforcesMonthlyCap(t *testing.T) {
	svc, _ := newTestService(t)
	phone := "+819000000002"

	for i := 0; i < models.GuestUsageLimit; i++ {
		createTestRequest(t, svc, phone)
	}

	_, err := svc.CreateRequest(CreateRequestInput{
		GuestName:    "Yuki Tanaka",
		GuestPhone:   phone,
		Latitude:     35.6586,
		Longitude:    139.7016,
		BudgetAmount: 10000,
	})
	if err != ErrUsageLimitReached {
		t.Fatalf("expected ErrUsageLimitReached after %d requests, got %v", models.GuestUsageLimit, err)
	}

	// A different phone is unaffected.
	createTestRequest(t, svc, "+819000000003")
}

func TestAcceptClaimsRequest(t *testing.T) {
	svc, _ := newTestService(t)
	request := createTestRequest(t, svc, "+819000000010")

	updated, err := svc.Respond(request.ID, 7, models.ResponseAccept, RespondInput{EstimatedArrivalMins: 5})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if updated.Status != models.RequestStatusAccepted {
		t.Errorf("expected status photographer_accepted, got %s", updated.Status)
	}
	if updated.PendingPhotographerID == nil || *updated.PendingPhotographerID != 7 {
		t.Errorf("expected pending photographer 7, got %v", updated.PendingPhotographerID)
	}
	if updated.PhotographerTimeoutAt == nil {
		t.Fatal("expected approval deadline to be set")
	}
	window := time.Until(*updated.PhotographerTimeoutAt)
	if window < 9*time.Minute || window > 11*time.Minute {
		t.Errorf("expected roughly 10 minute approval window, got %v", window)
	}
}

func TestAcceptMutualExclusion(t *testing.T) {
	svc, _ := newTestService(t)
	request := createTestRequest(t, svc, "+819000000011")

	if _, err := svc.Respond(request.ID, 1, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	_, err := svc.Respond(request.ID, 2, models.ResponseAccept, RespondInput{})
	if err != ErrClaimedByOther {
		t.Fatalf("expected ErrClaimedByOther for second photographer, got %v", err)
	}
}

func TestAcceptIdempotentForSamePhotographer(t *testing.T) {
	svc, db := newTestService(t)
	request := createTestRequest(t, svc, "+819000000012")

	if _, err := svc.Respond(request.ID, 1, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	// The audit row blocks a literal second accept call.
	if _, err := svc.Respond(request.ID, 1, models.ResponseAccept, RespondInput{}); err != ErrAlreadyResponded {
		t.Fatalf("expected ErrAlreadyResponded on repeat accept, got %v", err)
	}

	// Exactly one response row exists.
	var count int64
	db.Model(&models.PhotographerResponse{}).Where("request_id = ?", request.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 response row, got %d", count)
	}
}

func TestDeclineDoesNotTouchStatus(t *testing.T) {
	svc, _ := newTestService(t)
	request := createTestRequest(t, svc, "+819000000013")

	if _, err := svc.Respond(request.ID, 1, models.ResponseDecline, RespondInput{DeclineReason: "too far"}); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	current, err := svc.GetRequest(request.ID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if current.Status != models.RequestStatusPending {
		t.Errorf("decline must leave the request pending, got %s", current.Status)
	}

	// Another photographer can still accept.
	if _, err := svc.Respond(request.ID, 2, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept after decline failed: %v", err)
	}
}

func TestDeclinedPhotographerCannotAccept(t *testing.T) {
	svc, _ := newTestService(t)
	request := createTestRequest(t, svc, "+819000000014")

	if _, err := svc.Respond(request.ID, 1, models.ResponseDecline, RespondInput{}); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	if _, err := svc.Respond(request.ID, 1, models.ResponseAccept, RespondInput{}); err != ErrAlreadyResponded {
		t.Fatalf("expected ErrAlreadyResponded after decline, got %v", err)
	}
}

func TestApprovePhotographerCreatesBooking(t *testing.T) {
	svc, db := newTestService(t)
	request := createTestRequest(t, svc, "+819000000020")

	if _, err := svc.Respond(request.ID, 5, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	updated, booking, err := svc.ApprovePhotographer(request.ID, 5)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if updated.Status != models.RequestStatusMatched {
		t.Errorf("expected status matched, got %s", updated.Status)
	}
	if updated.MatchedPhotographerID == nil || *updated.MatchedPhotographerID != 5 {
		t.Errorf("expected matched photographer 5, got %v", updated.MatchedPhotographerID)
	}
	if updated.PendingPhotographerID != nil {
		t.Error("pending photographer should be cleared after approval")
	}
	if updated.PhotographerTimeoutAt != nil {
		t.Error("approval deadline should be cleared after approval")
	}

	if booking == nil {
		t.Fatal("expected a booking")
	}
	if booking.TotalAmount != 10000 || booking.PlatformFee != 1000 || booking.PhotographerEarnings != 9000 {
		t.Errorf("unexpected fee split: total=%d fee=%d earnings=%d",
			booking.TotalAmount, booking.PlatformFee, booking.PhotographerEarnings)
	}
	if booking.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("expected pending payment status, got %s", booking.PaymentStatus)
	}

	var count int64
	db.Model(&models.InstantBooking{}).Where("request_id = ?", request.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 booking, got %d", count)
	}
}

func TestApproveWrongPhotographerFails(t *testing.T) {
	svc, _ := newTestService(t)
	request := createTestRequest(t, svc, "+819000000021")

	if _, err := svc.Respond(request.ID, 5, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if _, _, err := svc.ApprovePhotographer(request.ID, 6); err != ErrNotPendingApproval {
		t.Fatalf("expected ErrNotPendingApproval, got %v", err)
	}
}

func TestApproveAfterTimeoutRevertsToPending(t *testing.T) {
	svc, db := newTestService(t)
	request := createTestRequest(t, svc, "+819000000022")

	if _, err := svc.Respond(request.ID, 5, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Backdate the approval deadline.
	stale := time.Now().Add(-time.Minute)
	if err := db.Model(&models.InstantPhotoRequest{}).
		Where("id = ?", request.ID).
		Update("photographer_timeout_at", stale).Error; err != nil {
		t.Fatalf("failed to backdate deadline: %v", err)
	}

	if _, _, err := svc.ApprovePhotographer(request.ID, 5); err != ErrApprovalExpired {
		t.Fatalf("expected ErrApprovalExpired, got %v", err)
	}

	current, err := svc.GetRequest(request.ID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if current.Status != models.RequestStatusPending {
		t.Errorf("expected lazy sweep back to pending, got %s", current.Status)
	}
	if current.PendingPhotographerID != nil {
		t.Error("pending photographer should be cleared by the sweep")
	}
}

func TestRejectPhotographerReopensRequest(t *testing.T) {
	svc, _ := newTestService(t)
	request := createTestRequest(t, svc, "+819000000023")

	if _, err := svc.Respond(request.ID, 5, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	updated, err := svc.RejectPhotographer(request.ID, 5)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if updated.Status != models.RequestStatusPending {
		t.Errorf("expected pending after reject, got %s", updated.Status)
	}

	// Rejected photographer is treated as declined and cannot re-accept.
	if _, err := svc.Respond(request.ID, 5, models.ResponseAccept, RespondInput{}); err != ErrAlreadyResponded {
		t.Fatalf("expected ErrAlreadyResponded for rejected photographer, got %v", err)
	}

	// Someone else can.
	if _, err := svc.Respond(request.ID, 6, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept by another photographer failed: %v", err)
	}
}

func TestSweepTimeoutsGlobal(t *testing.T) {
	svc, db := newTestService(t)

	stale := createTestRequest(t, svc, "+819000000030")
	fresh := createTestRequest(t, svc, "+819000000031")

	if _, err := svc.Respond(stale.ID, 1, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := svc.Respond(fresh.ID, 2, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	past := time.Now().Add(-time.Minute)
	db.Model(&models.InstantPhotoRequest{}).
		Where("id = ?", stale.ID).
		Update("photographer_timeout_at", past)

	reverted, err := svc.SweepTimeouts(nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if reverted != 1 {
		t.Fatalf("expected 1 reverted request, got %d", reverted)
	}

	staleNow, _ := svc.GetRequest(stale.ID)
	if staleNow.Status != models.RequestStatusPending {
		t.Errorf("stale claim should be back to pending, got %s", staleNow.Status)
	}
	freshNow, _ := svc.GetRequest(fresh.ID)
	if freshNow.Status != models.RequestStatusAccepted {
		t.Errorf("fresh claim must be untouched, got %s", freshNow.Status)
	}
}

func TestExpireOldRequests(t *testing.T) {
	svc, db := newTestService(t)

	old := createTestRequest(t, svc, "+819000000040")
	current := createTestRequest(t, svc, "+819000000041")

	db.Model(&models.InstantPhotoRequest{}).
		Where("id = ?", old.ID).
		Update("expires_at", time.Now().Add(-time.Hour))

	expired, err := svc.ExpireOldRequests()
	if err != nil {
		t.Fatalf("expiry sweep failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired request, got %d", expired)
	}

	oldNow, _ := svc.GetRequest(old.ID)
	if oldNow.Status != models.RequestStatusCancelled {
		t.Errorf("expected cancelled, got %s", oldNow.Status)
	}
	currentNow, _ := svc.GetRequest(current.ID)
	if currentNow.Status != models.RequestStatusPending {
		t.Errorf("unexpired request must stay pending, got %s", currentNow.Status)
	}
}

func TestStatusProgressionToDelivered(t *testing.T) {
	svc, db := newTestService(t)
	request := createTestRequest(t, svc, "+819000000050")

	if _, err := svc.Respond(request.ID, 3, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, _, err := svc.ApprovePhotographer(request.ID, 3); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Out-of-order transitions are rejected.
	if _, _, err := svc.UpdateStatus(request.ID, 3, models.RequestStatusDelivered); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition skipping to delivered, got %v", err)
	}

	// Only the matched photographer may advance it.
	if _, _, err := svc.UpdateStatus(request.ID, 99, models.RequestStatusInProgress); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition for wrong photographer, got %v", err)
	}

	for _, status := range []string{
		models.RequestStatusInProgress,
		models.RequestStatusCompleted,
		models.RequestStatusDelivered,
	} {
		if _, _, err := svc.UpdateStatus(request.ID, 3, status); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	final, _ := svc.GetRequest(request.ID)
	if final.Status != models.RequestStatusDelivered {
		t.Errorf("expected delivered, got %s", final.Status)
	}
	if final.DeliveredAt == nil {
		t.Error("expected delivered_at to be stamped")
	}

	var booking models.InstantBooking
	if err := db.Where("request_id = ?", request.ID).First(&booking).Error; err != nil {
		t.Fatalf("booking lookup failed: %v", err)
	}
	if booking.DeliveredAt == nil {
		t.Error("expected booking delivery to be stamped")
	}
}

func TestCompletionFinalizesBookingOnce(t *testing.T) {
	svc, db := newTestService(t)
	request := createTestRequest(t, svc, "+819000000051")

	if _, err := svc.Respond(request.ID, 3, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	// Approval creates the booking.
	if _, _, err := svc.ApprovePhotographer(request.ID, 3); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, _, err := svc.UpdateStatus(request.ID, 3, models.RequestStatusInProgress); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	// Completion finds the existing booking instead of inserting another.
	_, booking, err := svc.UpdateStatus(request.ID, 3, models.RequestStatusCompleted)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if booking == nil {
		t.Fatal("expected completion to return the booking")
	}

	var count int64
	db.Model(&models.InstantBooking{}).Where("request_id = ?", request.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 booking after approve+complete, got %d", count)
	}
}

func TestListForPhotographer(t *testing.T) {
	svc, db := newTestService(t)

	near := createTestRequest(t, svc, "+819000000060")
	// ~170km away, far outside a 3km radius.
	far, err := svc.CreateRequest(CreateRequestInput{
		GuestName:    "Far Guest",
		GuestPhone:   "+819000000061",
		Latitude:     34.7,
		Longitude:    138.2,
		BudgetAmount: 9000,
	})
	if err != nil {
		t.Fatalf("failed to create far request: %v", err)
	}
	declined := createTestRequest(t, svc, "+819000000062")
	if _, err := svc.Respond(declined.ID, 10, models.ResponseDecline, RespondInput{}); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	location := models.PhotographerLocation{
		PhotographerID:    10,
		Latitude:          35.6595,
		Longitude:         139.7005,
		IsOnline:          true,
		AcceptingRequests: true,
		ResponseRadius:    3000,
		LastSeen:          time.Now(),
	}
	if err := db.Create(&location).Error; err != nil {
		t.Fatalf("failed to create location: %v", err)
	}

	requests, err := svc.ListForPhotographer(10)
	if err != nil {
		t.Fatalf("ListForPhotographer failed: %v", err)
	}

	ids := make(map[uint]bool)
	for _, r := range requests {
		ids[r.ID] = true
	}
	if !ids[near.ID] {
		t.Error("expected nearby pending request in feed")
	}
	if ids[far.ID] {
		t.Error("request outside response radius must not appear")
	}
	if ids[declined.ID] {
		t.Error("declined request must not appear")
	}
}

func TestListForPhotographerIncludesClaimedWhenOffline(t *testing.T) {
	svc, _ := newTestService(t)

	request := createTestRequest(t, svc, "+819000000063")
	if _, err := svc.Respond(request.ID, 11, models.ResponseAccept, RespondInput{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// No presence row at all: claimed work still shows.
	requests, err := svc.ListForPhotographer(11)
	if err != nil {
		t.Fatalf("ListForPhotographer failed: %v", err)
	}
	if len(requests) != 1 || requests[0].ID != request.ID {
		t.Fatalf("expected only the claimed request, got %d results", len(requests))
	}
}

func TestGuestHistory(t *testing.T) {
	svc, _ := newTestService(t)
	phone := "+819000000070"

	first := createTestRequest(t, svc, phone)
	second := createTestRequest(t, svc, phone)
	createTestRequest(t, svc, "+819000000071")

	requests, err := svc.GuestHistory(phone, 0)
	if err != nil {
		t.Fatalf("GuestHistory failed: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].ID != second.ID || requests[1].ID != first.ID {
		t.Error("expected newest-first ordering")
	}
}
