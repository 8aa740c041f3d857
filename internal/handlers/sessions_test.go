package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/database"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
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

// asUser stands in for the auth middleware.
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Set("userType", "guest")
		c.Next()
	}
}

func bookSlotRouter(db *gorm.DB, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/slots/:id/book", asUser(userID), BookSlot(db))
	r.POST("/slot-bookings/:id/cancel", asUser(userID), CancelSlotBooking(db))
	return r
}

func createSlot(t *testing.T, db *gorm.DB, capacity int) *models.SessionSlot {
	t.Helper()

	session := models.PhotoSession{
		OrganizerID: 100,
		Title:       "Golden hour portraits",
		SessionType: models.SessionTypePortrait,
		Price:       5000,
		Date:        time.Now().Add(48 * time.Hour),
		IsPublished: true,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	slot := models.SessionSlot{
		SessionID: session.ID,
		StartsAt:  session.Date,
		EndsAt:    session.Date.Add(30 * time.Minute),
		Capacity:  capacity,
	}
	if err := db.Create(&slot).Error; err != nil {
		t.Fatalf("failed to create slot: %v", err)
	}
	return &slot
}

func postJSON(r *gin.Engine, path string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]interface{}{})
	req := httptest.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookSlot(t *testing.T) {
	db := newHandlerTestDB(t)
	slot := createSlot(t, db, 2)
	r := bookSlotRouter(db, 1)

	w := postJSON(r, fmt.Sprintf("/slots/%d/book", slot.ID))
	if w.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.SessionSlot
	db.First(&updated, slot.ID)
	if updated.BookedCount != 1 {
		t.Errorf("expected booked_count 1, got %d", updated.BookedCount)
	}
}

func TestBookSlotRejectsDoubleBooking(t *testing.T) {
	db := newHandlerTestDB(t)
	slot := createSlot(t, db, 5)
	r := bookSlotRouter(db, 1)

	if w := postJSON(r, fmt.Sprintf("/slots/%d/book", slot.ID)); w.Code != 201 {
		t.Fatalf("first booking failed: %d", w.Code)
	}
	if w := postJSON(r, fmt.Sprintf("/slots/%d/book", slot.ID)); w.Code != 409 {
		t.Fatalf("expected 409 for double booking, got %d", w.Code)
	}

	var updated models.SessionSlot
	db.First(&updated, slot.ID)
	if updated.BookedCount != 1 {
		t.Errorf("double booking must not consume a second seat, got %d", updated.BookedCount)
	}
}

func TestBookSlotCapacityGuard(t *testing.T) {
	db := newHandlerTestDB(t)
	slot := createSlot(t, db, 2)

	// Three different users contend for two seats.
	codes := make([]int, 3)
	for i := 0; i < 3; i++ {
		r := bookSlotRouter(db, uint(i+1))
		w := postJSON(r, fmt.Sprintf("/slots/%d/book", slot.ID))
		codes[i] = w.Code
	}

	if codes[0] != 201 || codes[1] != 201 {
		t.Fatalf("expected first two bookings to succeed, got %v", codes)
	}
	if codes[2] != 409 {
		t.Fatalf("expected third booking to hit the capacity guard, got %v", codes)
	}

	var updated models.SessionSlot
	db.First(&updated, slot.ID)
	if updated.BookedCount != 2 {
		t.Errorf("expected booked_count 2, got %d", updated.BookedCount)
	}
}

func TestCancelSlotBookingReleasesSeat(t *testing.T) {
	db := newHandlerTestDB(t)
	slot := createSlot(t, db, 1)
	r := bookSlotRouter(db, 1)

	if w := postJSON(r, fmt.Sprintf("/slots/%d/book", slot.ID)); w.Code != 201 {
		t.Fatalf("booking failed: %d", w.Code)
	}

	var booking models.SlotBooking
	if err := db.Where("slot_id = ? AND user_id = ?", slot.ID, 1).First(&booking).Error; err != nil {
		t.Fatalf("booking lookup failed: %v", err)
	}

	if w := postJSON(r, fmt.Sprintf("/slot-bookings/%d/cancel", booking.ID)); w.Code != 200 {
		t.Fatalf("cancel failed: %d", w.Code)
	}

	var updated models.SessionSlot
	db.First(&updated, slot.ID)
	if updated.BookedCount != 0 {
		t.Errorf("expected seat released, booked_count %d", updated.BookedCount)
	}

	// The freed seat is bookable again by someone else.
	other := bookSlotRouter(db, 2)
	if w := postJSON(other, fmt.Sprintf("/slots/%d/book", slot.ID)); w.Code != 201 {
		t.Fatalf("rebooking freed seat failed: %d", w.Code)
	}
}
