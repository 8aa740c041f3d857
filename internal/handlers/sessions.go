package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"github.com/shutterhub/shutterhub-backend/internal/services"
	"gorm.io/gorm"
)

type CreateSessionInput struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	SessionType string    `json:"sessionType"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lng"`
	Address     string    `json:"address"`
	Price       int64     `json:"price" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
}

// CreateSession publishes a scheduled photo session. Creation is gated by the
// organizer's plan quota.
func CreateSession(db *gorm.DB, limits *services.FeatureLimitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		organizerID := c.GetUint("userId")

		status, err := limits.CheckLimit(organizerID, models.FeaturePhotoSessions)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check plan limit"})
			return
		}
		if !status.Allowed {
			c.JSON(403, gin.H{
				"error": "Monthly session limit reached for your plan",
				"limit": status,
			})
			return
		}

		var input CreateSessionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.SessionType == "" {
			input.SessionType = models.SessionTypePortrait
		}

		session := models.PhotoSession{
			OrganizerID: organizerID,
			Title:       input.Title,
			Description: input.Description,
			SessionType: input.SessionType,
			Latitude:    input.Latitude,
			Longitude:   input.Longitude,
			Address:     input.Address,
			Price:       input.Price,
			Date:        input.Date,
			IsPublished: true,
		}
		if err := db.Create(&session).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create session"})
			return
		}

		if err := limits.RecordUsage(organizerID, models.FeaturePhotoSessions, 1); err != nil {
			log.Printf("Failed to record session usage for user %d: %v", organizerID, err)
		}

		c.JSON(201, gin.H{"message": "Session created", "session": session})
	}
}

// ListSessions returns published upcoming sessions with their slots.
func ListSessions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessions []models.PhotoSession
		err := db.Preload("Slots").Preload("Organizer").
			Where("is_published = ? AND date >= ?", true, time.Now().Truncate(24*time.Hour)).
			Order("date ASC").
			Limit(50).
			Find(&sessions).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch sessions"})
			return
		}

		c.JSON(200, gin.H{"sessions": sessions})
	}
}

type AddSlotInput struct {
	StartsAt time.Time `json:"startsAt" binding:"required"`
	EndsAt   time.Time `json:"endsAt" binding:"required"`
	Capacity int       `json:"capacity"`
}

// AddSessionSlot adds a bookable time slot to the organizer's own session.
func AddSessionSlot(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		organizerID := c.GetUint("userId")

		sessionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid session ID"})
			return
		}

		var session models.PhotoSession
		if err := db.First(&session, sessionID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Session not found"})
			return
		}
		if session.OrganizerID != organizerID {
			c.JSON(403, gin.H{"error": "You can only add slots to your own sessions"})
			return
		}

		var input AddSlotInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if !input.EndsAt.After(input.StartsAt) {
			c.JSON(400, gin.H{"error": "Slot must end after it starts"})
			return
		}
		if input.Capacity < 1 {
			input.Capacity = 1
		}

		slot := models.SessionSlot{
			SessionID: uint(sessionID),
			StartsAt:  input.StartsAt,
			EndsAt:    input.EndsAt,
			Capacity:  input.Capacity,
		}
		if err := db.Create(&slot).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create slot"})
			return
		}

		c.JSON(201, gin.H{"message": "Slot added", "slot": slot})
	}
}

// BookSlot reserves a place in a slot. Capacity is enforced with a guarded
// conditional update on booked_count so concurrent bookings cannot oversell.
func BookSlot(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		slotID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid slot ID"})
			return
		}

		var existing models.SlotBooking
		err = db.Where("slot_id = ? AND user_id = ? AND status = ?",
			slotID, userID, models.SlotBookingConfirmed).First(&existing).Error
		if err == nil {
			c.JSON(409, gin.H{"error": "You already booked this slot"})
			return
		}
		if err != gorm.ErrRecordNotFound {
			c.JSON(500, gin.H{"error": "Failed to check existing booking"})
			return
		}

		result := db.Model(&models.SessionSlot{}).
			Where("id = ? AND booked_count < capacity", slotID).
			Update("booked_count", gorm.Expr("booked_count + 1"))
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to reserve slot"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(409, gin.H{"error": "Slot is full"})
			return
		}

		booking := models.SlotBooking{
			SlotID: uint(slotID),
			UserID: userID,
			Status: models.SlotBookingConfirmed,
		}
		if err := db.Create(&booking).Error; err != nil {
			// Give the seat back.
			db.Model(&models.SessionSlot{}).
				Where("id = ?", slotID).
				Update("booked_count", gorm.Expr("booked_count - 1"))
			c.JSON(500, gin.H{"error": "Failed to create booking"})
			return
		}

		c.JSON(201, gin.H{"message": "Slot booked", "booking": booking})
	}
}

// CancelSlotBooking releases the user's place in a slot.
func CancelSlotBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		var booking models.SlotBooking
		if err := db.Where("id = ? AND user_id = ?", bookingID, userID).First(&booking).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}
		if booking.Status == models.SlotBookingCancelled {
			c.JSON(200, gin.H{"message": "Booking already cancelled"})
			return
		}

		result := db.Model(&models.SlotBooking{}).
			Where("id = ? AND status = ?", bookingID, models.SlotBookingConfirmed).
			Update("status", models.SlotBookingCancelled)
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to cancel booking"})
			return
		}
		if result.RowsAffected == 1 {
			db.Model(&models.SessionSlot{}).
				Where("id = ? AND booked_count > 0", booking.SlotID).
				Update("booked_count", gorm.Expr("booked_count - 1"))
		}

		c.JSON(200, gin.H{"message": "Booking cancelled"})
	}
}
