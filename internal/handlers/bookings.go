package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/gorm"
)

// GetBookingForRequest returns the booking attached to a request, if one
// exists yet. Public so guests can see the fee split.
func GetBookingForRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request ID"})
			return
		}

		var booking models.InstantBooking
		err = db.Preload("Photographer").Where("request_id = ?", requestID).First(&booking).Error
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"error": "No booking for this request yet"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch booking"})
			return
		}

		c.JSON(200, gin.H{"booking": booking})
	}
}

// ListPhotographerBookings returns the photographer's bookings, newest first,
// with earnings totals.
func ListPhotographerBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		var bookings []models.InstantBooking
		err := db.Preload("Request").
			Where("photographer_id = ?", photographerID).
			Order("created_at DESC").
			Limit(50).
			Find(&bookings).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		var totalEarnings int64
		for _, b := range bookings {
			totalEarnings += b.PhotographerEarnings
		}

		c.JSON(200, gin.H{"bookings": bookings, "totalEarnings": totalEarnings})
	}
}

// UpdatePaymentStatus marks a booking paid or refunded. In production this is
// driven by the payment provider's webhook.
func UpdatePaymentStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		var input struct {
			PaymentStatus string `json:"paymentStatus" binding:"required,oneof=pending paid refunded"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		result := db.Model(&models.InstantBooking{}).
			Where("id = ?", bookingID).
			Update("payment_status", input.PaymentStatus)
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update payment status"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		c.JSON(200, gin.H{"message": "Payment status updated"})
	}
}
