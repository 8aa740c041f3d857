package handlers

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"github.com/shutterhub/shutterhub-backend/internal/services"
	"gorm.io/gorm"
)

// instantErrorStatus maps the instant-photo service errors onto HTTP codes.
func instantErrorStatus(err error) int {
	switch err {
	case services.ErrRequestNotFound:
		return 404
	case services.ErrUsageLimitReached:
		return 429
	case services.ErrClaimedByOther, services.ErrAlreadyResponded,
		services.ErrNotPendingApproval, services.ErrApprovalExpired,
		services.ErrRequestUnavailable, services.ErrInvalidTransition:
		return 409
	case services.ErrInvalidInput:
		return 400
	default:
		return 500
	}
}

type CreateInstantRequestInput struct {
	GuestName       string  `json:"guestName" binding:"required"`
	GuestPhone      string  `json:"guestPhone" binding:"required"`
	GuestEmail      string  `json:"guestEmail"`
	PartySize       int     `json:"partySize"`
	Latitude        float64 `json:"lat" binding:"required"`
	Longitude       float64 `json:"lng" binding:"required"`
	Address         string  `json:"address"`
	Landmark        string  `json:"landmark"`
	SessionType     string  `json:"sessionType"`
	Urgency         string  `json:"urgency"`
	DurationMinutes int     `json:"durationMinutes"`
	BudgetAmount    int64   `json:"budgetAmount" binding:"required"`
}

// CreateInstantRequest is the public guest entry point: no account needed,
// just a name and phone number. Matching fires inside the service.
func CreateInstantRequest(svc *services.InstantPhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateInstantRequestInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		request, err := svc.CreateRequest(services.CreateRequestInput{
			GuestName:       input.GuestName,
			GuestPhone:      input.GuestPhone,
			GuestEmail:      input.GuestEmail,
			PartySize:       input.PartySize,
			Latitude:        input.Latitude,
			Longitude:       input.Longitude,
			Address:         input.Address,
			Landmark:        input.Landmark,
			SessionType:     input.SessionType,
			Urgency:         input.Urgency,
			DurationMinutes: input.DurationMinutes,
			BudgetAmount:    input.BudgetAmount,
		})
		if err != nil {
			c.JSON(instantErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(201, gin.H{
			"message": "Request created. We are notifying nearby photographers.",
			"request": request,
		})
	}
}

// GetInstantRequest returns the live state of one request. Guests poll this
// while they wait for a photographer to accept.
func GetInstantRequest(svc *services.InstantPhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request ID"})
			return
		}

		request, err := svc.GetRequest(uint(requestID))
		if err != nil {
			c.JSON(instantErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"request": request})
	}
}

// GuestRequestHistory lists a guest's requests by phone number.
func GuestRequestHistory(svc *services.InstantPhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.Query("phone")
		if phone == "" {
			c.JSON(400, gin.H{"error": "phone query parameter is required"})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		requests, err := svc.GuestHistory(phone, limit)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch request history"})
			return
		}

		c.JSON(200, gin.H{"requests": requests})
	}
}

// CheckGuestUsage reports how many instant requests a phone number has left
// this month.
func CheckGuestUsage(usage *services.GuestUsageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.Query("phone")
		if phone == "" {
			c.JSON(400, gin.H{"error": "phone query parameter is required"})
			return
		}

		status, err := usage.CheckUsage(phone)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check usage"})
			return
		}

		c.JSON(200, status)
	}
}

type guestDecisionInput struct {
	GuestPhone     string `json:"guestPhone" binding:"required"`
	PhotographerID uint   `json:"photographerId" binding:"required"`
}

// ApproveAcceptedPhotographer confirms the pending photographer as the match.
// Guests authenticate with the phone number the request was created with.
func ApproveAcceptedPhotographer(db *gorm.DB, svc *services.InstantPhotoService, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request ID"})
			return
		}

		var input guestDecisionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !guestOwnsRequest(db, uint(requestID), input.GuestPhone) {
			c.JSON(403, gin.H{"error": "Phone number does not match this request"})
			return
		}

		request, booking, err := svc.ApprovePhotographer(uint(requestID), input.PhotographerID)
		if err != nil {
			c.JSON(instantErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		notifyMatchFound(db, hub, request, booking)

		response := gin.H{"message": "Photographer confirmed", "request": request}
		if booking != nil {
			response["booking"] = booking
		}
		c.JSON(200, response)
	}
}

// RejectAcceptedPhotographer sends the request back to the pool.
func RejectAcceptedPhotographer(db *gorm.DB, svc *services.InstantPhotoService, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request ID"})
			return
		}

		var input guestDecisionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !guestOwnsRequest(db, uint(requestID), input.GuestPhone) {
			c.JSON(403, gin.H{"error": "Phone number does not match this request"})
			return
		}

		request, err := svc.RejectPhotographer(uint(requestID), input.PhotographerID)
		if err != nil {
			c.JSON(instantErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		if hub != nil {
			hub.SendRequestTimeout(input.PhotographerID, services.RequestTimeoutNotice{
				RequestID: request.ID,
			})
		}
		createNotification(db, input.PhotographerID, models.NotificationRequestTimeout,
			"Request reopened", "The guest chose to wait for another photographer.", request.ID)

		c.JSON(200, gin.H{"message": "Photographer rejected, request reopened", "request": request})
	}
}

func guestOwnsRequest(db *gorm.DB, requestID uint, phone string) bool {
	var count int64
	db.Model(&models.InstantPhotoRequest{}).
		Where("id = ? AND guest_phone = ?", requestID, phone).
		Count(&count)
	return count > 0
}

// notifyMatchFound fans the confirmed match out to the photographer over
// websocket, push and the in-app feed. All best-effort.
func notifyMatchFound(db *gorm.DB, hub *services.Hub, request *models.InstantPhotoRequest, booking *models.InstantBooking) {
	if request.MatchedPhotographerID == nil {
		return
	}
	photographerID := *request.MatchedPhotographerID

	notice := services.MatchFoundNotice{
		RequestID:      request.ID,
		PhotographerID: photographerID,
		TotalAmount:    request.BudgetAmount,
	}
	if booking != nil {
		notice.BookingID = booking.ID
	}
	if hub != nil {
		hub.SendMatchFound(photographerID, notice)
	}

	createNotification(db, photographerID, models.NotificationMatchFound,
		"You're booked!", "The guest approved you for their instant photo session.", request.ID)

	var photographer models.User
	if err := db.First(&photographer, photographerID).Error; err == nil && photographer.FCMToken != "" {
		go services.SendMatchFoundNotification(context.Background(), photographer.FCMToken, request.ID, request.GuestName)
	}
}

// createNotification appends an in-app notification row; failures are logged
// and swallowed.
func createNotification(db *gorm.DB, userID uint, notifType, title, body string, requestID uint) {
	data, _ := json.Marshal(map[string]uint{"requestId": requestID})
	notification := models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   string(data),
	}
	if err := db.Create(&notification).Error; err != nil {
		log.Printf("Failed to create notification for user %d: %v", userID, err)
	}
}
