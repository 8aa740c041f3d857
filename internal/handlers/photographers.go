package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"github.com/shutterhub/shutterhub-backend/internal/services"
	"gorm.io/gorm"
)

type UpdateLocationInput struct {
	Latitude          float64    `json:"lat" binding:"required"`
	Longitude         float64    `json:"lng" binding:"required"`
	Accuracy          float64    `json:"accuracy"`
	AcceptingRequests *bool      `json:"acceptingRequests"`
	ResponseRadius    float64    `json:"responseRadius"`
	AvailableUntil    *time.Time `json:"availableUntil"`
	PortraitRate      *int64     `json:"portraitRate"`
	CoupleRate        *int64     `json:"coupleRate"`
	FamilyRate        *int64     `json:"familyRate"`
	EventRate         *int64     `json:"eventRate"`
}

// UpdateLocation upserts the photographer's presence row, refreshes the Redis
// cache and mirrors the update to listening clients.
func UpdateLocation(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		var input UpdateLocationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var location models.PhotographerLocation
		err := db.Where("photographer_id = ?", photographerID).First(&location).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			c.JSON(500, gin.H{"error": "Failed to load location"})
			return
		}

		location.PhotographerID = photographerID
		location.Latitude = input.Latitude
		location.Longitude = input.Longitude
		location.Accuracy = input.Accuracy
		location.IsOnline = true
		location.LastSeen = time.Now()
		if input.AcceptingRequests != nil {
			location.AcceptingRequests = *input.AcceptingRequests
		}
		if input.ResponseRadius > 0 {
			location.ResponseRadius = input.ResponseRadius
		}
		if input.AvailableUntil != nil {
			location.AvailableUntil = input.AvailableUntil
		}
		if input.PortraitRate != nil {
			location.PortraitRate = *input.PortraitRate
		}
		if input.CoupleRate != nil {
			location.CoupleRate = *input.CoupleRate
		}
		if input.FamilyRate != nil {
			location.FamilyRate = *input.FamilyRate
		}
		if input.EventRate != nil {
			location.EventRate = *input.EventRate
		}

		if err := db.Save(&location).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update location"})
			return
		}

		ctx := context.Background()
		services.SetPhotographerPresence(ctx, photographerID, input.Latitude, input.Longitude, input.Accuracy)
		services.SetPhotographerAccepting(ctx, photographerID, location.AcceptingRequests)
		services.PublishPhotographerLocation(ctx, photographerID, input.Latitude, input.Longitude, true)

		if hub != nil {
			hub.SendPhotographerLocationUpdate(photographerID, services.PhotographerLocationUpdate{
				PhotographerID: photographerID,
				Lat:            input.Latitude,
				Lng:            input.Longitude,
				IsOnline:       true,
			})
		}

		c.JSON(200, gin.H{"message": "Location updated", "location": location})
	}
}

// SetAvailability toggles whether the photographer receives new requests
// without touching their position.
func SetAvailability(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		var input struct {
			AcceptingRequests bool       `json:"acceptingRequests"`
			AvailableUntil    *time.Time `json:"availableUntil"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		updates := map[string]interface{}{
			"accepting_requests": input.AcceptingRequests,
			"last_seen":          time.Now(),
		}
		if input.AvailableUntil != nil {
			updates["available_until"] = input.AvailableUntil
		}

		result := db.Model(&models.PhotographerLocation{}).
			Where("photographer_id = ?", photographerID).
			Updates(updates)
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update availability"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Go online first by sending your location"})
			return
		}

		services.SetPhotographerAccepting(context.Background(), photographerID, input.AcceptingRequests)

		c.JSON(200, gin.H{"message": "Availability updated"})
	}
}

// GoOffline removes the photographer's presence row and clears the cache.
func GoOffline(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		if err := db.Where("photographer_id = ?", photographerID).
			Delete(&models.PhotographerLocation{}).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to go offline"})
			return
		}

		ctx := context.Background()
		services.ClearPhotographerPresence(ctx, photographerID)
		services.PublishPhotographerLocation(ctx, photographerID, 0, 0, false)

		if hub != nil {
			hub.SendPhotographerLocationUpdate(photographerID, services.PhotographerLocationUpdate{
				PhotographerID: photographerID,
				IsOnline:       false,
			})
		}

		c.JSON(200, gin.H{"message": "You are now offline"})
	}
}

// GetPhotographerStatus returns the photographer's own presence row.
func GetPhotographerStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		var location models.PhotographerLocation
		err := db.Where("photographer_id = ?", photographerID).First(&location).Error
		if err == gorm.ErrRecordNotFound {
			c.JSON(200, gin.H{"isOnline": false})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to load status"})
			return
		}

		c.JSON(200, gin.H{"isOnline": location.IsOnline, "location": location})
	}
}

// ListPhotographerRequests shows the requests the photographer currently
// claims plus open pending requests inside their radius.
func ListPhotographerRequests(svc *services.InstantPhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		requests, err := svc.ListForPhotographer(photographerID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch requests"})
			return
		}

		c.JSON(200, gin.H{"requests": requests})
	}
}

type RespondToRequestInput struct {
	ResponseType         string `json:"responseType" binding:"required,oneof=accept decline"`
	EstimatedArrivalMins int    `json:"estimatedArrivalMins"`
	DeclineReason        string `json:"declineReason"`
}

// RespondToRequest handles a photographer's accept or decline. On accept the
// guest gets the approval notice over websocket.
func RespondToRequest(db *gorm.DB, svc *services.InstantPhotoService, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request ID"})
			return
		}

		var input RespondToRequestInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		request, err := svc.Respond(uint(requestID), photographerID, input.ResponseType, services.RespondInput{
			EstimatedArrivalMins: input.EstimatedArrivalMins,
			DeclineReason:        input.DeclineReason,
		})
		if err != nil {
			c.JSON(instantErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		if input.ResponseType == models.ResponseAccept && request.Status == models.RequestStatusAccepted {
			notifyPhotographerAccepted(db, hub, request, photographerID, input.EstimatedArrivalMins)
		}

		c.JSON(200, gin.H{"message": "Response recorded", "request": request})
	}
}

// UpdateRequestStatus advances a matched request through
// in_progress -> completed -> delivered. Delivery accepts an optional photo
// archive upload whose URL is pushed to the guest.
func UpdateRequestStatus(db *gorm.DB, svc *services.InstantPhotoService, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request ID"})
			return
		}

		status := c.PostForm("status")
		if status == "" {
			var input struct {
				Status string `json:"status" binding:"required"`
			}
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			status = input.Status
		}

		archiveURL := ""
		if status == models.RequestStatusDelivered {
			if file, err := c.FormFile("archive"); err == nil {
				url, uploadErr := services.UploadFile(file, "deliveries")
				if uploadErr != nil {
					c.JSON(500, gin.H{"error": "Failed to upload photo archive"})
					return
				}
				archiveURL = url
			}
		}

		request, booking, err := svc.UpdateStatus(uint(requestID), photographerID, status)
		if err != nil {
			c.JSON(instantErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		if status == models.RequestStatusDelivered {
			notifyPhotosDelivered(db, hub, request, archiveURL)
		}
		services.PublishRequestUpdate(context.Background(), request.ID, status, nil)

		response := gin.H{"message": "Status updated", "request": request}
		if booking != nil {
			response["booking"] = booking
		}
		if archiveURL != "" {
			response["archiveUrl"] = archiveURL
		}
		c.JSON(200, response)
	}
}

// notifyPhotographerAccepted pushes the accept notice to the guest's
// websocket connection (keyed by request id since guests have no account).
func notifyPhotographerAccepted(db *gorm.DB, hub *services.Hub, request *models.InstantPhotoRequest, photographerID uint, etaMins int) {
	var photographer models.User
	name := ""
	if err := db.First(&photographer, photographerID).Error; err == nil {
		name = photographer.Username
	}

	deadline := ""
	if request.PhotographerTimeoutAt != nil {
		deadline = request.PhotographerTimeoutAt.Format(time.RFC3339)
	}

	if hub != nil {
		hub.SendPhotographerAccepted(request.ID, services.PhotographerAcceptedNotice{
			RequestID:            request.ID,
			PhotographerID:       photographerID,
			PhotographerName:     name,
			EstimatedArrivalMins: etaMins,
			ApprovalDeadline:     deadline,
		})
	}
	services.PublishRequestUpdate(context.Background(), request.ID, request.Status, map[string]interface{}{
		"photographerId": photographerID,
	})
}

func notifyPhotosDelivered(db *gorm.DB, hub *services.Hub, request *models.InstantPhotoRequest, archiveURL string) {
	if hub != nil {
		hub.SendPhotosDelivered(request.ID, services.PhotosDeliveredNotice{
			RequestID:  request.ID,
			ArchiveURL: archiveURL,
		})
	}

	if request.MatchedPhotographerID != nil {
		createNotification(db, *request.MatchedPhotographerID, models.NotificationPhotosDelivered,
			"Delivery confirmed", "Your photos were delivered to the guest.", request.ID)
	}
}
