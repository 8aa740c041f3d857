package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/gorm"
)

// RegisterFCMToken stores the user's device token for push notifications.
func RegisterFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		err := db.Model(&models.User{}).
			Where("id = ?", userID).
			Update("fcm_token", input.Token).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to register token"})
			return
		}

		c.JSON(200, gin.H{"message": "Token registered"})
	}
}

// RemoveFCMToken clears the user's device token, e.g. on logout.
func RemoveFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		err := db.Model(&models.User{}).
			Where("id = ?", userID).
			Update("fcm_token", "").Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to remove token"})
			return
		}

		c.JSON(200, gin.H{"message": "Token removed"})
	}
}

// ListNotifications returns the user's in-app notifications, newest first.
func ListNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var notifications []models.Notification
		err := db.Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(50).
			Find(&notifications).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch notifications"})
			return
		}

		var unread int64
		db.Model(&models.Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Count(&unread)

		c.JSON(200, gin.H{"notifications": notifications, "unreadCount": unread})
	}
}

// MarkNotificationRead marks one of the user's notifications as read.
func MarkNotificationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		notificationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid notification ID"})
			return
		}

		result := db.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", notificationID, userID).
			Update("is_read", true)
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to mark notification read"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Notification not found"})
			return
		}

		c.JSON(200, gin.H{"message": "Notification marked read"})
	}
}
