package handlers

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"github.com/shutterhub/shutterhub-backend/internal/services"
	"gorm.io/gorm"
)

// CreatePhotobook creates an album for the photographer, gated by their plan
// quota. Accepts multipart form data with an optional cover image.
func CreatePhotobook(db *gorm.DB, limits *services.FeatureLimitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		status, err := limits.CheckLimit(photographerID, models.FeaturePhotobooks)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check plan limit"})
			return
		}
		if !status.Allowed {
			c.JSON(403, gin.H{
				"error": "Monthly photobook limit reached for your plan",
				"limit": status,
			})
			return
		}

		title := c.PostForm("title")
		if title == "" {
			c.JSON(400, gin.H{"error": "title is required"})
			return
		}
		description := c.PostForm("description")
		isPublic := c.PostForm("isPublic") == "true"

		coverURL := ""
		if file, err := c.FormFile("cover"); err == nil {
			url, uploadErr := services.UploadFile(file, "photobooks")
			if uploadErr != nil {
				c.JSON(500, gin.H{"error": "Failed to upload cover image"})
				return
			}
			coverURL = url
		}

		photobook := models.Photobook{
			PhotographerID: photographerID,
			Title:          title,
			Description:    description,
			CoverImageURL:  coverURL,
			IsPublic:       isPublic,
		}
		if err := db.Create(&photobook).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create photobook"})
			return
		}

		if err := limits.RecordUsage(photographerID, models.FeaturePhotobooks, 1); err != nil {
			log.Printf("Failed to record photobook usage for user %d: %v", photographerID, err)
		}

		c.JSON(201, gin.H{"message": "Photobook created", "photobook": photobook})
	}
}

// ListMyPhotobooks returns the photographer's own albums.
func ListMyPhotobooks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		var photobooks []models.Photobook
		err := db.Where("photographer_id = ?", photographerID).
			Order("created_at DESC").
			Find(&photobooks).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch photobooks"})
			return
		}

		c.JSON(200, gin.H{"photobooks": photobooks})
	}
}

// ListPublicPhotobooks returns a photographer's public albums for guests
// deciding whether to approve them.
func ListPublicPhotobooks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid photographer ID"})
			return
		}

		var photobooks []models.Photobook
		err = db.Where("photographer_id = ? AND is_public = ?", photographerID, true).
			Order("created_at DESC").
			Find(&photobooks).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch photobooks"})
			return
		}

		c.JSON(200, gin.H{"photobooks": photobooks})
	}
}

// DeletePhotobook removes the photographer's own album.
func DeletePhotobook(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		photographerID := c.GetUint("userId")

		photobookID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid photobook ID"})
			return
		}

		result := db.Where("id = ? AND photographer_id = ?", photobookID, photographerID).
			Delete(&models.Photobook{})
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to delete photobook"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Photobook not found"})
			return
		}

		c.JSON(200, gin.H{"message": "Photobook deleted"})
	}
}
