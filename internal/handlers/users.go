package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"gorm.io/gorm"
)

// GetProfile returns the authenticated user's profile
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"phoneNumber":  user.PhoneNumber,
			"userType":     user.UserType,
			"bio":          user.Bio,
			"portfolioUrl": user.PortfolioURL,
		})
	}
}

// UpdateProfile updates the authenticated user's profile fields
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			Username     string `json:"username"`
			PhoneNumber  string `json:"phoneNumber"`
			Bio          string `json:"bio"`
			PortfolioURL string `json:"portfolioUrl"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		if input.Username != "" {
			user.Username = input.Username
		}
		if input.PhoneNumber != "" {
			user.PhoneNumber = input.PhoneNumber
		}
		user.Bio = input.Bio
		user.PortfolioURL = input.PortfolioURL

		if err := db.Save(&user).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update profile"})
			return
		}

		c.JSON(200, gin.H{"message": "Profile updated successfully"})
	}
}
