package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/models"
	"github.com/shutterhub/shutterhub-backend/internal/services"
	"gorm.io/gorm"
)

var planPriceIDs = map[string]string{
	models.PlanPro:    "price_shutterhub_pro_monthly",
	models.PlanStudio: "price_shutterhub_studio_monthly",
}

// GetSubscription returns the user's active subscription, or the free plan.
func GetSubscription(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var subscription models.Subscription
		err := db.Where("user_id = ? AND status = ?", userID, "active").
			Order("created_at DESC").
			First(&subscription).Error
		if err == gorm.ErrRecordNotFound {
			c.JSON(200, gin.H{"planName": models.PlanFree, "status": "active"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch subscription"})
			return
		}

		c.JSON(200, gin.H{"subscription": subscription})
	}
}

// CreateSubscription starts a paid plan through the payments provider and
// records it locally.
func CreateSubscription(db *gorm.DB, payments *services.PaymentsClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if payments == nil {
			c.JSON(503, gin.H{"error": "Payments are not configured"})
			return
		}

		userID := c.GetUint("userId")

		var input struct {
			PlanName string `json:"planName" binding:"required,oneof=pro studio"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var existing models.Subscription
		err := db.Where("user_id = ? AND status = ?", userID, "active").First(&existing).Error
		if err == nil && existing.PlanName != models.PlanFree {
			c.JSON(409, gin.H{"error": "You already have an active subscription"})
			return
		}
		if err != nil && err != gorm.ErrRecordNotFound {
			c.JSON(500, gin.H{"error": "Failed to check existing subscription"})
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		ctx := c.Request.Context()

		customer, err := payments.FindCustomerByUserID(ctx, userID)
		if err != nil {
			c.JSON(502, gin.H{"error": "Payment provider lookup failed"})
			return
		}
		if customer == nil {
			customer, err = payments.CreateCustomer(ctx, userID, user.Email)
			if err != nil {
				c.JSON(502, gin.H{"error": "Failed to create payment customer"})
				return
			}
		}

		providerSub, err := payments.CreateSubscription(ctx, customer.ID, planPriceIDs[input.PlanName])
		if err != nil {
			c.JSON(502, gin.H{"error": "Failed to start subscription"})
			return
		}

		periodEnd := time.Unix(providerSub.CurrentPeriodEnd, 0)
		subscription := models.Subscription{
			UserID:                 userID,
			PlanName:               input.PlanName,
			Status:                 "active",
			ProviderCustomerID:     customer.ID,
			ProviderSubscriptionID: providerSub.ID,
			CurrentPeriodEnd:       &periodEnd,
		}
		if err := db.Create(&subscription).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save subscription"})
			return
		}

		c.JSON(201, gin.H{"message": "Subscription started", "subscription": subscription})
	}
}

// CancelSubscription cancels the user's active subscription with the provider
// and locally.
func CancelSubscription(db *gorm.DB, payments *services.PaymentsClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var subscription models.Subscription
		err := db.Where("user_id = ? AND status = ?", userID, "active").
			Order("created_at DESC").
			First(&subscription).Error
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"error": "No active subscription"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch subscription"})
			return
		}

		if payments != nil && subscription.ProviderSubscriptionID != "" {
			if err := payments.CancelSubscription(c.Request.Context(), subscription.ProviderSubscriptionID); err != nil {
				c.JSON(502, gin.H{"error": "Failed to cancel with payment provider"})
				return
			}
		}

		if err := db.Model(&subscription).Update("status", "cancelled").Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to cancel subscription"})
			return
		}

		c.JSON(200, gin.H{"message": "Subscription cancelled"})
	}
}

// CheckFeatureLimit reports the user's remaining quota for a feature.
func CheckFeatureLimit(limits *services.FeatureLimitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		feature := c.Param("feature")
		if feature != models.FeaturePhotoSessions && feature != models.FeaturePhotobooks {
			c.JSON(400, gin.H{"error": "Unknown feature"})
			return
		}

		status, err := limits.CheckLimit(userID, feature)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check limit"})
			return
		}

		c.JSON(200, status)
	}
}
