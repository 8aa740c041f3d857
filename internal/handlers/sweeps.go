package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shutterhub/shutterhub-backend/internal/services"
)

// SweepAcceptTimeouts reverts every stale photographer claim back to pending.
// Called by the external scheduler every minute; the approve path also sweeps
// lazily so this is a safety net, not the only enforcement.
func SweepAcceptTimeouts(svc *services.InstantPhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		reverted, err := svc.SweepTimeouts(nil)
		if err != nil {
			c.JSON(500, gin.H{"error": "Timeout sweep failed: " + err.Error()})
			return
		}

		c.JSON(200, gin.H{"message": "Timeout sweep complete", "reverted": reverted})
	}
}

// SweepExpiredRequests cancels pending requests past their expiry window.
// Called by the external scheduler hourly.
func SweepExpiredRequests(svc *services.InstantPhotoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		expired, err := svc.ExpireOldRequests()
		if err != nil {
			c.JSON(500, gin.H{"error": "Expiry sweep failed: " + err.Error()})
			return
		}

		c.JSON(200, gin.H{"message": "Expiry sweep complete", "expired": expired})
	}
}
