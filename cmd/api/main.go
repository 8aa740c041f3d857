package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shutterhub/shutterhub-backend/internal/database"
	"github.com/shutterhub/shutterhub-backend/internal/handlers"
	"github.com/shutterhub/shutterhub-backend/internal/middleware"
	"github.com/shutterhub/shutterhub-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database with better error handling
	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Initialize Firebase (optional - will log warning if not configured)
	if err := services.InitFirebase(); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Wire up the instant-photo services
	usage := services.NewGuestUsageService(db)
	matcher := services.NewMatchingService(db, hub)
	instant := services.NewInstantPhotoService(db, usage, matcher)
	limits := services.NewFeatureLimitService(db)
	payments := services.NewPaymentsClient()
	if payments == nil {
		log.Println("Warning: PAYMENTS_SECRET_KEY not set. Paid subscriptions will be disabled.")
	}

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve static files
	r.Static("/uploads", "/app/uploads")
	r.Static("/static", "./static")

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// Public guest routes: instant requests need no account, just a phone
		// number.
		instantPublic := api.Group("/instant")
		{
			instantPublic.POST("/requests", handlers.CreateInstantRequest(instant))
			instantPublic.GET("/requests/:id", handlers.GetInstantRequest(instant))
			instantPublic.GET("/requests/:id/booking", handlers.GetBookingForRequest(db))
			instantPublic.POST("/requests/:id/approve", handlers.ApproveAcceptedPhotographer(db, instant, hub))
			instantPublic.POST("/requests/:id/reject", handlers.RejectAcceptedPhotographer(db, instant, hub))
			instantPublic.GET("/history", handlers.GuestRequestHistory(instant))
			instantPublic.GET("/usage", handlers.CheckGuestUsage(usage))
		}

		// Public photographer portfolio browsing
		api.GET("/photographers/:id/photobooks", handlers.ListPublicPhotobooks(db))
		api.GET("/sessions", handlers.ListSessions(db))

		// Internal sweep endpoints, hit by the external scheduler
		internal := api.Group("/internal/sweeps")
		{
			internal.POST("/timeouts", handlers.SweepAcceptTimeouts(instant))
			internal.POST("/expire", handlers.SweepExpiredRequests(instant))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
			}

			// Photographer presence and request handling routes
			photographer := protected.Group("/photographer")
			{
				photographer.POST("/location", handlers.UpdateLocation(db, hub))
				photographer.POST("/availability", handlers.SetAvailability(db))
				photographer.POST("/offline", handlers.GoOffline(db, hub))
				photographer.GET("/status", handlers.GetPhotographerStatus(db))
				photographer.GET("/requests", handlers.ListPhotographerRequests(instant))
				photographer.POST("/requests/:id/respond", handlers.RespondToRequest(db, instant, hub))
				photographer.PATCH("/requests/:id/status", handlers.UpdateRequestStatus(db, instant, hub))
				photographer.GET("/bookings", handlers.ListPhotographerBookings(db))
			}

			// Bookings routes
			bookings := protected.Group("/bookings")
			{
				bookings.PATCH("/:id/payment", handlers.UpdatePaymentStatus(db))
			}

			// Scheduled session routes
			sessions := protected.Group("/sessions")
			{
				sessions.POST("", handlers.CreateSession(db, limits))
				sessions.POST("/:id/slots", handlers.AddSessionSlot(db))
			}
			slots := protected.Group("/slots")
			{
				slots.POST("/:id/book", handlers.BookSlot(db))
			}
			slotBookings := protected.Group("/slot-bookings")
			{
				slotBookings.POST("/:id/cancel", handlers.CancelSlotBooking(db))
			}

			// Photobook routes
			photobooks := protected.Group("/photobooks")
			{
				photobooks.POST("", handlers.CreatePhotobook(db, limits))
				photobooks.GET("", handlers.ListMyPhotobooks(db))
				photobooks.DELETE("/:id", handlers.DeletePhotobook(db))
			}

			// Subscription routes
			subscriptions := protected.Group("/subscriptions")
			{
				subscriptions.GET("", handlers.GetSubscription(db))
				subscriptions.POST("", handlers.CreateSubscription(db, payments))
				subscriptions.DELETE("", handlers.CancelSubscription(db, payments))
				subscriptions.GET("/limits/:feature", handlers.CheckFeatureLimit(limits))
			}

			// Notification routes
			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", handlers.RegisterFCMToken(db))
				notifications.DELETE("/remove-token", handlers.RemoveFCMToken(db))
				notifications.GET("", handlers.ListNotifications(db))
				notifications.POST("/:id/read", handlers.MarkNotificationRead(db))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
