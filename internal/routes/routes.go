package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/practicemarket/practicemarket-golang/internal/handlers"
	"github.com/practicemarket/practicemarket-golang/internal/middleware"
)

// CORSMiddleware tells the browser the configured web frontend may call us.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware(h.Cfg.CORSOrigin))

	// Uploaded media and KYC documents are served straight off disk.
	router.Static("/uploads", h.Cfg.UploadDir)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register/seller", h.RegisterSeller)
		v1.POST("/register/buyer", h.RegisterBuyer)
		v1.POST("/login", h.Login)

		// --- Public Listing Routes ---
		v1.GET("/listings/search", h.SearchListings)
		v1.GET("/listings/:id", middleware.OptionalAuthMiddleware(), h.GetListing)

		// --- Public Subscription Routes ---
		v1.GET("/subscriptions/plans", h.GetSubscriptionPlans)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(h.DB))
		{
			auth.GET("/profile/me", h.GetMyProfile)

			// --- Notification Routes ---
			auth.GET("/notifications", h.GetMyNotifications)
			auth.PATCH("/notifications/:id/read", h.MarkNotificationAsRead)

			// --- Connections (both sides) ---
			auth.GET("/connections", h.GetMyConnections)
			auth.PATCH("/connections/:id", h.ProcessConnection)
			auth.GET("/listings/:id/connection-status", h.GetConnectionStatus)

			// --- Listing Edit Flow (owner-checked in handlers) ---
			auth.POST("/listings", h.CreateListing)
			auth.PUT("/listings/:id", h.UpdateListing)
			auth.DELETE("/listings/:id", h.ArchiveListing)
			auth.GET("/listings/:id/pending-changes", h.GetPendingChanges)

			// --- Listing Media ---
			auth.POST("/listings/:id/media", h.UploadListingMedia)
			auth.PUT("/listings/:id/media/:mediaId/primary", h.SetPrimaryMedia)
			auth.DELETE("/listings/:id/media/:mediaId", h.DeleteMedia)
		}

		// --- Seller-Only Routes ---
		seller := v1.Group("/seller")
		seller.Use(middleware.AuthMiddleware(h.DB))
		seller.Use(middleware.SellerMiddleware(h.DB))
		{
			seller.GET("/listings", h.GetMyListings)
			seller.POST("/kyc", h.SubmitKYCDocuments)
			seller.GET("/dashboard-stats", h.GetSellerStats)
		}

		// --- Buyer-Only Routes ---
		buyer := v1.Group("/")
		buyer.Use(middleware.AuthMiddleware(h.DB))
		buyer.Use(middleware.BuyerMiddleware(h.DB))
		{
			buyer.POST("/listings/:id/connect", h.CreateConnection)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(h.DB))
		admin.Use(middleware.AdminMiddleware(h.DB))
		{
			admin.GET("/listings/pending", h.GetPendingListings)
			admin.PATCH("/listings/:id/approve", h.ApproveListing)
			admin.PATCH("/listings/:id/reject", h.RejectListing)

			admin.GET("/pending-changes", h.GetListingsWithPendingChanges)
			admin.PATCH("/listings/:id/changes", h.ProcessPendingChanges)

			admin.GET("/kyc/pending", h.GetPendingKYC)
			admin.PATCH("/kyc/:userId", h.ProcessKYC)

			admin.GET("/settings", h.GetSettings)
			admin.PATCH("/settings", h.UpdateSettings)

			admin.POST("/users/:id/subscription", h.AssignSubscription)
			admin.GET("/dashboard-stats", h.GetAdminStats)
		}
	}

	return router
}
