package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

//
// --- Seller Dashboard Stats ---
//

type SellerStats struct {
	LiveListings       int `json:"live_listings"`
	UnderReview        int `json:"under_review"` // first approvals + outstanding edit sets
	PendingConnections int `json:"pending_connections"`
	UnreadNotifs       int `json:"unread_notifications"`
}

// GetSellerStats is the handler for GET /v1/seller/dashboard-stats
func (h *Handlers) GetSellerStats(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)

	stats := SellerStats{}

	err := h.DB.QueryRow("SELECT COUNT(*) FROM listings WHERE seller_id = ? AND status = ?",
		sellerID, models.ListingStatusPublished).Scan(&stats.LiveListings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count live listings"})
		return
	}

	// A listing counts as under review when it awaits first approval or has
	// an outstanding pending-change set.
	err = h.DB.QueryRow(`
		SELECT COUNT(DISTINCT l.id)
		FROM listings l
		LEFT JOIN pending_changes pc ON pc.listing_id = l.id
		WHERE l.seller_id = ? AND (l.status = ? OR pc.id IS NOT NULL)`,
		sellerID, models.ListingStatusPendingApproval).Scan(&stats.UnderReview)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count listings under review"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(*) FROM connections WHERE seller_id = ? AND status = ?",
		sellerID, models.ConnectionStatusPending).Scan(&stats.PendingConnections)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count connections"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0",
		sellerID).Scan(&stats.UnreadNotifs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

//
// --- Admin Dashboard Stats ---
//

type AdminStats struct {
	PendingListings   int `json:"pending_listings"`
	PendingChangeSets int `json:"pending_change_sets"`
	PendingKYC        int `json:"pending_kyc"`
	PublishedListings int `json:"published_listings"`
}

// GetAdminStats is the handler for GET /v1/admin/dashboard-stats
func (h *Handlers) GetAdminStats(c *gin.Context) {
	stats := AdminStats{}

	err := h.DB.QueryRow("SELECT COUNT(*) FROM listings WHERE status = ?",
		models.ListingStatusPendingApproval).Scan(&stats.PendingListings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending listings"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(DISTINCT listing_id) FROM pending_changes").Scan(&stats.PendingChangeSets)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending change sets"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(*) FROM users WHERE kyc_status = ?",
		models.KYCStatusPending).Scan(&stats.PendingKYC)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending KYC"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(*) FROM listings WHERE status = ?",
		models.ListingStatusPublished).Scan(&stats.PublishedListings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count published listings"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
