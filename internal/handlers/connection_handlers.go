package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

//
// --- Connection Handlers ---
//

// CreateConnectionInput defines the JSON for a buyer's contact request.
type CreateConnectionInput struct {
	Message string `json:"message"`
}

// CreateConnection is the handler for POST /v1/listings/:id/connect
// A buyer may hold at most one connection per listing.
func (h *Handlers) CreateConnection(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	buyerID := userIDRaw.(int64)

	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	var input CreateConnectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1. --- Listing must be live, and not the buyer's own ---
	var sellerID int64
	var title, status string
	err = h.DB.QueryRow("SELECT seller_id, title, status FROM listings WHERE id = ?", listingID).Scan(&sellerID, &title, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	if status != models.ListingStatusPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if sellerID == buyerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot request a connection to your own listing"})
		return
	}

	// 2. --- One connection per buyer/listing pair ---
	var existingID int64
	err = h.DB.QueryRow("SELECT id FROM connections WHERE listing_id = ? AND buyer_id = ?", listingID, buyerID).Scan(&existingID)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already requested a connection for this listing"})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	var message sql.NullString
	if input.Message != "" {
		message = sql.NullString{String: input.Message, Valid: true}
	}

	result, err := tx.Exec(`
		INSERT INTO connections (reference, listing_id, buyer_id, seller_id, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), listingID, buyerID, sellerID, message, models.ConnectionStatusPending, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create connection"})
		return
	}
	connectionID, _ := result.LastInsertId()

	notif := fmt.Sprintf("A buyer has requested a connection about \"%s\".", title)
	if err := h.AddNotification(tx, sellerID, notif, "/connections"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Connection requested",
		"connection_id": connectionID,
	})
}

// GetMyConnections is the handler for GET /v1/connections
// Buyers see requests they sent; sellers see requests against their
// listings.
func (h *Handlers) GetMyConnections(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT cn.id, cn.reference, cn.listing_id, cn.buyer_id, cn.seller_id,
			cn.message, cn.status, cn.created_at, cn.updated_at,
			l.title, b.full_name, s.full_name
		FROM connections cn
		JOIN listings l ON cn.listing_id = l.id
		JOIN users b ON cn.buyer_id = b.id
		JOIN users s ON cn.seller_id = s.id
		WHERE cn.buyer_id = ? OR cn.seller_id = ?
		ORDER BY cn.created_at DESC`

	rows, err := h.DB.Query(query, userID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	connections := []*models.Connection{}
	for rows.Next() {
		var cn models.Connection
		if err := rows.Scan(
			&cn.ID, &cn.Reference, &cn.ListingID, &cn.BuyerID, &cn.SellerID,
			&cn.Message, &cn.Status, &cn.CreatedAt, &cn.UpdatedAt,
			&cn.ListingTitle, &cn.BuyerName, &cn.SellerName,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan connection row"})
			return
		}
		connections = append(connections, &cn)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connections": connections})
}

// ProcessConnectionInput defines the JSON for accepting/declining a request.
type ProcessConnectionInput struct {
	Action string `json:"action" binding:"required,oneof=accept decline"`
}

// ProcessConnection is the handler for PATCH /v1/connections/:id
// Only the seller on the request may act, and only while it is pending.
func (h *Handlers) ProcessConnection(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)
	connectionID := c.Param("id")

	var input ProcessConnectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var cn models.Connection
	var title string
	err = tx.QueryRow(`
		SELECT cn.id, cn.buyer_id, cn.status, l.title
		FROM connections cn
		JOIN listings l ON cn.listing_id = l.id
		WHERE cn.id = ? AND cn.seller_id = ?
		FOR UPDATE`, connectionID, sellerID).Scan(&cn.ID, &cn.BuyerID, &cn.Status, &title)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Connection not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load connection"})
		return
	}
	if cn.Status != models.ConnectionStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "This connection has already been processed"})
		return
	}

	newStatus := models.ConnectionStatusAccepted
	notif := fmt.Sprintf("Your connection request about \"%s\" was accepted. The seller will be in touch.", title)
	if input.Action == "decline" {
		newStatus = models.ConnectionStatusDeclined
		notif = fmt.Sprintf("Your connection request about \"%s\" was declined.", title)
	}

	if _, err := tx.Exec("UPDATE connections SET status = ?, updated_at = ? WHERE id = ?",
		newStatus, time.Now(), connectionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update connection"})
		return
	}

	if err := h.AddNotification(tx, cn.BuyerID, notif, "/connections"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Connection %sd", input.Action)})
}

// GetConnectionStatus is the handler for GET /v1/listings/:id/connection-status
// Returns the caller's connection state for one listing. The mobile client
// fans these out in parallel, one per visible listing, so the payload stays
// minimal.
func (h *Handlers) GetConnectionStatus(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	buyerID := userIDRaw.(int64)

	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	var status string
	err = h.DB.QueryRow("SELECT status FROM connections WHERE listing_id = ? AND buyer_id = ?", listingID, buyerID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusOK, gin.H{"listing_id": listingID, "status": "none"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing_id": listingID, "status": status})
}

// ExpireStaleConnections declines connection requests that sat unanswered
// for 30 days and tells the buyer. Called by the background worker.
func (h *Handlers) ExpireStaleConnections() {
	cutoff := time.Now().AddDate(0, 0, -30)

	rows, err := h.DB.Query(`
		SELECT cn.id, cn.buyer_id, l.title
		FROM connections cn
		JOIN listings l ON cn.listing_id = l.id
		WHERE cn.status = ? AND cn.created_at < ?`,
		models.ConnectionStatusPending, cutoff)
	if err != nil {
		log.Printf("stale connection sweep: query failed: %v", err)
		return
	}

	type stale struct {
		id      int64
		buyerID int64
		title   string
	}
	var found []stale
	for rows.Next() {
		var s stale
		if err := rows.Scan(&s.id, &s.buyerID, &s.title); err != nil {
			rows.Close()
			log.Printf("stale connection sweep: scan failed: %v", err)
			return
		}
		found = append(found, s)
	}
	rows.Close()

	for _, s := range found {
		tx, err := h.DB.Begin()
		if err != nil {
			log.Printf("stale connection sweep: begin failed: %v", err)
			return
		}

		_, err = tx.Exec("UPDATE connections SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
			models.ConnectionStatusDeclined, time.Now(), s.id, models.ConnectionStatusPending)
		if err == nil {
			notif := fmt.Sprintf("Your connection request about \"%s\" expired without a response.", s.title)
			err = h.AddNotification(tx, s.buyerID, notif, "/connections")
		}
		if err != nil {
			tx.Rollback()
			log.Printf("stale connection sweep: connection %d: %v", s.id, err)
			continue
		}
		if err := tx.Commit(); err != nil {
			log.Printf("stale connection sweep: commit failed: %v", err)
		}
	}

	if len(found) > 0 {
		log.Printf("stale connection sweep: expired %d connection(s)", len(found))
	}
}
