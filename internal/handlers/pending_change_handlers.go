package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/practicemarket/practicemarket-golang/internal/fields"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

//
// --- Pending-Change Handlers ---
//

// loadPendingChanges reads a listing's outstanding change set, oldest first.
func loadPendingChanges(q querier, listingID int64, forUpdate bool) ([]models.PendingChange, error) {
	query := `
		SELECT id, listing_id, field_path, new_value, created_at
		FROM pending_changes
		WHERE listing_id = ?
		ORDER BY id ASC`
	if forUpdate {
		query += " FOR UPDATE"
	}

	rows, err := q.Query(query, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []models.PendingChange{}
	for rows.Next() {
		var ch models.PendingChange
		var raw []byte
		if err := rows.Scan(&ch.ID, &ch.ListingID, &ch.FieldPath, &raw, &ch.CreatedAt); err != nil {
			return nil, err
		}
		ch.NewValue = raw
		changes = append(changes, ch)
	}
	return changes, rows.Err()
}

// GetPendingChanges is the handler for GET /v1/listings/:id/pending-changes
// Owner (or admin) only: pending values are a private preview, the public
// listing keeps showing approved values until review. An empty set is a
// normal 200 with count 0.
func (h *Handlers) GetPendingChanges(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	var sellerID int64
	err = h.DB.QueryRow("SELECT seller_id FROM listings WHERE id = ?", listingID).Scan(&sellerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	if sellerID != userID {
		var role string
		if err := h.DB.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role); err != nil || role != models.RoleAdministrator {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
	}

	changes, err := loadPendingChanges(h.DB, listingID, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pending changes"})
		return
	}

	c.JSON(http.StatusOK, models.PendingChangeSet{
		ListingID: listingID,
		Changes:   changes,
		Count:     len(changes),
	})
}

// GetListingsWithPendingChanges is the handler for GET /v1/admin/pending-changes
// It lists published listings with an outstanding edit set for review.
func (h *Handlers) GetListingsWithPendingChanges(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT l.id, l.title, l.status, u.full_name, u.email,
			COUNT(pc.id) AS change_count, MIN(pc.created_at) AS submitted_at
		FROM pending_changes pc
		JOIN listings l ON pc.listing_id = l.id
		JOIN users u ON l.seller_id = u.id
		GROUP BY l.id, l.title, l.status, u.full_name, u.email
		ORDER BY submitted_at ASC`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	type reviewItem struct {
		ListingID   int64     `json:"listing_id"`
		Title       string    `json:"title"`
		Status      string    `json:"status"`
		SellerName  string    `json:"seller_name"`
		SellerEmail string    `json:"seller_email"`
		ChangeCount int       `json:"change_count"`
		SubmittedAt time.Time `json:"submitted_at"`
	}

	items := []reviewItem{}
	for rows.Next() {
		var it reviewItem
		if err := rows.Scan(&it.ListingID, &it.Title, &it.Status, &it.SellerName, &it.SellerEmail, &it.ChangeCount, &it.SubmittedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan review row"})
			return
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ProcessPendingChangesInput defines the JSON for approving/rejecting a
// change set.
type ProcessPendingChangesInput struct {
	Action          string `json:"action" binding:"required,oneof=approve reject"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// ProcessPendingChanges is the handler for PATCH /v1/admin/listings/:id/changes
// Approval applies every change in the set to the listing atomically and
// clears the set; rejection discards the set. Either way the seller is
// notified inside the same transaction.
func (h *Handlers) ProcessPendingChanges(c *gin.Context) {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	var input ProcessPendingChangesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Action == "reject" && input.RejectionReason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection_reason is required when rejecting changes"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	// Lock the set so two admins cannot process it twice.
	changes, err := loadPendingChanges(tx, listingID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pending changes"})
		return
	}
	if len(changes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending changes for this listing"})
		return
	}

	listing, err := loadListing(tx, listingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listing"})
		return
	}

	if input.Action == "approve" {
		if err := fields.Apply(listing, changes); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to apply change set: %v", err)})
			return
		}
		if err := saveListingGroups(tx, listing); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save listing"})
			return
		}

		message := fmt.Sprintf("Your edits to \"%s\" have been approved and are now live.", listing.Title)
		if err := h.AddNotification(tx, listing.SellerID, message, fmt.Sprintf("/listings/%d", listingID)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
			return
		}
	} else {
		message := fmt.Sprintf("Your edits to \"%s\" were rejected. Reason: %s", listing.Title, input.RejectionReason)
		if err := h.AddNotification(tx, listing.SellerID, message, fmt.Sprintf("/listings/%d/edit", listingID)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
			return
		}
	}

	if _, err := tx.Exec("DELETE FROM pending_changes WHERE listing_id = ?", listingID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear change set"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Change set %sd", input.Action),
	})
}
