package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

//
// --- Admin: Listing Approval Handlers ---
//

// GetPendingListings is the handler for GET /v1/admin/listings/pending
// It retrieves all listings awaiting first publication, oldest first.
func (h *Handlers) GetPendingListings(c *gin.Context) {
	query := `
		SELECT l.id, l.seller_id, l.slug, l.title, l.description, l.business_type,
			l.location, l.asking_price, l.status, l.business_details, l.financial_data,
			l.created_at, l.updated_at, u.full_name
		FROM listings l
		JOIN users u ON l.seller_id = u.id
		WHERE l.status = ?
		ORDER BY l.created_at ASC`

	rows, err := h.DB.Query(query, models.ListingStatusPendingApproval)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		var l models.Listing
		var detailsJSON, financialJSON []byte
		if err := rows.Scan(
			&l.ID, &l.SellerID, &l.Slug, &l.Title, &l.Description, &l.BusinessType,
			&l.Location, &l.AskingPrice, &l.Status, &detailsJSON, &financialJSON,
			&l.CreatedAt, &l.UpdatedAt, &l.SellerName,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan listing row"})
			return
		}
		if len(detailsJSON) > 0 {
			json.Unmarshal(detailsJSON, &l.BusinessDetails)
		}
		if len(financialJSON) > 0 {
			json.Unmarshal(financialJSON, &l.FinancialData)
		}
		listings = append(listings, &l)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// ApproveListing is the handler for PATCH /v1/admin/listings/:id/approve
// It moves a listing from pending_approval to published and notifies the
// seller.
func (h *Handlers) ApproveListing(c *gin.Context) {
	listingID := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var sellerID int64
	var title string
	err = tx.QueryRow("SELECT seller_id, title FROM listings WHERE id = ? AND status = ? FOR UPDATE",
		listingID, models.ListingStatusPendingApproval).Scan(&sellerID, &title)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found or was not pending approval"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listing"})
		return
	}

	_, err = tx.Exec("UPDATE listings SET status = ?, updated_at = ? WHERE id = ?",
		models.ListingStatusPublished, time.Now(), listingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve listing"})
		return
	}

	message := fmt.Sprintf("Your listing \"%s\" has been approved and is now live.", title)
	if err := h.AddNotification(tx, sellerID, message, fmt.Sprintf("/listings/%s", listingID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing approved and published successfully"})
}

// RejectListingInput defines the JSON input for rejecting a listing.
type RejectListingInput struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectListing is the handler for PATCH /v1/admin/listings/:id/reject
func (h *Handlers) RejectListing(c *gin.Context) {
	listingID := c.Param("id")

	var input RejectListingInput
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

	var sellerID int64
	var title string
	err = tx.QueryRow("SELECT seller_id, title FROM listings WHERE id = ? AND status = ? FOR UPDATE",
		listingID, models.ListingStatusPendingApproval).Scan(&sellerID, &title)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found or was not pending approval"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listing"})
		return
	}

	_, err = tx.Exec("UPDATE listings SET status = ?, updated_at = ? WHERE id = ?",
		models.ListingStatusRejected, time.Now(), listingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject listing"})
		return
	}

	message := fmt.Sprintf("Your listing \"%s\" was rejected. Reason: %s", title, input.Reason)
	if err := h.AddNotification(tx, sellerID, message, fmt.Sprintf("/listings/%s/edit", listingID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing rejected"})
}

//
// --- Admin: KYC Review Handlers ---
//

// GetPendingKYC is the handler for GET /v1/admin/kyc/pending
func (h *Handlers) GetPendingKYC(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT id, full_name, email, company_name, kyc_document_url, updated_at
		FROM users
		WHERE kyc_status = ?
		ORDER BY updated_at ASC`, models.KYCStatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	type kycItem struct {
		UserID      int64     `json:"user_id"`
		FullName    string    `json:"full_name"`
		Email       string    `json:"email"`
		CompanyName *string   `json:"company_name,omitempty"`
		DocumentURL *string   `json:"document_url,omitempty"`
		SubmittedAt time.Time `json:"submitted_at"`
	}

	items := []kycItem{}
	for rows.Next() {
		var it kycItem
		if err := rows.Scan(&it.UserID, &it.FullName, &it.Email, &it.CompanyName, &it.DocumentURL, &it.SubmittedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan KYC row"})
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

// ProcessKYCInput defines the JSON for verifying/rejecting KYC documents.
type ProcessKYCInput struct {
	Action          string `json:"action" binding:"required,oneof=verify reject"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// ProcessKYC is the handler for PATCH /v1/admin/kyc/:userId
func (h *Handlers) ProcessKYC(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var input ProcessKYCInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Action == "reject" && input.RejectionReason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection_reason is required when rejecting documents"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var newStatus, message string
	if input.Action == "verify" {
		newStatus = models.KYCStatusVerified
		message = "Your identity documents have been verified. You can now submit listings for review."
		_, err = tx.Exec("UPDATE users SET kyc_status = ?, kyc_rejection_reason = NULL, updated_at = ? WHERE id = ? AND kyc_status = ?",
			newStatus, time.Now(), userID, models.KYCStatusPending)
	} else {
		newStatus = models.KYCStatusRejected
		message = fmt.Sprintf("Your identity documents were rejected. Reason: %s", input.RejectionReason)
		_, err = tx.Exec("UPDATE users SET kyc_status = ?, kyc_rejection_reason = ?, updated_at = ? WHERE id = ? AND kyc_status = ?",
			newStatus, input.RejectionReason, time.Now(), userID, models.KYCStatusPending)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update KYC status"})
		return
	}

	if err := h.AddNotification(tx, userID, message, "/account/verification"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("KYC documents %s", pastTense(input.Action))})
}

func pastTense(action string) string {
	if action == "verify" {
		return "verified"
	}
	return "rejected"
}

//
// --- Admin: Settings Handlers ---
//

// GetSettings is the handler for GET /v1/admin/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	rows, err := h.DB.Query("SELECT setting_key, setting_value FROM settings")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	settings := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan setting row"})
			return
		}
		settings[k] = v
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings is the handler for PATCH /v1/admin/settings
// Accepts a flat key/value object and upserts each pair.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var input map[string]string
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for k, v := range input {
		_, err := h.DB.Exec(`
			INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)`, k, v)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}
