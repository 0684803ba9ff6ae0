package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/practicemarket/practicemarket-golang/internal/fields"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

// --- Inputs ---

type CreateListingInput struct {
	Title           string                  `json:"title" binding:"required"`
	Description     string                  `json:"description"`
	BusinessType    string                  `json:"business_type" binding:"required,oneof=full_sale partial_sale fundraising"`
	Location        string                  `json:"location"`
	BusinessDetails *models.BusinessDetails `json:"business_details"`
	FinancialData   *models.FinancialData   `json:"financial_data"`
	MediaURLs       []string                `json:"media_urls"`
	IsDraft         bool                    `json:"is_draft"`
}

type UpdateListingInput struct {
	Title           *string                 `json:"title"`
	Description     *string                 `json:"description"`
	BusinessType    *string                 `json:"business_type" binding:"omitempty,oneof=full_sale partial_sale fundraising"`
	Location        *string                 `json:"location"`
	BusinessDetails *models.BusinessDetails `json:"business_details"`
	FinancialData   *models.FinancialData   `json:"financial_data"`
	MediaURLs       *[]string               `json:"media_urls"`
	IsDraft         bool                    `json:"is_draft"`
}

// CreateListing is the handler for POST /v1/listings
func (h *Handlers) CreateListing(c *gin.Context) {
	userIDRaw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return
	}
	sellerID := userIDRaw.(int64)

	var input CreateListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1. --- Validation Logic ---
	// Drafts can be skeletal; a listing submitted for review cannot.
	if !input.IsDraft {
		if input.Description == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Description is required for submission."})
			return
		}
		if input.Location == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Location is required."})
			return
		}
		if len(input.MediaURLs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "At least 1 listing image is required."})
			return
		}

		var kycStatus string
		if err := h.DB.QueryRow("SELECT kyc_status FROM users WHERE id = ?", sellerID).Scan(&kycStatus); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check verification status"})
			return
		}
		if kycStatus != models.KYCStatusVerified {
			c.JSON(http.StatusForbidden, gin.H{"error": "Your identity documents must be verified before submitting a listing for review."})
			return
		}
	}

	// 2. --- Plan Limit ---
	if err := h.checkListingAllowance(sellerID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	status := models.ListingStatusPendingApproval
	if input.IsDraft {
		status = models.ListingStatusDraft
	}

	l := &models.Listing{
		SellerID:     sellerID,
		Title:        input.Title,
		Description:  input.Description,
		BusinessType: input.BusinessType,
		Location:     input.Location,
		Status:       status,
	}
	if input.BusinessDetails != nil {
		l.BusinessDetails = *input.BusinessDetails
	}
	if input.FinancialData != nil {
		l.FinancialData = *input.FinancialData
	}
	syncDuplicatedFields(l)

	detailsJSON, _ := json.Marshal(l.BusinessDetails)
	financialJSON, _ := json.Marshal(l.FinancialData)

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB Transaction failed"})
		return
	}
	defer tx.Rollback()

	// 3. --- Insert ---
	now := time.Now()
	result, err := tx.Exec(`
		INSERT INTO listings
		(seller_id, slug, title, description, business_type, location, asking_price,
		 status, business_details, financial_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.SellerID, slug.Make(l.Title), l.Title, l.Description, l.BusinessType, l.Location,
		l.AskingPrice, l.Status, string(detailsJSON), string(financialJSON), now, now,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert listing"})
		return
	}
	listingID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get ID"})
		return
	}

	// Slug gets the ID suffix so titles never collide.
	uniqueSlug := fmt.Sprintf("%s-%d", slug.Make(l.Title), listingID)
	if _, err := tx.Exec("UPDATE listings SET slug = ? WHERE id = ?", uniqueSlug, listingID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize listing slug"})
		return
	}

	// 4. --- Media ---
	if len(input.MediaURLs) > 0 {
		if err := replaceListingMedia(tx, listingID, input.MediaURLs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach media"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Listing saved", "listing_id": listingID, "slug": uniqueSlug})
}

// checkListingAllowance enforces the seller's plan limit on non-archived
// listings. Sellers without a subscription get a single free listing.
func (h *Handlers) checkListingAllowance(sellerID int64) error {
	maxListings := 1
	err := h.DB.QueryRow(`
		SELECT p.max_listings
		FROM subscriptions s
		JOIN plans p ON s.plan_id = p.id
		WHERE s.user_id = ? AND s.expires_at > ?
		ORDER BY s.expires_at DESC
		LIMIT 1`, sellerID, time.Now()).Scan(&maxListings)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check subscription")
	}

	var count int
	err = h.DB.QueryRow(
		"SELECT COUNT(*) FROM listings WHERE seller_id = ? AND status != ?",
		sellerID, models.ListingStatusArchived).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count listings")
	}

	if count >= maxListings {
		return fmt.Errorf("your plan allows %d active listing(s); archive one or upgrade to add more", maxListings)
	}
	return nil
}

// GetListing is the handler for GET /v1/listings/:id
// Published listings are public. Anything else is visible only to the owner
// or an admin, and always reflects the last approved values (pending edits
// never leak here).
func (h *Handlers) GetListing(c *gin.Context) {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	l, err := loadListing(h.DB, listingID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	if l.Status != models.ListingStatusPublished && !h.canViewUnpublished(c, l) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": l})
}

// canViewUnpublished reports whether the (optionally authenticated) caller
// owns the listing or is an admin.
func (h *Handlers) canViewUnpublished(c *gin.Context, l *models.Listing) bool {
	userIDRaw, exists := c.Get("userID")
	if !exists {
		return false
	}
	userID := userIDRaw.(int64)
	if userID == l.SellerID {
		return true
	}
	var role string
	if err := h.DB.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role); err != nil {
		return false
	}
	return role == models.RoleAdministrator
}

// SearchListings is the handler for GET /v1/listings/search
// Public, published listings only. Filters: location, business_type,
// min_price, max_price, limit, offset.
func (h *Handlers) SearchListings(c *gin.Context) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE status = ?`
	args := []any{models.ListingStatusPublished}

	if v := c.Query("location"); v != "" {
		query += " AND location LIKE ?"
		args = append(args, "%"+v+"%")
	}
	if v := c.Query("business_type"); v != "" {
		query += " AND business_type = ?"
		args = append(args, v)
	}
	if v := c.Query("min_price"); v != "" {
		if min, err := strconv.ParseFloat(v, 64); err == nil {
			query += " AND asking_price >= ?"
			args = append(args, min)
		}
	}
	if v := c.Query("max_price"); v != "" {
		if max, err := strconv.ParseFloat(v, 64); err == nil {
			query += " AND asking_price <= ?"
			args = append(args, max)
		}
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		l, err := scanListingRow(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan listing row"})
			return
		}
		listings = append(listings, l)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

func scanListingRow(rows *sql.Rows) (*models.Listing, error) {
	var l models.Listing
	var detailsJSON, financialJSON []byte
	err := rows.Scan(
		&l.ID, &l.SellerID, &l.Slug, &l.Title, &l.Description, &l.BusinessType,
		&l.Location, &l.AskingPrice, &l.Status, &detailsJSON, &financialJSON,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(detailsJSON) > 0 {
		json.Unmarshal(detailsJSON, &l.BusinessDetails)
	}
	if len(financialJSON) > 0 {
		json.Unmarshal(financialJSON, &l.FinancialData)
	}
	return &l, nil
}

// GetMyListings is the handler for GET /v1/seller/listings
func (h *Handlers) GetMyListings(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)

	query := `SELECT ` + listingColumns + ` FROM listings WHERE seller_id = ?`
	args := []any{sellerID}

	if statusFilter := c.Query("status"); statusFilter != "" {
		query += " AND status = ?"
		args = append(args, statusFilter)
	}
	query += " ORDER BY created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		l, err := scanListingRow(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan listing row"})
			return
		}
		listings = append(listings, l)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// UpdateListing is the handler for PUT /v1/listings/:id
//
// Drafts, rejected and still-in-review listings update in place. A published
// listing is different: its field edits become a replacement pending-change
// set for admin review, and the public listing keeps showing the approved
// values until that review lands. Media changes apply immediately either way.
func (h *Handlers) UpdateListing(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)

	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	// 1. --- Ownership Check ---
	current, err := loadListing(h.DB, listingID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}
	if current.SellerID != sellerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found or you do not have permission to edit it"})
		return
	}
	if current.Status == models.ListingStatusArchived {
		c.JSON(http.StatusConflict, gin.H{"error": "Archived listings cannot be edited"})
		return
	}

	var input UpdateListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if current.Status == models.ListingStatusPublished && input.IsDraft {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A published listing cannot be reverted to a draft"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	// 2. --- Media (applies immediately in every status) ---
	if input.MediaURLs != nil {
		if err := replaceListingMedia(tx, listingID, *input.MediaURLs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update media"})
			return
		}
	}

	if current.Status == models.ListingStatusPublished {
		// 3a. --- Published: convert the diff into a pending-change set ---
		changes := buildChangeSet(current, &input)

		// Replacing, not merging: a listing has at most one outstanding set.
		if _, err := tx.Exec("DELETE FROM pending_changes WHERE listing_id = ?", listingID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear previous change set"})
			return
		}
		now := time.Now()
		for _, ch := range changes {
			_, err := tx.Exec(`
				INSERT INTO pending_changes (listing_id, field_path, new_value, created_at)
				VALUES (?, ?, ?, ?)`,
				listingID, ch.FieldPath, string(ch.NewValue), now)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record pending changes"})
				return
			}
		}

		if len(changes) > 0 {
			message := fmt.Sprintf("Your edits to \"%s\" have been submitted and are under review.", current.Title)
			if err := h.AddNotification(tx, sellerID, message, fmt.Sprintf("/listings/%d/edit", listingID)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
				return
			}
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":         "Changes submitted for review",
			"pending_changes": len(changes),
		})
		return
	}

	// 3b. --- Not yet published: update in place ---
	applyInput(current, &input)
	if input.IsDraft {
		current.Status = models.ListingStatusDraft
	} else {
		current.Status = models.ListingStatusPendingApproval
	}
	if _, err := tx.Exec("UPDATE listings SET status = ? WHERE id = ?", current.Status, listingID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing status"})
		return
	}
	if err := saveListingGroups(tx, current); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing details"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing updated"})
}

// applyInput copies the provided fields onto the listing.
func applyInput(l *models.Listing, input *UpdateListingInput) {
	if input.Title != nil {
		l.Title = *input.Title
	}
	if input.Description != nil {
		l.Description = *input.Description
	}
	if input.BusinessType != nil {
		l.BusinessType = *input.BusinessType
	}
	if input.Location != nil {
		l.Location = *input.Location
	}
	if input.BusinessDetails != nil {
		l.BusinessDetails = *input.BusinessDetails
	}
	if input.FinancialData != nil {
		l.FinancialData = *input.FinancialData
	}
}

// buildChangeSet diffs the submitted form against the current approved
// listing and produces pending-change records.
//
// Storage shape is deliberately uneven: financial_data.* values are wrapped
// in a one-key sub-object ({"asking_price": 650000}) because that is how
// every historical change set was written, while flat and business_details
// fields store the bare value. The resolver understands both; changing the
// financial shape would strand in-flight sets.
//
// The duplicated annual_revenue / net_profit copies inside business_details
// are ignored here; financial_data is canonical for money fields and the
// copies are re-synced on approval.
func buildChangeSet(current *models.Listing, input *UpdateListingInput) []models.PendingChange {
	var changes []models.PendingChange

	addFlat := func(id fields.ID, incoming *string, existing string) {
		if incoming == nil || *incoming == existing {
			return
		}
		raw, _ := json.Marshal(*incoming)
		changes = append(changes, models.PendingChange{FieldPath: id.Path(), NewValue: raw})
	}
	addFlat(fields.Title, input.Title, current.Title)
	addFlat(fields.Description, input.Description, current.Description)
	addFlat(fields.BusinessType, input.BusinessType, current.BusinessType)
	addFlat(fields.Location, input.Location, current.Location)

	if input.FinancialData != nil {
		addMoney := func(id fields.ID, key string, incoming, existing *float64) {
			if incoming == nil || (existing != nil && *existing == *incoming) {
				return
			}
			raw, _ := json.Marshal(map[string]float64{key: *incoming})
			changes = append(changes, models.PendingChange{FieldPath: id.Path(), NewValue: raw})
		}
		addMoney(fields.AskingPrice, "asking_price", input.FinancialData.AskingPrice, current.FinancialData.AskingPrice)
		addMoney(fields.AnnualRevenue, "annual_revenue", input.FinancialData.AnnualRevenue, current.FinancialData.AnnualRevenue)
		addMoney(fields.NetProfit, "net_profit", input.FinancialData.NetProfit, current.FinancialData.NetProfit)
		addMoney(fields.EBITDA, "ebitda", input.FinancialData.EBITDA, current.FinancialData.EBITDA)
	}

	if input.BusinessDetails != nil {
		addCount := func(id fields.ID, incoming, existing *int) {
			if incoming == nil || (existing != nil && *existing == *incoming) {
				return
			}
			raw, _ := json.Marshal(*incoming)
			changes = append(changes, models.PendingChange{FieldPath: id.Path(), NewValue: raw})
		}
		addStr := func(id fields.ID, incoming *string, existing *string) {
			if incoming == nil || (existing != nil && *existing == *incoming) {
				return
			}
			raw, _ := json.Marshal(*incoming)
			changes = append(changes, models.PendingChange{FieldPath: id.Path(), NewValue: raw})
		}

		addCount(fields.PatientListSize, input.BusinessDetails.PatientListSize, current.BusinessDetails.PatientListSize)
		addCount(fields.StaffCount, input.BusinessDetails.StaffCount, current.BusinessDetails.StaffCount)
		addStr(fields.Premises, input.BusinessDetails.Premises, current.BusinessDetails.Premises)
		addStr(fields.PracticeType, input.BusinessDetails.PracticeType, current.BusinessDetails.PracticeType)
		if input.BusinessDetails.BusinessSummary != "" && input.BusinessDetails.BusinessSummary != current.BusinessDetails.BusinessSummary {
			raw, _ := json.Marshal(input.BusinessDetails.BusinessSummary)
			changes = append(changes, models.PendingChange{FieldPath: fields.BusinessSummary.Path(), NewValue: raw})
		}
	}

	return changes
}

// ArchiveListing is the handler for DELETE /v1/listings/:id
// Listings are never hard-deleted; archiving hides them and discards any
// outstanding change set.
func (h *Handlers) ArchiveListing(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)
	listingID := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE listings SET status = ?, updated_at = ?
		WHERE id = ? AND seller_id = ? AND status != ?`,
		models.ListingStatusArchived, time.Now(), listingID, sellerID, models.ListingStatusArchived)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive listing"})
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found or you do not have permission to archive it"})
		return
	}

	if _, err := tx.Exec("DELETE FROM pending_changes WHERE listing_id = ?", listingID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to discard pending changes"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing archived"})
}
