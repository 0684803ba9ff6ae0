package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// --- Listing Media Handlers ---
//

// UploadListingMedia is the handler for POST /v1/listings/:id/media
// Accepts one or more files under the "files" form field, stores them on
// local disk with uuid names, records the rows, and returns the public URLs.
func (h *Handlers) UploadListingMedia(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)

	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	// 1. --- Ownership Check ---
	var ownerID int64
	err = h.DB.QueryRow("SELECT seller_id FROM listings WHERE id = ?", listingID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}
	if ownerID != sellerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found or you do not have permission to edit it"})
		return
	}

	// 2. --- Get Files ---
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	uploadPath := h.Cfg.UploadDir
	if _, err := os.Stat(uploadPath); os.IsNotExist(err) {
		os.MkdirAll(uploadPath, 0755)
	}

	// 3. --- Save Files & Record Rows ---
	var nextPosition int
	h.DB.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM listing_media WHERE listing_id = ?", listingID).Scan(&nextPosition)

	var hasPrimary bool
	h.DB.QueryRow("SELECT COUNT(*) > 0 FROM listing_media WHERE listing_id = ? AND is_primary = 1", listingID).Scan(&hasPrimary)

	urls := []string{}
	for i, file := range files {
		ext := filepath.Ext(file.Filename)
		newFilename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
		savePath := filepath.Join(uploadPath, newFilename)

		if err := c.SaveUploadedFile(file, savePath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}

		publicURL := fmt.Sprintf("%s/uploads/%s", h.Cfg.BaseURL, newFilename)

		// The first image a listing ever gets becomes its primary.
		isPrimary := !hasPrimary && i == 0
		_, err := h.DB.Exec(`
			INSERT INTO listing_media (listing_id, url, position, is_primary, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			listingID, publicURL, nextPosition+i, isPrimary, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record media"})
			return
		}
		urls = append(urls, publicURL)
	}

	c.JSON(http.StatusOK, gin.H{"urls": urls})
}

// SetPrimaryMedia is the handler for PUT /v1/listings/:id/media/:mediaId/primary
func (h *Handlers) SetPrimaryMedia(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)
	listingID := c.Param("id")
	mediaID := c.Param("mediaId")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	// Ownership is enforced through the join in the UPDATE below.
	if _, err := tx.Exec(`
		UPDATE listing_media m
		JOIN listings l ON m.listing_id = l.id
		SET m.is_primary = 0
		WHERE m.listing_id = ? AND l.seller_id = ?`, listingID, sellerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear primary flag"})
		return
	}

	result, err := tx.Exec(`
		UPDATE listing_media m
		JOIN listings l ON m.listing_id = l.id
		SET m.is_primary = 1
		WHERE m.id = ? AND m.listing_id = ? AND l.seller_id = ?`, mediaID, listingID, sellerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set primary media"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found or you do not have permission to edit it"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Primary media updated"})
}

// DeleteMedia is the handler for DELETE /v1/listings/:id/media/:mediaId
// Removes the DB row only; the file on disk stays until the cleanup job
// prunes unreferenced uploads.
func (h *Handlers) DeleteMedia(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)
	listingID := c.Param("id")
	mediaID := c.Param("mediaId")

	result, err := h.DB.Exec(`
		DELETE m FROM listing_media m
		JOIN listings l ON m.listing_id = l.id
		WHERE m.id = ? AND m.listing_id = ? AND l.seller_id = ?`, mediaID, listingID, sellerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete media"})
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found or you do not have permission to delete it"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Media deleted"})
}

// replaceListingMedia rewrites a listing's media rows from a URL list. The
// previous primary keeps its flag when its URL survives the edit; otherwise
// the first URL becomes primary. Called from the listing create/update
// transactions.
func replaceListingMedia(tx *sql.Tx, listingID int64, urls []string) error {
	var currentPrimary string
	tx.QueryRow("SELECT url FROM listing_media WHERE listing_id = ? AND is_primary = 1", listingID).Scan(&currentPrimary)

	if _, err := tx.Exec("DELETE FROM listing_media WHERE listing_id = ?", listingID); err != nil {
		return err
	}

	primaryIdx := 0
	for i, u := range urls {
		if u == currentPrimary {
			primaryIdx = i
			break
		}
	}

	now := time.Now()
	for i, u := range urls {
		_, err := tx.Exec(`
			INSERT INTO listing_media (listing_id, url, position, is_primary, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			listingID, u, i, i == primaryIdx, now)
		if err != nil {
			return err
		}
	}
	return nil
}
