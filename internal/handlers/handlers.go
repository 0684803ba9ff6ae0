package handlers

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/practicemarket/practicemarket-golang/internal/config"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

// Handlers holds all dependencies for our handlers.
type Handlers struct {
	DB  *sql.DB
	Cfg *config.Config
}

// querier lets the listing loaders run against either the pool or an open
// transaction.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const listingColumns = `id, seller_id, slug, title, description, business_type, location,
	asking_price, status, business_details, financial_data, created_at, updated_at`

// loadListing fetches one listing row plus its media. Returns sql.ErrNoRows
// when the listing does not exist.
func loadListing(q querier, listingID int64) (*models.Listing, error) {
	var l models.Listing
	var detailsJSON, financialJSON []byte

	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	err := q.QueryRow(query, listingID).Scan(
		&l.ID,
		&l.SellerID,
		&l.Slug,
		&l.Title,
		&l.Description,
		&l.BusinessType,
		&l.Location,
		&l.AskingPrice,
		&l.Status,
		&detailsJSON,
		&financialJSON,
		&l.CreatedAt,
		&l.UpdatedAt,
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

	media, err := loadListingMedia(q, listingID)
	if err != nil {
		return nil, err
	}
	l.Media = media

	return &l, nil
}

func loadListingMedia(q querier, listingID int64) ([]models.MediaItem, error) {
	rows, err := q.Query(`
		SELECT id, listing_id, url, position, is_primary, created_at
		FROM listing_media
		WHERE listing_id = ?
		ORDER BY position ASC`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	media := []models.MediaItem{}
	for rows.Next() {
		var m models.MediaItem
		if err := rows.Scan(&m.ID, &m.ListingID, &m.URL, &m.Position, &m.IsPrimary, &m.CreatedAt); err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

// syncDuplicatedFields keeps the intentionally duplicated values in step:
// financial_data is canonical for asking_price / annual_revenue / net_profit,
// and the business_details copies plus the flat asking_price column follow
// it. Older API consumers read the business_details copies.
func syncDuplicatedFields(l *models.Listing) {
	l.AskingPrice = l.FinancialData.AskingPrice
	l.BusinessDetails.AnnualRevenue = l.FinancialData.AnnualRevenue
	l.BusinessDetails.NetProfit = l.FinancialData.NetProfit
}

// saveListingGroups writes the nested JSON groups and flat mirror columns
// back to the listing row. Must run inside the caller's transaction when the
// write is part of a larger change.
func saveListingGroups(tx *sql.Tx, l *models.Listing) error {
	syncDuplicatedFields(l)

	detailsJSON, err := json.Marshal(l.BusinessDetails)
	if err != nil {
		return err
	}
	financialJSON, err := json.Marshal(l.FinancialData)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		UPDATE listings
		SET title = ?, description = ?, business_type = ?, location = ?,
			asking_price = ?, business_details = ?, financial_data = ?, updated_at = ?
		WHERE id = ?`,
		l.Title, l.Description, l.BusinessType, l.Location,
		l.AskingPrice, string(detailsJSON), string(financialJSON), time.Now(),
		l.ID,
	)
	return err
}
