package models

import (
	"database/sql"
	"time"
)

// Connection statuses.
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
	ConnectionStatusDeclined = "declined"
)

// Connection is the model for the 'connections' table: a buyer-initiated
// contact request to a seller about a listing. At most one per buyer/listing
// pair.
type Connection struct {
	ID        int64          `json:"id" db:"id"`
	Reference string         `json:"reference" db:"reference"`
	ListingID int64          `json:"listing_id" db:"listing_id"`
	BuyerID   int64          `json:"buyer_id" db:"buyer_id"`
	SellerID  int64          `json:"seller_id" db:"seller_id"`
	Message   sql.NullString `json:"message,omitempty" db:"message"`
	Status    string         `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`

	// Populated by joins for list views.
	ListingTitle string `json:"listing_title,omitempty" db:"-"`
	BuyerName    string `json:"buyer_name,omitempty" db:"-"`
	SellerName   string `json:"seller_name,omitempty" db:"-"`
}
