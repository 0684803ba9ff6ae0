package models

import (
	"time"
)

// Listing statuses. A listing is created as a draft, goes through admin
// review, and only then becomes visible to buyers.
const (
	ListingStatusDraft           = "draft"
	ListingStatusPendingApproval = "pending_approval"
	ListingStatusPublished       = "published"
	ListingStatusRejected        = "rejected"
	ListingStatusArchived        = "archived"
)

// Business types a practice can be listed under.
const (
	BusinessTypeFullSale    = "full_sale"
	BusinessTypePartialSale = "partial_sale"
	BusinessTypeFundraising = "fundraising"
)

// BusinessDetails holds the structured practice details. business_summary is
// the legacy free-text field older listings were created with; several
// structured fields may be absent on those and get parsed out of the summary
// instead. annual_revenue and net_profit are duplicated from financial_data
// for backward compatibility with older API consumers.
type BusinessDetails struct {
	PracticeType    *string  `json:"practice_type,omitempty"`
	PatientListSize *int     `json:"patient_list_size,omitempty"`
	StaffCount      *int     `json:"staff_count,omitempty"`
	Premises        *string  `json:"premises,omitempty"`
	BusinessSummary string   `json:"business_summary,omitempty"`
	AnnualRevenue   *float64 `json:"annual_revenue,omitempty"`
	NetProfit       *float64 `json:"net_profit,omitempty"`
}

// FinancialData is the canonical home of the listing's money fields.
type FinancialData struct {
	AskingPrice   *float64 `json:"asking_price,omitempty"`
	AnnualRevenue *float64 `json:"annual_revenue,omitempty"`
	NetProfit     *float64 `json:"net_profit,omitempty"`
	EBITDA        *float64 `json:"ebitda,omitempty"`
}

// Listing is the model for the 'listings' table. The nested detail groups
// are stored as JSON columns; media lives in its own table.
type Listing struct {
	ID           int64    `json:"id" db:"id"`
	SellerID     int64    `json:"seller_id" db:"seller_id"`
	Slug         string   `json:"slug" db:"slug"`
	Title        string   `json:"title" db:"title"`
	Description  string   `json:"description" db:"description"`
	BusinessType string   `json:"business_type" db:"business_type"`
	Location     string   `json:"location" db:"location"`
	AskingPrice  *float64 `json:"asking_price,omitempty" db:"asking_price"`
	Status       string   `json:"status" db:"status"`

	BusinessDetails BusinessDetails `json:"business_details"`
	FinancialData   FinancialData   `json:"financial_data"`

	Media []MediaItem `json:"media,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Populated by joins for admin views, not a DB column.
	SellerName string `json:"seller_name,omitempty" db:"-"`
}

// MediaItem is the model for the 'listing_media' table.
type MediaItem struct {
	ID        int64     `json:"id" db:"id"`
	ListingID int64     `json:"listing_id" db:"listing_id"`
	URL       string    `json:"url" db:"url"`
	Position  int       `json:"position" db:"position"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
