package models

import (
	"time"
)

// Plan is the model for the 'plans' table: the seller subscription catalog.
// Payment collection happens outside this service; admins assign plans
// manually once billing clears.
type Plan struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	PriceMonthly float64 `json:"price_monthly" db:"price_monthly"`
	MaxListings  int     `json:"max_listings" db:"max_listings"`
	Description  string  `json:"description" db:"description"`
}

// Subscription is the model for the 'subscriptions' table.
type Subscription struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	PlanID    int64     `json:"plan_id" db:"plan_id"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`

	PlanName string `json:"plan_name,omitempty" db:"-"`
}
