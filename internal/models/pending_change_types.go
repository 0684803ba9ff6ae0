package models

import (
	"encoding/json"
	"time"
)

// PendingChange is the model for the 'pending_changes' table: one proposed
// mutation to one field of a published listing, awaiting admin review.
//
// FieldPath is dot-addressed ("title", "financial_data.asking_price").
// NewValue is kept as raw JSON because its shape depends on the field: flat
// fields store the bare value, fields under a compound group may store a
// one-key sub-object ({"asking_price": 650000}).
type PendingChange struct {
	ID        int64           `json:"-" db:"id"`
	ListingID int64           `json:"-" db:"listing_id"`
	FieldPath string          `json:"field" db:"field_path"`
	NewValue  json.RawMessage `json:"new_value" db:"new_value"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// PendingChangeSet is the wire shape of GET /listings/:id/pending-changes.
// A listing has zero or one outstanding set; approval applies every change
// atomically and clears the set, rejection discards it.
type PendingChangeSet struct {
	ListingID int64           `json:"listing_id"`
	Changes   []PendingChange `json:"changes"`
	Count     int             `json:"count"`
}
