package domain

import (
	"time"
)

// Product represents a single tracked skincare item. Calendar fields hold
// canonical YYYY-MM-DD strings; an empty string means that date was never set.
// Photo is stored inline as a data URI; there is no external blob storage.
type Product struct {
	ID           string    `json:"id" db:"id" bson:"_id,omitempty"`
	UserID       string    `json:"user_id" db:"user_id" bson:"userId"`
	Brand        string    `json:"brand" db:"brand" bson:"brand"`
	Name         string    `json:"name" db:"name" bson:"name"`
	ExpiryDate   string    `json:"expiry_date,omitempty" db:"expiry_date" bson:"expiryDate,omitempty"`
	OpenedDate   string    `json:"opened_date,omitempty" db:"opened_date" bson:"openedDate,omitempty"`
	PurchaseDate string    `json:"purchase_date,omitempty" db:"purchase_date" bson:"purchaseDate,omitempty"`
	Notes        string    `json:"notes,omitempty" db:"notes" bson:"notes,omitempty"`
	Photo        string    `json:"photo,omitempty" db:"photo" bson:"photo,omitempty"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at" bson:"updatedAt"`
}
