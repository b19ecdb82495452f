package models

import "time"

// CanteenItem is a sellable product in the school canteen. Prices are
// stored in cents.
type CanteenItem struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	Name       string    `db:"name" json:"name"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CanteenItemFilter defines filter criteria for listing canteen items.
type CanteenItemFilter struct {
	SchoolID  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CanteenPurchase records a student buying an item. UnitPriceCents is a
// snapshot of the item price at purchase time.
type CanteenPurchase struct {
	ID             string    `db:"id" json:"id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	ItemID         string    `db:"item_id" json:"item_id"`
	Quantity       int       `db:"quantity" json:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents" json:"unit_price_cents"`
	PurchasedAt    time.Time `db:"purchased_at" json:"purchased_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CanteenPurchaseFilter defines filter criteria for listing purchases.
type CanteenPurchaseFilter struct {
	SchoolID  string
	StudentID string
	ItemID    string
	Month     *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentCanteenStanding summarizes a student's spending for the
// current month against their cap. Students below their limit, or
// without one, may keep purchasing.
type StudentCanteenStanding struct {
	StudentID       string `db:"student_id" json:"student_id"`
	FullName        string `db:"full_name" json:"full_name"`
	CanteenLimit    *int64 `db:"canteen_limit" json:"canteen_limit,omitempty"`
	MonthTotalCents int64  `db:"month_total_cents" json:"month_total_cents"`
}
