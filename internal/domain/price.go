package domain

import (
	"math"
	"time"
)

// Price is the current offer for one (product, retailer) pair. It is updated
// exclusively by the price update pipeline.
//
// Invariant: LastChangedAt advances only when CurrentPrice differs from the
// previously stored value at cent precision; LastCheckedAt advances on every
// successful check, changed or not.
type Price struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	ProductID     string    `gorm:"type:text;not null;uniqueIndex:idx_prices_product_retailer" json:"product_id"`
	Product       Product   `gorm:"foreignKey:ProductID" json:"-"`
	RetailerID    string    `gorm:"type:text;not null;uniqueIndex:idx_prices_product_retailer" json:"retailer_id"`
	Retailer      Retailer  `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
	CurrentPrice  float64   `gorm:"not null;index:idx_prices_current" json:"current_price"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	Currency      string    `gorm:"type:text;default:USD" json:"currency"`
	InStock       bool      `gorm:"default:true" json:"in_stock"`
	IsOnSale      bool      `gorm:"default:false" json:"is_on_sale"`
	ProductURL    string    `gorm:"type:text;not null" json:"product_url"`
	LastCheckedAt time.Time `json:"last_checked_at"`
	LastChangedAt time.Time `json:"last_changed_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for Price.
func (Price) TableName() string {
	return "prices"
}

// Cents converts an amount to currency minor units.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// SamePrice reports whether two amounts are equal at cent precision.
func SamePrice(a, b float64) bool {
	return Cents(a) == Cents(b)
}

// PriceHistory is an append-only log of detected price changes, one row per
// change. Rows are immutable once written.
type PriceHistory struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	PriceID       string    `gorm:"type:text;not null;index:idx_price_history_price" json:"price_id"`
	ProductID     string    `gorm:"type:text;not null;index:idx_price_history_product" json:"product_id"`
	RecordedPrice float64   `gorm:"not null" json:"recorded_price"`
	WasOnSale     bool      `gorm:"default:false" json:"was_on_sale"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for PriceHistory.
func (PriceHistory) TableName() string {
	return "price_history"
}
