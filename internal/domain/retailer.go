package domain

import "time"

// Region identifies the market a retailer serves.
type Region string

const (
	RegionUS Region = "US"
	RegionCA Region = "CA"
)

// Retailer represents a store whose prices are tracked.
// Retailers are seeded or admin-managed; the update pipeline only reads them.
type Retailer struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	Slug        string    `gorm:"type:text;not null;uniqueIndex:idx_retailers_slug" json:"slug"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	DisplayName string    `gorm:"type:text;not null" json:"display_name"`
	Region      Region    `gorm:"type:text;not null;index:idx_retailers_region" json:"region"`
	WebsiteURL  string    `gorm:"type:text" json:"website_url"`
	LogoURL     string    `gorm:"type:text" json:"logo_url,omitempty"`
	IsActive    bool      `gorm:"default:true;index:idx_retailers_active" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Retailer.
func (Retailer) TableName() string {
	return "retailers"
}
