package domain

import "time"

// ProductCategory buckets products for browsing and search.
type ProductCategory string

const (
	CategoryBabyDiapers       ProductCategory = "BABY_DIAPERS"
	CategoryBabyFormula       ProductCategory = "BABY_FORMULA"
	CategoryBabyFood          ProductCategory = "BABY_FOOD"
	CategoryBabyWipes         ProductCategory = "BABY_WIPES"
	CategoryBabyCare          ProductCategory = "BABY_CARE"
	CategoryBeveragesSoda     ProductCategory = "BEVERAGES_SODA"
	CategoryBeveragesWater    ProductCategory = "BEVERAGES_WATER"
	CategoryBeveragesJuice    ProductCategory = "BEVERAGES_JUICE"
	CategoryHouseholdCleaning ProductCategory = "HOUSEHOLD_CLEANING"
	CategoryHouseholdPaper    ProductCategory = "HOUSEHOLD_PAPER"
	CategoryHouseholdLaundry  ProductCategory = "HOUSEHOLD_LAUNDRY"
	CategoryPersonalCare      ProductCategory = "PERSONAL_CARE"
	CategoryPetFood           ProductCategory = "PET_FOOD"
	CategoryPetSupplies       ProductCategory = "PET_SUPPLIES"
	CategorySnacks            ProductCategory = "SNACKS"
	CategoryOther             ProductCategory = "OTHER"
)

// Product is a catalog entry. A product owns one Price row per retailer.
type Product struct {
	ID        string          `gorm:"type:text;primaryKey" json:"id"`
	Slug      string          `gorm:"type:text;not null;uniqueIndex:idx_products_slug" json:"slug"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Brand     string          `gorm:"type:text;index:idx_products_brand" json:"brand,omitempty"`
	Category  ProductCategory `gorm:"type:text;index:idx_products_category;default:OTHER" json:"category"`
	ImageURL  string          `gorm:"type:text" json:"image_url,omitempty"`
	Size      float64         `json:"size,omitempty"`
	SizeUnit  string          `gorm:"type:text" json:"size_unit,omitempty"`
	PackSize  int             `gorm:"default:1" json:"pack_size"`
	Prices    []Price         `gorm:"foreignKey:ProductID" json:"prices,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string {
	return "products"
}
