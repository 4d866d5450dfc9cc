package repository

import (
	"context"

	"github.com/chaza/pricewatch/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PriceRepository handles price and price-history data operations.
type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new PriceRepository.
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// ListByRetailer returns every tracked price row for a retailer, joined to
// its product.
func (r *PriceRepository) ListByRetailer(ctx context.Context, retailerID string) ([]domain.Price, error) {
	var prices []domain.Price
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("retailer_id = ?", retailerID).
		Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}

// Save persists all fields of a price row. Preloaded associations are left
// untouched.
func (r *PriceRepository) Save(ctx context.Context, price *domain.Price) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(price).Error
}

// GetByID retrieves a price row by its ID.
func (r *PriceRepository) GetByID(ctx context.Context, id string) (*domain.Price, error) {
	var price domain.Price
	if err := r.db.WithContext(ctx).First(&price, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &price, nil
}

// AppendHistory records a detected price change. History rows are append-only.
func (r *PriceRepository) AppendHistory(ctx context.Context, entry *domain.PriceHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListHistory returns the change log for a price row, newest first.
func (r *PriceRepository) ListHistory(ctx context.Context, priceID string, limit int) ([]domain.PriceHistory, error) {
	var entries []domain.PriceHistory
	q := r.db.WithContext(ctx).Where("price_id = ?", priceID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
