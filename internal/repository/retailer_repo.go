package repository

import (
	"context"

	"github.com/chaza/pricewatch/internal/domain"
	"gorm.io/gorm"
)

// RetailerRepository handles retailer reads. Retailers are seeded or
// admin-managed; the pipeline never writes them.
type RetailerRepository struct {
	db *gorm.DB
}

// NewRetailerRepository creates a new RetailerRepository.
func NewRetailerRepository(db *gorm.DB) *RetailerRepository {
	return &RetailerRepository{db: db}
}

// ListActive returns all retailers with the active flag set.
func (r *RetailerRepository) ListActive(ctx context.Context) ([]domain.Retailer, error) {
	var retailers []domain.Retailer
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("slug asc").Find(&retailers).Error; err != nil {
		return nil, err
	}
	return retailers, nil
}

// GetBySlug retrieves a retailer by its slug.
func (r *RetailerRepository) GetBySlug(ctx context.Context, slug string) (*domain.Retailer, error) {
	var retailer domain.Retailer
	if err := r.db.WithContext(ctx).First(&retailer, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

// Upsert creates or updates a retailer keyed by slug. Used by seeding.
func (r *RetailerRepository) Upsert(ctx context.Context, retailer *domain.Retailer) error {
	var existing domain.Retailer
	err := r.db.WithContext(ctx).First(&existing, "slug = ?", retailer.Slug).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(retailer).Error
	}
	if err != nil {
		return err
	}
	retailer.ID = existing.ID
	return r.db.WithContext(ctx).Save(retailer).Error
}
