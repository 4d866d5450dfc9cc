package repository

import (
	"context"
	"time"

	"github.com/chaza/pricewatch/internal/domain"
	"gorm.io/gorm"
)

// AlertRepository handles price alert data operations.
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// ListActive returns all active alerts with their owning user and product,
// the product's prices ordered ascending by current price with retailer
// attached. The evaluator filters prices to the user's region itself.
func (r *AlertRepository) ListActive(ctx context.Context) ([]domain.PriceAlert, error) {
	var alerts []domain.PriceAlert
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Product").
		Preload("Product.Prices", func(db *gorm.DB) *gorm.DB {
			return db.Order("prices.current_price asc")
		}).
		Preload("Product.Prices.Retailer").
		Where("is_active = ?", true).
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// MarkTriggered increments the trigger counter and stamps the trigger time.
func (r *AlertRepository) MarkTriggered(ctx context.Context, alertID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.PriceAlert{}).
		Where("id = ?", alertID).
		Updates(map[string]interface{}{
			"trigger_count":     gorm.Expr("trigger_count + 1"),
			"last_triggered_at": &now,
		}).Error
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.PriceAlert, error) {
	var alert domain.PriceAlert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}
