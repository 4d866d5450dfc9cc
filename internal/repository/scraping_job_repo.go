package repository

import (
	"context"
	"time"

	"github.com/chaza/pricewatch/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScrapingJobRepository handles reconciliation run records.
type ScrapingJobRepository struct {
	db *gorm.DB
}

// NewScrapingJobRepository creates a new ScrapingJobRepository.
func NewScrapingJobRepository(db *gorm.DB) *ScrapingJobRepository {
	return &ScrapingJobRepository{db: db}
}

// Open creates a run record in the running state and returns it.
func (r *ScrapingJobRepository) Open(ctx context.Context, retailerID string) (*domain.ScrapingJob, error) {
	job := &domain.ScrapingJob{
		ID:         uuid.New().String(),
		RetailerID: retailerID,
		Status:     domain.JobStatusRunning,
		StartedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// Close marks a run record completed or failed with its final counters.
func (r *ScrapingJobRepository) Close(ctx context.Context, jobID string, status domain.JobStatus, updated, changed int, errorLog string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.ScrapingJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":           status,
			"products_updated": updated,
			"prices_changed":   changed,
			"completed_at":     &now,
			"error_log":        errorLog,
		}).Error
}

// GetByID retrieves a run record.
func (r *ScrapingJobRepository) GetByID(ctx context.Context, id string) (*domain.ScrapingJob, error) {
	var job domain.ScrapingJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the newest run records, most recent first.
func (r *ScrapingJobRepository) ListRecent(ctx context.Context, limit int) ([]domain.ScrapingJob, error) {
	var jobs []domain.ScrapingJob
	if limit <= 0 {
		limit = 20
	}
	if err := r.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
