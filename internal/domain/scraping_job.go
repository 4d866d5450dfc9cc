package domain

import "time"

// JobStatus represents the status of a scraping job run.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ScrapingJob is the run record for one reconciliation pass over a retailer.
// Created when the pass starts, closed when it completes or fails. At most
// one live row per in-flight reconciliation.
type ScrapingJob struct {
	ID              string     `gorm:"type:text;primaryKey" json:"id"`
	RetailerID      string     `gorm:"type:text;not null;index:idx_scraping_jobs_retailer" json:"retailer_id"`
	Status          JobStatus  `gorm:"type:text;default:running;index:idx_scraping_jobs_status" json:"status"`
	ProductsUpdated int        `gorm:"default:0" json:"products_updated"`
	PricesChanged   int        `gorm:"default:0" json:"prices_changed"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ErrorLog        string     `gorm:"type:text" json:"error_log,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ScrapingJob.
func (ScrapingJob) TableName() string {
	return "scraping_jobs"
}
