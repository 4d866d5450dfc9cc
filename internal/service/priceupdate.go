package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chaza/pricewatch/internal/connector"
	"github.com/chaza/pricewatch/internal/domain"
	"github.com/chaza/pricewatch/internal/logger"
	"github.com/chaza/pricewatch/internal/repository"
)

// RetailerResult summarizes one reconciliation pass over a single retailer.
type RetailerResult struct {
	RetailerSlug    string        `json:"retailer_slug"`
	Success         bool          `json:"success"`
	ProductsUpdated int           `json:"products_updated"`
	PricesChanged   int           `json:"prices_changed"`
	Errors          []string      `json:"errors"`
	Duration        time.Duration `json:"duration"`
}

// JobResult aggregates a full update pass across all active retailers.
type JobResult struct {
	StartTime            time.Time        `json:"start_time"`
	EndTime              time.Time        `json:"end_time"`
	Retailers            []RetailerResult `json:"retailers"`
	TotalProductsUpdated int              `json:"total_products_updated"`
	TotalPricesChanged   int              `json:"total_prices_changed"`
	TotalErrors          int              `json:"total_errors"`
}

// PriceUpdateConfig holds pacing settings for the update pipeline. The
// delays are coarse backpressure on top of each connector's own rate gate,
// not a substitute for it.
type PriceUpdateConfig struct {
	ProductDelay  time.Duration
	RetailerDelay time.Duration
}

// PriceUpdateService reconciles stored prices against live retailer data:
// per retailer it fetches every tracked offer, persists changes, and appends
// price history for detected changes.
type PriceUpdateService struct {
	retailers     *repository.RetailerRepository
	prices        *repository.PriceRepository
	jobs          *repository.ScrapingJobRepository
	registry      *connector.Registry
	logger        *logger.Logger
	productDelay  time.Duration
	retailerDelay time.Duration
}

// NewPriceUpdateService creates a price update service.
func NewPriceUpdateService(
	retailers *repository.RetailerRepository,
	prices *repository.PriceRepository,
	jobs *repository.ScrapingJobRepository,
	registry *connector.Registry,
	log *logger.Logger,
	cfg *PriceUpdateConfig,
) *PriceUpdateService {
	if log == nil {
		log = logger.GetDefault()
	}
	var productDelay, retailerDelay time.Duration
	if cfg != nil {
		productDelay = cfg.ProductDelay
		retailerDelay = cfg.RetailerDelay
	}
	return &PriceUpdateService{
		retailers:     retailers,
		prices:        prices,
		jobs:          jobs,
		registry:      registry,
		logger:        log.WithField(logger.FieldComponent, "price-update"),
		productDelay:  productDelay,
		retailerDelay: retailerDelay,
	}
}

// Run reconciles every active retailer in sequence. A retailer failure never
// aborts the pass; each retailer's result is reported independently.
func (s *PriceUpdateService) Run(ctx context.Context) (*JobResult, error) {
	result := &JobResult{StartTime: time.Now()}

	retailers, err := s.retailers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active retailers: %w", err)
	}

	s.logger.WithField(logger.FieldCount, len(retailers)).Info("Starting price update run")

	for i, retailer := range retailers {
		r := s.UpdateRetailerPrices(ctx, retailer.Slug)
		result.Retailers = append(result.Retailers, r)
		result.TotalProductsUpdated += r.ProductsUpdated
		result.TotalPricesChanged += r.PricesChanged
		result.TotalErrors += len(r.Errors)

		// Inter-retailer pacing, skipped after the last one.
		if i < len(retailers)-1 {
			if err := sleepCtx(ctx, s.retailerDelay); err != nil {
				break
			}
		}
	}

	result.EndTime = time.Now()

	logger.With(logger.Fields{
		logger.FieldDurationMs: result.EndTime.Sub(result.StartTime).Milliseconds(),
		"products_updated":     result.TotalProductsUpdated,
		"prices_changed":       result.TotalPricesChanged,
		"errors":               result.TotalErrors,
	}).Info(ctx, "Price update run completed")

	return result, nil
}

// UpdateRetailerPrices reconciles every tracked price for one retailer.
// Row-level failures accumulate in the result's error list; only a
// retailer-level failure (unknown retailer, unusable connector) marks the
// run record failed.
func (s *PriceUpdateService) UpdateRetailerPrices(ctx context.Context, slug string) RetailerResult {
	start := time.Now()
	result := RetailerResult{RetailerSlug: slug}
	ctx = logger.SetRetailer(ctx, slug)

	retailer, err := s.retailers.GetBySlug(ctx, slug)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("retailer not found: %s", slug))
		result.Duration = time.Since(start)
		return result
	}

	job, err := s.jobs.Open(ctx, retailer.ID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to open run record: %v", err))
		result.Duration = time.Since(start)
		return result
	}
	ctx = logger.SetJobID(ctx, job.ID)

	conn, ok := s.registry.Lookup(slug)
	if !ok || !conn.Available() {
		msg := fmt.Sprintf("no usable connector for %s", slug)
		result.Errors = append(result.Errors, msg)
		s.closeJob(ctx, job.ID, domain.JobStatusFailed, &result)
		result.Duration = time.Since(start)
		logger.CtxWarn(ctx, "Skipping retailer: %s", msg)
		return result
	}

	prices, err := s.prices.ListByRetailer(ctx, retailer.ID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load prices: %v", err))
		s.closeJob(ctx, job.ID, domain.JobStatusFailed, &result)
		result.Duration = time.Since(start)
		return result
	}

	logger.CtxInfo(ctx, "Reconciling %d tracked prices", len(prices))

	// Sequential on purpose: the connector's rate gate paces outbound
	// calls, and parallel rows would just pile up behind it.
	for i := range prices {
		if err := s.reconcileRow(ctx, conn, &prices[i], &result); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to update %s: %v", prices[i].Product.Name, err))
		}

		if err := sleepCtx(ctx, s.productDelay); err != nil {
			result.Errors = append(result.Errors, "run cancelled")
			break
		}
	}

	result.Success = true
	s.closeJob(ctx, job.ID, domain.JobStatusCompleted, &result)
	result.Duration = time.Since(start)

	logger.With(logger.Fields{
		logger.FieldDurationMs: result.Duration.Milliseconds(),
		"products_updated":     result.ProductsUpdated,
		"prices_changed":       result.PricesChanged,
		"errors":               len(result.Errors),
	}).Info(ctx, "Retailer reconciliation completed")

	return result
}

// reconcileRow checks one tracked price. An absent fetch result still marks
// the row checked; only the fetched price differing at cent precision
// advances LastChangedAt and appends history.
func (s *PriceUpdateService) reconcileRow(ctx context.Context, conn connector.Connector, price *domain.Price, result *RetailerResult) error {
	detail, err := conn.FetchDetail(ctx, price.ProductURL)
	if err != nil {
		return err
	}

	now := time.Now()

	if detail == nil {
		// Checked but unchanged: the offer could not be fetched this cycle.
		price.LastCheckedAt = now
		if err := s.prices.Save(ctx, price); err != nil {
			return err
		}
		result.ProductsUpdated++
		return nil
	}

	changed := !domain.SamePrice(detail.CurrentPrice, price.CurrentPrice)

	price.CurrentPrice = detail.CurrentPrice
	price.OriginalPrice = detail.OriginalPrice
	price.InStock = detail.InStock
	price.IsOnSale = detail.OriginalPrice != nil
	price.LastCheckedAt = now
	if changed {
		price.LastChangedAt = now
	}

	if err := s.prices.Save(ctx, price); err != nil {
		return err
	}
	result.ProductsUpdated++

	if changed {
		entry := &domain.PriceHistory{
			ID:            newID(),
			PriceID:       price.ID,
			ProductID:     price.ProductID,
			RecordedPrice: detail.CurrentPrice,
			WasOnSale:     detail.OriginalPrice != nil,
		}
		if err := s.prices.AppendHistory(ctx, entry); err != nil {
			return err
		}
		result.PricesChanged++
	}

	return nil
}

func (s *PriceUpdateService) closeJob(ctx context.Context, jobID string, status domain.JobStatus, result *RetailerResult) {
	errorLog := ""
	if len(result.Errors) > 0 {
		errorLog = strings.Join(result.Errors, "; ")
	}
	if err := s.jobs.Close(ctx, jobID, status, result.ProductsUpdated, result.PricesChanged, errorLog); err != nil {
		logger.CtxError(ctx, "Failed to close run record: %v", err)
	}
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
