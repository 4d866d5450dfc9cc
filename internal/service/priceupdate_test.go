package service

import (
	"context"
	"testing"
	"time"

	"github.com/chaza/pricewatch/internal/connector"
	"github.com/chaza/pricewatch/internal/domain"
	"github.com/chaza/pricewatch/internal/repository"
)

func TestUnchangedPriceAdvancesOnlyCheckedAt(t *testing.T) {
	db := setupTestDB(t)
	retailer := seedRetailer(t, db, "walmart-us", domain.RegionUS)
	product := seedProduct(t, db, "olive-oil-1l")
	price := seedPrice(t, db, product, retailer, 9.99, "https://walmart.com/ip/123")

	before := *price

	registry := connector.NewRegistry()
	registry.Register(&fakeConnector{
		slug: "walmart-us",
		details: map[string]*connector.ScrapedProduct{
			price.ProductURL: {CurrentPrice: 9.99, InStock: true},
		},
	})

	svc := NewPriceUpdateService(
		repository.NewRetailerRepository(db),
		repository.NewPriceRepository(db),
		repository.NewScrapingJobRepository(db),
		registry, nil, nil,
	)

	result := svc.UpdateRetailerPrices(context.Background(), "walmart-us")
	if !result.Success {
		t.Fatalf("expected success, errors: %v", result.Errors)
	}
	if result.ProductsUpdated != 1 || result.PricesChanged != 0 {
		t.Errorf("got updated=%d changed=%d, want 1/0", result.ProductsUpdated, result.PricesChanged)
	}

	var after domain.Price
	if err := db.First(&after, "id = ?", price.ID).Error; err != nil {
		t.Fatalf("failed to reload price: %v", err)
	}
	if !after.LastCheckedAt.After(before.LastCheckedAt) {
		t.Error("LastCheckedAt must advance on an unchanged check")
	}
	if after.LastChangedAt.Unix() != before.LastChangedAt.Unix() {
		t.Error("LastChangedAt must not move when the price is unchanged")
	}

	var historyCount int64
	db.Model(&domain.PriceHistory{}).Where("price_id = ?", price.ID).Count(&historyCount)
	if historyCount != 0 {
		t.Errorf("unchanged price produced %d history rows, want 0", historyCount)
	}
}

func TestChangedPriceAppendsHistory(t *testing.T) {
	db := setupTestDB(t)
	retailer := seedRetailer(t, db, "walmart-us", domain.RegionUS)
	product := seedProduct(t, db, "olive-oil-1l")
	price := seedPrice(t, db, product, retailer, 9.99, "https://walmart.com/ip/123")

	before := *price

	registry := connector.NewRegistry()
	registry.Register(&fakeConnector{
		slug: "walmart-us",
		details: map[string]*connector.ScrapedProduct{
			price.ProductURL: {CurrentPrice: 8.49, OriginalPrice: floatPtr(9.99), InStock: true},
		},
	})

	svc := NewPriceUpdateService(
		repository.NewRetailerRepository(db),
		repository.NewPriceRepository(db),
		repository.NewScrapingJobRepository(db),
		registry, nil, nil,
	)

	result := svc.UpdateRetailerPrices(context.Background(), "walmart-us")
	if result.ProductsUpdated != 1 || result.PricesChanged != 1 {
		t.Errorf("got updated=%d changed=%d, want 1/1", result.ProductsUpdated, result.PricesChanged)
	}

	var after domain.Price
	if err := db.First(&after, "id = ?", price.ID).Error; err != nil {
		t.Fatalf("failed to reload price: %v", err)
	}
	if !domain.SamePrice(after.CurrentPrice, 8.49) {
		t.Errorf("CurrentPrice = %.2f, want 8.49", after.CurrentPrice)
	}
	if !after.IsOnSale {
		t.Error("a discounted original price must mark the offer on sale")
	}
	if !after.LastChangedAt.After(before.LastChangedAt) {
		t.Error("LastChangedAt must advance on a cent-level change")
	}

	var history []domain.PriceHistory
	db.Where("price_id = ?", price.ID).Find(&history)
	if len(history) != 1 {
		t.Fatalf("got %d history rows, want 1", len(history))
	}
	if !domain.SamePrice(history[0].RecordedPrice, 8.49) || !history[0].WasOnSale {
		t.Errorf("history row = %.2f/sale=%v, want 8.49/true", history[0].RecordedPrice, history[0].WasOnSale)
	}
}

func TestAbsentResultStillMarksChecked(t *testing.T) {
	db := setupTestDB(t)
	retailer := seedRetailer(t, db, "costco-us", domain.RegionUS)

	var prices []*domain.Price
	for i, slug := range []string{"butter", "flour", "sugar"} {
		p := seedProduct(t, db, slug)
		prices = append(prices, seedPrice(t, db, p, retailer, float64(5+i), "https://costco.com/"+slug))
	}

	// The middle offer cannot be fetched this cycle.
	fake := &fakeConnector{
		slug: "costco-us",
		details: map[string]*connector.ScrapedProduct{
			prices[0].ProductURL: {CurrentPrice: prices[0].CurrentPrice, InStock: true},
			prices[2].ProductURL: {CurrentPrice: prices[2].CurrentPrice, InStock: true},
		},
	}
	registry := connector.NewRegistry()
	registry.Register(fake)

	svc := NewPriceUpdateService(
		repository.NewRetailerRepository(db),
		repository.NewPriceRepository(db),
		repository.NewScrapingJobRepository(db),
		registry, nil, nil,
	)

	result := svc.UpdateRetailerPrices(context.Background(), "costco-us")
	if result.ProductsUpdated != 3 {
		t.Errorf("ProductsUpdated = %d, want 3 (absent results still count as checked)", result.ProductsUpdated)
	}
	if result.PricesChanged != 0 {
		t.Errorf("PricesChanged = %d, want 0", result.PricesChanged)
	}
	if fake.calls != 3 {
		t.Errorf("connector called %d times, want 3", fake.calls)
	}

	var middle domain.Price
	db.First(&middle, "id = ?", prices[1].ID)
	if !middle.LastCheckedAt.After(prices[1].LastCheckedAt) {
		t.Error("absent result must still advance LastCheckedAt")
	}
	if !domain.SamePrice(middle.CurrentPrice, prices[1].CurrentPrice) {
		t.Error("absent result must not modify the stored price")
	}

	var historyCount int64
	db.Model(&domain.PriceHistory{}).Count(&historyCount)
	if historyCount != 0 {
		t.Errorf("got %d history rows, want 0", historyCount)
	}
}

func TestRowFetchErrorIsIsolated(t *testing.T) {
	db := setupTestDB(t)
	retailer := seedRetailer(t, db, "amazon-us", domain.RegionUS)

	pBad := seedProduct(t, db, "bad")
	pGood := seedProduct(t, db, "good")
	bad := seedPrice(t, db, pBad, retailer, 3.00, "https://amazon.com/dp/BAD")
	good := seedPrice(t, db, pGood, retailer, 4.00, "https://amazon.com/dp/GOOD")

	registry := connector.NewRegistry()
	registry.Register(&fakeConnector{
		slug:     "amazon-us",
		failures: map[string]bool{bad.ProductURL: true},
		details: map[string]*connector.ScrapedProduct{
			good.ProductURL: {CurrentPrice: 4.50, InStock: true},
		},
	})

	svc := NewPriceUpdateService(
		repository.NewRetailerRepository(db),
		repository.NewPriceRepository(db),
		repository.NewScrapingJobRepository(db),
		registry, nil, nil,
	)

	result := svc.UpdateRetailerPrices(context.Background(), "amazon-us")
	if !result.Success {
		t.Error("row-level failures must not fail the retailer run")
	}
	if len(result.Errors) != 1 {
		t.Errorf("got %d errors, want 1", len(result.Errors))
	}
	if result.PricesChanged != 1 {
		t.Errorf("PricesChanged = %d, want 1 (the healthy row still updates)", result.PricesChanged)
	}

	var jobs []domain.ScrapingJob
	db.Find(&jobs)
	if len(jobs) != 1 || jobs[0].Status != domain.JobStatusCompleted {
		t.Fatalf("expected one completed run record, got %+v", jobs)
	}
	if jobs[0].ErrorLog == "" {
		t.Error("run record must carry the row error log")
	}
}

func TestRetailerFailureDoesNotBlockOthers(t *testing.T) {
	db := setupTestDB(t)
	broken := seedRetailer(t, db, "amazon-us", domain.RegionUS)
	healthy := seedRetailer(t, db, "walmart-us", domain.RegionUS)

	product := seedProduct(t, db, "coffee")
	price := seedPrice(t, db, product, healthy, 12.99, "https://walmart.com/ip/777")

	// Only the healthy retailer has a connector registered.
	registry := connector.NewRegistry()
	registry.Register(&fakeConnector{
		slug: "walmart-us",
		details: map[string]*connector.ScrapedProduct{
			price.ProductURL: {CurrentPrice: 11.99, InStock: true},
		},
	})

	svc := NewPriceUpdateService(
		repository.NewRetailerRepository(db),
		repository.NewPriceRepository(db),
		repository.NewScrapingJobRepository(db),
		registry, nil, nil,
	)

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if len(result.Retailers) != 2 {
		t.Fatalf("got %d retailer results, want 2", len(result.Retailers))
	}

	byKey := map[string]RetailerResult{}
	for _, r := range result.Retailers {
		byKey[r.RetailerSlug] = r
	}
	if byKey["amazon-us"].Success {
		t.Error("retailer without a usable connector must not report success")
	}
	if !byKey["walmart-us"].Success || byKey["walmart-us"].PricesChanged != 1 {
		t.Errorf("healthy retailer result = %+v, want success with one change", byKey["walmart-us"])
	}

	var failed domain.ScrapingJob
	if err := db.First(&failed, "retailer_id = ?", broken.ID).Error; err != nil {
		t.Fatalf("expected a run record for the broken retailer: %v", err)
	}
	if failed.Status != domain.JobStatusFailed {
		t.Errorf("broken retailer run status = %s, want %s", failed.Status, domain.JobStatusFailed)
	}
	if failed.CompletedAt == nil {
		t.Error("failed run record must still be closed")
	}
}

func TestUnknownRetailerSlug(t *testing.T) {
	db := setupTestDB(t)

	svc := NewPriceUpdateService(
		repository.NewRetailerRepository(db),
		repository.NewPriceRepository(db),
		repository.NewScrapingJobRepository(db),
		connector.NewRegistry(), nil, nil,
	)

	result := svc.UpdateRetailerPrices(context.Background(), "ghost")
	if result.Success {
		t.Error("unknown retailer must not report success")
	}
	if len(result.Errors) == 0 {
		t.Error("unknown retailer must surface an error")
	}

	// Fail-fast: no run record is opened for a slug that does not resolve.
	var jobCount int64
	db.Model(&domain.ScrapingJob{}).Count(&jobCount)
	if jobCount != 0 {
		t.Errorf("got %d run records, want 0", jobCount)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	db := setupTestDB(t)
	seedRetailer(t, db, "walmart-us", domain.RegionUS)
	seedRetailer(t, db, "costco-us", domain.RegionUS)

	registry := connector.NewRegistry()
	registry.Register(&fakeConnector{slug: "walmart-us"})
	registry.Register(&fakeConnector{slug: "costco-us"})

	svc := NewPriceUpdateService(
		repository.NewRetailerRepository(db),
		repository.NewPriceRepository(db),
		repository.NewScrapingJobRepository(db),
		registry, nil,
		&PriceUpdateConfig{RetailerDelay: time.Hour},
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := svc.Run(ctx); err != nil {
			t.Errorf("Run returned %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation despite the inter-retailer delay")
	}
}
