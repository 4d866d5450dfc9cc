package repository

import (
	"context"

	"github.com/chaza/pricewatch/internal/domain"
	"github.com/google/uuid"
)

// defaultRetailers is the built-in retailer catalog: each supported chain in
// each supported region. Slugs match the connector registry.
var defaultRetailers = []domain.Retailer{
	{Slug: "walmart-us", Name: "Walmart", DisplayName: "Walmart", Region: domain.RegionUS, WebsiteURL: "https://www.walmart.com", IsActive: true},
	{Slug: "walmart-ca", Name: "Walmart Canada", DisplayName: "Walmart Canada", Region: domain.RegionCA, WebsiteURL: "https://www.walmart.ca", IsActive: true},
	{Slug: "amazon-us", Name: "Amazon", DisplayName: "Amazon", Region: domain.RegionUS, WebsiteURL: "https://www.amazon.com", IsActive: true},
	{Slug: "amazon-ca", Name: "Amazon Canada", DisplayName: "Amazon Canada", Region: domain.RegionCA, WebsiteURL: "https://www.amazon.ca", IsActive: true},
	{Slug: "costco-us", Name: "Costco", DisplayName: "Costco", Region: domain.RegionUS, WebsiteURL: "https://www.costco.com", IsActive: true},
	{Slug: "costco-ca", Name: "Costco Canada", DisplayName: "Costco Canada", Region: domain.RegionCA, WebsiteURL: "https://www.costco.ca", IsActive: true},
}

// SeedRetailers upserts the built-in retailer catalog. Safe to run on every
// startup; existing rows keep their IDs.
func SeedRetailers(ctx context.Context, repo *RetailerRepository) error {
	for _, r := range defaultRetailers {
		retailer := r
		retailer.ID = uuid.New().String()
		if err := repo.Upsert(ctx, &retailer); err != nil {
			return err
		}
	}
	return nil
}
