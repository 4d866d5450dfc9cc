package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/domain"
	"github.com/go-resty/resty/v2"
)

// WalmartConnector fetches offers through the Walmart affiliate API
// (JSON over HTTPS, key-authenticated).
type WalmartConnector struct {
	cfg    Config
	region domain.Region
	client *resty.Client
	gate   *rateGate
	apiKey string
}

// NewWalmartConnector builds the connector for one region.
func NewWalmartConnector(region domain.Region, cfg *config.ConnectorsConfig) *WalmartConnector {
	base := "https://developer.api.walmart.com"
	slug := "walmart-us"
	if region == domain.RegionCA {
		base = "https://developer.api.walmart.ca"
		slug = "walmart-ca"
	}

	const rateLimit = 30 // affiliate API allows roughly one call every two seconds

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)

	return &WalmartConnector{
		cfg:    Config{Slug: slug, BaseURL: base, RateLimit: rateLimit, UserAgent: cfg.UserAgent},
		region: region,
		client: client,
		gate:   newRateGate(rateLimit),
		apiKey: cfg.Walmart.APIKey,
	}
}

// Slug returns the retailer slug this connector serves.
func (c *WalmartConnector) Slug() string { return c.cfg.Slug }

// DisplayName returns a human-readable retailer name.
func (c *WalmartConnector) DisplayName() string {
	if c.region == domain.RegionCA {
		return "Walmart Canada"
	}
	return "Walmart US"
}

// Available reports whether the affiliate API key is configured.
func (c *WalmartConnector) Available() bool {
	return c.apiKey != ""
}

type walmartItem struct {
	ItemID        int64   `json:"itemId"`
	Name          string  `json:"name"`
	BrandName     string  `json:"brandName"`
	SalePrice     float64 `json:"salePrice"`
	MSRP          float64 `json:"msrp"`
	UPC           string  `json:"upc"`
	CategoryPath  string  `json:"categoryPath"`
	ProductURL    string  `json:"productUrl"`
	ThumbnailURL  string  `json:"thumbnailImage"`
	Stock         string  `json:"stock"`
	CurrencyCode  string  `json:"currencyCode"`
	OfferType     string  `json:"offerType"`
	AvailableTime string  `json:"availableOnline"`
}

type walmartSearchResponse struct {
	Query string        `json:"query"`
	Items []walmartItem `json:"items"`
}

// FetchListing searches the affiliate catalog.
func (c *WalmartConnector) FetchListing(ctx context.Context, query string) ([]ScrapedProduct, error) {
	if !c.Available() {
		return nil, nil
	}
	if err := c.gate.wait(ctx); err != nil {
		return nil, err
	}

	var out walmartSearchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":  query,
			"format": "json",
		}).
		SetHeader("WM_SEC.KEY_VERSION", "1").
		SetHeader("WM_CONSUMER.ID", c.apiKey).
		SetResult(&out).
		Get("/api-proxy/service/affil/product/v2/search")
	if err != nil {
		return nil, fmt.Errorf("walmart search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("walmart search returned %s", resp.Status())
	}

	products := make([]ScrapedProduct, 0, len(out.Items))
	for _, item := range out.Items {
		products = append(products, c.normalize(item))
	}
	return products, nil
}

// FetchDetail looks up a single item by the ID embedded in the product URL.
func (c *WalmartConnector) FetchDetail(ctx context.Context, productURL string) (*ScrapedProduct, error) {
	if !c.Available() {
		return nil, nil
	}

	itemID := extractWalmartItemID(productURL)
	if itemID == "" {
		return nil, nil
	}

	if err := c.gate.wait(ctx); err != nil {
		return nil, err
	}

	var out walmartItem
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("WM_SEC.KEY_VERSION", "1").
		SetHeader("WM_CONSUMER.ID", c.apiKey).
		SetResult(&out).
		Get("/api-proxy/service/affil/product/v2/items/" + itemID)
	if err != nil {
		return nil, nil
	}
	if resp.StatusCode() == http.StatusNotFound || resp.IsError() {
		return nil, nil
	}
	if out.ItemID == 0 {
		return nil, nil
	}

	p := c.normalize(out)
	return &p, nil
}

func (c *WalmartConnector) normalize(item walmartItem) ScrapedProduct {
	p := ScrapedProduct{
		RetailerSKU:  fmt.Sprintf("%d", item.ItemID),
		Name:         item.Name,
		Brand:        item.BrandName,
		CurrentPrice: item.SalePrice,
		Currency:     item.CurrencyCode,
		InStock:      strings.EqualFold(item.Stock, "Available"),
		ProductURL:   item.ProductURL,
		ImageURL:     item.ThumbnailURL,
		UPC:          item.UPC,
		Category:     item.CategoryPath,
	}
	if item.MSRP > item.SalePrice && item.MSRP > 0 {
		msrp := item.MSRP
		p.OriginalPrice = &msrp
	}
	if p.Currency == "" {
		p.Currency = currencyFor(c.region)
	}
	return p
}

// extractWalmartItemID pulls the numeric item ID from URLs of the form
// .../ip/<name>/<id> or an ip query parameter.
func extractWalmartItemID(productURL string) string {
	u, err := url.Parse(productURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	last := parts[len(parts)-1]
	for _, r := range last {
		if r < '0' || r > '9' {
			return ""
		}
	}
	if last == "" {
		return ""
	}
	return last
}
