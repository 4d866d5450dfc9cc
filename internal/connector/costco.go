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

// CostcoConnector fetches offers through Costco's public search JSON
// endpoint. No credentials are required, so the connector is always
// available, but the rate ceiling is kept low to stay polite.
type CostcoConnector struct {
	cfg    Config
	region domain.Region
	client *resty.Client
	gate   *rateGate
}

// NewCostcoConnector builds the connector for one region.
func NewCostcoConnector(region domain.Region, cfg *config.ConnectorsConfig) *CostcoConnector {
	base := "https://www.costco.com"
	slug := "costco-us"
	if region == domain.RegionCA {
		base = "https://www.costco.ca"
		slug = "costco-ca"
	}

	rateLimit := cfg.Costco.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)

	return &CostcoConnector{
		cfg:    Config{Slug: slug, BaseURL: base, RateLimit: rateLimit, UserAgent: cfg.UserAgent},
		region: region,
		client: client,
		gate:   newRateGate(rateLimit),
	}
}

// Slug returns the retailer slug this connector serves.
func (c *CostcoConnector) Slug() string { return c.cfg.Slug }

// DisplayName returns a human-readable retailer name.
func (c *CostcoConnector) DisplayName() string {
	if c.region == domain.RegionCA {
		return "Costco Canada"
	}
	return "Costco US"
}

// Available always reports true; the endpoint needs no credentials.
func (c *CostcoConnector) Available() bool { return true }

type costcoDoc struct {
	ItemNumber     string  `json:"item_number"`
	ProductName    string  `json:"product_name"`
	Brand          string  `json:"item_brand"`
	Price          float64 `json:"item_location_pricing_salePrice"`
	ListPrice      float64 `json:"item_location_pricing_listPrice"`
	InStock        bool    `json:"item_location_availability"`
	SeoURL         string  `json:"seo_url"`
	ImageURL       string  `json:"item_image_url"`
	UPC            string  `json:"item_upc"`
	CategoryNames  string  `json:"item_category"`
	PriceFormatted string  `json:"item_price_formatted"`
}

type costcoSearchResponse struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []costcoDoc `json:"docs"`
	} `json:"response"`
}

// FetchListing searches the public catalog endpoint.
func (c *CostcoConnector) FetchListing(ctx context.Context, query string) ([]ScrapedProduct, error) {
	if err := c.gate.wait(ctx); err != nil {
		return nil, err
	}

	var out costcoSearchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":    query,
			"wt":   "json",
			"rows": "24",
		}).
		SetResult(&out).
		Get("/rest/v2/search")
	if err != nil {
		return nil, fmt.Errorf("costco search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("costco search returned %s", resp.Status())
	}

	products := make([]ScrapedProduct, 0, len(out.Response.Docs))
	for _, doc := range out.Response.Docs {
		products = append(products, c.normalize(doc))
	}
	return products, nil
}

// FetchDetail looks up a single product by its item number taken from the URL.
func (c *CostcoConnector) FetchDetail(ctx context.Context, productURL string) (*ScrapedProduct, error) {
	itemNumber := extractCostcoItemNumber(productURL)
	if itemNumber == "" {
		return nil, nil
	}

	if err := c.gate.wait(ctx); err != nil {
		return nil, err
	}

	var out costcoSearchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":  itemNumber,
			"wt": "json",
		}).
		SetResult(&out).
		Get("/rest/v2/search")
	if err != nil {
		return nil, nil
	}
	if resp.StatusCode() == http.StatusNotFound || resp.IsError() {
		return nil, nil
	}
	if len(out.Response.Docs) == 0 {
		return nil, nil
	}

	p := c.normalize(out.Response.Docs[0])
	return &p, nil
}

func (c *CostcoConnector) normalize(doc costcoDoc) ScrapedProduct {
	price := doc.Price
	if price == 0 && doc.PriceFormatted != "" {
		price = ParsePrice(doc.PriceFormatted)
	}

	p := ScrapedProduct{
		RetailerSKU:  doc.ItemNumber,
		Name:         doc.ProductName,
		Brand:        doc.Brand,
		CurrentPrice: price,
		Currency:     currencyFor(c.region),
		InStock:      doc.InStock,
		ProductURL:   c.cfg.BaseURL + doc.SeoURL,
		ImageURL:     doc.ImageURL,
		UPC:          doc.UPC,
		Category:     doc.CategoryNames,
	}
	if doc.ListPrice > price && doc.ListPrice > 0 {
		list := doc.ListPrice
		p.OriginalPrice = &list
	}
	return p
}

// extractCostcoItemNumber pulls the product number from URLs ending in
// .product.<number>.html.
func extractCostcoItemNumber(productURL string) string {
	u, err := url.Parse(productURL)
	if err != nil {
		return ""
	}
	path := u.Path
	const marker = ".product."
	idx := strings.LastIndex(path, marker)
	if idx == -1 {
		return ""
	}
	rest := strings.TrimSuffix(path[idx+len(marker):], ".html")
	if rest == "" {
		return ""
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return rest
}
