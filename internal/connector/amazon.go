package connector

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/domain"
	"github.com/go-resty/resty/v2"
)

var asinPattern = regexp.MustCompile(`/(?:dp|gp/product)/([A-Z0-9]{10})`)

// AmazonConnector fetches offers through the Product Advertising API
// (JSON over HTTPS). PAAPI enforces roughly one request per second on new
// accounts, so the rate ceiling defaults to 60/min at most.
type AmazonConnector struct {
	cfg        Config
	region     domain.Region
	client     *resty.Client
	gate       *rateGate
	accessKey  string
	secretKey  string
	partnerTag string
}

// NewAmazonConnector builds the connector for one region.
func NewAmazonConnector(region domain.Region, cfg *config.ConnectorsConfig) *AmazonConnector {
	base := "https://webservices.amazon.com"
	slug := "amazon-us"
	if region == domain.RegionCA {
		base = "https://webservices.amazon.ca"
		slug = "amazon-ca"
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)

	return &AmazonConnector{
		cfg:        Config{Slug: slug, BaseURL: base, RateLimit: 60, UserAgent: cfg.UserAgent},
		region:     region,
		client:     client,
		gate:       newRateGate(60),
		accessKey:  cfg.Amazon.AccessKey,
		secretKey:  cfg.Amazon.SecretKey,
		partnerTag: cfg.Amazon.PartnerTag,
	}
}

// Slug returns the retailer slug this connector serves.
func (c *AmazonConnector) Slug() string { return c.cfg.Slug }

// DisplayName returns a human-readable retailer name.
func (c *AmazonConnector) DisplayName() string {
	if c.region == domain.RegionCA {
		return "Amazon.ca"
	}
	return "Amazon.com"
}

// Available reports whether PAAPI credentials are configured.
func (c *AmazonConnector) Available() bool {
	return c.accessKey != "" && c.secretKey != "" && c.partnerTag != ""
}

type paapiItem struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
		ByLineInfo struct {
			Brand struct {
				DisplayValue string `json:"DisplayValue"`
			} `json:"Brand"`
		} `json:"ByLineInfo"`
	} `json:"ItemInfo"`
	Offers struct {
		Listings []struct {
			Price struct {
				Amount   float64 `json:"Amount"`
				Currency string  `json:"Currency"`
			} `json:"Price"`
			SavingBasis struct {
				Amount float64 `json:"Amount"`
			} `json:"SavingBasis"`
			Availability struct {
				Type string `json:"Type"`
			} `json:"Availability"`
		} `json:"Listings"`
	} `json:"Offers"`
	Images struct {
		Primary struct {
			Large struct {
				URL string `json:"URL"`
			} `json:"Large"`
		} `json:"Primary"`
	} `json:"Images"`
}

type paapiSearchResponse struct {
	SearchResult struct {
		Items []paapiItem `json:"Items"`
	} `json:"SearchResult"`
}

type paapiGetItemsResponse struct {
	ItemsResult struct {
		Items []paapiItem `json:"Items"`
	} `json:"ItemsResult"`
}

// FetchListing searches the catalog via SearchItems.
func (c *AmazonConnector) FetchListing(ctx context.Context, query string) ([]ScrapedProduct, error) {
	if !c.Available() {
		return nil, nil
	}
	if err := c.gate.wait(ctx); err != nil {
		return nil, err
	}

	var out paapiSearchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"Keywords":    query,
			"SearchIndex": "All",
			"PartnerTag":  c.partnerTag,
			"PartnerType": "Associates",
			"Resources": []string{
				"ItemInfo.Title", "ItemInfo.ByLineInfo",
				"Offers.Listings.Price", "Offers.Listings.SavingBasis",
				"Offers.Listings.Availability", "Images.Primary.Large",
			},
		}).
		SetResult(&out).
		Post("/paapi5/searchitems")
	if err != nil {
		return nil, fmt.Errorf("amazon search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("amazon search returned %s", resp.Status())
	}

	products := make([]ScrapedProduct, 0, len(out.SearchResult.Items))
	for _, item := range out.SearchResult.Items {
		if p := c.normalize(item); p != nil {
			products = append(products, *p)
		}
	}
	return products, nil
}

// FetchDetail resolves the ASIN from the product URL and calls GetItems.
func (c *AmazonConnector) FetchDetail(ctx context.Context, productURL string) (*ScrapedProduct, error) {
	if !c.Available() {
		return nil, nil
	}

	asin := extractASIN(productURL)
	if asin == "" {
		return nil, nil
	}

	if err := c.gate.wait(ctx); err != nil {
		return nil, err
	}

	var out paapiGetItemsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"ItemIds":     []string{asin},
			"PartnerTag":  c.partnerTag,
			"PartnerType": "Associates",
			"Resources": []string{
				"ItemInfo.Title", "ItemInfo.ByLineInfo",
				"Offers.Listings.Price", "Offers.Listings.SavingBasis",
				"Offers.Listings.Availability", "Images.Primary.Large",
			},
		}).
		SetResult(&out).
		Post("/paapi5/getitems")
	if err != nil {
		// Absent result rather than error: the reconciler marks the row
		// checked and moves on.
		return nil, nil
	}
	if resp.StatusCode() == http.StatusNotFound || resp.IsError() {
		return nil, nil
	}
	if len(out.ItemsResult.Items) == 0 {
		return nil, nil
	}
	return c.normalize(out.ItemsResult.Items[0]), nil
}

// AffiliateURL appends the partner tag to a product URL when configured.
func (c *AmazonConnector) AffiliateURL(productURL string) string {
	if c.partnerTag == "" {
		return productURL
	}
	sep := "?"
	if strings.Contains(productURL, "?") {
		sep = "&"
	}
	return productURL + sep + "tag=" + c.partnerTag
}

func (c *AmazonConnector) normalize(item paapiItem) *ScrapedProduct {
	if len(item.Offers.Listings) == 0 {
		return nil
	}
	listing := item.Offers.Listings[0]

	p := &ScrapedProduct{
		RetailerSKU:  item.ASIN,
		Name:         item.ItemInfo.Title.DisplayValue,
		Brand:        item.ItemInfo.ByLineInfo.Brand.DisplayValue,
		CurrentPrice: listing.Price.Amount,
		Currency:     listing.Price.Currency,
		InStock:      listing.Availability.Type == "Now",
		ProductURL:   item.DetailPageURL,
		ImageURL:     item.Images.Primary.Large.URL,
	}
	if listing.SavingBasis.Amount > listing.Price.Amount {
		orig := listing.SavingBasis.Amount
		p.OriginalPrice = &orig
	}
	if p.Currency == "" {
		p.Currency = currencyFor(c.region)
	}
	return p
}

func extractASIN(productURL string) string {
	if m := asinPattern.FindStringSubmatch(productURL); len(m) == 2 {
		return m[1]
	}
	// Bare ASINs are accepted as well
	trimmed := strings.TrimSpace(productURL)
	if len(trimmed) == 10 && strings.ToUpper(trimmed) == trimmed && !strings.Contains(trimmed, "/") {
		return trimmed
	}
	return ""
}

func currencyFor(region domain.Region) string {
	if region == domain.RegionCA {
		return "CAD"
	}
	return "USD"
}
