package connector

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ScrapedProduct is the normalized record a connector returns for one offer.
type ScrapedProduct struct {
	RetailerSKU   string
	Name          string
	Brand         string
	CurrentPrice  float64
	OriginalPrice *float64
	Currency      string
	InStock       bool
	ProductURL    string
	ImageURL      string
	UPC           string
	Size          float64
	SizeUnit      string
	PackSize      int
	Category      string
}

// Connector translates retailer-specific fetches into normalized price/stock
// records. Implementations own their rate limiting; callers may invoke them
// back to back and every outbound call blocks until the connector's rate
// ceiling allows it.
type Connector interface {
	// Slug returns the retailer slug this connector serves.
	Slug() string

	// DisplayName returns a human-readable retailer name.
	DisplayName() string

	// Available reports whether the connector is usable. Unconfigured
	// credentials make a connector unavailable; callers skip it rather
	// than treating this as an error.
	Available() bool

	// FetchListing performs a best-effort catalog search. May return an
	// empty slice.
	FetchListing(ctx context.Context, query string) ([]ScrapedProduct, error)

	// FetchDetail fetches one product's current price and stock state.
	// Returns (nil, nil) when the product cannot be fetched, so that
	// reconciliation continues across products.
	FetchDetail(ctx context.Context, productURL string) (*ScrapedProduct, error)
}

// Config holds settings shared by all connector variants.
type Config struct {
	Slug      string
	BaseURL   string
	RateLimit int // requests per minute
	UserAgent string
}

// rateGate enforces a minimum spacing between outbound calls:
// time.Minute / rateLimit. It blocks the caller, honoring ctx cancellation.
type rateGate struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
}

func newRateGate(requestsPerMinute int) *rateGate {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &rateGate{minInterval: time.Minute / time.Duration(requestsPerMinute)}
}

// wait blocks until enough time has elapsed since the previous call to
// respect the rate ceiling, then claims the slot.
func (g *rateGate) wait(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	next := g.last.Add(g.minInterval)
	var sleep time.Duration
	if next.After(now) {
		sleep = next.Sub(now)
		g.last = next
	} else {
		g.last = now
	}
	g.mu.Unlock()

	if sleep <= 0 {
		return nil
	}

	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParsePrice strips currency symbols and thousands separators from a price
// string and parses the remainder. Returns 0 when nothing parseable remains.
func ParsePrice(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}
