package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/connector"
	"github.com/chaza/pricewatch/internal/domain"
	"github.com/chaza/pricewatch/internal/notify"
	"github.com/chaza/pricewatch/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "pricewatch_test.db"),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
	})
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return db
}

func seedRetailer(t *testing.T, db *gorm.DB, slug string, region domain.Region) *domain.Retailer {
	t.Helper()
	retailer := &domain.Retailer{
		ID:          uuid.New().String(),
		Slug:        slug,
		Name:        slug,
		DisplayName: slug,
		Region:      region,
		IsActive:    true,
	}
	if err := db.Create(retailer).Error; err != nil {
		t.Fatalf("failed to seed retailer: %v", err)
	}
	return retailer
}

func seedProduct(t *testing.T, db *gorm.DB, slug string) *domain.Product {
	t.Helper()
	product := &domain.Product{
		ID:       uuid.New().String(),
		Slug:     slug,
		Name:     slug,
		Category: domain.CategoryOther,
		PackSize: 1,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func seedPrice(t *testing.T, db *gorm.DB, product *domain.Product, retailer *domain.Retailer, current float64, url string) *domain.Price {
	t.Helper()
	price := &domain.Price{
		ID:            uuid.New().String(),
		ProductID:     product.ID,
		RetailerID:    retailer.ID,
		CurrentPrice:  current,
		Currency:      "USD",
		InStock:       true,
		ProductURL:    url,
		LastCheckedAt: time.Now().Add(-24 * time.Hour),
		LastChangedAt: time.Now().Add(-48 * time.Hour),
	}
	if err := db.Create(price).Error; err != nil {
		t.Fatalf("failed to seed price: %v", err)
	}
	return price
}

func seedUser(t *testing.T, db *gorm.DB, email string, region domain.Region) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:                 uuid.New().String(),
		Email:              email,
		Region:             region,
		EmailNotifications: true,
		PushNotifications:  false,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedAlert(t *testing.T, db *gorm.DB, user *domain.User, product *domain.Product, alertType domain.AlertType, target *float64) *domain.PriceAlert {
	t.Helper()
	alert := &domain.PriceAlert{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		ProductID:   product.ID,
		AlertType:   alertType,
		TargetPrice: target,
		Channels:    domain.ChannelList{domain.ChannelEmail},
		IsActive:    true,
	}
	if err := db.Create(alert).Error; err != nil {
		t.Fatalf("failed to seed alert: %v", err)
	}
	return alert
}

// fakeConnector serves canned detail responses keyed by product URL. A URL
// with no entry yields an absent result; URLs in failures yield an error.
type fakeConnector struct {
	slug     string
	details  map[string]*connector.ScrapedProduct
	failures map[string]bool
	calls    int
}

func (f *fakeConnector) Slug() string        { return f.slug }
func (f *fakeConnector) DisplayName() string { return f.slug }
func (f *fakeConnector) Available() bool     { return true }

func (f *fakeConnector) FetchListing(ctx context.Context, query string) ([]connector.ScrapedProduct, error) {
	return nil, nil
}

func (f *fakeConnector) FetchDetail(ctx context.Context, productURL string) (*connector.ScrapedProduct, error) {
	f.calls++
	if f.failures[productURL] {
		return nil, context.DeadlineExceeded
	}
	return f.details[productURL], nil
}

// fakeNotifier records sent notifications and optionally fails delivery.
type fakeNotifier struct {
	channel domain.Channel
	sent    []notify.Notification
	fail    bool
}

func (f *fakeNotifier) Channel() domain.Channel { return f.channel }
func (f *fakeNotifier) Enabled() bool           { return true }

func (f *fakeNotifier) Send(ctx context.Context, n notify.Notification) error {
	if f.fail {
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, n)
	return nil
}

func floatPtr(v float64) *float64 { return &v }
