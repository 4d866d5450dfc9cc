package connector

import (
	"context"
	"testing"
	"time"
)

func TestRateGateSpacing(t *testing.T) {
	// 600 requests per minute = 100ms minimum spacing
	gate := newRateGate(600)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := gate.wait(ctx); err != nil {
			t.Fatalf("wait returned error: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First call passes immediately, the next two must each wait ~100ms.
	if elapsed < 180*time.Millisecond {
		t.Errorf("three calls completed in %v, expected at least 180ms of spacing", elapsed)
	}
}

func TestRateGateCancellation(t *testing.T) {
	gate := newRateGate(1) // one call per minute
	ctx, cancel := context.WithCancel(context.Background())

	if err := gate.wait(ctx); err != nil {
		t.Fatalf("first wait returned error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- gate.wait(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected context error from cancelled wait")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled wait did not return")
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$12.99", 12.99},
		{"CAD 1,299.00", 1299.00},
		{"9.5", 9.5},
		{"free", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParsePrice(tt.in); got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractASIN(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.amazon.com/dp/B08XYZ1234", "B08XYZ1234"},
		{"https://www.amazon.ca/gp/product/B000000001?th=1", "B000000001"},
		{"B08XYZ1234", "B08XYZ1234"},
		{"https://www.amazon.com/s?k=diapers", ""},
	}

	for _, tt := range tests {
		if got := extractASIN(tt.url); got != tt.want {
			t.Errorf("extractASIN(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractWalmartItemID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.walmart.com/ip/Huggies-Little-Snugglers/46620101", "46620101"},
		{"https://www.walmart.com/ip/name-only", ""},
		{"not a url at all \x00", ""},
	}

	for _, tt := range tests {
		if got := extractWalmartItemID(tt.url); got != tt.want {
			t.Errorf("extractWalmartItemID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractCostcoItemNumber(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.costco.com/kirkland-diapers.product.100012345.html", "100012345"},
		{"https://www.costco.com/some-category.html", ""},
	}

	for _, tt := range tests {
		if got := extractCostcoItemNumber(tt.url); got != tt.want {
			t.Errorf("extractCostcoItemNumber(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
