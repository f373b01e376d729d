package services

import (
	"testing"

	"veribuy/models"
	"veribuy/utils"
)

func newTestExtractor() *DealExtractor {
	return NewDealExtractor("₹", DefaultMaxDeals, utils.NewNopLogger())
}

func TestExtractPrice(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		title string
		want  string
	}{
		{"Logitech M331 at ₹1,299 - Amazon.in", "₹1,299"},
		{"Flipkart: Logitech M331 ₹1,199.00 Offer", "₹1,199.00"},
		{"Croma - Logitech M331 ₹999.5", "₹999"},
		{"Reliance Digital - Logitech M331", models.CheckPricePlaceholder},
		{"Logitech M331 $15.99", models.CheckPricePlaceholder},
		{"", models.CheckPricePlaceholder},
	}

	for _, tt := range tests {
		if got := e.extractPrice(tt.title); got != tt.want {
			t.Errorf("extractPrice(%q) = %q; want %q", tt.title, got, tt.want)
		}
	}
}

func TestRetailerFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Amazon.in: Logitech M331 Silent Plus", "Amazon.in"},
		{"Flipkart - Logitech M331: Buy Online", "Flipkart"},
		{"Croma", "Croma"},
		{": untitled", fallbackRetailer},
		{"", fallbackRetailer},
	}

	for _, tt := range tests {
		if got := retailerFromTitle(tt.title); got != tt.want {
			t.Errorf("retailerFromTitle(%q) = %q; want %q", tt.title, got, tt.want)
		}
	}
}

func TestExtractFallbacksAndDedupe(t *testing.T) {
	e := newTestExtractor()
	deals := e.Extract([]models.GroundingSource{
		{Title: "Amazon.in:  Logitech   M331 ₹1,299", URI: "https://www.amazon.in/dp/B0"},
		{Title: "Amazon.in: Logitech M331 (again)", URI: "https://www.amazon.in/dp/B0"},
		{Title: "", URI: ""},
	})

	if len(deals) != 2 {
		t.Fatalf("expected 2 deals after dropping duplicate URL, got %d", len(deals))
	}
	if deals[0].Title != "Amazon.in: Logitech M331 ₹1,299" {
		t.Errorf("title not normalised: %q", deals[0].Title)
	}
	if deals[0].Price != "₹1,299" || deals[0].Retailer != "Amazon.in" {
		t.Errorf("first deal: got %+v", deals[0])
	}
	empty := deals[1]
	if empty.URL != fallbackURL || empty.Title != fallbackTitle || empty.Retailer != fallbackRetailer ||
		empty.Price != models.CheckPricePlaceholder {
		t.Errorf("fallbacks not applied: %+v", empty)
	}
}

func TestExtractCapsDeals(t *testing.T) {
	e := newTestExtractor()
	var sources []models.GroundingSource
	for _, u := range []string{"a", "b", "c", "d", "e", "f"} {
		sources = append(sources, models.GroundingSource{Title: "Shop " + u, URI: "https://shop.test/" + u})
	}

	deals := e.Extract(sources)
	if len(deals) != DefaultMaxDeals {
		t.Errorf("expected %d deals, got %d", DefaultMaxDeals, len(deals))
	}
	if deals[0].URL != "https://shop.test/a" {
		t.Errorf("citation order not kept: %q", deals[0].URL)
	}
}

func TestExtractOtherCurrency(t *testing.T) {
	e := NewDealExtractor("$", 2, utils.NewNopLogger())
	deals := e.Extract([]models.GroundingSource{{Title: "BestBuy - Mouse $24.99", URI: "https://bestbuy.test/m"}})
	if len(deals) != 1 || deals[0].Price != "$24.99" {
		t.Errorf("got %+v", deals)
	}
}

func TestExtractZeroCapUsesDefault(t *testing.T) {
	e := NewDealExtractor("₹", 0, utils.NewNopLogger())
	var sources []models.GroundingSource
	for _, u := range []string{"a", "b", "c", "d", "e"} {
		sources = append(sources, models.GroundingSource{Title: "Shop - ₹999", URI: "https://shop.test/" + u})
	}
	if got := len(e.Extract(sources)); got != DefaultMaxDeals {
		t.Errorf("deals: got %d, want %d", got, DefaultMaxDeals)
	}
}
