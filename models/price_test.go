package models

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"₹1,299", "1299", true},
		{"₹8,995.50", "8995.5", true},
		{"Rs. 999", "999", true},
		{CheckPricePlaceholder, "0", false},
		{"", "0", false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.raw)
		if ok != tt.ok || got.String() != tt.want {
			t.Errorf("ParsePrice(%q) = %s, %v; want %s, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBestDeal(t *testing.T) {
	deals := []PriceDeal{
		{Retailer: "Amazon.in", Price: "₹2,499"},
		{Retailer: "Croma", Price: CheckPricePlaceholder},
		{Retailer: "Flipkart", Price: "₹2,199"},
		{Retailer: "Reliance Digital", Price: "₹2,350"},
	}

	best, amount, ok := BestDeal(deals)
	if !ok {
		t.Fatal("expected a best deal")
	}
	if best.Retailer != "Flipkart" {
		t.Errorf("retailer: got %q, want Flipkart", best.Retailer)
	}
	if amount.String() != "2199" {
		t.Errorf("amount: got %s, want 2199", amount)
	}

	if _, _, ok := BestDeal([]PriceDeal{{Price: CheckPricePlaceholder}}); ok {
		t.Error("no parseable price should yield no best deal")
	}
}
