package models

import (
	"testing"
	"time"
)

func validRecord() ScanRecord {
	return ScanRecord{
		ID:        "0192f0c2-0000-7000-8000-000000000001",
		CreatedAt: time.Now(),
		Product: ProductInfo{
			Name: "MX Master 3S", Brand: "Logitech", Category: "Mouse",
			EstimatedPrice: "₹8,995", Description: "Wireless mouse",
		},
		Authenticity: AuthenticityResult{Score: 82, Verdict: VerdictGenuine, Reasoning: "Official channels"},
		Reviews:      ReviewAnalysis{Sentiment: Sentiment{Positive: 300, Neutral: 120, Negative: 80}, Summary: "Loved"},
	}
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	if err := Validate(validRecord()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBrokenPayloads(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScanRecord)
	}{
		{"missing id", func(r *ScanRecord) { r.ID = "" }},
		{"zero timestamp", func(r *ScanRecord) { r.CreatedAt = time.Time{} }},
		{"missing product name", func(r *ScanRecord) { r.Product.Name = "" }},
		{"score above 100", func(r *ScanRecord) { r.Authenticity.Score = 101 }},
		{"negative score", func(r *ScanRecord) { r.Authenticity.Score = -1 }},
		{"unknown verdict", func(r *ScanRecord) { r.Authenticity.Verdict = "Probably Fine" }},
		{"negative sentiment", func(r *ScanRecord) { r.Reviews.Sentiment.Negative = -3 }},
		{"deal without url", func(r *ScanRecord) {
			r.Deals = []PriceDeal{{Retailer: "Croma", Price: "₹8,499", Title: "Croma"}}
		}},
	}

	for _, tt := range tests {
		r := validRecord()
		tt.mutate(&r)
		if err := Validate(r); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestVerdictValid(t *testing.T) {
	for _, v := range Verdicts {
		if !v.Valid() {
			t.Errorf("%q should be valid", v)
		}
	}
	if Verdict("likely genuine").Valid() {
		t.Error("verdicts are case sensitive")
	}
}

func TestSentimentTotal(t *testing.T) {
	s := Sentiment{Positive: 3, Neutral: 2, Negative: 1}
	if s.Total() != 6 {
		t.Errorf("Total: got %d, want 6", s.Total())
	}
}
