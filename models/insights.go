package models

import "github.com/shopspring/decimal"

// InsightReport holds analytics computed over the scan history.
type InsightReport struct {
	TotalScans       int             `json:"totalScans"`
	SavedScans       int             `json:"savedScans"`
	AverageScore     float64         `json:"averageScore"`
	VerdictCounts    map[Verdict]int `json:"verdictCounts"`
	ScansByCategory  map[string]int  `json:"scansByCategory"`
	RiskiestProducts []*ScanRecord   `json:"riskiestProducts"`
	FakeReviewTotal  int             `json:"fakeReviewTotal"`
	CheapestDeal     *PriceDeal      `json:"cheapestDeal,omitempty"`
	CheapestAmount   decimal.Decimal `json:"cheapestAmount"`
	CheapestProduct  string          `json:"cheapestProduct,omitempty"`
}
