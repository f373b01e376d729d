package models

import "time"

// Verdict is the three-way authenticity classification.
type Verdict string

const (
	VerdictGenuine    Verdict = "Likely Genuine"
	VerdictSuspicious Verdict = "Suspicious"
	VerdictHighRisk   Verdict = "High Risk"
)

// Verdicts lists every valid verdict, safest first.
var Verdicts = []Verdict{VerdictGenuine, VerdictSuspicious, VerdictHighRisk}

// Valid reports whether v is one of the three known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictGenuine, VerdictSuspicious, VerdictHighRisk:
		return true
	}
	return false
}

// ProductInfo is what the identification step resolves a photo or query to.
type ProductInfo struct {
	Name           string `json:"name" validate:"required"`
	Brand          string `json:"brand" validate:"required"`
	Category       string `json:"category" validate:"required"`
	EstimatedPrice string `json:"estimatedPrice" validate:"required"`
	Description    string `json:"description" validate:"required"`
	ImageURL       string `json:"imageUrl,omitempty"`
}

// AuthenticityResult scores how likely a listing for the product is genuine.
// Score runs 0-100 where 100 is perfectly safe.
type AuthenticityResult struct {
	Score     float64  `json:"score" validate:"gte=0,lte=100"`
	Verdict   Verdict  `json:"verdict" validate:"verdict"`
	Flags     []string `json:"flags"`
	Reasoning string   `json:"reasoning" validate:"required"`
}

// Sentiment is the positive/neutral/negative split of analysed reviews.
type Sentiment struct {
	Positive int `json:"positive" validate:"gte=0"`
	Neutral  int `json:"neutral" validate:"gte=0"`
	Negative int `json:"negative" validate:"gte=0"`
}

// Total is the number of reviews the triple accounts for.
func (s Sentiment) Total() int {
	return s.Positive + s.Neutral + s.Negative
}

// ReviewAnalysis summarises review sentiment for a product.
type ReviewAnalysis struct {
	Sentiment       Sentiment `json:"sentiment"`
	Pros            []string  `json:"pros"`
	Cons            []string  `json:"cons"`
	FakeReviewCount int       `json:"fakeReviewCount" validate:"gte=0"`
	Summary         string    `json:"summary" validate:"required"`
}

// PriceDeal is one retailer offer found by grounded search.
type PriceDeal struct {
	Retailer string `json:"retailer" validate:"required"`
	Price    string `json:"price" validate:"required"`
	URL      string `json:"url" validate:"required"`
	Title    string `json:"title" validate:"required"`
}

// Enrichment branch names, as recorded in ScanRecord.Degraded.
const (
	BranchAuthenticity = "authenticity"
	BranchReviews      = "reviews"
	BranchDeals        = "deals"
)

// ScanRecord is the merged result of identifying a product and enriching it.
// Records are built whole by the scanner and never mutated afterwards.
type ScanRecord struct {
	ID           string             `json:"id" validate:"required"`
	CreatedAt    time.Time          `json:"timestamp" validate:"required"`
	Product      ProductInfo        `json:"product"`
	Authenticity AuthenticityResult `json:"authenticity"`
	Reviews      ReviewAnalysis     `json:"reviews"`
	Deals        []PriceDeal        `json:"deals" validate:"dive"`
	Degraded     []string           `json:"degraded,omitempty"`
}

// ImagePayload is a base64 encoded image ready to send to the backend.
type ImagePayload struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// PageSnapshot holds what a headless browser saw at a product URL.
type PageSnapshot struct {
	URL         string
	Title       string
	Description string
	ImageURL    string
}

// GroundingSource is one cited web page from a grounded search.
type GroundingSource struct {
	Title string
	URI   string
}

// View names the screen a client should show for a response. The scanning
// screen is client-side only and has no value here.
type View string

const (
	ViewLanding   View = "LANDING"
	ViewDashboard View = "DASHBOARD"
	ViewHistory   View = "HISTORY"
	ViewSaved     View = "SAVED"
)
