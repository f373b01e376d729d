package services

import (
	"regexp"
	"strings"
	"unicode"

	"veribuy/models"
	"veribuy/utils"
)

const (
	DefaultMaxDeals = 4

	fallbackRetailer = "Online Retailer"
	fallbackURL      = "#"
	fallbackTitle    = "Product Link"
)

// DealExtractor turns grounded search citations into PriceDeals.
type DealExtractor struct {
	logger      *utils.Logger
	priceRegexp *regexp.Regexp
	maxDeals    int
}

// NewDealExtractor builds an extractor for prices written with the given
// currency symbol, e.g. "₹1,299" or "₹1,299.00". A cap below one means
// DefaultMaxDeals.
func NewDealExtractor(currency string, maxDeals int, logger *utils.Logger) *DealExtractor {
	if maxDeals < 1 {
		maxDeals = DefaultMaxDeals
	}
	return &DealExtractor{
		logger:      logger,
		priceRegexp: regexp.MustCompile(regexp.QuoteMeta(currency) + `[\d,]+(?:\.\d{2})?`),
		maxDeals:    maxDeals,
	}
}

// Extract maps each web source to a deal, drops repeated URLs and keeps at
// most maxDeals entries in citation order.
func (e *DealExtractor) Extract(sources []models.GroundingSource) []models.PriceDeal {
	seen := utils.NewKeySet()
	deals := make([]models.PriceDeal, 0, len(sources))

	for _, src := range sources {
		if len(deals) >= e.maxDeals {
			break
		}

		title := normaliseText(src.Title)
		url := strings.TrimSpace(src.URI)
		if url == "" {
			url = fallbackURL
		} else if !seen.Add(url) {
			e.logger.Debug("[deals] Duplicate URL skipped: %s", url)
			continue
		}

		deal := models.PriceDeal{
			Retailer: retailerFromTitle(title),
			Price:    e.extractPrice(title),
			URL:      url,
			Title:    title,
		}
		if deal.Title == "" {
			deal.Title = fallbackTitle
		}
		deals = append(deals, deal)
	}

	e.logger.Debug("[deals] Extracted %d deals from %d sources", len(deals), len(sources))
	return deals
}

// extractPrice returns the first currency-prefixed amount in title.
func (e *DealExtractor) extractPrice(title string) string {
	if match := e.priceRegexp.FindString(title); match != "" {
		return match
	}
	return models.CheckPricePlaceholder
}

// retailerFromTitle takes the part of a listing title before " - " and then
// before ":", e.g. "Amazon.in: Logitech M331" -> "Amazon.in".
func retailerFromTitle(title string) string {
	name := strings.Split(title, " - ")[0]
	name = strings.TrimSpace(strings.Split(name, ":")[0])
	if name == "" {
		return fallbackRetailer
	}
	return name
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
