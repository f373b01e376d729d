package models

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CheckPricePlaceholder is the price shown when a listing title carries none.
const CheckPricePlaceholder = "Check Price"

var amountRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ParsePrice pulls the first numeric amount out of a display price such as
// "₹1,299.00" or "Rs. 999". It returns false when there is none.
func ParsePrice(price string) (decimal.Decimal, bool) {
	match := amountRegexp.FindString(price)
	if match == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// BestDeal returns the cheapest deal with a parseable price.
func BestDeal(deals []PriceDeal) (PriceDeal, decimal.Decimal, bool) {
	var (
		best   PriceDeal
		amount decimal.Decimal
		found  bool
	)
	for _, d := range deals {
		a, ok := ParsePrice(d.Price)
		if !ok || !a.IsPositive() {
			continue
		}
		if !found || a.LessThan(amount) {
			best, amount, found = d, a, true
		}
	}
	return best, amount, found
}
