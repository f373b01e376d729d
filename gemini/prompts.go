package gemini

import (
	"fmt"
	"strings"

	"veribuy/models"
)

// reviewSampleSize is how many reviews the model is asked to reason over.
const reviewSampleSize = 500

func (c *Client) identifyImagePrompt() string {
	return fmt.Sprintf("Identify this product. Return a JSON object with: name, brand, category, "+
		"estimatedPrice (in the currency of %s, %s), and a short description.", c.market, c.currency)
}

func (c *Client) identifyQueryPrompt(query string, page *models.PageSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identify the product from this URL or search query: %q.\n", query)
	if page != nil {
		if page.Title != "" {
			fmt.Fprintf(&b, "The page title is %q.\n", page.Title)
		}
		if page.Description != "" {
			fmt.Fprintf(&b, "The page description is %q.\n", page.Description)
		}
	}
	fmt.Fprintf(&b, "Return a JSON object with: name, brand, category, estimatedPrice (in the currency of %s, %s), "+
		"a short description, and a representative valid image URL for this product if possible (otherwise leave empty).\n", c.market, c.currency)
	b.WriteString("If the URL is generic, infer the most likely product intended.")
	return b.String()
}

func (c *Client) authenticityPrompt(p models.ProductInfo) string {
	return fmt.Sprintf("Analyze the authenticity risk for a product sold online based on general market data "+
		"for this item in %s: %s %s.\n"+
		"Assume the listing has average photos but a slightly lower than average price.\n"+
		"Return JSON with: score (0-100, where 100 is perfectly safe), verdict ('%s' | '%s' | '%s'), "+
		"flags (array of strings warning about potential fake indicators for this specific type of item), and reasoning.",
		c.market, p.Brand, p.Name, models.VerdictGenuine, models.VerdictSuspicious, models.VerdictHighRisk)
}

func (c *Client) reviewPrompt(productName string) string {
	return fmt.Sprintf("Simulate an analysis of %d recent reviews for the %s (%s market context).\n"+
		"Provide a sentiment breakdown, top pros, top cons, a count of suspected fake reviews (out of %d), and a concise summary.",
		reviewSampleSize, productName, c.market, reviewSampleSize)
}

func (c *Client) pricePrompt(productName string) string {
	return fmt.Sprintf("Find current prices for %q in %s from 3 different major reputable online retailers available in %s.",
		productName, c.currency, c.market)
}

func (c *Client) chatInstruction() string {
	return fmt.Sprintf("You are VeriBuy, an AI shopping assistant focused on the %s market. "+
		"Be concise, helpful, and focus on value and safety. Always use %s for currency.", c.market, c.currency)
}
