package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"veribuy/models"
)

const defaultWidth = 72

// Printer writes styled output to w.
type Printer struct {
	w     io.Writer
	width int
	md    *glamour.TermRenderer
}

// NewPrinter creates a Printer wrapping text at width columns.
func NewPrinter(w io.Writer, width int) (*Printer, error) {
	if width <= 0 {
		width = defaultWidth
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Printer{w: w, width: width, md: md}, nil
}

// Record prints the dashboard for one scan.
func (p *Printer) Record(rec *models.ScanRecord, saved bool) {
	sep := strings.Repeat("═", p.width)
	thin := strings.Repeat("─", p.width)

	p.println(titleStyle.Render(sep))
	name := boldStyle.Render(rec.Product.Name)
	if saved {
		name += " " + badStyle.Render("♥")
	}
	p.printf("  %s\n", name)
	p.printf("  %s\n", mutedStyle.Render(fmt.Sprintf("%s · %s · est. %s", rec.Product.Brand, rec.Product.Category, rec.Product.EstimatedPrice)))
	p.printf("  %s\n", mutedStyle.Render(fmt.Sprintf("%s · %s", rec.ID, rec.CreatedAt.Local().Format("02 Jan 2006 15:04"))))
	if rec.Product.Description != "" {
		p.printf("  %s\n", truncate(rec.Product.Description, p.width-2))
	}
	p.println(titleStyle.Render(sep))
	p.println()

	auth := rec.Authenticity
	p.println(headingStyle.Render("  Authenticity"))
	p.printf("  %s\n", thin)
	p.printf("  Score   : %s\n", VerdictStyle(auth.Verdict).Render(fmt.Sprintf("%.0f/100", auth.Score)))
	p.printf("  Verdict : %s\n", VerdictStyle(auth.Verdict).Render(string(auth.Verdict)))
	for _, f := range auth.Flags {
		p.printf("  ! %s\n", f)
	}
	if auth.Reasoning != "" {
		p.printf("  %s\n", mutedStyle.Render(auth.Reasoning))
	}
	p.println()

	rev := rec.Reviews
	p.println(headingStyle.Render("  Review Sentiment"))
	p.printf("  %s\n", thin)
	if total := rev.Sentiment.Total(); total > 0 {
		p.printf("  Positive %s  Neutral %d%%  Negative %s\n",
			goodStyle.Render(fmt.Sprintf("%d%%", percent(rev.Sentiment.Positive, total))),
			percent(rev.Sentiment.Neutral, total),
			badStyle.Render(fmt.Sprintf("%d%%", percent(rev.Sentiment.Negative, total))))
	}
	if rev.FakeReviewCount > 0 {
		p.printf("  %s suspected inorganic reviews filtered out\n", badStyle.Render(fmt.Sprint(rev.FakeReviewCount)))
	}
	for _, pro := range rev.Pros {
		p.printf("  %s %s\n", goodStyle.Render("+"), pro)
	}
	for _, con := range rev.Cons {
		p.printf("  %s %s\n", badStyle.Render("-"), con)
	}
	p.printf("  %s\n", rev.Summary)
	p.println()

	p.println(headingStyle.Render("  Price Comparison"))
	p.printf("  %s\n", thin)
	if len(rec.Deals) == 0 {
		p.println("  No live prices found")
	}
	best, _, hasBest := models.BestDeal(rec.Deals)
	for i, d := range rec.Deals {
		price := boldStyle.Render(d.Price)
		if hasBest && d == best {
			price = goodStyle.Bold(true).Render(d.Price + " best")
		}
		p.printf("  %d. %-24s %s\n", i+1, truncate(d.Retailer, 24), price)
		p.printf("     %s\n", mutedStyle.Render(truncate(d.URL, p.width-5)))
	}

	if len(rec.Degraded) > 0 {
		p.println()
		p.printf("  %s\n", mutedStyle.Render("Unavailable: "+strings.Join(rec.Degraded, ", ")))
	}
	p.println()
}

// List prints one line per record, newest first as given.
func (p *Printer) List(title string, recs []models.ScanRecord) {
	p.println(titleStyle.Render(fmt.Sprintf("  %s (%d)", title, len(recs))))
	p.printf("  %s\n", strings.Repeat("─", p.width))
	if len(recs) == 0 {
		p.println(mutedStyle.Render("  Nothing here yet"))
		return
	}
	for _, rec := range recs {
		p.printf("  %s  %-30s %s  %s\n",
			mutedStyle.Render(rec.CreatedAt.Local().Format("02 Jan")),
			truncate(rec.Product.Name, 30),
			VerdictStyle(rec.Authenticity.Verdict).Render(fmt.Sprintf("%3.0f", rec.Authenticity.Score)),
			mutedStyle.Render(rec.ID))
	}
	p.println()
}

// Insights prints a summary of the scan history.
func (p *Printer) Insights(r *models.InsightReport) {
	sep := strings.Repeat("═", p.width)
	thin := strings.Repeat("─", p.width)

	p.println(titleStyle.Render(sep))
	p.println(titleStyle.Render("  VERIBUY SCAN INSIGHTS"))
	p.println(titleStyle.Render(sep))
	p.println()

	p.println(headingStyle.Render("  Overview"))
	p.printf("  %s\n", thin)
	p.printf("  Scans in history       : %s\n", boldStyle.Render(fmt.Sprint(r.TotalScans)))
	p.printf("  Saved products         : %s\n", boldStyle.Render(fmt.Sprint(r.SavedScans)))
	p.printf("  Average authenticity   : %s\n", boldStyle.Render(fmt.Sprintf("%.2f", r.AverageScore)))
	p.printf("  Suspected fake reviews : %s\n", badStyle.Render(fmt.Sprint(r.FakeReviewTotal)))
	p.println()

	p.println(headingStyle.Render("  Verdicts"))
	p.printf("  %s\n", thin)
	for _, v := range models.Verdicts {
		p.printf("  %-16s %d\n", VerdictStyle(v).Render(string(v)), r.VerdictCounts[v])
	}
	p.println()

	if r.CheapestDeal != nil {
		p.println(headingStyle.Render("  Cheapest Deal Seen"))
		p.printf("  %s\n", thin)
		p.printf("  %s\n", truncate(r.CheapestProduct, p.width-2))
		p.printf("  %s at %s\n", goodStyle.Bold(true).Render(r.CheapestDeal.Price), r.CheapestDeal.Retailer)
		p.println()
	}

	p.println(headingStyle.Render("  Riskiest Products"))
	p.printf("  %s\n", thin)
	if len(r.RiskiestProducts) == 0 {
		p.println("  No scored scans yet")
	}
	for i, rec := range r.RiskiestProducts {
		p.printf("  %d. %-40s %s\n", i+1, truncate(rec.Product.Name, 38),
			VerdictStyle(rec.Authenticity.Verdict).Render(fmt.Sprintf("%.0f", rec.Authenticity.Score)))
	}
	p.println()

	p.println(headingStyle.Render("  Scans by Category"))
	p.printf("  %s\n", thin)
	if len(r.ScansByCategory) == 0 {
		p.println("  No category data")
	} else {
		type catCount struct {
			cat   string
			count int
		}
		var cats []catCount
		for cat, n := range r.ScansByCategory {
			cats = append(cats, catCount{cat, n})
		}
		sort.Slice(cats, func(i, j int) bool {
			if cats[i].count != cats[j].count {
				return cats[i].count > cats[j].count
			}
			return cats[i].cat < cats[j].cat
		})
		for _, c := range cats {
			p.printf("  %-30s %s (%d)\n", truncate(c.cat, 28), strings.Repeat("█", c.count), c.count)
		}
	}
	p.println()
}

// ChatMessage prints one chat turn. Assistant replies are rendered as markdown.
func (p *Printer) ChatMessage(msg models.ChatMessage) {
	if msg.Role == models.RoleUser {
		p.printf("%s %s\n", boldStyle.Render("you:"), msg.Text)
		return
	}
	out, err := p.md.Render(msg.Text)
	if err != nil {
		out = msg.Text + "\n"
	}
	p.printf("%s\n%s", titleStyle.Render("veribuy:"), out)
}

// Card boxes a short message, e.g. an error or a confirmation.
func (p *Printer) Card(text string) {
	p.println(cardStyle.Width(p.width).Render(text))
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) println(args ...any) {
	fmt.Fprintln(p.w, args...)
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return (n*100 + total/2) / total
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
