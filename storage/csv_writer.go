package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"veribuy/models"
)

var exportHeader = []string{
	"id", "scanned_at", "name", "brand", "category", "estimated_price",
	"score", "verdict", "positive", "neutral", "negative", "fake_reviews",
	"best_retailer", "best_price", "deals", "degraded",
}

// exportRow flattens one record into the columns of exportHeader.
func exportRow(r models.ScanRecord) []string {
	bestRetailer, bestPrice := "", ""
	if deal, _, ok := models.BestDeal(r.Deals); ok {
		bestRetailer, bestPrice = deal.Retailer, deal.Price
	}
	degraded := ""
	for i, b := range r.Degraded {
		if i > 0 {
			degraded += ";"
		}
		degraded += b
	}
	return []string{
		r.ID,
		r.CreatedAt.Format(time.RFC3339),
		r.Product.Name,
		r.Product.Brand,
		r.Product.Category,
		r.Product.EstimatedPrice,
		strconv.FormatFloat(r.Authenticity.Score, 'f', -1, 64),
		string(r.Authenticity.Verdict),
		strconv.Itoa(r.Reviews.Sentiment.Positive),
		strconv.Itoa(r.Reviews.Sentiment.Neutral),
		strconv.Itoa(r.Reviews.Sentiment.Negative),
		strconv.Itoa(r.Reviews.FakeReviewCount),
		bestRetailer,
		bestPrice,
		strconv.Itoa(len(r.Deals)),
		degraded,
	}
}

// CSVWriter writes scan records to CSV. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w, err := newCSVWriter(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// NewCSVStreamWriter writes CSV to w, e.g. an HTTP response.
func NewCSVStreamWriter(w io.Writer) (*CSVWriter, error) {
	return newCSVWriter(w, nil)
}

func newCSVWriter(w io.Writer, closer io.Closer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	cw.Flush()
	return &CSVWriter{closer: closer, writer: cw}, cw.Error()
}

// Export appends one row per record.
func (c *CSVWriter) Export(records []models.ScanRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		if err := c.writer.Write(exportRow(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}
