package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"veribuy/config"
	"veribuy/models"
	"veribuy/utils"
)

var mouse = models.ProductInfo{
	Name:           "M331 Silent Plus",
	Brand:          "Logitech",
	Category:       "Mouse",
	EstimatedPrice: "₹1,395",
	Description:    "Silent wireless mouse",
}

// fakeBackend returns canned results. Setting an *Err field makes that call fail.
type fakeBackend struct {
	product *models.ProductInfo
	auth    *models.AuthenticityResult
	reviews *models.ReviewAnalysis
	sources []models.GroundingSource

	identifyErr error
	authErr     error
	reviewsErr  error
	pricesErr   error
	block       bool
	identified  func()

	mu          sync.Mutex
	queries     []string
	pages       []*models.PageSnapshot
	identifyN   atomic.Int32
	reviewNames []string
}

func newFakeBackend() *fakeBackend {
	p := mouse
	return &fakeBackend{
		product: &p,
		auth: &models.AuthenticityResult{
			Score: 82, Verdict: models.VerdictGenuine, Flags: []string{"Check seller rating"}, Reasoning: "Widely sold",
		},
		reviews: &models.ReviewAnalysis{
			Sentiment:       models.Sentiment{Positive: 350, Neutral: 100, Negative: 50},
			Pros:            []string{"Quiet"},
			Cons:            []string{"No Bluetooth"},
			FakeReviewCount: 12,
			Summary:         "Solid budget mouse",
		},
		sources: []models.GroundingSource{
			{Title: "Amazon.in: Logitech M331 ₹1,299", URI: "https://www.amazon.in/dp/B0"},
			{Title: "Flipkart - Logitech M331 ₹1,249.00", URI: "https://www.flipkart.com/p"},
		},
	}
}

func (f *fakeBackend) IdentifyImage(ctx context.Context, _ models.ImagePayload) (*models.ProductInfo, error) {
	f.identifyN.Add(1)
	if f.identifyErr != nil {
		return nil, f.identifyErr
	}
	p := *f.product
	return &p, nil
}

func (f *fakeBackend) IdentifyQuery(ctx context.Context, query string, page *models.PageSnapshot) (*models.ProductInfo, error) {
	f.identifyN.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.pages = append(f.pages, page)
	f.mu.Unlock()
	if f.identifyErr != nil {
		return nil, f.identifyErr
	}
	if f.identified != nil {
		f.identified()
	}
	p := *f.product
	return &p, nil
}

func (f *fakeBackend) CheckAuthenticity(ctx context.Context, _ models.ProductInfo) (*models.AuthenticityResult, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.authErr != nil {
		return nil, f.authErr
	}
	a := *f.auth
	return &a, nil
}

func (f *fakeBackend) AnalyzeReviews(ctx context.Context, name string) (*models.ReviewAnalysis, error) {
	f.mu.Lock()
	f.reviewNames = append(f.reviewNames, name)
	f.mu.Unlock()
	if f.reviewsErr != nil {
		return nil, f.reviewsErr
	}
	r := *f.reviews
	return &r, nil
}

func (f *fakeBackend) SearchPrices(ctx context.Context, _ string) ([]models.GroundingSource, error) {
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	return f.sources, nil
}

type fakeRenderer struct {
	page *models.PageSnapshot
	err  error
}

func (r fakeRenderer) Snapshot(ctx context.Context, url string) (*models.PageSnapshot, error) {
	return r.page, r.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.MaxRetries = 2
	cfg.RetryBaseDelay = time.Millisecond
	cfg.IdentifyTimeout = time.Second
	cfg.EnrichTimeout = 50 * time.Millisecond
	cfg.RateLimitMs = 0
	return cfg
}

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestScanner(b Backend, opts ...ScannerOption) *Scanner {
	opts = append([]ScannerOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewScanner(b, testConfig(), utils.NewNopLogger(), opts...)
}

func TestScanQueryWirelessMouse(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newFakeBackend()
	rec, err := newTestScanner(b).ScanQuery(context.Background(), "wireless mouse")
	require.NoError(t, err)

	assert.Equal(t, mouse, rec.Product)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.Equal(t, models.VerdictGenuine, rec.Authenticity.Verdict)
	assert.Equal(t, 500, rec.Reviews.Sentiment.Total())
	assert.Empty(t, rec.Degraded)
	require.Len(t, rec.Deals, 2)
	assert.Equal(t, "Amazon.in", rec.Deals[0].Retailer)
	assert.Equal(t, "₹1,249.00", rec.Deals[1].Price)
	assert.Equal(t, []string{"M331 Silent Plus"}, b.reviewNames)

	id, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NoError(t, models.Validate(rec))
}

func TestScanDegradesFailedBranches(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*fakeBackend)
		wantDegraded []string
		check        func(*testing.T, *models.ScanRecord)
	}{
		{
			name:         "authenticity fails",
			setup:        func(b *fakeBackend) { b.authErr = errors.New("quota") },
			wantDegraded: []string{models.BranchAuthenticity},
			check: func(t *testing.T, rec *models.ScanRecord) {
				assert.Equal(t, neutralAuthenticity(), rec.Authenticity)
				assert.Len(t, rec.Deals, 2)
			},
		},
		{
			name: "authenticity invalid verdict",
			setup: func(b *fakeBackend) {
				b.auth = &models.AuthenticityResult{Score: 70, Verdict: "Probably Fine", Reasoning: "?"}
			},
			wantDegraded: []string{models.BranchAuthenticity},
			check: func(t *testing.T, rec *models.ScanRecord) {
				assert.Equal(t, models.VerdictSuspicious, rec.Authenticity.Verdict)
				assert.Equal(t, 50.0, rec.Authenticity.Score)
			},
		},
		{
			name:         "authenticity hangs past its timeout",
			setup:        func(b *fakeBackend) { b.block = true },
			wantDegraded: []string{models.BranchAuthenticity},
		},
		{
			name:         "reviews fail",
			setup:        func(b *fakeBackend) { b.reviewsErr = errors.New("timeout") },
			wantDegraded: []string{models.BranchReviews},
			check: func(t *testing.T, rec *models.ScanRecord) {
				assert.Equal(t, 0, rec.Reviews.Sentiment.Total())
				assert.Equal(t, neutralSummary, rec.Reviews.Summary)
				assert.Equal(t, models.VerdictGenuine, rec.Authenticity.Verdict)
			},
		},
		{
			name: "everything fails",
			setup: func(b *fakeBackend) {
				b.authErr = errors.New("x")
				b.reviewsErr = errors.New("y")
				b.pricesErr = errors.New("z")
			},
			wantDegraded: []string{models.BranchAuthenticity, models.BranchReviews, models.BranchDeals},
			check: func(t *testing.T, rec *models.ScanRecord) {
				assert.NotNil(t, rec.Deals)
				assert.Empty(t, rec.Deals)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			b := newFakeBackend()
			tt.setup(b)
			rec, err := newTestScanner(b).ScanQuery(context.Background(), "wireless mouse")
			require.NoError(t, err)
			assert.Equal(t, tt.wantDegraded, rec.Degraded)
			assert.NoError(t, models.Validate(rec))
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestScanIdentificationFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeBackend)
	}{
		{"backend error", func(b *fakeBackend) { b.identifyErr = errors.New("unparseable") }},
		{"missing fields", func(b *fakeBackend) { b.product = &models.ProductInfo{Name: "Mouse"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			tt.setup(b)
			rec, err := newTestScanner(b).ScanImage(context.Background(), models.ImagePayload{MIMEType: "image/jpeg", Data: "AA=="})
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, models.ErrIdentification)
			assert.Equal(t, int32(2), b.identifyN.Load(), "identification should be retried")
		})
	}
}

func TestScanCancelledAfterIdentification(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newFakeBackend()
	b.block = true
	b.identified = cancel

	rec, err := newTestScanner(b).ScanQuery(ctx, "wireless mouse")
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, models.ErrIdentification)
}

func TestScanQueryRejectsEmpty(t *testing.T) {
	b := newFakeBackend()
	_, err := newTestScanner(b).ScanQuery(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrIdentification)
	assert.Equal(t, int32(0), b.identifyN.Load())
}

func TestScanQueryUsesPageSnapshot(t *testing.T) {
	page := &models.PageSnapshot{URL: "https://shop.test/m331", Title: "Logitech M331", ImageURL: "https://shop.test/m331.jpg"}

	t.Run("url query is rendered", func(t *testing.T) {
		b := newFakeBackend()
		rec, err := newTestScanner(b, WithPageRenderer(fakeRenderer{page: page})).
			ScanQuery(context.Background(), "https://shop.test/m331")
		require.NoError(t, err)
		assert.Same(t, page, b.pages[0])
		assert.Equal(t, page.ImageURL, rec.Product.ImageURL)
	})

	t.Run("text query is not rendered", func(t *testing.T) {
		b := newFakeBackend()
		_, err := newTestScanner(b, WithPageRenderer(fakeRenderer{page: page})).
			ScanQuery(context.Background(), "wireless mouse")
		require.NoError(t, err)
		assert.Nil(t, b.pages[0])
	})

	t.Run("render failure falls back to raw query", func(t *testing.T) {
		b := newFakeBackend()
		rec, err := newTestScanner(b, WithPageRenderer(fakeRenderer{err: errors.New("no chrome")})).
			ScanQuery(context.Background(), "https://shop.test/m331")
		require.NoError(t, err)
		assert.Nil(t, b.pages[0])
		assert.Empty(t, rec.Product.ImageURL)
	})
}

func TestScanBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newFakeBackend()
	img := &models.ImagePayload{MIMEType: "image/png", Data: "AA=="}
	results := newTestScanner(b).ScanBatch(context.Background(), []ScanInput{
		{Query: "wireless mouse"},
		{Image: img},
		{Query: ""},
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Record)
	assert.NoError(t, results[1].Err)
	assert.Same(t, img, results[1].Input.Image)
	assert.ErrorIs(t, results[2].Err, models.ErrIdentification)
	assert.NotEqual(t, results[0].Record.ID, results[1].Record.ID)
}

func TestScanBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newTestScanner(newFakeBackend()).ScanBatch(ctx, []ScanInput{{Query: "a"}, {Query: "b"}})
	for _, r := range results {
		assert.Nil(t, r.Record)
		assert.Error(t, r.Err)
	}
}

func TestIsWebURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://www.amazon.in/dp/B0", true},
		{"http://shop.test", true},
		{"wireless mouse", false},
		{"ftp://files.test/a", false},
		{"https://", false},
	}
	for _, tt := range tests {
		if got := isWebURL(tt.in); got != tt.want {
			t.Errorf("isWebURL(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
