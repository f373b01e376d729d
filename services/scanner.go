package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"veribuy/config"
	"veribuy/models"
	"veribuy/utils"
)

// Backend is the generative-AI service the scanner drives. gemini.Client
// satisfies it; tests use fakes.
type Backend interface {
	IdentifyImage(ctx context.Context, img models.ImagePayload) (*models.ProductInfo, error)
	IdentifyQuery(ctx context.Context, query string, page *models.PageSnapshot) (*models.ProductInfo, error)
	CheckAuthenticity(ctx context.Context, product models.ProductInfo) (*models.AuthenticityResult, error)
	AnalyzeReviews(ctx context.Context, productName string) (*models.ReviewAnalysis, error)
	SearchPrices(ctx context.Context, productName string) ([]models.GroundingSource, error)
}

// PageRenderer captures what a product URL shows in a browser.
type PageRenderer interface {
	Snapshot(ctx context.Context, url string) (*models.PageSnapshot, error)
}

// Neutral values substituted for a failed enrichment branch.
const (
	neutralScore     = 50
	neutralFlag      = "Analysis Failed"
	neutralReasoning = "Could not verify."
	neutralSummary   = "Review analysis unavailable."
)

func neutralAuthenticity() models.AuthenticityResult {
	return models.AuthenticityResult{
		Score:     neutralScore,
		Verdict:   models.VerdictSuspicious,
		Flags:     []string{neutralFlag},
		Reasoning: neutralReasoning,
	}
}

func neutralReviews() models.ReviewAnalysis {
	return models.ReviewAnalysis{
		Pros:    []string{},
		Cons:    []string{},
		Summary: neutralSummary,
	}
}

// Scanner turns a photo or query into a fully formed ScanRecord: one
// identification call followed by three concurrent enrichment calls.
type Scanner struct {
	backend  Backend
	renderer PageRenderer
	deals    *DealExtractor
	logger   *utils.Logger
	retry    *utils.RetryConfig
	pool     *utils.WorkerPool

	identifyTimeout time.Duration
	enrichTimeout   time.Duration
	now             func() time.Time
}

// ScannerOption customises a Scanner.
type ScannerOption func(*Scanner)

// WithPageRenderer enables rendering of http(s) queries before identification.
func WithPageRenderer(r PageRenderer) ScannerOption {
	return func(s *Scanner) { s.renderer = r }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

// NewScanner creates a Scanner using cfg for timeouts, retries and deal limits.
func NewScanner(backend Backend, cfg *config.Config, logger *utils.Logger, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		backend: backend,
		deals:   NewDealExtractor(cfg.Currency, cfg.MaxDeals, logger),
		logger:  logger.With("component", "scanner"),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			Logger:      logger,
		},
		pool:            utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimit()),
		identifyTimeout: cfg.IdentifyTimeout,
		enrichTimeout:   cfg.EnrichTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanImage identifies the product in a photo and enriches it.
func (s *Scanner) ScanImage(ctx context.Context, img models.ImagePayload) (*models.ScanRecord, error) {
	s.logger.Info("[scan] Identifying product from %s image", img.MIMEType)
	product, err := s.identify(ctx, "identify-image", func(ctx context.Context) (*models.ProductInfo, error) {
		return s.backend.IdentifyImage(ctx, img)
	})
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, *product)
}

// ScanQuery identifies the product a URL or search text refers to and
// enriches it.
func (s *Scanner) ScanQuery(ctx context.Context, query string) (*models.ScanRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", models.ErrIdentification)
	}

	s.logger.Info("[scan] Identifying product from query %q", query)
	page := s.snapshot(ctx, query)
	product, err := s.identify(ctx, "identify-query", func(ctx context.Context) (*models.ProductInfo, error) {
		return s.backend.IdentifyQuery(ctx, query, page)
	})
	if err != nil {
		return nil, err
	}
	if product.ImageURL == "" && page != nil {
		product.ImageURL = page.ImageURL
	}
	return s.enrich(ctx, *product)
}

// ScanInput is one item of a batch: a query, or an image when Image is set.
type ScanInput struct {
	Query string
	Image *models.ImagePayload
}

// ScanResult pairs a batch input with its outcome.
type ScanResult struct {
	Input  ScanInput
	Record *models.ScanRecord
	Err    error
}

// ScanBatch scans inputs through the rate-limited worker pool. Results come
// back in input order; an input that never started carries ctx's error.
func (s *Scanner) ScanBatch(ctx context.Context, inputs []ScanInput) []ScanResult {
	results := make([]ScanResult, len(inputs))
	for i, in := range inputs {
		results[i] = ScanResult{Input: in}
	}

	for i := range inputs {
		i := i
		err := s.pool.Submit(ctx, func(ctx context.Context) {
			in := inputs[i]
			if in.Image != nil {
				results[i].Record, results[i].Err = s.ScanImage(ctx, *in.Image)
			} else {
				results[i].Record, results[i].Err = s.ScanQuery(ctx, in.Query)
			}
		})
		if err != nil {
			for j := i; j < len(inputs); j++ {
				results[j].Err = err
			}
			break
		}
	}
	s.pool.Wait()

	// Jobs whose slot was acquired but whose start was cancelled never ran.
	for i := range results {
		if results[i].Record == nil && results[i].Err == nil {
			results[i].Err = ctx.Err()
		}
	}
	return results
}

func (s *Scanner) identify(ctx context.Context, op string, call func(ctx context.Context) (*models.ProductInfo, error)) (*models.ProductInfo, error) {
	var product *models.ProductInfo
	err := s.retry.Do(ctx, op, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.identifyTimeout)
		defer cancel()

		p, err := call(callCtx)
		if err != nil {
			return err
		}
		if p == nil {
			return errors.New("no product returned")
		}
		if err := models.Validate(p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		s.logger.Error("[scan] %s failed: %v", op, err)
		return nil, fmt.Errorf("%w: %v", models.ErrIdentification, err)
	}

	s.logger.Info("[scan] Identified %s %s (%s)", product.Brand, product.Name, product.Category)
	return product, nil
}

// enrich runs the three analysis branches concurrently and merges them. A
// failed branch is replaced by its neutral value and named in Degraded. If
// ctx itself ends, no record is built.
func (s *Scanner) enrich(ctx context.Context, product models.ProductInfo) (*models.ScanRecord, error) {
	var (
		auth     models.AuthenticityResult
		reviews  models.ReviewAnalysis
		deals    []models.PriceDeal
		authErr  error
		revErr   error
		dealsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		authErr = s.runBranch(gctx, models.BranchAuthenticity, func(ctx context.Context) error {
			r, err := s.backend.CheckAuthenticity(ctx, product)
			if err != nil {
				return err
			}
			if r == nil {
				return errors.New("no result returned")
			}
			if err := models.Validate(r); err != nil {
				return err
			}
			auth = *r
			return nil
		})
		return nil
	})
	g.Go(func() error {
		revErr = s.runBranch(gctx, models.BranchReviews, func(ctx context.Context) error {
			r, err := s.backend.AnalyzeReviews(ctx, product.Name)
			if err != nil {
				return err
			}
			if r == nil {
				return errors.New("no result returned")
			}
			if err := models.Validate(r); err != nil {
				return err
			}
			reviews = *r
			return nil
		})
		return nil
	})
	g.Go(func() error {
		dealsErr = s.runBranch(gctx, models.BranchDeals, func(ctx context.Context) error {
			sources, err := s.backend.SearchPrices(ctx, product.Name)
			if err != nil {
				return err
			}
			deals = s.deals.Extract(sources)
			return nil
		})
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.logger.Warn("[scan] Scan of %s abandoned: %v", product.Name, err)
		return nil, err
	}

	var degraded []string
	if authErr != nil {
		auth = neutralAuthenticity()
		degraded = append(degraded, models.BranchAuthenticity)
	}
	if revErr != nil {
		reviews = neutralReviews()
		degraded = append(degraded, models.BranchReviews)
	}
	if dealsErr != nil || deals == nil {
		deals = []models.PriceDeal{}
	}
	if dealsErr != nil {
		degraded = append(degraded, models.BranchDeals)
	}

	rec := &models.ScanRecord{
		ID:           newID(),
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
		Product:      product,
		Authenticity: auth,
		Reviews:      reviews,
		Deals:        deals,
		Degraded:     degraded,
	}

	s.logger.Info("[scan] Scan %s complete: score %.0f (%s), %d deals, degraded=%v",
		rec.ID, rec.Authenticity.Score, rec.Authenticity.Verdict, len(rec.Deals), degraded)
	return rec, nil
}

// runBranch retries one enrichment call under its own timeout and logs a
// final failure as ErrEnrichment.
func (s *Scanner) runBranch(ctx context.Context, branch string, fn func(ctx context.Context) error) error {
	err := s.retry.Do(ctx, branch, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
		defer cancel()
		return fn(callCtx)
	})
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", models.ErrEnrichment, branch, err)
		s.logger.Warn("[scan] %v; using neutral value", err)
	}
	return err
}

// snapshot renders query when it is an http(s) URL and a renderer is set.
// Failures are logged and the scan continues with the raw query.
func (s *Scanner) snapshot(ctx context.Context, query string) *models.PageSnapshot {
	if s.renderer == nil || !isWebURL(query) {
		return nil
	}
	page, err := s.renderer.Snapshot(ctx, query)
	if err != nil {
		s.logger.Warn("[scan] Page render failed for %s: %v", query, err)
		return nil
	}
	return page
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// newID returns a time-ordered UUIDv7, falling back to a random UUID.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
