// Package product renders product pages in headless Chrome so URL queries
// can be identified from what the page actually shows.
package product

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"veribuy/config"
	"veribuy/models"
	"veribuy/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// metaScript reads the title, description and preview image a shop page
// advertises for link previews.
const metaScript = `
	(function() {
		function meta(sel) {
			var el = document.querySelector(sel);
			return el ? (el.getAttribute('content') || '').trim() : '';
		}
		return {
			title: meta('meta[property="og:title"]') || document.title || '',
			description: meta('meta[property="og:description"]') || meta('meta[name="description"]'),
			image: meta('meta[property="og:image"]') || meta('meta[name="twitter:image"]')
		};
	})()
`

type pageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Renderer opens product URLs in headless Chrome.
type Renderer struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// New creates a Renderer. The browser is started per snapshot.
func New(cfg *config.Config, logger *utils.Logger) *Renderer {
	return &Renderer{
		chromeBin: findChromeBinary(cfg.ChromeBin),
		timeout:   cfg.PageTimeout,
		logger:    logger.With("component", "renderer"),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			Logger:      logger,
		},
	}
}

// Snapshot loads pageURL and captures its preview metadata.
func (r *Renderer) Snapshot(ctx context.Context, pageURL string) (*models.PageSnapshot, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if r.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(r.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	var meta pageMeta
	err := r.retry.Do(ctx, "render-page", func(context.Context) error {
		tabCtx, cancelTab := chromedp.NewContext(browserCtx)
		defer cancelTab()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Evaluate(metaScript, &meta),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	snap := snapshotFromMeta(pageURL, meta)
	r.logger.Debug("[render] %s -> title %q, image %q", pageURL, snap.Title, snap.ImageURL)
	return snap, nil
}

// snapshotFromMeta cleans captured metadata and resolves a relative preview
// image against the page URL.
func snapshotFromMeta(pageURL string, m pageMeta) *models.PageSnapshot {
	snap := &models.PageSnapshot{
		URL:         pageURL,
		Title:       strings.Join(strings.Fields(m.Title), " "),
		Description: strings.Join(strings.Fields(m.Description), " "),
	}

	img := strings.TrimSpace(m.Image)
	if img == "" {
		return snap
	}
	ref, err := url.Parse(img)
	if err != nil {
		return snap
	}
	if base, err := url.Parse(pageURL); err == nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme == "http" || ref.Scheme == "https" {
		snap.ImageURL = ref.String()
	}
	return snap
}

// findChromeBinary prefers the configured path, then $PATH, then well-known
// install locations. Empty means let chromedp decide.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
