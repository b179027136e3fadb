// Package scrape builds scraping workflows on top of the browser client:
// single-page extraction with selector fallbacks, rate-limited batch runs,
// pagination and JSON/CSV export.
package scrape

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/oops"
	"golang.org/x/time/rate"

	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/pkg/bassethound"
)

var log = logger.Get()

// contentSelectors is the fallback chain tried for the main content of a
// page, most specific first.
var contentSelectors = []string{
	"article",
	`[role="main"]`,
	"main",
	".content",
	".article-body",
	"body",
}

const previewLimit = 500

// metadataScript collects the page's meta tags and link counts in one
// round trip.
const metadataScript = `({
    description: document.querySelector('meta[name="description"]')?.content || '',
    keywords: document.querySelector('meta[name="keywords"]')?.content || '',
    author: document.querySelector('meta[name="author"]')?.content || '',
    canonical: document.querySelector('link[rel="canonical"]')?.href || '',
    ogTitle: document.querySelector('meta[property="og:title"]')?.content || '',
    ogDescription: document.querySelector('meta[property="og:description"]')?.content || '',
    ogImage: document.querySelector('meta[property="og:image"]')?.content || '',
    linkCount: document.querySelectorAll('a').length,
    externalLinkCount: Array.from(document.querySelectorAll('a'))
        .filter(a => (a.getAttribute('href') || '').startsWith('http')).length
})`

const nextLinkScript = `const nextLink = document.querySelector(%q);
nextLink ? nextLink.href : null;`

// Record is the outcome of scraping one page. A failed page still yields a
// record, with Success false and the error message set.
type Record struct {
	URL               string    `json:"url"`
	Title             string    `json:"title,omitempty"`
	ContentLength     int       `json:"content_length"`
	ContentPreview    string    `json:"content_preview,omitempty"`
	Description       string    `json:"description,omitempty"`
	Keywords          string    `json:"keywords,omitempty"`
	Author            string    `json:"author,omitempty"`
	Canonical         string    `json:"canonical,omitempty"`
	OGTitle           string    `json:"og_title,omitempty"`
	OGDescription     string    `json:"og_description,omitempty"`
	OGImage           string    `json:"og_image,omitempty"`
	LinkCount         int       `json:"link_count"`
	ExternalLinkCount int       `json:"external_link_count"`
	Screenshot        string    `json:"screenshot,omitempty"`
	ScrapedAt         time.Time `json:"scraped_at"`
	Success           bool      `json:"success"`
	Error             string    `json:"error,omitempty"`
}

// ScrapeError records one failed page for the export error list.
type ScrapeError struct {
	URL       string    `json:"url"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type pageMetadata struct {
	Description       string `json:"description"`
	Keywords          string `json:"keywords"`
	Author            string `json:"author"`
	Canonical         string `json:"canonical"`
	OGTitle           string `json:"ogTitle"`
	OGDescription     string `json:"ogDescription"`
	OGImage           string `json:"ogImage"`
	LinkCount         int    `json:"linkCount"`
	ExternalLinkCount int    `json:"externalLinkCount"`
}

// Scraper drives scraping workflows over a connected client and
// accumulates results for export.
type Scraper struct {
	client  *bassethound.Client
	limiter *rate.Limiter
	shotDir string
	settle  time.Duration

	mu     sync.Mutex
	data   []Record
	errors []ScrapeError
}

// Option adjusts a Scraper.
type Option func(*Scraper)

// WithRateLimit sets the minimum interval between pages in Run and
// Paginate. Defaults to 2s.
func WithRateLimit(interval time.Duration) Option {
	return func(s *Scraper) {
		s.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithScreenshotDir makes every scraped page leave a screenshot in dir.
// Disabled by default.
func WithScreenshotDir(dir string) Option {
	return func(s *Scraper) {
		s.shotDir = dir
	}
}

// WithSettle pauses for d after each navigation so slow pages can finish
// rendering. No pause by default.
func WithSettle(d time.Duration) Option {
	return func(s *Scraper) {
		s.settle = d
	}
}

// New returns a Scraper driving client.
func New(client *bassethound.Client, opts ...Option) *Scraper {
	s := &Scraper{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Records returns a copy of everything scraped so far.
func (s *Scraper) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.data))
	copy(out, s.data)
	return out
}

// Errors returns a copy of the failures recorded so far.
func (s *Scraper) Errors() []ScrapeError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScrapeError, len(s.errors))
	copy(out, s.errors)
	return out
}

// Page scrapes a single URL. Failures are captured in the record rather
// than returned, so a bad page never aborts a batch.
func (s *Scraper) Page(ctx context.Context, url string) *Record {
	log.WithField("url", url).Info("scraping page")
	rec := s.scrape(ctx, url)

	s.mu.Lock()
	s.data = append(s.data, *rec)
	if !rec.Success {
		s.errors = append(s.errors, ScrapeError{URL: url, Error: rec.Error, Timestamp: rec.ScrapedAt})
	}
	s.mu.Unlock()
	return rec
}

func (s *Scraper) scrape(ctx context.Context, url string) *Record {
	rec := &Record{URL: url, ScrapedAt: time.Now()}
	fail := func(err error) *Record {
		log.WithError(err).WithField("url", url).Error("failed to scrape page")
		rec.Error = err.Error()
		return rec
	}

	if _, err := s.client.Navigate(ctx, url, bassethound.WithWaitFor("body")); err != nil {
		return fail(err)
	}
	if err := settle(ctx, s.settle); err != nil {
		return fail(err)
	}

	state, err := s.client.PageState(ctx)
	if err != nil {
		return fail(err)
	}
	rec.Title = state.Title

	var text string
	for _, selector := range contentSelectors {
		content, err := s.client.Content(ctx, selector)
		if err != nil {
			log.WithField("selector", selector).WithError(err).Debug("content selector failed")
			continue
		}
		if content.Content != "" {
			text = content.Content
			log.WithField("selector", selector).Debug("extracted content")
			break
		}
	}
	rec.ContentLength = len(text)
	rec.ContentPreview = preview(text, previewLimit)

	var meta pageMetadata
	if err := s.client.ExecuteScriptInto(ctx, metadataScript, &meta); err != nil {
		return fail(err)
	}
	rec.Description = meta.Description
	rec.Keywords = meta.Keywords
	rec.Author = meta.Author
	rec.Canonical = meta.Canonical
	rec.OGTitle = meta.OGTitle
	rec.OGDescription = meta.OGDescription
	rec.OGImage = meta.OGImage
	rec.LinkCount = meta.LinkCount
	rec.ExternalLinkCount = meta.ExternalLinkCount

	if s.shotDir != "" {
		shot, err := s.client.Screenshot(ctx)
		if err != nil {
			return fail(err)
		}
		path := filepath.Join(s.shotDir, fmt.Sprintf("scrape_%d.png", time.Now().UnixNano()))
		if err := shot.WriteFile(path); err != nil {
			return fail(err)
		}
		rec.Screenshot = path
	}

	rec.Success = true
	log.WithField("title", rec.Title).Debug("page scraped")
	return rec
}

// Run scrapes urls in order, pacing requests through the rate limiter.
// Per-page failures are collected in their records; the returned error is
// only ever the context's.
func (s *Scraper) Run(ctx context.Context, urls []string) ([]Record, error) {
	total := len(urls)
	log.WithField("urls", total).Info("starting scrape run")

	records := make([]Record, 0, total)
	for i, url := range urls {
		if err := s.limiter.Wait(ctx); err != nil {
			return records, oops.Wrapf(err, "rate limit wait")
		}
		log.WithField("n", i+1).WithField("of", total).WithField("url", url).Debug("processing url")
		records = append(records, *s.Page(ctx, url))
	}

	successful := 0
	for _, r := range records {
		if r.Success {
			successful++
		}
	}
	log.WithField("total", total).
		WithField("successful", successful).
		WithField("failed", total-successful).
		Info("scrape run finished")
	return records, nil
}

// Paginate scrapes from startURL following the link behind nextSelector,
// up to maxPages (default 10). It stops when the link is missing or points
// at the current page.
func (s *Scraper) Paginate(ctx context.Context, startURL, nextSelector string, maxPages int) ([]Record, error) {
	if maxPages <= 0 {
		maxPages = 10
	}
	log.WithField("url", startURL).
		WithField("selector", nextSelector).
		WithField("max_pages", maxPages).
		Info("starting pagination scrape")

	records := make([]Record, 0, maxPages)
	current := startURL
	for page := 1; current != "" && page <= maxPages; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return records, oops.Wrapf(err, "rate limit wait")
		}
		log.WithField("page", page).WithField("of", maxPages).Debug("scraping page")
		records = append(records, *s.Page(ctx, current))

		var next *string
		if err := s.client.ExecuteScriptInto(ctx, fmt.Sprintf(nextLinkScript, nextSelector), &next); err != nil {
			log.WithError(err).Warn("failed to find next page")
			break
		}
		if next == nil || *next == "" || *next == current {
			log.Debug("no more pages found")
			break
		}
		current = *next
	}

	log.WithField("pages", len(records)).Info("pagination scrape finished")
	return records, nil
}

// preview cuts text to at most limit runes.
func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// settle sleeps for d unless the context ends first.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
