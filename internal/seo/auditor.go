// Package seo audits pages through the browser client: meta tags, heading
// structure, images, links, performance and structured data, each scored
// and rolled up into an overall report.
package seo

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/samber/oops"

	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/pkg/bassethound"
)

var log = logger.Get()

// Auditor runs SEO audits over a connected client.
type Auditor struct {
	client  *bassethound.Client
	shotDir string
	settle  time.Duration
}

// Option adjusts an Auditor.
type Option func(*Auditor)

// WithScreenshotDir makes RunFull leave a screenshot of the audited page
// in dir. Disabled by default.
func WithScreenshotDir(dir string) Option {
	return func(a *Auditor) {
		a.shotDir = dir
	}
}

// WithSettle pauses for d after navigation so the page can finish loading
// before the probes run. No pause by default.
func WithSettle(d time.Duration) Option {
	return func(a *Auditor) {
		a.settle = d
	}
}

// New returns an Auditor driving client.
func New(client *bassethound.Client, opts ...Option) *Auditor {
	a := &Auditor{client: client}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AuditMetaTags checks title, description, canonical, Open Graph and
// viewport tags.
func (a *Auditor) AuditMetaTags(ctx context.Context) (*MetaSection, error) {
	log.Debug("auditing meta tags")

	var meta MetaTags
	if err := a.client.ExecuteScriptInto(ctx, metaTagsScript, &meta); err != nil {
		return nil, oops.Wrapf(err, "meta tag probe")
	}

	var issues, recs []string
	switch {
	case meta.Title == "":
		issues = append(issues, "Missing page title")
	case meta.TitleLength < 30:
		recs = append(recs, fmt.Sprintf("Title is too short (%d chars). Recommended: 50-60 chars", meta.TitleLength))
	case meta.TitleLength > 60:
		recs = append(recs, fmt.Sprintf("Title is too long (%d chars). Recommended: 50-60 chars", meta.TitleLength))
	}
	switch {
	case meta.Description == "":
		issues = append(issues, "Missing meta description")
	case meta.DescriptionLength < 120:
		recs = append(recs, fmt.Sprintf("Description is too short (%d chars). Recommended: 150-160 chars", meta.DescriptionLength))
	case meta.DescriptionLength > 160:
		recs = append(recs, fmt.Sprintf("Description is too long (%d chars). Recommended: 150-160 chars", meta.DescriptionLength))
	}
	if meta.Canonical == "" {
		recs = append(recs, "Consider adding canonical URL")
	}
	if meta.OG.Title == "" {
		recs = append(recs, "Missing Open Graph title")
	}
	if meta.OG.Description == "" {
		recs = append(recs, "Missing Open Graph description")
	}
	if meta.OG.Image == "" {
		recs = append(recs, "Missing Open Graph image")
	}
	if meta.Viewport == "" {
		issues = append(issues, "Missing viewport meta tag (mobile responsiveness)")
	}

	return &MetaSection{
		MetaTags:        meta,
		Issues:          issues,
		Recommendations: recs,
		Score:           clampScore(100 - len(issues)*15 - len(recs)*5),
	}, nil
}

// AuditHeadings checks the H1-H6 structure.
func (a *Auditor) AuditHeadings(ctx context.Context) (*HeadingSection, error) {
	log.Debug("auditing heading structure")

	var headers HeadingStats
	if err := a.client.ExecuteScriptInto(ctx, headingsScript, &headers); err != nil {
		return nil, oops.Wrapf(err, "heading probe")
	}

	var issues, recs []string
	switch {
	case headers.H1Count == 0:
		issues = append(issues, "No H1 heading found")
	case headers.H1Count > 1:
		issues = append(issues, fmt.Sprintf("Multiple H1 headings found (%d). Should have exactly one H1", headers.H1Count))
	}
	if headers.H1Count == 0 && headers.H2Count > 0 {
		recs = append(recs, "H2 used without H1 (breaks header hierarchy)")
	}

	return &HeadingSection{
		Headers:         headers,
		Issues:          issues,
		Recommendations: recs,
		Score:           clampScore(100 - len(issues)*20 - len(recs)*5),
	}, nil
}

// AuditImages checks alt text coverage and lazy loading.
func (a *Auditor) AuditImages(ctx context.Context) (*ImageSection, error) {
	log.Debug("auditing images")

	var probe imageProbe
	if err := a.client.ExecuteScriptInto(ctx, imagesScript, &probe); err != nil {
		return nil, oops.Wrapf(err, "image probe")
	}

	var issues, recs []string
	if probe.ImagesWithoutAlt > 0 {
		issues = append(issues, fmt.Sprintf("%d images missing alt text", probe.ImagesWithoutAlt))
	}
	if probe.TotalImages > 3 && probe.LazyLoadedImages == 0 {
		recs = append(recs, "Consider implementing lazy loading for images")
	}

	var missingAlt []string
	for _, img := range probe.Images {
		if !img.HasAlt {
			missingAlt = append(missingAlt, img.Src)
			if len(missingAlt) == 10 {
				break
			}
		}
	}

	return &ImageSection{
		Summary: ImageSummary{
			Total:      probe.TotalImages,
			WithAlt:    probe.ImagesWithAlt,
			WithoutAlt: probe.ImagesWithoutAlt,
			LazyLoaded: probe.LazyLoadedImages,
		},
		MissingAltSamples: missingAlt,
		Issues:            issues,
		Recommendations:   recs,
		Score:             clampScore(100 - probe.ImagesWithoutAlt*5),
	}, nil
}

// AuditLinks checks the internal/external split, noopener usage, textless
// links and broken link candidates. baseURL decides which host counts as
// internal.
func (a *Auditor) AuditLinks(ctx context.Context, baseURL string) (*LinkSection, error) {
	log.Debug("auditing links")

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, oops.Wrapf(err, "parse base url %s", baseURL)
	}

	var stats LinkStats
	script := fmt.Sprintf(linksScriptTpl, u.Host)
	if err := a.client.ExecuteScriptInto(ctx, script, &stats); err != nil {
		return nil, oops.Wrapf(err, "link probe")
	}

	var issues, recs []string
	if stats.ExternalWithoutNoopener > 0 {
		issues = append(issues, fmt.Sprintf(
			"%d external links opening in new tab without rel=\"noopener\" (security issue)",
			stats.ExternalWithoutNoopener))
	}
	if stats.LinksWithoutText > 0 {
		issues = append(issues, fmt.Sprintf("%d links without text (accessibility issue)", stats.LinksWithoutText))
	}
	if stats.BrokenLinkCandidates > 0 {
		recs = append(recs, fmt.Sprintf("%d potential broken/empty links", stats.BrokenLinkCandidates))
	}

	return &LinkSection{
		Summary:         stats,
		Issues:          issues,
		Recommendations: recs,
		Score:           clampScore(100 - len(issues)*15 - len(recs)*5),
	}, nil
}

// AuditPerformance checks load time, script count and transfer size
// against their targets.
func (a *Auditor) AuditPerformance(ctx context.Context) (*PerfSection, error) {
	log.Debug("auditing performance")

	var metrics PerfMetrics
	if err := a.client.ExecuteScriptInto(ctx, performanceScript, &metrics); err != nil {
		return nil, oops.Wrapf(err, "performance probe")
	}

	var recs []string
	if loadSec := metrics.LoadTime / 1000; loadSec > 3 {
		recs = append(recs, fmt.Sprintf("Page load time is slow (%.2fs). Target: < 3s", loadSec))
	}
	if metrics.ScriptCount > 10 {
		recs = append(recs, fmt.Sprintf("High number of scripts (%d). Consider bundling", metrics.ScriptCount))
	}
	if totalMB := float64(metrics.TotalSize) / (1 << 20); totalMB > 2 {
		recs = append(recs, fmt.Sprintf("Large page size (%.2fMB). Consider optimization", totalMB))
	}

	return &PerfSection{
		Metrics:         metrics,
		Recommendations: recs,
		Score:           clampScore(100 - len(recs)*10),
	}, nil
}

// AuditStructuredData checks for JSON-LD blocks.
func (a *Auditor) AuditStructuredData(ctx context.Context) (*StructuredSection, error) {
	log.Debug("auditing structured data")

	var sd StructuredData
	if err := a.client.ExecuteScriptInto(ctx, structuredDataScript, &sd); err != nil {
		return nil, oops.Wrapf(err, "structured data probe")
	}

	section := &StructuredSection{StructuredData: sd, Score: 100}
	if !sd.HasJSONLD {
		section.Recommendations = append(section.Recommendations,
			"No structured data found. Consider adding JSON-LD for better search visibility")
		section.Score = 50
	}
	return section, nil
}

// RunFull navigates to url and runs every audit. The overall score is the
// mean of the six section scores.
func (a *Auditor) RunFull(ctx context.Context, pageURL string) (*Report, error) {
	log.WithField("url", pageURL).Info("starting seo audit")

	if _, err := a.client.Navigate(ctx, pageURL); err != nil {
		return nil, oops.Wrapf(err, "navigate to %s", pageURL)
	}
	if err := settle(ctx, a.settle); err != nil {
		return nil, err
	}

	report := &Report{URL: pageURL, AuditedAt: time.Now()}
	var err error
	if report.MetaTags, err = a.AuditMetaTags(ctx); err != nil {
		return nil, err
	}
	if report.Headers, err = a.AuditHeadings(ctx); err != nil {
		return nil, err
	}
	if report.Images, err = a.AuditImages(ctx); err != nil {
		return nil, err
	}
	if report.Links, err = a.AuditLinks(ctx, pageURL); err != nil {
		return nil, err
	}
	if report.Performance, err = a.AuditPerformance(ctx); err != nil {
		return nil, err
	}
	if report.StructuredData, err = a.AuditStructuredData(ctx); err != nil {
		return nil, err
	}

	total := report.MetaTags.Score + report.Headers.Score + report.Images.Score +
		report.Links.Score + report.Performance.Score + report.StructuredData.Score
	report.OverallScore = float64(total) / 6

	if a.shotDir != "" {
		shot, err := a.client.Screenshot(ctx)
		if err != nil {
			return nil, oops.Wrapf(err, "audit screenshot")
		}
		path := filepath.Join(a.shotDir, fmt.Sprintf("seo_audit_%d.png", time.Now().UnixNano()))
		if err := shot.WriteFile(path); err != nil {
			return nil, oops.Wrapf(err, "write screenshot")
		}
		report.Screenshot = path
	}

	log.WithField("url", pageURL).
		WithField("overall", report.OverallScore).
		Info("seo audit finished")
	return report, nil
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	return s
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
