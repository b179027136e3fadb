package seo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basset-hound/automation/internal/fakeext"
	"github.com/basset-hound/automation/internal/seo"
	"github.com/basset-hound/automation/pkg/bassethound"
)

func newAuditor(t *testing.T, opts ...seo.Option) (*seo.Auditor, *fakeext.Server) {
	t.Helper()
	srv := fakeext.New()
	t.Cleanup(srv.Close)

	client, err := bassethound.Dial(context.Background(), srv.URL())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return seo.New(client, opts...), srv
}

func perfectMeta() map[string]interface{} {
	return map[string]interface{}{
		"title":             "A Perfectly Reasonable Page Title Right Here",
		"titleLength":       44,
		"description":       strings.Repeat("d", 140),
		"descriptionLength": 140,
		"keywords":          "go,seo",
		"canonical":         "https://site.test/page",
		"robots":            "index,follow",
		"og": map[string]interface{}{
			"title":       "OG Title",
			"description": "OG description",
			"image":       "https://site.test/og.png",
			"url":         "https://site.test/page",
			"type":        "website",
		},
		"twitter": map[string]interface{}{
			"card": "summary", "title": "", "description": "", "image": "",
		},
		"viewport": "width=device-width, initial-scale=1",
		"charset":  "utf-8",
	}
}

// stubCleanPage wires all six probes to findings-free payloads.
func stubCleanPage(srv *fakeext.Server) {
	page := srv.Page()
	page.StubScript("metaTags", perfectMeta())
	page.StubScript("h1Count", map[string]interface{}{
		"h1": []map[string]interface{}{{"text": "Welcome", "length": 7}},
		"h2": []map[string]interface{}{{"text": "Details", "length": 7}},
		"h1Count": 1, "h2Count": 1, "h3Count": 0, "h4Count": 0, "h5Count": 0, "h6Count": 0,
	})
	page.StubScript("imagesWithoutAlt", map[string]interface{}{
		"images":      []map[string]interface{}{{"src": "https://site.test/a.png", "alt": "a", "hasAlt": true, "loading": "lazy"}},
		"totalImages": 1, "imagesWithAlt": 1, "imagesWithoutAlt": 0, "lazyLoadedImages": 1,
	})
	page.StubScript("externalWithoutNoopener", map[string]interface{}{
		"totalLinks": 10, "internalLinks": 7, "externalLinks": 3,
		"linksWithoutText": 0, "externalWithoutNoopener": 0, "brokenLinkCandidates": 0,
	})
	page.StubScript("transferSize", map[string]interface{}{
		"loadTime": 1200, "domContentLoaded": 600, "resourceCount": 18,
		"totalSize": 480000, "scriptCount": 5, "cssCount": 2, "imageCount": 6, "fontCount": 1,
	})
	page.StubScript("ld+json", map[string]interface{}{
		"hasJsonLd": true, "jsonLdCount": 1, "jsonLdTypes": []string{"Article"},
	})
}

func TestAuditMetaTagsClean(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	srv.Page().StubScript("metaTags", perfectMeta())

	section, err := a.AuditMetaTags(ctx)
	require.NoError(t, err)
	require.Empty(t, section.Issues)
	require.Empty(t, section.Recommendations)
	require.Equal(t, 100, section.Score)
	require.Equal(t, "OG Title", section.MetaTags.OG.Title)
}

func TestAuditMetaTagsFindings(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	srv.Page().StubScript("metaTags", map[string]interface{}{
		"title": "", "titleLength": 0,
		"description": strings.Repeat("d", 50), "descriptionLength": 50,
		"canonical": "", "viewport": "",
		"og": map[string]interface{}{"title": "", "description": "", "image": ""},
	})

	section, err := a.AuditMetaTags(ctx)
	require.NoError(t, err)
	// Missing title and viewport are issues; short description, canonical
	// and the three OG tags are recommendations.
	require.Len(t, section.Issues, 2)
	require.Len(t, section.Recommendations, 5)
	require.Equal(t, 45, section.Score)
	require.Contains(t, section.Issues, "Missing page title")
	require.Contains(t, section.Recommendations, "Consider adding canonical URL")
}

func TestAuditHeadings(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	srv.Page().StubScript("h1Count", map[string]interface{}{
		"h1": []map[string]interface{}{}, "h2": []map[string]interface{}{{"text": "Section", "length": 7}},
		"h1Count": 0, "h2Count": 1,
	})

	section, err := a.AuditHeadings(ctx)
	require.NoError(t, err)
	require.Contains(t, section.Issues, "No H1 heading found")
	require.Contains(t, section.Recommendations, "H2 used without H1 (breaks header hierarchy)")
	require.Equal(t, 75, section.Score)
}

func TestAuditHeadingsMultipleH1(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	srv.Page().StubScript("h1Count", map[string]interface{}{"h1Count": 2})

	section, err := a.AuditHeadings(ctx)
	require.NoError(t, err)
	require.Len(t, section.Issues, 1)
	require.Contains(t, section.Issues[0], "Multiple H1 headings found (2)")
	require.Equal(t, 80, section.Score)
}

func TestAuditImages(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	srv.Page().StubScript("imagesWithoutAlt", map[string]interface{}{
		"images": []map[string]interface{}{
			{"src": "https://site.test/1.png", "hasAlt": true},
			{"src": "https://site.test/2.png", "hasAlt": false},
			{"src": "https://site.test/3.png", "hasAlt": false},
			{"src": "https://site.test/4.png", "hasAlt": true},
		},
		"totalImages": 4, "imagesWithAlt": 2, "imagesWithoutAlt": 2, "lazyLoadedImages": 0,
	})

	section, err := a.AuditImages(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, section.Summary.Total)
	require.Equal(t, 2, section.Summary.WithoutAlt)
	require.Contains(t, section.Issues, "2 images missing alt text")
	require.Contains(t, section.Recommendations, "Consider implementing lazy loading for images")
	require.Equal(t, []string{"https://site.test/2.png", "https://site.test/3.png"}, section.MissingAltSamples)
	require.Equal(t, 90, section.Score)
}

func TestAuditLinks(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	srv.Page().StubScript("externalWithoutNoopener", map[string]interface{}{
		"totalLinks": 20, "internalLinks": 12, "externalLinks": 8,
		"linksWithoutText": 2, "externalWithoutNoopener": 1, "brokenLinkCandidates": 3,
	})

	section, err := a.AuditLinks(ctx, "https://site.test/page")
	require.NoError(t, err)
	require.Len(t, section.Issues, 2)
	require.Len(t, section.Recommendations, 1)
	require.Equal(t, 65, section.Score)
	require.Equal(t, 8, section.Summary.ExternalLinks)
}

func TestAuditPerformanceSlow(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	srv.Page().StubScript("transferSize", map[string]interface{}{
		"loadTime": 4500, "resourceCount": 80,
		"totalSize": 3 * 1024 * 1024, "scriptCount": 15,
	})

	section, err := a.AuditPerformance(ctx)
	require.NoError(t, err)
	require.Len(t, section.Recommendations, 3)
	require.Equal(t, 70, section.Score)
	require.Contains(t, section.Recommendations[0], "Page load time is slow (4.50s)")
}

func TestAuditStructuredData(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	srv.Page().StubScript("ld+json", map[string]interface{}{
		"hasJsonLd": false, "jsonLdCount": 0, "jsonLdTypes": []string{},
	})

	section, err := a.AuditStructuredData(ctx)
	require.NoError(t, err)
	require.Equal(t, 50, section.Score)
	require.Len(t, section.Recommendations, 1)
}

func TestRunFull(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a, srv := newAuditor(t, seo.WithScreenshotDir(dir))
	stubCleanPage(srv)

	report, err := a.RunFull(ctx, "https://site.test/page")
	require.NoError(t, err)

	require.Equal(t, "https://site.test/page", report.URL)
	require.Equal(t, "https://site.test/page", srv.Page().CurrentURL())
	require.False(t, report.AuditedAt.IsZero())
	require.Equal(t, float64(100), report.OverallScore)

	require.NotEmpty(t, report.Screenshot)
	data, err := os.ReadFile(report.Screenshot)
	require.NoError(t, err)
	require.Equal(t, fakeext.TinyPNG(), data)
}

func TestRunFullAveragesScores(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	stubCleanPage(srv)
	// Stubs match in registration order, so the structured data override
	// has to go in at the handler level.
	srv.Handle(bassethound.CmdExecuteScript, scriptDispatcher(map[string]interface{}{
		"hasJsonLd": false, "jsonLdCount": 0, "jsonLdTypes": []string{},
	}))

	report, err := a.RunFull(ctx, "https://site.test/page")
	require.NoError(t, err)
	require.Equal(t, 50, report.StructuredData.Score)
	require.InDelta(t, 91.67, report.OverallScore, 0.01)
}

// scriptDispatcher answers every probe, serving override for the
// structured data one.
func scriptDispatcher(override interface{}) fakeext.HandlerFunc {
	return func(_ *fakeext.Page, params json.RawMessage) (interface{}, error) {
		var p struct {
			Script string `json:"script"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if strings.Contains(p.Script, "ld+json") {
			return override, nil
		}
		switch {
		case strings.Contains(p.Script, "metaTags"):
			return perfectMeta(), nil
		case strings.Contains(p.Script, "h1Count"):
			return map[string]interface{}{"h1Count": 1}, nil
		case strings.Contains(p.Script, "imagesWithoutAlt"):
			return map[string]interface{}{"totalImages": 0}, nil
		case strings.Contains(p.Script, "externalWithoutNoopener"):
			return map[string]interface{}{"totalLinks": 0}, nil
		case strings.Contains(p.Script, "transferSize"):
			return map[string]interface{}{"loadTime": 900}, nil
		}
		return map[string]interface{}{}, nil
	}
}

func TestRenderReport(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	stubCleanPage(srv)

	report, err := a.RunFull(ctx, "https://site.test/page")
	require.NoError(t, err)

	var buf bytes.Buffer
	report.Render(&buf)
	out := buf.String()

	require.Contains(t, out, "SEO AUDIT REPORT")
	require.Contains(t, out, "URL: https://site.test/page")
	require.Contains(t, out, "1. META TAGS")
	require.Contains(t, out, "6. STRUCTURED DATA")
	require.Contains(t, out, "Types: Article")
}

func TestSaveJSON(t *testing.T) {
	ctx := context.Background()
	a, srv := newAuditor(t)
	stubCleanPage(srv)

	report, err := a.RunFull(ctx, "https://site.test/page")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "audit.json")
	require.NoError(t, report.SaveJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded seo.Report
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Equal(t, report.URL, loaded.URL)
	require.Equal(t, report.OverallScore, loaded.OverallScore)
	require.Equal(t, 100, loaded.MetaTags.Score)
}
