package seo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/oops"
)

const ruleWidth = 60

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true)
	ruleStyle    = lipgloss.NewStyle().Faint(true)
	issueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	scoreGood = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	scoreWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	scoreBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func rule(ch string) string {
	return ruleStyle.Render(strings.Repeat(ch, ruleWidth))
}

func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 80:
		return scoreGood
	case score >= 50:
		return scoreWarn
	default:
		return scoreBad
	}
}

// Render writes a human readable audit report to w.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, rule("="))
	fmt.Fprintln(w, bannerStyle.Render("SEO AUDIT REPORT"))
	fmt.Fprintln(w, rule("="))
	fmt.Fprintf(w, "URL: %s\n", r.URL)
	fmt.Fprintf(w, "Audited: %s\n", r.AuditedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Overall Score: %s\n",
		scoreStyle(r.OverallScore).Render(fmt.Sprintf("%.1f/100", r.OverallScore)))
	fmt.Fprintln(w, rule("="))

	meta := r.MetaTags
	renderSectionHeader(w, 1, "META TAGS", meta.Score)
	fmt.Fprintf(w, "  Title: %s (%d chars)\n", meta.MetaTags.Title, meta.MetaTags.TitleLength)
	fmt.Fprintf(w, "  Description: %s... (%d chars)\n", clip(meta.MetaTags.Description, 80), meta.MetaTags.DescriptionLength)
	renderFindings(w, meta.Issues, meta.Recommendations)

	headers := r.Headers
	renderSectionHeader(w, 2, "HEADERS", headers.Score)
	fmt.Fprintf(w, "  H1: %d\n", headers.Headers.H1Count)
	fmt.Fprintf(w, "  H2: %d\n", headers.Headers.H2Count)
	fmt.Fprintf(w, "  H3: %d\n", headers.Headers.H3Count)
	renderFindings(w, headers.Issues, headers.Recommendations)

	images := r.Images
	renderSectionHeader(w, 3, "IMAGES", images.Score)
	fmt.Fprintf(w, "  Total Images: %d\n", images.Summary.Total)
	fmt.Fprintf(w, "  With Alt Text: %d\n", images.Summary.WithAlt)
	fmt.Fprintf(w, "  Without Alt Text: %d\n", images.Summary.WithoutAlt)
	renderFindings(w, images.Issues, images.Recommendations)

	links := r.Links
	renderSectionHeader(w, 4, "LINKS", links.Score)
	fmt.Fprintf(w, "  Total Links: %d\n", links.Summary.TotalLinks)
	fmt.Fprintf(w, "  Internal: %d\n", links.Summary.InternalLinks)
	fmt.Fprintf(w, "  External: %d\n", links.Summary.ExternalLinks)
	renderFindings(w, links.Issues, links.Recommendations)

	perf := r.Performance
	renderSectionHeader(w, 5, "PERFORMANCE", perf.Score)
	fmt.Fprintf(w, "  Load Time: %.2fs\n", perf.Metrics.LoadTime/1000)
	fmt.Fprintf(w, "  Resources: %d\n", perf.Metrics.ResourceCount)
	fmt.Fprintf(w, "  Page Size: %.1fKB\n", float64(perf.Metrics.TotalSize)/1024)
	renderFindings(w, nil, perf.Recommendations)

	sd := r.StructuredData
	renderSectionHeader(w, 6, "STRUCTURED DATA", sd.Score)
	fmt.Fprintf(w, "  JSON-LD Found: %t\n", sd.StructuredData.HasJSONLD)
	if len(sd.StructuredData.JSONLDTypes) > 0 {
		fmt.Fprintf(w, "  Types: %s\n", strings.Join(sd.StructuredData.JSONLDTypes, ", "))
	}
	renderFindings(w, nil, sd.Recommendations)

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule("="))
	if r.Screenshot != "" {
		fmt.Fprintf(w, "Screenshot saved: %s\n", r.Screenshot)
		fmt.Fprintln(w, rule("="))
	}
}

func renderSectionHeader(w io.Writer, n int, name string, score int) {
	header := fmt.Sprintf("%d. %s (Score: %d/100)", n, name, score)
	fmt.Fprintf(w, "\n%s\n", sectionStyle.Render(header))
	fmt.Fprintln(w, rule("-"))
}

func renderFindings(w io.Writer, issues, recs []string) {
	if len(issues) > 0 {
		fmt.Fprintln(w, "  Issues:")
		for _, issue := range issues {
			fmt.Fprintf(w, "    - %s\n", issueStyle.Render(issue))
		}
	}
	if len(recs) > 0 {
		fmt.Fprintln(w, "  Recommendations:")
		for _, rec := range recs {
			fmt.Fprintf(w, "    - %s\n", recStyle.Render(rec))
		}
	}
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SaveJSON writes the report to path as indented JSON.
func (r *Report) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return oops.Wrapf(err, "encode report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return oops.Wrapf(err, "write %s", path)
	}
	log.WithField("path", path).Info("audit report saved")
	return nil
}
