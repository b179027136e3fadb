package netwatch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/oops"
)

const (
	ruleWidth = 60
	urlWidth  = 80
)

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true)
	ruleStyle    = lipgloss.NewStyle().Faint(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	slowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	methodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func rule(ch string) string {
	return ruleStyle.Render(strings.Repeat(ch, ruleWidth))
}

// Render writes a human readable analysis report to w.
func (r *Results) Render(w io.Writer) {
	fmt.Fprintln(w, rule("="))
	fmt.Fprintln(w, bannerStyle.Render("NETWORK ANALYSIS REPORT"))
	fmt.Fprintln(w, rule("="))
	fmt.Fprintf(w, "URL: %s\n", r.URL)
	fmt.Fprintf(w, "Analyzed: %s\n", r.AnalyzedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration: %gs\n", r.MonitoringDuration)
	fmt.Fprintln(w, rule("="))

	a := r.RequestAnalysis
	renderSection(w, 1, "SUMMARY")
	fmt.Fprintf(w, "  Total Requests: %d\n", a.Summary.TotalRequests)
	fmt.Fprintf(w, "  Total Size: %.2f MB\n", a.Summary.TotalSizeMB)
	fmt.Fprintf(w, "  Unique Domains: %d\n", a.Summary.UniqueDomains)
	fmt.Fprintf(w, "  Failed Requests: %d\n", a.Summary.FailedRequests)
	fmt.Fprintf(w, "  Slow Requests (>1s): %d\n", a.Summary.SlowRequests)
	fmt.Fprintf(w, "  Third-Party Requests: %d\n", a.Summary.ThirdPartyRequests)

	renderSection(w, 2, "REQUESTS BY TYPE")
	types := make([]string, 0, len(a.ByType))
	for t := range a.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %s: %d\n", t, a.ByType[t])
	}

	renderSection(w, 3, "REQUESTS BY STATUS CODE")
	statuses := make([]int, 0, len(a.ByStatus))
	for s := range a.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Ints(statuses)
	for _, s := range statuses {
		fmt.Fprintf(w, "  %d: %d\n", s, a.ByStatus[s])
	}

	renderSection(w, 4, "TOP DOMAINS")
	for _, d := range a.TopDomains {
		fmt.Fprintf(w, "  %s: %d requests\n", d.Domain, d.Count)
	}

	if failed := a.Failed; len(failed) > 0 {
		renderSection(w, 5, "FAILED REQUESTS")
		if len(failed) > 5 {
			failed = failed[:5]
		}
		for _, f := range failed {
			fmt.Fprintf(w, "  %s %s\n", failStyle.Render(fmt.Sprintf("[%d]", f.Status)), clip(f.URL, urlWidth))
		}
	}

	if slow := a.Slow; len(slow) > 0 {
		renderSection(w, 6, "SLOW REQUESTS")
		if len(slow) > 5 {
			slow = slow[:5]
		}
		for _, s := range slow {
			fmt.Fprintf(w, "  %s %s\n", slowStyle.Render(fmt.Sprintf("[%.0fms]", s.Duration)), clip(s.URL, urlWidth))
		}
	}

	if endpoints := r.APIEndpoints; len(endpoints) > 0 {
		renderSection(w, 7, "API ENDPOINTS DETECTED")
		if len(endpoints) > maxTop {
			endpoints = endpoints[:maxTop]
		}
		for _, e := range endpoints {
			fmt.Fprintf(w, "  %s %s\n", methodStyle.Render(fmt.Sprintf("[%s]", e.Method)), clip(e.URL, urlWidth))
		}
	}

	renderSection(w, 8, "PERFORMANCE METRICS")
	fmt.Fprintln(w, "  Request Timing:")
	fmt.Fprintf(w, "    Fastest: %.0fms\n", r.Performance.Timing.Fastest)
	fmt.Fprintf(w, "    Slowest: %.0fms\n", r.Performance.Timing.Slowest)
	fmt.Fprintf(w, "    Average: %.2fms\n", r.Performance.Timing.Average)
	if len(r.Performance.Recommendations) > 0 {
		fmt.Fprintln(w, "\n  Recommendations:")
		for _, rec := range r.Performance.Recommendations {
			fmt.Fprintf(w, "    - %s\n", recStyle.Render(rec))
		}
	}

	renderSection(w, 9, "EXPORT")
	if r.HARFile != "" {
		fmt.Fprintf(w, "  HAR file: %s\n", r.HARFile)
	} else {
		fmt.Fprintln(w, "  HAR export not available")
	}

	fmt.Fprintf(w, "\n%s\n", rule("="))
}

func renderSection(w io.Writer, n int, name string) {
	fmt.Fprintf(w, "\n%s\n", sectionStyle.Render(fmt.Sprintf("%d. %s", n, name)))
	fmt.Fprintln(w, rule("-"))
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SaveJSON writes the results to path as indented JSON. The raw capture
// is excluded to keep the report small.
func (r *Results) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return oops.Wrapf(err, "encode results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return oops.Wrapf(err, "write results")
	}
	log.WithField("path", path).Info("analysis report saved")
	return nil
}
