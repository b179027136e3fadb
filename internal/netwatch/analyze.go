package netwatch

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/basset-hound/automation/pkg/bassethound"
)

// maxTop caps the per-category lists kept in an analysis.
const maxTop = 10

// slowThreshold marks a request as slow, in milliseconds.
const slowThreshold = 1000

// Summary are the headline counters of a capture.
type Summary struct {
	TotalRequests      int     `json:"total_requests"`
	TotalSizeMB        float64 `json:"total_size_mb"`
	UniqueDomains      int     `json:"unique_domains"`
	FailedRequests     int     `json:"failed_requests"`
	SlowRequests       int     `json:"slow_requests"`
	ThirdPartyRequests int     `json:"third_party_requests"`
}

// DomainCount is one domain's request count.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// FailedRequest is a request that came back 4xx or 5xx.
type FailedRequest struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	Type   string `json:"type"`
}

// SlowRequest is a request that took longer than slowThreshold.
type SlowRequest struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
	Type     string  `json:"type"`
}

// ThirdPartyRequest is a request served from a domain other than the
// page's own.
type ThirdPartyRequest struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
}

// RequestAnalysis is the per-capture breakdown. The top lists hold at most
// maxTop entries; the summary counts everything.
type RequestAnalysis struct {
	Summary    Summary             `json:"summary"`
	ByType     map[string]int      `json:"by_type"`
	ByStatus   map[int]int         `json:"by_status"`
	TopDomains []DomainCount       `json:"by_domain"`
	Failed     []FailedRequest     `json:"failed_requests"`
	Slow       []SlowRequest       `json:"slow_requests"`
	ThirdParty []ThirdPartyRequest `json:"third_party_requests"`
}

// Endpoint is a request that looks like an API call.
type Endpoint struct {
	URL          string `json:"url"`
	Method       string `json:"method"`
	Status       int    `json:"status"`
	ResponseType string `json:"response_type"`
}

// Timing are duration statistics over a capture, in milliseconds.
type Timing struct {
	Fastest float64 `json:"fastest"`
	Slowest float64 `json:"slowest"`
	Average float64 `json:"average"`
	Total   float64 `json:"total"`
}

// SizeMetrics are transfer size statistics over a capture, in bytes.
type SizeMetrics struct {
	Smallest int64   `json:"smallest"`
	Largest  int64   `json:"largest"`
	Average  float64 `json:"average"`
	TotalMB  float64 `json:"total_mb"`
}

// PerfStats are the capture's performance figures.
type PerfStats struct {
	Timing          Timing      `json:"request_timing"`
	Sizes           SizeMetrics `json:"size_metrics"`
	Recommendations []string    `json:"recommendations"`
}

// Results is a complete monitoring session. The raw capture is kept for
// callers but left out of the saved report.
type Results struct {
	URL                string                      `json:"url"`
	AnalyzedAt         time.Time                   `json:"analyzed_at"`
	MonitoringDuration float64                     `json:"monitoring_duration"`
	Capture            *bassethound.NetworkCapture `json:"-"`
	RequestAnalysis    *RequestAnalysis            `json:"request_analysis"`
	APIEndpoints       []Endpoint                  `json:"api_endpoints"`
	Performance        *PerfStats                  `json:"performance"`
	HARFile            string                      `json:"har_file,omitempty"`
}

// Analyze breaks a capture down by type, status and domain and extracts
// the failed, slow and third-party requests. The page's own domain is the
// first request's; everything else counts as third-party.
func Analyze(requests []bassethound.NetworkRequest) *RequestAnalysis {
	analysis := &RequestAnalysis{
		ByType:   map[string]int{},
		ByStatus: map[int]int{},
	}
	if len(requests) == 0 {
		log.Warn("no requests to analyze")
		return analysis
	}

	baseDomain := hostOf(requests[0].URL)
	byDomain := map[string]int{}
	var totalSize int64

	for _, r := range requests {
		resourceType := r.Type
		if resourceType == "" {
			resourceType = "other"
		}
		analysis.ByType[resourceType]++
		analysis.ByStatus[r.Status]++

		domain := hostOf(r.URL)
		byDomain[domain]++
		totalSize += r.Size

		if r.Status >= 400 {
			analysis.Failed = append(analysis.Failed, FailedRequest{
				URL: r.URL, Status: r.Status, Type: resourceType,
			})
		}
		if r.Duration > slowThreshold {
			analysis.Slow = append(analysis.Slow, SlowRequest{
				URL: r.URL, Duration: r.Duration, Type: resourceType,
			})
		}
		if domain != "" && domain != baseDomain {
			analysis.ThirdParty = append(analysis.ThirdParty, ThirdPartyRequest{
				URL: r.URL, Domain: domain, Type: resourceType, Size: r.Size,
			})
		}
	}

	analysis.Summary = Summary{
		TotalRequests:      len(requests),
		TotalSizeMB:        float64(totalSize) / (1 << 20),
		UniqueDomains:      len(byDomain),
		FailedRequests:     len(analysis.Failed),
		SlowRequests:       len(analysis.Slow),
		ThirdPartyRequests: len(analysis.ThirdParty),
	}

	for domain, count := range byDomain {
		analysis.TopDomains = append(analysis.TopDomains, DomainCount{Domain: domain, Count: count})
	}
	sort.Slice(analysis.TopDomains, func(i, j int) bool {
		a, b := analysis.TopDomains[i], analysis.TopDomains[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Domain < b.Domain
	})
	sort.SliceStable(analysis.Slow, func(i, j int) bool {
		return analysis.Slow[i].Duration > analysis.Slow[j].Duration
	})
	sort.SliceStable(analysis.ThirdParty, func(i, j int) bool {
		return analysis.ThirdParty[i].Size > analysis.ThirdParty[j].Size
	})

	if len(analysis.TopDomains) > maxTop {
		analysis.TopDomains = analysis.TopDomains[:maxTop]
	}
	if len(analysis.Failed) > maxTop {
		analysis.Failed = analysis.Failed[:maxTop]
	}
	if len(analysis.Slow) > maxTop {
		analysis.Slow = analysis.Slow[:maxTop]
	}
	if len(analysis.ThirdParty) > maxTop {
		analysis.ThirdParty = analysis.ThirdParty[:maxTop]
	}
	return analysis
}

// apiIndicators are URL path fragments that mark a request as an API call.
var apiIndicators = []string{"/api/", "/v1/", "/v2/", "/v3/", "/graphql", "/rest/"}

// APIEndpoints picks the requests that look like API calls, by URL shape
// or by a JSON response type.
func APIEndpoints(requests []bassethound.NetworkRequest) []Endpoint {
	var endpoints []Endpoint
	for _, r := range requests {
		lower := strings.ToLower(r.URL)
		isAPI := false
		for _, indicator := range apiIndicators {
			if strings.Contains(lower, indicator) {
				isAPI = true
				break
			}
		}
		isJSON := strings.Contains(strings.ToLower(r.ResponseType), "json")
		if !isAPI && !isJSON {
			continue
		}

		method := r.Method
		if method == "" {
			method = "GET"
		}
		endpoints = append(endpoints, Endpoint{
			URL: r.URL, Method: method, Status: r.Status, ResponseType: r.ResponseType,
		})
	}
	log.WithField("count", len(endpoints)).Debug("api endpoints detected")
	return endpoints
}

// Performance computes timing and size statistics over a capture.
func Performance(requests []bassethound.NetworkRequest) *PerfStats {
	stats := &PerfStats{}
	if len(requests) == 0 {
		return stats
	}

	stats.Timing.Fastest = requests[0].Duration
	stats.Sizes.Smallest = requests[0].Size
	var totalDuration float64
	var totalSize int64
	for _, r := range requests {
		if r.Duration < stats.Timing.Fastest {
			stats.Timing.Fastest = r.Duration
		}
		if r.Duration > stats.Timing.Slowest {
			stats.Timing.Slowest = r.Duration
		}
		totalDuration += r.Duration

		if r.Size < stats.Sizes.Smallest {
			stats.Sizes.Smallest = r.Size
		}
		if r.Size > stats.Sizes.Largest {
			stats.Sizes.Largest = r.Size
		}
		totalSize += r.Size
	}
	stats.Timing.Average = totalDuration / float64(len(requests))
	stats.Timing.Total = totalDuration
	stats.Sizes.Average = float64(totalSize) / float64(len(requests))
	stats.Sizes.TotalMB = float64(totalSize) / (1 << 20)

	if stats.Timing.Slowest > 3000 {
		stats.Recommendations = append(stats.Recommendations,
			fmt.Sprintf("Slowest request took %.0fms. Optimize slow endpoints.", stats.Timing.Slowest))
	}
	if stats.Sizes.TotalMB > 5 {
		stats.Recommendations = append(stats.Recommendations,
			fmt.Sprintf("Total page size is %.2fMB. Consider optimization.", stats.Sizes.TotalMB))
	}
	return stats
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
