// Package har provides HTTP Archive (HAR) 1.2 types and a builder that
// turns captured network requests into an archive. The extension can export
// an archive itself; this package covers the fallback when it cannot, and
// gives typed access to exported archives.
package har

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/basset-hound/automation/pkg/bassethound"
)

// Version is the HAR format version this package writes.
const Version = "1.2"

// HAR is the top-level archive document.
type HAR struct {
	Log Log `json:"log"`
}

// Log is the archive body.
type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Entries []Entry `json:"entries"`
}

// Creator identifies the producing application.
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Entry is one captured exchange.
type Entry struct {
	StartedDateTime string   `json:"startedDateTime"`
	Time            float64  `json:"time"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
	Cache           struct{} `json:"cache"`
	Timings         Timings  `json:"timings"`
}

// Request is the request half of an entry.
type Request struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	HTTPVersion string `json:"httpVersion"`
	Cookies     []NVP  `json:"cookies"`
	Headers     []NVP  `json:"headers"`
	QueryString []NVP  `json:"queryString"`
	HeadersSize int    `json:"headersSize"`
	BodySize    int64  `json:"bodySize"`
}

// Response is the response half of an entry.
type Response struct {
	Status      int     `json:"status"`
	StatusText  string  `json:"statusText"`
	HTTPVersion string  `json:"httpVersion"`
	Cookies     []NVP   `json:"cookies"`
	Headers     []NVP   `json:"headers"`
	Content     Content `json:"content"`
	RedirectURL string  `json:"redirectURL"`
	HeadersSize int     `json:"headersSize"`
	BodySize    int64   `json:"bodySize"`
}

// Content describes the response body.
type Content struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// NVP is a name/value pair.
type NVP struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Timings breaks down an entry's total time in milliseconds.
type Timings struct {
	Send    float64 `json:"send"`
	Wait    float64 `json:"wait"`
	Receive float64 `json:"receive"`
}

// Build assembles an archive from monitor captures. Capture timestamps are
// epoch milliseconds; entries with a zero timestamp are stamped with now.
func Build(requests []bassethound.NetworkRequest) *HAR {
	entries := make([]Entry, 0, len(requests))
	for _, r := range requests {
		started := time.Now().UTC()
		if r.Timestamp > 0 {
			started = time.UnixMilli(int64(r.Timestamp)).UTC()
		}
		method := r.Method
		if method == "" {
			method = "GET"
		}
		entries = append(entries, Entry{
			StartedDateTime: started.Format(time.RFC3339Nano),
			Time:            r.Duration,
			Request: Request{
				Method:      method,
				URL:         r.URL,
				HTTPVersion: "HTTP/1.1",
				Cookies:     []NVP{},
				Headers:     []NVP{},
				QueryString: []NVP{},
				HeadersSize: -1,
				BodySize:    -1,
			},
			Response: Response{
				Status:      r.Status,
				StatusText:  r.StatusText,
				HTTPVersion: "HTTP/1.1",
				Cookies:     []NVP{},
				Headers:     []NVP{},
				Content:     Content{Size: r.Size, MimeType: mimeType(r)},
				HeadersSize: -1,
				BodySize:    r.Size,
			},
			Timings: Timings{Wait: r.Duration},
		})
	}
	return &HAR{Log: Log{
		Version: Version,
		Creator: Creator{Name: "basset-hound", Version: "1.0"},
		Entries: entries,
	}}
}

func mimeType(r bassethound.NetworkRequest) string {
	switch r.ResponseType {
	case "json":
		return "application/json"
	case "html", "document":
		return "text/html"
	case "text":
		return "text/plain"
	}
	switch r.Type {
	case "document":
		return "text/html"
	case "script":
		return "application/javascript"
	case "stylesheet":
		return "text/css"
	case "image":
		return "image/*"
	case "xmlhttprequest", "fetch":
		return "application/json"
	}
	return "application/octet-stream"
}

// Parse decodes an archive document.
func Parse(data []byte) (*HAR, error) {
	var h HAR
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse HAR: %w", err)
	}
	if h.Log.Version == "" {
		return nil, fmt.Errorf("not a HAR document: missing log.version")
	}
	return &h, nil
}

// Write saves the archive to path, indented for inspection tools.
func (h *HAR) Write(path string) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal HAR: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
