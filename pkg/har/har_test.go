package har

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basset-hound/automation/pkg/bassethound"
)

func TestBuild(t *testing.T) {
	requests := []bassethound.NetworkRequest{
		{
			URL:          "https://example.com/",
			Method:       "GET",
			Type:         "document",
			Status:       200,
			StatusText:   "OK",
			Duration:     123.4,
			Size:         2048,
			Timestamp:    1700000000000,
			ResponseType: "document",
		},
		{
			URL:          "https://example.com/api/items",
			Type:         "xmlhttprequest",
			Status:       404,
			Duration:     56.7,
			Size:         128,
			ResponseType: "json",
		},
	}

	h := Build(requests)
	require.Equal(t, Version, h.Log.Version)
	require.Equal(t, "basset-hound", h.Log.Creator.Name)
	require.Len(t, h.Log.Entries, 2)

	first := h.Log.Entries[0]
	require.Equal(t, "https://example.com/", first.Request.URL)
	require.Equal(t, "GET", first.Request.Method)
	require.Equal(t, 200, first.Response.Status)
	require.Equal(t, "text/html", first.Response.Content.MimeType)
	require.Equal(t, 123.4, first.Time)
	require.Equal(t, 123.4, first.Timings.Wait)
	require.Contains(t, first.StartedDateTime, "2023-11-14")

	second := h.Log.Entries[1]
	require.Equal(t, "GET", second.Request.Method, "missing method defaults to GET")
	require.Equal(t, "application/json", second.Response.Content.MimeType)
	require.Equal(t, 404, second.Response.Status)
	require.NotEmpty(t, second.StartedDateTime, "zero timestamp still produces a start time")
}

func TestBuildEmpty(t *testing.T) {
	h := Build(nil)
	require.Equal(t, Version, h.Log.Version)
	require.NotNil(t, h.Log.Entries)
	require.Empty(t, h.Log.Entries)
}

func TestWriteAndParse(t *testing.T) {
	h := Build([]bassethound.NetworkRequest{
		{URL: "https://example.com/style.css", Type: "stylesheet", Status: 200, Duration: 10, Size: 512},
	})

	path := filepath.Join(t.TempDir(), "capture.har")
	require.NoError(t, h.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, Version, parsed.Log.Version)
	require.Len(t, parsed.Log.Entries, 1)
	require.Equal(t, "text/css", parsed.Log.Entries[0].Response.Content.MimeType)
}

func TestParseRejectsNonHAR(t *testing.T) {
	_, err := Parse([]byte(`{"not":"har"}`))
	require.Error(t, err)

	_, err = Parse([]byte(`{`))
	require.Error(t, err)
}
