package seo

import "time"

// MetaTags is the meta tag probe payload.
type MetaTags struct {
	Title             string      `json:"title"`
	TitleLength       int         `json:"titleLength"`
	Description       string      `json:"description"`
	DescriptionLength int         `json:"descriptionLength"`
	Keywords          string      `json:"keywords"`
	Canonical         string      `json:"canonical"`
	Robots            string      `json:"robots"`
	OG                OpenGraph   `json:"og"`
	Twitter           TwitterCard `json:"twitter"`
	Viewport          string      `json:"viewport"`
	Charset           string      `json:"charset"`
}

// OpenGraph holds the og:* properties of a page.
type OpenGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
	Type        string `json:"type"`
}

// TwitterCard holds the twitter:* properties of a page.
type TwitterCard struct {
	Card        string `json:"card"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Heading is one heading element with its visible text.
type Heading struct {
	Text   string `json:"text"`
	Length int    `json:"length"`
}

// HeadingStats is the heading probe payload: every heading by level plus
// per-level counts.
type HeadingStats struct {
	H1      []Heading `json:"h1"`
	H2      []Heading `json:"h2"`
	H3      []Heading `json:"h3"`
	H4      []Heading `json:"h4"`
	H5      []Heading `json:"h5"`
	H6      []Heading `json:"h6"`
	H1Count int       `json:"h1Count"`
	H2Count int       `json:"h2Count"`
	H3Count int       `json:"h3Count"`
	H4Count int       `json:"h4Count"`
	H5Count int       `json:"h5Count"`
	H6Count int       `json:"h6Count"`
}

// ImageInfo is one img element as seen by the image probe.
type ImageInfo struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	HasAlt  bool   `json:"hasAlt"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Loading string `json:"loading"`
}

type imageProbe struct {
	Images           []ImageInfo `json:"images"`
	TotalImages      int         `json:"totalImages"`
	ImagesWithAlt    int         `json:"imagesWithAlt"`
	ImagesWithoutAlt int         `json:"imagesWithoutAlt"`
	LazyLoadedImages int         `json:"lazyLoadedImages"`
}

// ImageSummary are the image counters kept in the report.
type ImageSummary struct {
	Total      int `json:"total"`
	WithAlt    int `json:"with_alt"`
	WithoutAlt int `json:"without_alt"`
	LazyLoaded int `json:"lazy_loaded"`
}

// LinkStats is the link probe payload.
type LinkStats struct {
	TotalLinks              int `json:"totalLinks"`
	InternalLinks           int `json:"internalLinks"`
	ExternalLinks           int `json:"externalLinks"`
	LinksWithoutText        int `json:"linksWithoutText"`
	ExternalWithoutNoopener int `json:"externalWithoutNoopener"`
	BrokenLinkCandidates    int `json:"brokenLinkCandidates"`
}

// PerfMetrics is the performance probe payload. Times are in
// milliseconds, sizes in bytes.
type PerfMetrics struct {
	LoadTime         float64 `json:"loadTime"`
	DOMContentLoaded float64 `json:"domContentLoaded"`
	ResourceCount    int     `json:"resourceCount"`
	TotalSize        int64   `json:"totalSize"`
	ScriptCount      int     `json:"scriptCount"`
	CSSCount         int     `json:"cssCount"`
	ImageCount       int     `json:"imageCount"`
	FontCount        int     `json:"fontCount"`
}

// StructuredData is the JSON-LD probe payload.
type StructuredData struct {
	HasJSONLD   bool     `json:"hasJsonLd"`
	JSONLDCount int      `json:"jsonLdCount"`
	JSONLDTypes []string `json:"jsonLdTypes"`
}

// MetaSection is the scored meta tag audit.
type MetaSection struct {
	MetaTags        MetaTags `json:"meta_tags"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Score           int      `json:"score"`
}

// HeadingSection is the scored heading structure audit.
type HeadingSection struct {
	Headers         HeadingStats `json:"headers"`
	Issues          []string     `json:"issues"`
	Recommendations []string     `json:"recommendations"`
	Score           int          `json:"score"`
}

// ImageSection is the scored image audit.
type ImageSection struct {
	Summary           ImageSummary `json:"summary"`
	MissingAltSamples []string     `json:"missing_alt_samples"`
	Issues            []string     `json:"issues"`
	Recommendations   []string     `json:"recommendations"`
	Score             int          `json:"score"`
}

// LinkSection is the scored link audit.
type LinkSection struct {
	Summary         LinkStats `json:"summary"`
	Issues          []string  `json:"issues"`
	Recommendations []string  `json:"recommendations"`
	Score           int       `json:"score"`
}

// PerfSection is the scored performance audit.
type PerfSection struct {
	Metrics         PerfMetrics `json:"metrics"`
	Recommendations []string    `json:"recommendations"`
	Score           int         `json:"score"`
}

// StructuredSection is the scored structured data audit.
type StructuredSection struct {
	StructuredData  StructuredData `json:"structured_data"`
	Recommendations []string       `json:"recommendations"`
	Score           int            `json:"score"`
}

// Report is a complete audit of one page. The overall score is the mean
// of the six section scores.
type Report struct {
	URL            string             `json:"url"`
	AuditedAt      time.Time          `json:"audited_at"`
	MetaTags       *MetaSection       `json:"meta_tags"`
	Headers        *HeadingSection    `json:"headers"`
	Images         *ImageSection      `json:"images"`
	Links          *LinkSection       `json:"links"`
	Performance    *PerfSection       `json:"performance"`
	StructuredData *StructuredSection `json:"structured_data"`
	OverallScore   float64            `json:"overall_score"`
	Screenshot     string             `json:"screenshot,omitempty"`
}
