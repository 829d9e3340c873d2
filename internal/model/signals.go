package model

import "github.com/mfascan/mfascan/internal/geometry"

// CrawlStatus describes how the upstream collector fared against the site.
// The scoring mode of the risk aggregation depends on this value.
type CrawlStatus string

const (
	// CrawlStatusSuccess means the collector rendered the page normally.
	CrawlStatusSuccess CrawlStatus = "success"

	// CrawlStatusFallback means the collector fell back to a degraded
	// fetch (no JavaScript execution), so signals are less trustworthy.
	CrawlStatusFallback CrawlStatus = "fallback"

	// CrawlStatusBlocked means the site refused the collector. Only
	// out-of-band data (ad server metrics) can inform the assessment.
	CrawlStatusBlocked CrawlStatus = "blocked"

	// CrawlStatusFailed means the collection failed outright.
	CrawlStatusFailed CrawlStatus = "failed"
)

// Viewport is the browser viewport used during collection.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageDimensions describes the rendered page extent.
type PageDimensions struct {
	// TotalHeight is the full scrollable height in pixels.
	TotalHeight float64 `json:"total_height"`

	// Width is the rendered page width in pixels.
	Width float64 `json:"width"`
}

// DocumentMetrics carries coarse DOM statistics from the collector.
type DocumentMetrics struct {
	// TotalElements is the number of DOM elements on the page.
	TotalElements int `json:"total_elements"`

	// TextLength is the length of the visible text content in characters.
	TextLength int `json:"text_length"`
}

// AdElement is one detected ad slot with its rendered geometry.
type AdElement struct {
	// ID identifies the element (DOM id or a collector-assigned slot id).
	ID string `json:"id,omitempty"`

	// Rect is the element's bounding box in page coordinates.
	Rect geometry.Rect `json:"rect"`

	// Visible reports whether the element was rendered visibly.
	Visible bool `json:"visible"`

	// HiddenByCSS reports display:none, visibility:hidden or zero opacity.
	HiddenByCSS bool `json:"hidden_by_css,omitempty"`

	// Sticky reports position:fixed or position:sticky.
	Sticky bool `json:"sticky,omitempty"`

	// ZIndex is the computed z-index, or nil when auto.
	ZIndex *int `json:"z_index,omitempty"`

	// IframeDepth is the nesting depth when the ad lives inside iframes.
	IframeDepth int `json:"iframe_depth,omitempty"`

	// IframeSrc is the iframe source URL when the slot is iframe-hosted.
	IframeSrc string `json:"iframe_src,omitempty"`

	// Selector is the CSS selector the collector matched.
	Selector string `json:"selector,omitempty"`

	// Text is nearby or contained text, used for deceptive-pattern checks.
	Text string `json:"text,omitempty"`
}

// VideoElement is one detected video player.
type VideoElement struct {
	Rect     geometry.Rect `json:"rect"`
	Autoplay bool          `json:"autoplay,omitempty"`
	Muted    bool          `json:"muted,omitempty"`
	Hidden   bool          `json:"hidden,omitempty"`
	Sticky   bool          `json:"sticky,omitempty"`
}

// NetworkRequest is one captured outbound request.
type NetworkRequest struct {
	// URL is the full request URL.
	URL string `json:"url"`

	// TimestampMS is the capture time in milliseconds since navigation start.
	TimestampMS float64 `json:"timestamp_ms"`

	// ResourceType is the browser resource type (script, xhr, image, ...).
	ResourceType string `json:"resource_type,omitempty"`
}

// GAMRecord is one row of ad server reporting for the audited site.
type GAMRecord struct {
	Date           string  `json:"date,omitempty"`
	Impressions    float64 `json:"impressions"`
	Clicks         float64 `json:"clicks"`
	Revenue        float64 `json:"revenue"`
	ViewabilityPct float64 `json:"viewability_pct,omitempty"`
}

// ExternalScores carries assessments produced by collaborating systems
// outside this engine. They ride along in the signal bundle so the risk
// aggregation can weigh them without this engine computing them.
type ExternalScores struct {
	// ContentScore is the content-quality risk in [0, 1].
	ContentScore float64 `json:"content_score"`

	// WordCount backs the confidence of the content score.
	WordCount int `json:"word_count"`

	// ContentFailed marks the content analyzer as having errored.
	ContentFailed bool `json:"content_failed,omitempty"`

	// HealthScore is the technical health score in [0, 100].
	HealthScore float64 `json:"health_score"`

	// GAMRecords is optional ad server reporting data.
	GAMRecords []GAMRecord `json:"gam_records,omitempty"`
}

// PageSignals is the complete signal bundle for one audited page.
// It is produced by an out-of-band collector and consumed read-only by
// every analyzer.
//
// Design decision: The engine never touches the network or a DOM. Keeping
// the input a plain serializable bundle makes every analysis deterministic
// and lets audits re-run byte-for-byte from stored bundles.
type PageSignals struct {
	// Site is the audited site (domain or URL).
	Site string `json:"site"`

	// CrawlStatus reports the collection outcome.
	CrawlStatus CrawlStatus `json:"crawl_status"`

	// Viewport is the collection viewport. Defaults to 1920x1080.
	Viewport Viewport `json:"viewport"`

	// Page describes the rendered page extent.
	Page PageDimensions `json:"page"`

	// Document carries coarse DOM statistics.
	Document DocumentMetrics `json:"document"`

	// AdElements are the detected ad slots.
	AdElements []AdElement `json:"ad_elements,omitempty"`

	// VideoElements are the detected video players.
	VideoElements []VideoElement `json:"video_elements,omitempty"`

	// NetworkRequests are the captured outbound requests.
	NetworkRequests []NetworkRequest `json:"network_requests,omitempty"`

	// Scripts are the script source URLs seen on the page.
	Scripts []string `json:"scripts,omitempty"`

	// AdRequestCount is the collector's count of ad-tagged requests,
	// which may exceed len(NetworkRequests) when capture was sampled.
	AdRequestCount int `json:"ad_request_count,omitempty"`

	// External carries collaborating-system scores, when available.
	External *ExternalScores `json:"external,omitempty"`
}

// VisibleAdCount returns the number of visibly rendered ad slots.
func (p *PageSignals) VisibleAdCount() int {
	var n int
	for _, ad := range p.AdElements {
		if ad.Visible && !ad.HiddenByCSS {
			n++
		}
	}
	return n
}

// AdRects returns the bounding boxes of all ad elements, index-aligned
// with AdElements.
func (p *PageSignals) AdRects() []geometry.Rect {
	rects := make([]geometry.Rect, len(p.AdElements))
	for i, ad := range p.AdElements {
		rects[i] = ad.Rect
	}
	return rects
}

// HasGAMData reports whether ad server records are present in the bundle.
func (p *PageSignals) HasGAMData() bool {
	return p.External != nil && len(p.External.GAMRecords) > 0
}
