package model

import "github.com/mfascan/mfascan/internal/geometry"

// SuspiciousPattern is one detected abuse pattern. The Type maps into the
// finding metadata table in severity.go.
type SuspiciousPattern struct {
	// Type is the pattern identifier (excessive_ads, ad_stacking, ...).
	Type string `json:"type"`

	// Severity is the pattern's risk level.
	Severity Severity `json:"severity"`

	// Detail is a short human-readable description of what triggered.
	Detail string `json:"detail,omitempty"`

	// Count quantifies the pattern when a count is meaningful.
	Count int `json:"count,omitempty"`
}

// DensityMetrics captures how saturated a page is with advertising.
type DensityMetrics struct {
	// ElementRatio is ad elements divided by total DOM elements.
	ElementRatio float64 `json:"element_ratio"`

	// AdsPerThousandChars is ads per 1000 characters of visible text.
	AdsPerThousandChars float64 `json:"ads_per_thousand_chars"`

	// AreaDensity is visible ad area divided by the reference viewport area.
	AreaDensity float64 `json:"area_density"`

	// Blended combines the three ratios into one [0, 1] figure.
	Blended float64 `json:"blended"`

	// Excessive marks density beyond the configured acceptable ceiling.
	Excessive bool `json:"excessive"`
}

// VideoAnalysis summarizes video player behavior on the page.
type VideoAnalysis struct {
	PlayerCount   int                 `json:"player_count"`
	AutoplayCount int                 `json:"autoplay_count"`
	MutedCount    int                 `json:"muted_count"`
	HiddenCount   int                 `json:"hidden_count"`
	StickyCount   int                 `json:"sticky_count"`
	Patterns      []SuspiciousPattern `json:"patterns,omitempty"`

	// RiskScore is the video-specific risk in [0, 1].
	RiskScore float64 `json:"risk_score"`
}

// PlacementAnalysis is the ad placement analyzer's result.
type PlacementAnalysis struct {
	AdCount        int `json:"ad_count"`
	VisibleAdCount int `json:"visible_ad_count"`
	HiddenAdCount  int `json:"hidden_ad_count"`
	AboveFoldCount int `json:"above_fold_count"`

	Density DensityMetrics `json:"density"`

	// StackedPairs lists ad slots overlapping beyond the stacking threshold.
	StackedPairs []geometry.StackedPair `json:"stacked_pairs,omitempty"`

	// MaxOverlap is the largest overlap fraction among stacked pairs.
	MaxOverlap float64 `json:"max_overlap,omitempty"`

	Patterns []SuspiciousPattern `json:"patterns,omitempty"`

	Video VideoAnalysis `json:"video"`

	// LayoutRisk scores placement geometry abuse in [0, 1].
	LayoutRisk float64 `json:"layout_risk"`

	// RiskScore is the overall placement risk in [0, 1], video-blended.
	RiskScore float64 `json:"risk_score"`

	Level RiskLevel `json:"level"`
}

// AdViewability is the per-slot viewability verdict.
type AdViewability struct {
	// Index is the slot's position in the input ad list.
	Index int `json:"index"`

	ID string `json:"id,omitempty"`

	// Ratio is the fraction of the slot inside the viewport, in [0, 1].
	Ratio float64 `json:"ratio"`

	Viewable  bool `json:"viewable"`
	AboveFold bool `json:"above_fold"`

	// Occluded marks a negative z-index pushing the slot behind content.
	Occluded bool `json:"occluded,omitempty"`

	// HiddenReasons lists why the slot is not (fully) viewable.
	HiddenReasons []string `json:"hidden_reasons,omitempty"`
}

// Viewability hidden-reason identifiers.
const (
	HiddenReasonOffscreen    = "completely_offscreen"
	HiddenReasonObscured     = "partially_obscured"
	HiddenReasonCSS          = "hidden_by_css"
	HiddenReasonNegativeZ    = "negative_z_index"
	HiddenReasonDeeplyNested = "deeply_nested"
)

// ViewabilityAnalysis is the viewability classifier's result.
type ViewabilityAnalysis struct {
	TotalAds int `json:"total_ads"`

	ViewableCount    int `json:"viewable_count"`
	PartialCount     int `json:"partial_count"`
	NotViewableCount int `json:"not_viewable_count"`

	ViewablePct    float64 `json:"viewable_pct"`
	PartialPct     float64 `json:"partial_pct"`
	NotViewablePct float64 `json:"not_viewable_pct"`

	// Ads carries the per-slot verdicts.
	Ads []AdViewability `json:"ads,omitempty"`

	// HiddenReasonCounts tallies hidden reasons across all slots.
	HiddenReasonCounts map[string]int `json:"hidden_reason_counts,omitempty"`

	// MRCCompliant reports whether the viewable share meets the MRC 50% floor.
	MRCCompliant bool `json:"mrc_compliant"`

	// Status is "ok", or "no_ads" for an empty slot list.
	Status string `json:"status"`

	Issues []SuspiciousPattern `json:"issues,omitempty"`
}

// ScrollBand is one viewport-height slice of the page.
type ScrollBand struct {
	Index   int     `json:"index"`
	TopY    float64 `json:"top_y"`
	BottomY float64 `json:"bottom_y"`
	AdCount int     `json:"ad_count"`

	// Density is the band's ad area over the band's viewport area.
	Density float64 `json:"density"`
}

// AdDistribution buckets ads into page thirds by band position.
type AdDistribution struct {
	Top    int `json:"top"`
	Middle int `json:"middle"`
	Bottom int `json:"bottom"`
}

// DeceptiveHit is one matched deceptive-text pattern near an ad.
type DeceptiveHit struct {
	// Kind names the matched pattern (deceptive_text, fake_download).
	Kind string `json:"kind"`

	// Pattern is the regular expression or rule that matched.
	Pattern string `json:"pattern,omitempty"`

	// Text is the offending text excerpt.
	Text string `json:"text,omitempty"`

	// Selector locates the element carrying the text.
	Selector string `json:"selector,omitempty"`
}

// HeatmapAnalysis is the scroll heatmap builder's result.
type HeatmapAnalysis struct {
	Bands []ScrollBand `json:"bands"`

	AdsAboveFold int     `json:"ads_above_fold"`
	AvgDensity   float64 `json:"avg_density"`

	Distribution AdDistribution `json:"distribution"`

	// InfiniteAdsPattern marks non-decaying ad counts deep into the scroll.
	InfiniteAdsPattern bool `json:"infinite_ads_pattern"`

	// ScrollTrap marks sustained high density across the whole page.
	ScrollTrap bool `json:"scroll_trap"`

	DeceptiveHits []DeceptiveHit `json:"deceptive_hits,omitempty"`

	Patterns []SuspiciousPattern `json:"patterns,omitempty"`

	// MFAScore is the heatmap's contribution on a 0-100 scale.
	MFAScore float64 `json:"mfa_score"`

	Level RiskLevel `json:"level"`
}

// AdNetworkStat is one ad network's request volume.
type AdNetworkStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RefreshPattern is one domain's ad-refresh timing profile.
type RefreshPattern struct {
	Domain        string   `json:"domain"`
	RequestCount  int      `json:"request_count"`
	MinIntervalMS float64  `json:"min_interval_ms"`
	AvgIntervalMS float64  `json:"avg_interval_ms"`
	Severity      Severity `json:"severity"`
}

// RefreshAnalysis summarizes ad auto-refresh behavior.
type RefreshAnalysis struct {
	Detected bool             `json:"detected"`
	Patterns []RefreshPattern `json:"patterns,omitempty"`
}

// ArbitrageAnalysis summarizes paid-traffic sourcing.
type ArbitrageAnalysis struct {
	Detected bool     `json:"detected"`
	Sources  []string `json:"sources,omitempty"`
}

// NetworkAnalysis is the network traffic classifier's result.
type NetworkAnalysis struct {
	TotalRequests  int `json:"total_requests"`
	AdRequestCount int `json:"ad_request_count"`
	PrebidCount    int `json:"prebid_count"`
	VASTCount      int `json:"vast_count"`

	// Networks lists the busiest ad networks, largest first.
	Networks []AdNetworkStat `json:"networks,omitempty"`

	// UniqueNetworkCount is the number of distinct ad networks observed.
	UniqueNetworkCount int `json:"unique_network_count"`

	Refresh   RefreshAnalysis   `json:"refresh"`
	Arbitrage ArbitrageAnalysis `json:"arbitrage"`

	Patterns []SuspiciousPattern `json:"patterns,omitempty"`

	// RiskScorePct is the traffic risk on a 0-100 scale.
	RiskScorePct float64 `json:"risk_score_pct"`

	Level RiskLevel `json:"level"`
}

// GAMMetrics are the aggregated ad server figures.
type GAMMetrics struct {
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Revenue     float64 `json:"revenue"`

	// CTRPct is clicks over impressions as a percentage.
	CTRPct float64 `json:"ctr_pct"`

	// ECPM is revenue per thousand impressions.
	ECPM float64 `json:"ecpm"`

	// ViewabilityPct is the impression-weighted average viewability.
	ViewabilityPct float64 `json:"viewability_pct"`
}

// GAMAnalysis is the ad server metrics analyzer's result.
type GAMAnalysis struct {
	// HasData reports whether any records were supplied.
	HasData bool `json:"has_data"`

	Metrics GAMMetrics `json:"metrics"`

	Patterns []SuspiciousPattern `json:"patterns,omitempty"`

	// RiskScore is the metrics-derived risk in [0, 1].
	RiskScore float64 `json:"risk_score"`

	Level RiskLevel `json:"level"`
}
