package config

// Thresholds collects every numeric boundary the analyzers apply.
// The defaults come from field calibration against a corpus of confirmed
// made-for-advertising sites and ordinary publishers; they should only be
// adjusted with care, since the risk tiers key off them.
//
// Design decision: Analyzers receive this struct by value at construction
// time rather than reading package-level constants. That keeps every
// analysis reproducible from the config alone and lets per-site overrides
// adjust a copy without data races.
type Thresholds struct {
	// === Ad placement ===

	// ExcessiveAdCount is the ad count above which a page is flagged for
	// excessive advertising. Strictly greater than.
	ExcessiveAdCount int `yaml:"excessiveAdCount,omitempty"`

	// MaxNormalDensity is the blended density above which density is
	// considered excessive.
	MaxNormalDensity float64 `yaml:"maxNormalDensity,omitempty"`

	// ExcessiveAreaDensity is the visible-ad-area share of the viewport
	// above which density is excessive regardless of the blended figure.
	ExcessiveAreaDensity float64 `yaml:"excessiveAreaDensity,omitempty"`

	// StackOverlap is the overlap fraction above which two ad slots count
	// as stacked. Strictly greater than.
	StackOverlap float64 `yaml:"stackOverlap,omitempty"`

	// HiddenRequestRatio is the ad-requests-per-slot ratio above which
	// hidden ad requests are suspected.
	HiddenRequestRatio float64 `yaml:"hiddenRequestRatio,omitempty"`

	// PlacementAboveFoldY is the y cutoff (exclusive) for counting an ad
	// as above the fold in the placement analysis.
	PlacementAboveFoldY float64 `yaml:"placementAboveFoldY,omitempty"`

	// LargeAdAreaPx is the single-ad area in square pixels above which the
	// unit is considered oversized.
	LargeAdAreaPx float64 `yaml:"largeAdAreaPx,omitempty"`

	// === Viewability ===

	// MinVisibilityRatio is the viewport intersection ratio at or above
	// which an ad counts as viewable. 0.5 matches the MRC standard for
	// display.
	MinVisibilityRatio float64 `yaml:"minVisibilityRatio,omitempty"`

	// ViewabilityAboveFoldY is the top-edge cutoff (inclusive) for
	// counting an ad as above the fold in the viewability analysis.
	ViewabilityAboveFoldY float64 `yaml:"viewabilityAboveFoldY,omitempty"`

	// MaxIframeDepth is the iframe nesting depth above which a slot is
	// flagged as deeply nested.
	MaxIframeDepth int `yaml:"maxIframeDepth,omitempty"`

	// LowViewabilityRatio marks partially viewable slots with ratios
	// below this value as a low-viewability issue.
	LowViewabilityRatio float64 `yaml:"lowViewabilityRatio,omitempty"`

	// === Scroll heatmap ===

	// MaxScrollBands caps the number of viewport-height bands analyzed.
	MaxScrollBands int `yaml:"maxScrollBands,omitempty"`

	// ScrollTrapDensity is the average band density above which the page
	// is a scroll trap.
	ScrollTrapDensity float64 `yaml:"scrollTrapDensity,omitempty"`

	// === Network traffic ===

	// RefreshMinIntervalMS flags auto-refresh when the minimum interval
	// between ad requests to one domain falls below it.
	RefreshMinIntervalMS float64 `yaml:"refreshMinIntervalMs,omitempty"`

	// RefreshHighIntervalMS escalates a refresh pattern to high severity
	// when the minimum interval falls below it.
	RefreshHighIntervalMS float64 `yaml:"refreshHighIntervalMs,omitempty"`

	// RefreshAvgIntervalMS flags auto-refresh when the average interval
	// between ad requests to one domain falls below it.
	RefreshAvgIntervalMS float64 `yaml:"refreshAvgIntervalMs,omitempty"`

	// ExcessiveAdRequests is the ad request count above which the page is
	// flagged for excessive ad calls.
	ExcessiveAdRequests int `yaml:"excessiveAdRequests,omitempty"`

	// HighAdRequests is the ad request count above which the volume is
	// flagged as elevated.
	HighAdRequests int `yaml:"highAdRequests,omitempty"`

	// FragmentedNetworkCount is the unique ad network count above which
	// the ad stack is flagged as fragmented.
	FragmentedNetworkCount int `yaml:"fragmentedNetworkCount,omitempty"`

	// === Video ===

	// VideoStuffingCount is the simultaneous player count above which
	// video stuffing is flagged.
	VideoStuffingCount int `yaml:"videoStuffingCount,omitempty"`

	// StickyVideoCount is the sticky player count above which sticky
	// video overload is flagged.
	StickyVideoCount int `yaml:"stickyVideoCount,omitempty"`
}

// DefaultThresholds returns the calibrated default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExcessiveAdCount:       6,
		MaxNormalDensity:       0.3,
		ExcessiveAreaDensity:   0.4,
		StackOverlap:           0.5,
		HiddenRequestRatio:     5,
		PlacementAboveFoldY:    1000,
		LargeAdAreaPx:          300000,
		MinVisibilityRatio:     0.5,
		ViewabilityAboveFoldY:  600,
		MaxIframeDepth:         3,
		LowViewabilityRatio:    0.3,
		MaxScrollBands:         10,
		ScrollTrapDensity:      0.25,
		RefreshMinIntervalMS:   30000,
		RefreshHighIntervalMS:  15000,
		RefreshAvgIntervalMS:   60000,
		ExcessiveAdRequests:    100,
		HighAdRequests:         50,
		FragmentedNetworkCount: 15,
		VideoStuffingCount:     5,
		StickyVideoCount:       2,
	}
}

// Validate checks the thresholds for internal consistency.
func (t Thresholds) Validate() error {
	if t.MinVisibilityRatio <= 0 || t.MinVisibilityRatio > 1 {
		return ErrInvalidVisibilityRatio
	}
	if t.StackOverlap <= 0 || t.StackOverlap >= 1 {
		return ErrInvalidStackOverlap
	}
	if t.MaxScrollBands < 1 {
		return ErrInvalidScrollBands
	}
	if t.RefreshHighIntervalMS > t.RefreshMinIntervalMS {
		return ErrInvalidRefreshIntervals
	}
	return nil
}
