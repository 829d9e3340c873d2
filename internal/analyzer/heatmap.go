package analyzer

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/model"
)

// deceptiveTextPatterns match creative text engineered to provoke
// accidental clicks: fake download buttons, scareware prompts, and
// sweepstakes bait. Matching is case-insensitive; the first match per
// ad wins.
var deceptiveTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)download\s*(now|free|here|button)`),
	regexp.MustCompile(`(?i)click\s*(here|to|now)`),
	regexp.MustCompile(`(?i)free\s*(download|install|get)`),
	regexp.MustCompile(`(?i)install\s*(now|free)`),
	regexp.MustCompile(`(?i)update\s*(required|now|available)`),
	regexp.MustCompile(`(?i)your\s*(system|computer|device)`),
	regexp.MustCompile(`(?i)virus\s*(detected|found|alert)`),
	regexp.MustCompile(`(?i)warning[:\s]`),
	regexp.MustCompile(`(?i)congratulations`),
}

// fakeDownloadHints combine with the word "download" in the element's
// selector or text to identify fake download buttons specifically.
var fakeDownloadHints = []string{"free", "now", "click"}

// ScrollHeatmapBuilder slices the page into viewport-height bands and
// profiles how ad load evolves with scroll depth. Pages built to serve
// ads show density that holds or grows as the user scrolls, where
// content-first pages front-load their ads.
type ScrollHeatmapBuilder struct {
	thresholds config.Thresholds
	logger     *slog.Logger
}

// HeatmapOption configures a ScrollHeatmapBuilder.
type HeatmapOption func(*ScrollHeatmapBuilder)

// WithHeatmapLogger sets a custom logger for the builder.
func WithHeatmapLogger(logger *slog.Logger) HeatmapOption {
	return func(b *ScrollHeatmapBuilder) {
		b.logger = logger
	}
}

// NewScrollHeatmapBuilder creates a ScrollHeatmapBuilder with the given thresholds.
func NewScrollHeatmapBuilder(thresholds config.Thresholds, opts ...HeatmapOption) *ScrollHeatmapBuilder {
	b := &ScrollHeatmapBuilder{thresholds: thresholds}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Build runs the scroll heatmap analysis over a signal bundle.
func (b *ScrollHeatmapBuilder) Build(signals *model.PageSignals) *model.HeatmapAnalysis {
	result := &model.HeatmapAnalysis{}

	result.Bands = b.buildBands(signals)
	if len(result.Bands) > 0 {
		result.AdsAboveFold = result.Bands[0].AdCount
	}

	var densitySum float64
	for _, band := range result.Bands {
		densitySum += band.Density
	}
	result.AvgDensity = densitySum / float64(len(result.Bands))

	result.Distribution = b.distribute(result.Bands)
	result.InfiniteAdsPattern = b.detectInfiniteAds(result.Bands)
	result.ScrollTrap = result.AvgDensity > b.thresholds.ScrollTrapDensity
	result.DeceptiveHits = b.detectDeceptiveText(signals.AdElements)

	result.Patterns = b.collectPatterns(result)
	result.MFAScore = b.mfaScore(result)
	result.Level = model.RiskLevelForPercent(result.MFAScore)

	b.logger.Debug("scroll heatmap complete",
		"site", signals.Site,
		"bands", len(result.Bands),
		"avg_density", result.AvgDensity,
		"score", result.MFAScore,
	)

	return result
}

// buildBands slices the page into viewport-height bands and assigns each
// ad to every band it intersects.
//
// Design decision: The band count is capped because density and trend
// signals saturate after roughly ten viewports. Beyond that the infinite
// scroll pattern detector is the right tool, not more bands.
func (b *ScrollHeatmapBuilder) buildBands(signals *model.PageSignals) []model.ScrollBand {
	viewportH := signals.Viewport.Height
	if viewportH <= 0 {
		viewportH = config.DefaultViewportHeight
	}
	viewportW := signals.Viewport.Width
	if viewportW <= 0 {
		viewportW = config.DefaultViewportWidth
	}

	numBands := int(signals.Page.TotalHeight / viewportH)
	if numBands < 1 {
		numBands = 1
	}
	if numBands > b.thresholds.MaxScrollBands {
		numBands = b.thresholds.MaxScrollBands
	}

	bandArea := viewportH * viewportW
	bands := make([]model.ScrollBand, 0, numBands)
	for i := 0; i < numBands; i++ {
		band := model.ScrollBand{
			Index:   i,
			TopY:    float64(i) * viewportH,
			BottomY: float64(i+1) * viewportH,
		}

		var adArea float64
		for _, ad := range signals.AdElements {
			if ad.Rect.Bottom() > band.TopY && ad.Rect.Y < band.BottomY {
				band.AdCount++
				adArea += ad.Rect.Area()
			}
		}
		if bandArea > 0 {
			band.Density = adArea / bandArea
		}

		bands = append(bands, band)
	}
	return bands
}

// distribute buckets band ad counts into page thirds.
func (b *ScrollHeatmapBuilder) distribute(bands []model.ScrollBand) model.AdDistribution {
	third := len(bands) / 3
	if third < 1 {
		third = 1
	}

	var dist model.AdDistribution
	for i, band := range bands {
		switch {
		case i < third:
			dist.Top += band.AdCount
		case i < 2*third:
			dist.Middle += band.AdCount
		default:
			dist.Bottom += band.AdCount
		}
	}
	return dist
}

// detectInfiniteAds reports whether ad counts hold steady or grow across
// the last three band transitions. A 20% per-band decay is tolerated so
// a single lighter band does not hide the pattern.
func (b *ScrollHeatmapBuilder) detectInfiniteAds(bands []model.ScrollBand) bool {
	if len(bands) <= 3 {
		return false
	}
	for i := len(bands) - 3; i < len(bands); i++ {
		if float64(bands[i].AdCount) < float64(bands[i-1].AdCount)*0.8 {
			return false
		}
	}
	return true
}

// detectDeceptiveText scans ad text for click-bait patterns.
// Each ad contributes at most one regex hit plus at most one fake
// download hit, so a single scareware block does not flood the report.
func (b *ScrollHeatmapBuilder) detectDeceptiveText(ads []model.AdElement) []model.DeceptiveHit {
	var hits []model.DeceptiveHit
	for _, ad := range ads {
		if ad.Text == "" && ad.Selector == "" {
			continue
		}

		for _, re := range deceptiveTextPatterns {
			if re.MatchString(ad.Text) {
				hits = append(hits, model.DeceptiveHit{
					Kind:     "deceptive_text",
					Pattern:  re.String(),
					Text:     excerpt(ad.Text),
					Selector: ad.Selector,
				})
				break
			}
		}

		lowerText := strings.ToLower(ad.Text)
		lowerSelector := strings.ToLower(ad.Selector)
		if strings.Contains(lowerText, "download") || strings.Contains(lowerSelector, "download") {
			for _, hint := range fakeDownloadHints {
				if strings.Contains(lowerText, hint) {
					hits = append(hits, model.DeceptiveHit{
						Kind:     "fake_download",
						Text:     excerpt(ad.Text),
						Selector: ad.Selector,
					})
					break
				}
			}
		}
	}
	return hits
}

// excerpt truncates offending text for the report.
func excerpt(text string) string {
	const maxLen = 80
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

// collectPatterns converts heatmap verdicts into suspicious patterns.
func (b *ScrollHeatmapBuilder) collectPatterns(result *model.HeatmapAnalysis) []model.SuspiciousPattern {
	var patterns []model.SuspiciousPattern

	if result.InfiniteAdsPattern {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "infinite_scroll_ads",
			Severity: model.GetSeverity("infinite_scroll_ads"),
			Detail:   "ad count does not decay with scroll depth",
		})
	}
	if result.ScrollTrap {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "scroll_trap",
			Severity: model.GetSeverity("scroll_trap"),
			Detail:   fmt.Sprintf("average band density %.0f%%", result.AvgDensity*100),
		})
	}
	if n := len(result.DeceptiveHits); n > 0 {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "deceptive_text",
			Severity: model.GetSeverity("deceptive_text"),
			Detail:   fmt.Sprintf("%d deceptive text matches near ads", n),
			Count:    n,
		})
	}

	return patterns
}

// mfaScore combines density, above-fold load, depth escalation, and
// deceptive text into a 0-100 score.
func (b *ScrollHeatmapBuilder) mfaScore(result *model.HeatmapAnalysis) float64 {
	var score float64

	switch {
	case result.AvgDensity > 0.4:
		score += 30
	case result.AvgDensity > 0.25:
		score += 20
	case result.AvgDensity > 0.15:
		score += 10
	case result.AvgDensity > 0.08:
		score += 5
	}

	switch {
	case result.AdsAboveFold > 4:
		score += 20
	case result.AdsAboveFold > 2:
		score += 12
	case result.AdsAboveFold > 1:
		score += 5
	}

	// Escalating ad load deeper into the page is the inverse of a
	// content-first layout.
	if n := len(result.Bands); n > 3 {
		half := n / 2
		var firstSum, secondSum float64
		for i, band := range result.Bands {
			if i < half {
				firstSum += float64(band.AdCount)
			} else {
				secondSum += float64(band.AdCount)
			}
		}
		firstAvg := firstSum / float64(half)
		secondAvg := secondSum / float64(n-half)
		if firstAvg > 0 {
			switch {
			case secondAvg > firstAvg*1.5:
				score += 25
			case secondAvg > firstAvg*1.2:
				score += 15
			}
		}
	}

	switch n := len(result.DeceptiveHits); {
	case n > 3:
		score += 25
	case n > 1:
		score += 15
	case n > 0:
		score += 8
	}

	if score > 100 {
		score = 100
	}
	return score
}
