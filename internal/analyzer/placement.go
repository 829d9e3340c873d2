package analyzer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/geometry"
	"github.com/mfascan/mfascan/internal/model"
)

// aggressiveScriptMarkers identify ad scripts whose business model depends
// on forced or accidental engagement. A single match flags the page.
var aggressiveScriptMarkers = []string{
	"popunder",
	"popads",
	"exoclick",
	"propellerads",
}

// PlacementAnalyzer examines ad slot geometry and density.
// It detects excessive ad loads, stacked slots, hidden request farming,
// and abusive video player setups.
type PlacementAnalyzer struct {
	thresholds config.Thresholds
	logger     *slog.Logger
}

// PlacementOption configures a PlacementAnalyzer.
type PlacementOption func(*PlacementAnalyzer)

// WithPlacementLogger sets a custom logger for the analyzer.
func WithPlacementLogger(logger *slog.Logger) PlacementOption {
	return func(a *PlacementAnalyzer) {
		a.logger = logger
	}
}

// NewPlacementAnalyzer creates a PlacementAnalyzer with the given thresholds.
func NewPlacementAnalyzer(thresholds config.Thresholds, opts ...PlacementOption) *PlacementAnalyzer {
	a := &PlacementAnalyzer{thresholds: thresholds}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Analyze runs the placement analysis over a signal bundle.
// It always returns a result; an empty bundle yields zero risk.
func (a *PlacementAnalyzer) Analyze(signals *model.PageSignals) *model.PlacementAnalysis {
	result := &model.PlacementAnalysis{
		AdCount:        len(signals.AdElements),
		VisibleAdCount: signals.VisibleAdCount(),
	}
	result.HiddenAdCount = result.AdCount - result.VisibleAdCount

	result.Density = a.computeDensity(signals)
	result.StackedPairs = geometry.DetectStackedPairs(signals.AdRects(), a.thresholds.StackOverlap)
	result.MaxOverlap = geometry.MaxOverlap(result.StackedPairs)
	result.AboveFoldCount = a.countAboveFold(signals)

	result.Patterns = a.detectPatterns(signals, result)
	result.Video = a.analyzeVideo(signals.VideoElements)
	result.LayoutRisk = a.layoutRisk(signals, result)
	result.RiskScore = a.riskScore(result)
	result.Level = model.RiskLevelForScore(result.RiskScore)

	a.logger.Debug("placement analysis complete",
		"site", signals.Site,
		"ads", result.AdCount,
		"stacked_pairs", len(result.StackedPairs),
		"risk", result.RiskScore,
	)

	return result
}

// computeDensity blends three density views of the page: element share,
// ads per unit of text, and visible ad area versus the viewport.
//
// Design decision: The blended figure divides the text ratio by 10 and
// doubles the area ratio before averaging. Area is the strongest MFA
// signal of the three, and the raw ads-per-thousand-chars figure swamps
// the others on short pages without the damping.
func (a *PlacementAnalyzer) computeDensity(signals *model.PageSignals) model.DensityMetrics {
	adCount := float64(len(signals.AdElements))

	totalElements := signals.Document.TotalElements
	if totalElements < 1 {
		totalElements = 1
	}
	textLen := signals.Document.TextLength
	if textLen < 1 {
		textLen = 1
	}

	d := model.DensityMetrics{
		ElementRatio:        adCount / float64(totalElements),
		AdsPerThousandChars: adCount * 1000 / float64(textLen),
	}

	viewportArea := signals.Viewport.Width * signals.Viewport.Height
	if viewportArea > 0 {
		var visibleArea float64
		for _, ad := range signals.AdElements {
			if ad.Visible && !ad.HiddenByCSS {
				visibleArea += ad.Rect.Area()
			}
		}
		d.AreaDensity = visibleArea / viewportArea
	}

	d.Blended = (d.ElementRatio + d.AdsPerThousandChars/10 + d.AreaDensity*2) / 3
	if d.Blended > 1 {
		d.Blended = 1
	}
	d.Excessive = d.Blended > a.thresholds.MaxNormalDensity ||
		d.AreaDensity > a.thresholds.ExcessiveAreaDensity

	return d
}

// countAboveFold counts visible ads starting above the fold cutoff.
func (a *PlacementAnalyzer) countAboveFold(signals *model.PageSignals) int {
	var n int
	for _, ad := range signals.AdElements {
		if ad.Visible && !ad.HiddenByCSS && ad.Rect.Y < a.thresholds.PlacementAboveFoldY {
			n++
		}
	}
	return n
}

// detectPatterns flags the placement-level abuse patterns.
func (a *PlacementAnalyzer) detectPatterns(signals *model.PageSignals, result *model.PlacementAnalysis) []model.SuspiciousPattern {
	var patterns []model.SuspiciousPattern

	if result.AdCount > a.thresholds.ExcessiveAdCount {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "excessive_ads",
			Severity: model.GetSeverity("excessive_ads"),
			Detail:   fmt.Sprintf("%d ads on one page", result.AdCount),
			Count:    result.AdCount,
		})
	}

	if len(result.StackedPairs) > 0 {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "ad_stacking",
			Severity: model.GetSeverity("ad_stacking"),
			Detail:   fmt.Sprintf("%d overlapping slot pairs, worst overlap %.0f%%", len(result.StackedPairs), result.MaxOverlap*100),
			Count:    len(result.StackedPairs),
		})
	}

	if result.AdCount > 0 {
		ratio := float64(signals.AdRequestCount) / float64(result.AdCount)
		if ratio > a.thresholds.HiddenRequestRatio {
			patterns = append(patterns, model.SuspiciousPattern{
				Type:     "hidden_ad_requests",
				Severity: model.GetSeverity("hidden_ad_requests"),
				Detail:   fmt.Sprintf("%.1f ad requests per rendered slot", ratio),
				Count:    signals.AdRequestCount,
			})
		}
	}

	// One finding per script, keyed on the first matching marker.
	for _, script := range signals.Scripts {
		lower := strings.ToLower(script)
		for _, marker := range aggressiveScriptMarkers {
			if strings.Contains(lower, marker) {
				patterns = append(patterns, model.SuspiciousPattern{
					Type:     "aggressive_ad_script",
					Severity: model.GetSeverity("aggressive_ad_script"),
					Detail:   marker,
				})
				break
			}
		}
	}

	if result.AboveFoldCount > 3 {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "above_fold_crowding",
			Severity: model.GetSeverity("above_fold_crowding"),
			Detail:   fmt.Sprintf("%d ads above the fold", result.AboveFoldCount),
			Count:    result.AboveFoldCount,
		})
	}

	for _, ad := range signals.AdElements {
		if ad.Visible && ad.Rect.Area() > a.thresholds.LargeAdAreaPx {
			patterns = append(patterns, model.SuspiciousPattern{
				Type:     "large_ad_unit",
				Severity: model.GetSeverity("large_ad_unit"),
				Detail:   fmt.Sprintf("%.0fx%.0f ad unit", ad.Rect.Width, ad.Rect.Height),
			})
			break
		}
	}

	return patterns
}

// analyzeVideo scores video player abuse independently of display ads.
func (a *PlacementAnalyzer) analyzeVideo(videos []model.VideoElement) model.VideoAnalysis {
	v := model.VideoAnalysis{PlayerCount: len(videos)}
	for _, video := range videos {
		if video.Autoplay {
			v.AutoplayCount++
		}
		if video.Muted {
			v.MutedCount++
		}
		if video.Hidden {
			v.HiddenCount++
		}
		if video.Sticky {
			v.StickyCount++
		}
	}

	var risk float64
	if v.PlayerCount > a.thresholds.VideoStuffingCount {
		risk += 0.3
		v.Patterns = append(v.Patterns, model.SuspiciousPattern{
			Type:     "video_stuffing",
			Severity: model.GetSeverity("video_stuffing"),
			Detail:   fmt.Sprintf("%d simultaneous players", v.PlayerCount),
			Count:    v.PlayerCount,
		})
	}
	if v.AutoplayCount > 0 && v.MutedCount > 0 {
		risk += 0.25
		v.Patterns = append(v.Patterns, model.SuspiciousPattern{
			Type:     "muted_autoplay",
			Severity: model.GetSeverity("muted_autoplay"),
			Count:    v.AutoplayCount,
		})
	}
	if v.HiddenCount > 0 {
		hiddenRisk := float64(v.HiddenCount) * 0.15
		if hiddenRisk > 0.3 {
			hiddenRisk = 0.3
		}
		risk += hiddenRisk
		v.Patterns = append(v.Patterns, model.SuspiciousPattern{
			Type:     "hidden_video",
			Severity: model.GetSeverity("hidden_video"),
			Count:    v.HiddenCount,
		})
	}
	if v.StickyCount > a.thresholds.StickyVideoCount {
		risk += 0.2
		v.Patterns = append(v.Patterns, model.SuspiciousPattern{
			Type:     "sticky_video_overload",
			Severity: model.GetSeverity("sticky_video_overload"),
			Count:    v.StickyCount,
		})
	}
	if risk > 1 {
		risk = 1
	}
	v.RiskScore = risk

	return v
}

// layoutRisk scores geometric placement abuse on its own [0, 1] scale.
// A page with no ads carries zero layout risk.
func (a *PlacementAnalyzer) layoutRisk(signals *model.PageSignals, result *model.PlacementAnalysis) float64 {
	if result.AdCount == 0 {
		return 0
	}

	var risk float64

	switch {
	case result.AboveFoldCount > 3:
		risk += 0.3
	case result.AboveFoldCount > 1:
		risk += 0.15
	}

	stackedRisk := float64(len(result.StackedPairs)) * 0.25
	if stackedRisk > 0.6 {
		stackedRisk = 0.6
	}
	risk += stackedRisk

	hiddenRisk := float64(result.HiddenAdCount) * 0.15
	if hiddenRisk > 0.4 {
		hiddenRisk = 0.4
	}
	risk += hiddenRisk

	for _, ad := range signals.AdElements {
		if ad.Rect.Area() > a.thresholds.LargeAdAreaPx {
			risk += 0.15
			break
		}
	}

	if risk > 1 {
		risk = 1
	}
	return risk
}

// riskScore combines count tiers, density, pattern severity, and the
// blended video risk into the final placement score.
func (a *PlacementAnalyzer) riskScore(result *model.PlacementAnalysis) float64 {
	var risk float64

	switch {
	case result.AdCount > 10:
		risk += 0.3
	case result.AdCount > 6:
		risk += 0.2
	case result.AdCount > 3:
		risk += 0.1
	}

	densityRisk := result.Density.Blended
	if densityRisk > 0.3 {
		densityRisk = 0.3
	}
	risk += densityRisk

	var high, medium int
	for _, p := range result.Patterns {
		switch {
		case p.Severity >= model.SeverityHigh:
			high++
		case p.Severity == model.SeverityMedium:
			medium++
		}
	}
	patternRisk := float64(high)*0.15 + float64(medium)*0.08
	if patternRisk > 0.4 {
		patternRisk = 0.4
	}
	risk += patternRisk

	if risk > 1 {
		risk = 1
	}

	risk += result.Video.RiskScore * 0.3
	if risk > 1 {
		risk = 1
	}
	return risk
}
