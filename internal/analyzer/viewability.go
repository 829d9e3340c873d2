package analyzer

import (
	"fmt"
	"log/slog"

	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/geometry"
	"github.com/mfascan/mfascan/internal/model"
)

// ViewabilityClassifier determines how much of each ad slot a user could
// actually see, and whether the page as a whole meets the MRC viewable
// impression floor.
type ViewabilityClassifier struct {
	thresholds config.Thresholds
	logger     *slog.Logger
}

// ViewabilityOption configures a ViewabilityClassifier.
type ViewabilityOption func(*ViewabilityClassifier)

// WithViewabilityLogger sets a custom logger for the classifier.
func WithViewabilityLogger(logger *slog.Logger) ViewabilityOption {
	return func(c *ViewabilityClassifier) {
		c.logger = logger
	}
}

// NewViewabilityClassifier creates a ViewabilityClassifier with the given thresholds.
func NewViewabilityClassifier(thresholds config.Thresholds, opts ...ViewabilityOption) *ViewabilityClassifier {
	c := &ViewabilityClassifier{thresholds: thresholds}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Classify runs the viewability analysis over a signal bundle.
//
// An empty ad list is a valid input, not an error: the result reports
// status "no_ads" with zeroed metrics and counts as MRC compliant, since
// there are no unviewable impressions to bill.
func (c *ViewabilityClassifier) Classify(signals *model.PageSignals) *model.ViewabilityAnalysis {
	result := &model.ViewabilityAnalysis{
		TotalAds:           len(signals.AdElements),
		HiddenReasonCounts: make(map[string]int),
	}

	if result.TotalAds == 0 {
		result.Status = "no_ads"
		result.MRCCompliant = true
		return result
	}
	result.Status = "ok"

	viewport := geometry.Rect{
		Width:  signals.Viewport.Width,
		Height: signals.Viewport.Height,
	}

	var lowRatioPartials int
	for i, ad := range signals.AdElements {
		verdict := c.classifyAd(i, ad, viewport)
		result.Ads = append(result.Ads, verdict)

		switch {
		case verdict.Ratio >= c.thresholds.MinVisibilityRatio:
			result.ViewableCount++
		case verdict.Ratio > 0:
			result.PartialCount++
			if verdict.Ratio < c.thresholds.LowViewabilityRatio {
				lowRatioPartials++
			}
		default:
			result.NotViewableCount++
		}

		for _, reason := range verdict.HiddenReasons {
			result.HiddenReasonCounts[reason]++
		}
	}

	total := float64(result.TotalAds)
	result.ViewablePct = float64(result.ViewableCount) / total * 100
	result.PartialPct = float64(result.PartialCount) / total * 100
	result.NotViewablePct = float64(result.NotViewableCount) / total * 100
	result.MRCCompliant = result.ViewablePct >= 50

	if result.NotViewableCount > 0 {
		result.Issues = append(result.Issues, model.SuspiciousPattern{
			Type:     "hidden_ads",
			Severity: model.GetSeverity("hidden_ads"),
			Detail:   fmt.Sprintf("%d ads render with zero viewport intersection", result.NotViewableCount),
			Count:    result.NotViewableCount,
		})
	}
	if lowRatioPartials > 0 {
		result.Issues = append(result.Issues, model.SuspiciousPattern{
			Type:     "low_viewability",
			Severity: model.GetSeverity("low_viewability"),
			Detail:   fmt.Sprintf("%d ads render mostly outside the viewport", lowRatioPartials),
			Count:    lowRatioPartials,
		})
	}

	c.logger.Debug("viewability classification complete",
		"site", signals.Site,
		"viewable_pct", result.ViewablePct,
		"mrc_compliant", result.MRCCompliant,
	)

	return result
}

// classifyAd produces the per-slot verdict.
func (c *ViewabilityClassifier) classifyAd(index int, ad model.AdElement, viewport geometry.Rect) model.AdViewability {
	v := model.AdViewability{
		Index:     index,
		ID:        ad.ID,
		Ratio:     geometry.IntersectionRatio(ad.Rect, viewport),
		AboveFold: ad.Rect.Y <= c.thresholds.ViewabilityAboveFoldY,
		Occluded:  ad.ZIndex != nil && *ad.ZIndex < 0,
	}

	v.Viewable = v.Ratio >= c.thresholds.MinVisibilityRatio && !v.Occluded && !ad.HiddenByCSS

	if v.Ratio == 0 {
		v.HiddenReasons = append(v.HiddenReasons, model.HiddenReasonOffscreen)
	} else if v.Ratio < c.thresholds.MinVisibilityRatio {
		v.HiddenReasons = append(v.HiddenReasons, model.HiddenReasonObscured)
	}
	if ad.HiddenByCSS {
		v.HiddenReasons = append(v.HiddenReasons, model.HiddenReasonCSS)
	}
	if v.Occluded {
		v.HiddenReasons = append(v.HiddenReasons, model.HiddenReasonNegativeZ)
	}
	if ad.IframeDepth > c.thresholds.MaxIframeDepth {
		v.HiddenReasons = append(v.HiddenReasons, model.HiddenReasonDeeplyNested)
	}

	return v
}
