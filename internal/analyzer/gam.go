package analyzer

import (
	"fmt"
	"log/slog"

	"github.com/mfascan/mfascan/internal/model"
)

// GAMAnalyzer evaluates Google Ad Manager delivery records for the
// monetization signature of an MFA site: inflated click-through rates
// paired with bottom-of-market CPMs and poor viewability.
type GAMAnalyzer struct {
	logger *slog.Logger
}

// GAMOption configures a GAMAnalyzer.
type GAMOption func(*GAMAnalyzer)

// WithGAMLogger sets a custom logger for the analyzer.
func WithGAMLogger(logger *slog.Logger) GAMOption {
	return func(a *GAMAnalyzer) {
		a.logger = logger
	}
}

// NewGAMAnalyzer creates a GAMAnalyzer.
func NewGAMAnalyzer(opts ...GAMOption) *GAMAnalyzer {
	a := &GAMAnalyzer{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Analyze aggregates the delivery records and scores them.
//
// No records, or records with zero impressions, yield an inconclusive
// result at moderate risk rather than a clean bill: absence of server
// data is itself weak evidence either way.
func (a *GAMAnalyzer) Analyze(records []model.GAMRecord) *model.GAMAnalysis {
	result := &model.GAMAnalysis{}

	metrics := aggregate(records)
	if metrics.Impressions == 0 {
		result.RiskScore = 0.3
		result.Level = model.RiskLevelInconclusive
		return result
	}

	result.HasData = true
	result.Metrics = metrics
	result.Patterns = a.detectPatterns(metrics)
	result.RiskScore = a.riskScore(metrics, result.Patterns)
	result.Level = model.RiskLevelForScore(result.RiskScore)

	a.logger.Debug("ad server analysis complete",
		"impressions", metrics.Impressions,
		"ctr_pct", metrics.CTRPct,
		"ecpm", metrics.ECPM,
		"risk", result.RiskScore,
	)

	return result
}

// aggregate totals the records and derives the rate metrics.
// Viewability is impression weighted so a heavy low-quality day is not
// averaged away by a handful of clean ones.
func aggregate(records []model.GAMRecord) model.GAMMetrics {
	var m model.GAMMetrics
	var weightedViewability float64
	for _, r := range records {
		m.Impressions += r.Impressions
		m.Clicks += r.Clicks
		m.Revenue += r.Revenue
		weightedViewability += r.ViewabilityPct * r.Impressions
	}

	if m.Impressions > 0 {
		m.CTRPct = m.Clicks / m.Impressions * 100
		m.ECPM = m.Revenue / m.Impressions * 1000
		m.ViewabilityPct = weightedViewability / m.Impressions
	}
	return m
}

// detectPatterns flags delivery anomalies.
func (a *GAMAnalyzer) detectPatterns(m model.GAMMetrics) []model.SuspiciousPattern {
	var patterns []model.SuspiciousPattern

	switch {
	case m.CTRPct >= 3:
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "suspicious_ctr",
			Severity: model.GetSeverity("suspicious_ctr"),
			Detail:   fmt.Sprintf("%.2f%% click-through rate", m.CTRPct),
		})
	case m.CTRPct >= 1.5:
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "elevated_ctr",
			Severity: model.GetSeverity("elevated_ctr"),
			Detail:   fmt.Sprintf("%.2f%% click-through rate", m.CTRPct),
		})
	}

	switch {
	case m.ECPM <= 0.5:
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "very_low_ecpm",
			Severity: model.GetSeverity("very_low_ecpm"),
			Detail:   fmt.Sprintf("$%.2f effective CPM", m.ECPM),
		})
	case m.ECPM <= 1.0:
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "low_ecpm",
			Severity: model.GetSeverity("low_ecpm"),
			Detail:   fmt.Sprintf("$%.2f effective CPM", m.ECPM),
		})
	}

	if m.ViewabilityPct < 50 {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "poor_viewability",
			Severity: model.GetSeverity("poor_viewability"),
			Detail:   fmt.Sprintf("%.1f%% viewability", m.ViewabilityPct),
		})
	}

	return patterns
}

// riskScore combines the rate metrics into a [0, 1] delivery risk.
func (a *GAMAnalyzer) riskScore(m model.GAMMetrics, patterns []model.SuspiciousPattern) float64 {
	var risk float64

	switch {
	case m.CTRPct >= 5:
		risk += 0.3
	case m.CTRPct >= 3:
		risk += 0.15
	}

	switch {
	case m.ECPM <= 0.5:
		risk += 0.25
	case m.ECPM <= 1.0:
		risk += 0.12
	}

	switch {
	case m.ViewabilityPct < 40:
		risk += 0.2
	case m.ViewabilityPct < 50:
		risk += 0.1
	}

	var highCount int
	for _, p := range patterns {
		if p.Severity >= model.SeverityHigh {
			highCount++
		}
	}
	patternRisk := float64(highCount) * 0.1
	if patternRisk > 0.25 {
		patternRisk = 0.25
	}
	risk += patternRisk

	if risk > 1 {
		risk = 1
	}
	return risk
}
