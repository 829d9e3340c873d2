package model

import (
	"fmt"
	"time"
)

// SimpleReport is the condensed view of an audit: severity counts, the
// aggregate risk, and a flat finding list.
//
// Design decision: A separate type rather than printing slices of
// AuditReport because:
// 1. Findings from all five analyses land in one curated list
// 2. The condensed view serializes to JSON on its own
// 3. Presentation stays decoupled from the analysis structures
type SimpleReport struct {
	// Site is the audited site.
	Site string `json:"site"`

	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// === Severity Summary ===

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`

	// === Risk Summary ===

	// RiskScorePct is the aggregate risk on a 0-100 scale.
	RiskScorePct float64 `json:"risk_score_pct"`

	// RiskLevel is the categorical aggregate risk.
	RiskLevel RiskLevel `json:"risk_level"`

	// Confidence is the aggregate assessment confidence.
	Confidence float64 `json:"confidence"`

	// === Findings ===

	// Findings contains all categorized findings.
	Findings []Finding `json:"findings,omitempty"`

	// === Audit Statistics ===

	// AdCount is the number of detected ad slots.
	AdCount int `json:"ad_count"`

	// AdRequestCount is the number of classified ad requests.
	AdRequestCount int `json:"ad_request_count"`

	// TimedOut indicates if the audit was terminated early.
	TimedOut bool `json:"timed_out"`

	// Error contains any error message if the audit failed.
	Error string `json:"error,omitempty"`
}

// Finding represents a single finding in the simple report.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to the findingInfoMapping in severity.go.
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains the implications of this finding.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value found (domain, text excerpt, count).
	Value string `json:"value,omitempty"`

	// Location is where the finding was discovered.
	Location string `json:"location,omitempty"`
}

// NewSimpleReport creates a new SimpleReport from an AuditReport.
// This extracts and summarizes key findings from every analysis.
func NewSimpleReport(report *AuditReport) *SimpleReport {
	simple := &SimpleReport{
		Site:        report.Site,
		DateAudited: report.DateAudited,
		TimedOut:    report.TimedOut,
	}

	if report.Error != nil {
		simple.Error = report.Error.Error()
	}

	if report.Signals != nil {
		simple.AdCount = len(report.Signals.AdElements)
	}

	if report.Risk != nil {
		simple.RiskScorePct = report.Risk.RiskScorePct
		simple.RiskLevel = report.Risk.Level
		simple.Confidence = report.Risk.Confidence
	} else {
		simple.RiskLevel = RiskLevelInconclusive
	}

	simple.collectPlacementFindings(report.Placement)
	simple.collectViewabilityFindings(report.Viewability)
	simple.collectHeatmapFindings(report.Heatmap)
	simple.collectNetworkFindings(report.Network)
	simple.collectGAMFindings(report.GAM)

	simple.countBySeverity()

	return simple
}

// collectPlacementFindings extracts findings from the placement analysis.
func (s *SimpleReport) collectPlacementFindings(pa *PlacementAnalysis) {
	if pa == nil {
		return
	}

	for _, p := range pa.Patterns {
		s.addPattern(p, "page layout")
	}
	for _, p := range pa.Video.Patterns {
		s.addPattern(p, "video players")
	}
}

// collectViewabilityFindings extracts findings from the viewability analysis.
func (s *SimpleReport) collectViewabilityFindings(va *ViewabilityAnalysis) {
	if va == nil {
		return
	}

	for _, p := range va.Issues {
		s.addPattern(p, "viewport")
	}
}

// collectHeatmapFindings extracts findings from the scroll heatmap.
func (s *SimpleReport) collectHeatmapFindings(ha *HeatmapAnalysis) {
	if ha == nil {
		return
	}

	for _, p := range ha.Patterns {
		s.addPattern(p, "scroll depth")
	}
	for _, hit := range ha.DeceptiveHits {
		s.addFinding(hit.Kind, "Deceptive Creative Text",
			"Text designed to provoke accidental ad clicks was found near an ad slot",
			hit.Text, hit.Selector)
	}
}

// collectNetworkFindings extracts findings from the traffic classification.
func (s *SimpleReport) collectNetworkFindings(na *NetworkAnalysis) {
	if na == nil {
		return
	}

	s.AdRequestCount = na.AdRequestCount

	for _, p := range na.Patterns {
		s.addPattern(p, "network traffic")
	}
	for _, rp := range na.Refresh.Patterns {
		s.addFinding("auto_refresh_ads", "Auto-Refreshing Ad Slot",
			fmt.Sprintf("Ad requests to %s repeat every %.0fms on average", rp.Domain, rp.AvgIntervalMS),
			rp.Domain, "network traffic")
	}
	if na.Arbitrage.Detected {
		for _, src := range na.Arbitrage.Sources {
			s.addFinding("arbitrage_traffic", "Paid Traffic Source",
				"Traffic acquisition tag detected, indicating traffic arbitrage",
				src, "network traffic")
		}
	}
}

// collectGAMFindings extracts findings from the ad server metrics analysis.
func (s *SimpleReport) collectGAMFindings(ga *GAMAnalysis) {
	if ga == nil || !ga.HasData {
		return
	}

	for _, p := range ga.Patterns {
		s.addPattern(p, "ad server metrics")
	}
}

// addPattern converts a suspicious pattern into a finding.
func (s *SimpleReport) addPattern(p SuspiciousPattern, location string) {
	title := titleForPattern(p.Type)
	value := p.Detail
	if value == "" && p.Count > 0 {
		value = fmt.Sprintf("%d", p.Count)
	}
	s.addFinding(p.Type, title, p.Detail, value, location)
}

// addFinding appends a finding, filling severity, impact, and
// recommendation from the central finding catalog.
func (s *SimpleReport) addFinding(findingType, title, description, value, location string) {
	info := GetFindingInfo(findingType)
	s.Findings = append(s.Findings, Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Location:       location,
	})
}

// titleForPattern maps pattern identifiers to display titles.
func titleForPattern(patternType string) string {
	titles := map[string]string{
		"excessive_ads":            "Excessive Ad Count",
		"ad_stacking":              "Stacked Ad Slots",
		"hidden_ad_requests":       "Hidden Ad Requests",
		"aggressive_ad_script":     "Aggressive Ad Script",
		"auto_refresh_ads":         "Auto-Refreshing Ads",
		"excessive_ad_calls":       "Excessive Ad Calls",
		"high_ad_calls":            "High Ad Call Volume",
		"multiple_prebid_auctions": "Repeated Prebid Auctions",
		"fragmented_ad_stack":      "Fragmented Ad Stack",
		"excessive_video_ads":      "Excessive Video Ad Requests",
		"hidden_ads":               "Hidden Ads",
		"low_viewability":          "Low Viewability",
		"scroll_trap":              "Scroll Trap Layout",
		"infinite_scroll_ads":      "Infinite Scroll Ads",
		"video_stuffing":           "Video Player Stuffing",
		"muted_autoplay":           "Muted Autoplay Video",
		"hidden_video":             "Hidden Video Player",
		"sticky_video_overload":    "Sticky Video Overload",
		"deceptive_text":           "Deceptive Text",
		"fake_download":            "Fake Download Button",
		"arbitrage_traffic":        "Traffic Arbitrage",
		"suspicious_ctr":           "Suspicious Click-Through Rate",
		"elevated_ctr":             "Elevated Click-Through Rate",
		"very_low_ecpm":            "Very Low eCPM",
		"low_ecpm":                 "Low eCPM",
		"poor_viewability":         "Poor Measured Viewability",
		"above_fold_crowding":      "Above-the-Fold Ad Crowding",
		"large_ad_unit":            "Oversized Ad Unit",
	}
	if t, ok := titles[patternType]; ok {
		return t
	}
	return patternType
}

// countBySeverity tallies the per-severity counters from Findings.
func (s *SimpleReport) countBySeverity() {
	for _, f := range s.Findings {
		switch f.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityHigh:
			s.HighCount++
		case SeverityMedium:
			s.MediumCount++
		case SeverityLow:
			s.LowCount++
		case SeverityInfo:
			s.InfoCount++
		}
	}
}

// TotalFindings reports the overall finding count.
func (s *SimpleReport) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings reports whether the audit produced any findings.
func (s *SimpleReport) HasFindings() bool {
	return len(s.Findings) > 0
}

// GetFindingsBySeverity returns the findings at exactly the given severity.
func (s *SimpleReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}
