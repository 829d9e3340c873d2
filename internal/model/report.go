package model

import "time"

// AuditReport is the main audit result structure.
// It accumulates each analyzer's output as the pipeline runs and carries
// the final aggregated risk assessment.
//
// Design decision: We use a single large struct rather than many small ones
// to simplify serialization and database storage. Each analyzer owns one
// sub-struct so the pipeline steps never contend over fields.
type AuditReport struct {
	// === Basic Information ===

	// Site is the audited site (domain or URL).
	Site string `json:"site"`

	// DateAudited is the timestamp when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// Fingerprint is the SHA3-256 hex digest of the input signal bundle.
	// Identical bundles produce identical audits, so the fingerprint
	// identifies re-runs in the history database.
	Fingerprint string `json:"fingerprint,omitempty"`

	// === Input ===

	// Signals is the signal bundle this audit consumed.
	// Excluded from JSON output due to size; the fingerprint stands in.
	Signals *PageSignals `json:"-"`

	// CrawlStatus mirrors Signals.CrawlStatus for serialized reports.
	CrawlStatus CrawlStatus `json:"crawl_status"`

	// === Analysis Results ===

	// Placement contains the ad placement analysis.
	Placement *PlacementAnalysis `json:"placement,omitempty"`

	// Viewability contains the viewability classification.
	Viewability *ViewabilityAnalysis `json:"viewability,omitempty"`

	// Heatmap contains the scroll heatmap analysis.
	Heatmap *HeatmapAnalysis `json:"heatmap,omitempty"`

	// Network contains the traffic classification.
	Network *NetworkAnalysis `json:"network,omitempty"`

	// GAM contains the ad server metrics analysis, when data was supplied.
	GAM *GAMAnalysis `json:"gam,omitempty"`

	// Risk contains the final aggregated assessment.
	Risk *RiskResult `json:"risk,omitempty"`

	// SimpleReport contains the summarized findings for human-readable output.
	SimpleReport *SimpleReport `json:"simple_report,omitempty"`

	// === Audit State ===

	// TimedOut is true if the audit was terminated due to cancellation.
	TimedOut bool `json:"timed_out"`

	// PerformedAnalyses lists the analysis steps that actually ran.
	PerformedAnalyses []string `json:"performed_analyses,omitempty"`

	// Error contains any error that occurred during the audit.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewAuditReport creates a new report for the given signal bundle.
func NewAuditReport(signals *PageSignals) *AuditReport {
	return &AuditReport{
		Site:        signals.Site,
		DateAudited: time.Now(),
		Signals:     signals,
		CrawlStatus: signals.CrawlStatus,
	}
}

// AddFinding adds a finding to the simple report.
// If the simple report doesn't exist, it initializes one.
//
// Design decision: We store findings in SimpleReport rather than
// a separate findings slice because:
// 1. SimpleReport already has finding aggregation logic
// 2. Avoids duplication of findings data
// 3. Keeps the main report focused on raw data
func (r *AuditReport) AddFinding(finding Finding) {
	if r.SimpleReport == nil {
		r.SimpleReport = &SimpleReport{
			Site:        r.Site,
			DateAudited: r.DateAudited,
			Findings:    make([]Finding, 0),
		}
	}

	// Avoid duplicates based on type and value
	for _, f := range r.SimpleReport.Findings {
		if f.Type == finding.Type && f.Value == finding.Value && f.Location == finding.Location {
			return
		}
	}

	r.SimpleReport.Findings = append(r.SimpleReport.Findings, finding)

	// Update severity counts
	switch finding.Severity {
	case SeverityCritical:
		r.SimpleReport.CriticalCount++
	case SeverityHigh:
		r.SimpleReport.HighCount++
	case SeverityMedium:
		r.SimpleReport.MediumCount++
	case SeverityLow:
		r.SimpleReport.LowCount++
	case SeverityInfo:
		r.SimpleReport.InfoCount++
	}
}

// RiskScorePct returns the aggregate risk on a 0-100 scale, or 0 when the
// risk aggregation has not run.
func (r *AuditReport) RiskScorePct() float64 {
	if r.Risk == nil {
		return 0
	}
	return r.Risk.RiskScorePct
}

// RiskLevelText returns the aggregate risk level as a string, or
// "inconclusive" when the risk aggregation has not run.
func (r *AuditReport) RiskLevelText() string {
	if r.Risk == nil {
		return string(RiskLevelInconclusive)
	}
	return string(r.Risk.Level)
}
