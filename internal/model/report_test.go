package model

import (
	"testing"
	"time"

	"github.com/mfascan/mfascan/internal/geometry"
)

// TestNewAuditReport tests the AuditReport constructor.
func TestNewAuditReport(t *testing.T) {
	t.Parallel()

	signals := &PageSignals{
		Site:        "example.com",
		CrawlStatus: CrawlStatusSuccess,
	}
	report := NewAuditReport(signals)

	t.Run("sets site", func(t *testing.T) {
		t.Parallel()
		if report.Site != "example.com" {
			t.Errorf("got %q, expected %q", report.Site, "example.com")
		}
	})

	t.Run("sets audit timestamp", func(t *testing.T) {
		t.Parallel()
		if report.DateAudited.IsZero() {
			t.Error("expected DateAudited to be set")
		}
		if time.Since(report.DateAudited) > time.Second {
			t.Error("DateAudited is too old")
		}
	})

	t.Run("carries the signal bundle", func(t *testing.T) {
		t.Parallel()
		if report.Signals != signals {
			t.Error("expected Signals to reference the input bundle")
		}
	})

	t.Run("mirrors crawl status", func(t *testing.T) {
		t.Parallel()
		if report.CrawlStatus != CrawlStatusSuccess {
			t.Errorf("got %q, expected %q", report.CrawlStatus, CrawlStatusSuccess)
		}
	})
}

// TestAuditReportAddFinding tests the AddFinding method.
func TestAuditReportAddFinding(t *testing.T) {
	t.Parallel()

	t.Run("initializes SimpleReport if nil", func(t *testing.T) {
		t.Parallel()

		report := NewAuditReport(&PageSignals{Site: "example.com"})

		finding := Finding{
			Type:     "excessive_ads",
			Title:    "Excessive Ad Count",
			Severity: SeverityHigh,
			Value:    "12",
		}

		report.AddFinding(finding)

		if report.SimpleReport == nil {
			t.Fatal("expected SimpleReport to be initialized")
		}
		if len(report.SimpleReport.Findings) != 1 {
			t.Errorf("expected 1 finding, got %d", len(report.SimpleReport.Findings))
		}
	})

	t.Run("deduplicates findings", func(t *testing.T) {
		t.Parallel()

		report := NewAuditReport(&PageSignals{Site: "example.com"})

		finding := Finding{
			Type:     "auto_refresh_ads",
			Title:    "Auto-Refreshing Ads",
			Severity: SeverityHigh,
			Value:    "doubleclick.net",
			Location: "network traffic",
		}

		report.AddFinding(finding)
		report.AddFinding(finding) // Duplicate

		if len(report.SimpleReport.Findings) != 1 {
			t.Errorf("expected 1 finding after deduplication, got %d", len(report.SimpleReport.Findings))
		}
	})

	t.Run("counts severity levels correctly", func(t *testing.T) {
		t.Parallel()

		report := NewAuditReport(&PageSignals{Site: "example.com"})

		report.AddFinding(Finding{Type: "critical1", Severity: SeverityCritical, Value: "c1"})
		report.AddFinding(Finding{Type: "critical2", Severity: SeverityCritical, Value: "c2"})
		report.AddFinding(Finding{Type: "high1", Severity: SeverityHigh, Value: "h1"})
		report.AddFinding(Finding{Type: "medium1", Severity: SeverityMedium, Value: "m1"})
		report.AddFinding(Finding{Type: "low1", Severity: SeverityLow, Value: "l1"})
		report.AddFinding(Finding{Type: "info1", Severity: SeverityInfo, Value: "i1"})

		if report.SimpleReport.CriticalCount != 2 {
			t.Errorf("expected CriticalCount 2, got %d", report.SimpleReport.CriticalCount)
		}
		if report.SimpleReport.HighCount != 1 {
			t.Errorf("expected HighCount 1, got %d", report.SimpleReport.HighCount)
		}
		if report.SimpleReport.MediumCount != 1 {
			t.Errorf("expected MediumCount 1, got %d", report.SimpleReport.MediumCount)
		}
		if report.SimpleReport.LowCount != 1 {
			t.Errorf("expected LowCount 1, got %d", report.SimpleReport.LowCount)
		}
		if report.SimpleReport.InfoCount != 1 {
			t.Errorf("expected InfoCount 1, got %d", report.SimpleReport.InfoCount)
		}
	})
}

// TestNewSimpleReport tests the NewSimpleReport function.
func TestNewSimpleReport(t *testing.T) {
	t.Parallel()

	t.Run("creates report from AuditReport", func(t *testing.T) {
		t.Parallel()

		report := NewAuditReport(&PageSignals{
			Site: "example.com",
			AdElements: []AdElement{
				{Rect: geometry.Rect{X: 0, Y: 0, Width: 300, Height: 250}, Visible: true},
				{Rect: geometry.Rect{X: 0, Y: 300, Width: 300, Height: 250}, Visible: true},
			},
		})
		report.Placement = &PlacementAnalysis{
			AdCount: 2,
			Patterns: []SuspiciousPattern{
				{Type: "excessive_ads", Severity: SeverityHigh, Detail: "12 ads on one page", Count: 12},
			},
		}
		report.Network = &NetworkAnalysis{
			AdRequestCount: 40,
			Patterns: []SuspiciousPattern{
				{Type: "fragmented_ad_stack", Severity: SeverityMedium, Count: 18},
			},
		}
		report.Risk = &RiskResult{
			Probability:  0.72,
			RiskScorePct: 72,
			Confidence:   0.9,
			Level:        RiskLevelHigh,
			Mode:         ScoringModeFull,
		}

		simple := NewSimpleReport(report)

		if simple.Site != "example.com" {
			t.Errorf("expected 'example.com', got %q", simple.Site)
		}
		if simple.AdCount != 2 {
			t.Errorf("expected AdCount 2, got %d", simple.AdCount)
		}
		if simple.AdRequestCount != 40 {
			t.Errorf("expected AdRequestCount 40, got %d", simple.AdRequestCount)
		}
		if simple.RiskLevel != RiskLevelHigh {
			t.Errorf("expected high risk level, got %q", simple.RiskLevel)
		}
		if len(simple.Findings) != 2 {
			t.Errorf("expected 2 findings, got %d", len(simple.Findings))
		}
		if simple.HighCount != 1 || simple.MediumCount != 1 {
			t.Errorf("unexpected severity counts: high=%d medium=%d", simple.HighCount, simple.MediumCount)
		}
	})

	t.Run("collects deceptive hits and refresh patterns", func(t *testing.T) {
		t.Parallel()

		report := NewAuditReport(&PageSignals{Site: "example.com"})
		report.Heatmap = &HeatmapAnalysis{
			DeceptiveHits: []DeceptiveHit{
				{Kind: "fake_download", Text: "Download Now Free", Selector: ".ad-btn"},
			},
		}
		report.Network = &NetworkAnalysis{
			Refresh: RefreshAnalysis{
				Detected: true,
				Patterns: []RefreshPattern{
					{Domain: "doubleclick.net", RequestCount: 6, MinIntervalMS: 10000, AvgIntervalMS: 12000, Severity: SeverityHigh},
				},
			},
			Arbitrage: ArbitrageAnalysis{
				Detected: true,
				Sources:  []string{"Taboola", "Facebook Paid"},
			},
		}

		simple := NewSimpleReport(report)

		if simple.CriticalCount != 1 {
			t.Errorf("expected 1 critical finding (fake download), got %d", simple.CriticalCount)
		}

		var refresh, arbitrage int
		for _, f := range simple.Findings {
			switch f.Type {
			case "auto_refresh_ads":
				refresh++
			case "arbitrage_traffic":
				arbitrage++
			}
		}
		if refresh != 1 {
			t.Errorf("expected 1 refresh finding, got %d", refresh)
		}
		if arbitrage != 2 {
			t.Errorf("expected 2 arbitrage findings, got %d", arbitrage)
		}
	})

	t.Run("handles error message", func(t *testing.T) {
		t.Parallel()

		report := NewAuditReport(&PageSignals{Site: "example.com"})
		report.Error = &testError{msg: "test error"}

		simple := NewSimpleReport(report)

		if simple.Error != "test error" {
			t.Errorf("expected error message 'test error', got %q", simple.Error)
		}
	})

	t.Run("marks missing risk as inconclusive", func(t *testing.T) {
		t.Parallel()

		report := NewAuditReport(&PageSignals{Site: "example.com"})

		simple := NewSimpleReport(report)

		if simple.RiskLevel != RiskLevelInconclusive {
			t.Errorf("expected inconclusive, got %q", simple.RiskLevel)
		}
	})
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

// TestSimpleReportMethods tests SimpleReport helper methods.
func TestSimpleReportMethods(t *testing.T) {
	t.Parallel()

	t.Run("TotalFindings returns count", func(t *testing.T) {
		t.Parallel()

		report := &SimpleReport{
			Findings: []Finding{
				{Type: "test1", Severity: SeverityHigh},
				{Type: "test2", Severity: SeverityLow},
			},
		}

		if report.TotalFindings() != 2 {
			t.Errorf("expected 2, got %d", report.TotalFindings())
		}
	})

	t.Run("HasFindings returns false when no findings", func(t *testing.T) {
		t.Parallel()

		report := &SimpleReport{}

		if report.HasFindings() {
			t.Error("expected false")
		}
	})

	t.Run("GetFindingsBySeverity filters correctly", func(t *testing.T) {
		t.Parallel()

		report := &SimpleReport{
			Findings: []Finding{
				{Type: "test1", Severity: SeverityHigh},
				{Type: "test2", Severity: SeverityLow},
				{Type: "test3", Severity: SeverityHigh},
			},
		}

		highFindings := report.GetFindingsBySeverity(SeverityHigh)
		if len(highFindings) != 2 {
			t.Errorf("expected 2 high findings, got %d", len(highFindings))
		}

		lowFindings := report.GetFindingsBySeverity(SeverityLow)
		if len(lowFindings) != 1 {
			t.Errorf("expected 1 low finding, got %d", len(lowFindings))
		}
	})
}
