package analyzer

import (
	"testing"

	"github.com/mfascan/mfascan/internal/model"
)

func TestGAMAnalyzerNoData(t *testing.T) {
	t.Parallel()

	a := NewGAMAnalyzer()

	tests := []struct {
		name    string
		records []model.GAMRecord
	}{
		{name: "no records", records: nil},
		{name: "zero impressions", records: []model.GAMRecord{{Date: "2026-08-01"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := a.Analyze(tt.records)
			if result.HasData {
				t.Error("HasData = true, want false")
			}
			if !almostEqual(result.RiskScore, 0.3) {
				t.Errorf("RiskScore = %v, want 0.3", result.RiskScore)
			}
			if result.Level != model.RiskLevelInconclusive {
				t.Errorf("Level = %q, want %q", result.Level, model.RiskLevelInconclusive)
			}
		})
	}
}

func TestGAMAnalyzerAggregation(t *testing.T) {
	t.Parallel()

	a := NewGAMAnalyzer()
	records := []model.GAMRecord{
		{Date: "2026-08-01", Impressions: 8000, Clicks: 40, Revenue: 16, ViewabilityPct: 60},
		{Date: "2026-08-02", Impressions: 2000, Clicks: 10, Revenue: 4, ViewabilityPct: 80},
	}

	result := a.Analyze(records)

	if !result.HasData {
		t.Fatal("HasData = false, want true")
	}
	m := result.Metrics
	if m.Impressions != 10000 || m.Clicks != 50 {
		t.Errorf("totals = %v/%v, want 10000/50", m.Impressions, m.Clicks)
	}
	if !almostEqual(m.CTRPct, 0.5) {
		t.Errorf("CTRPct = %v, want 0.5", m.CTRPct)
	}
	if !almostEqual(m.ECPM, 2.0) {
		t.Errorf("ECPM = %v, want 2.0", m.ECPM)
	}
	// Weighted: (60*8000 + 80*2000) / 10000 = 64.
	if !almostEqual(m.ViewabilityPct, 64) {
		t.Errorf("ViewabilityPct = %v, want 64", m.ViewabilityPct)
	}
	if len(result.Patterns) != 0 {
		t.Errorf("Patterns = %v, want none for healthy delivery", result.Patterns)
	}
	if result.RiskScore != 0 {
		t.Errorf("RiskScore = %v, want 0", result.RiskScore)
	}
	if result.Level != model.RiskLevelLow {
		t.Errorf("Level = %q, want %q", result.Level, model.RiskLevelLow)
	}
}

func TestGAMAnalyzerMFASignature(t *testing.T) {
	t.Parallel()

	a := NewGAMAnalyzer()

	// The classic signature: clicks far above organic rates, revenue at
	// the bottom of the market, ads barely seen.
	records := []model.GAMRecord{
		{Date: "2026-08-01", Impressions: 10000, Clicks: 500, Revenue: 4, ViewabilityPct: 35},
	}

	result := a.Analyze(records)

	if !almostEqual(result.Metrics.CTRPct, 5) {
		t.Fatalf("CTRPct = %v, want 5", result.Metrics.CTRPct)
	}
	if !almostEqual(result.Metrics.ECPM, 0.4) {
		t.Fatalf("ECPM = %v, want 0.4", result.Metrics.ECPM)
	}

	types := patternTypes(result.Patterns)
	for _, want := range []string{"suspicious_ctr", "very_low_ecpm", "poor_viewability"} {
		if !types[want] {
			t.Errorf("missing %s pattern in %v", want, result.Patterns)
		}
	}

	// 0.3 (ctr) + 0.25 (ecpm) + 0.2 (viewability) + 0.1 (one high pattern).
	if !almostEqual(result.RiskScore, 0.85) {
		t.Errorf("RiskScore = %v, want 0.85", result.RiskScore)
	}
	if result.Level != model.RiskLevelHigh {
		t.Errorf("Level = %q, want %q", result.Level, model.RiskLevelHigh)
	}
}

func TestGAMAnalyzerBorderlineTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		record   model.GAMRecord
		wantRisk float64
		wantType string
	}{
		{
			name:     "elevated but not suspicious ctr",
			record:   model.GAMRecord{Impressions: 10000, Clicks: 200, Revenue: 50, ViewabilityPct: 70},
			wantRisk: 0,
			wantType: "elevated_ctr",
		},
		{
			name:     "low but not rock bottom ecpm",
			record:   model.GAMRecord{Impressions: 10000, Clicks: 10, Revenue: 8, ViewabilityPct: 70},
			wantRisk: 0.12,
			wantType: "low_ecpm",
		},
		{
			name:     "viewability between floors",
			record:   model.GAMRecord{Impressions: 10000, Clicks: 10, Revenue: 50, ViewabilityPct: 45},
			wantRisk: 0.1,
			wantType: "poor_viewability",
		},
	}

	a := NewGAMAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := a.Analyze([]model.GAMRecord{tt.record})
			if !almostEqual(result.RiskScore, tt.wantRisk) {
				t.Errorf("RiskScore = %v, want %v", result.RiskScore, tt.wantRisk)
			}
			types := patternTypes(result.Patterns)
			if !types[tt.wantType] {
				t.Errorf("missing %s pattern in %v", tt.wantType, result.Patterns)
			}
		})
	}
}
