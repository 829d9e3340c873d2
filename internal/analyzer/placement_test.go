package analyzer

import (
	"math"
	"testing"

	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/geometry"
	"github.com/mfascan/mfascan/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPlacementAnalyzerEmptyBundle(t *testing.T) {
	t.Parallel()

	a := NewPlacementAnalyzer(config.DefaultThresholds())
	signals := &model.PageSignals{
		Site:     "example.com",
		Viewport: model.Viewport{Width: 1920, Height: 1080},
	}

	result := a.Analyze(signals)

	if result.AdCount != 0 {
		t.Errorf("AdCount = %d, want 0", result.AdCount)
	}
	if result.RiskScore != 0 {
		t.Errorf("RiskScore = %v, want 0", result.RiskScore)
	}
	if result.LayoutRisk != 0 {
		t.Errorf("LayoutRisk = %v, want 0", result.LayoutRisk)
	}
	if result.Level != model.RiskLevelLow {
		t.Errorf("Level = %q, want %q", result.Level, model.RiskLevelLow)
	}
	if len(result.Patterns) != 0 {
		t.Errorf("Patterns = %v, want none", result.Patterns)
	}
}

func TestPlacementAnalyzerRiskScoreCountTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		adCount int
		want    float64
	}{
		{name: "three ads stay free", adCount: 3, want: 0},
		{name: "four ads enter the low tier", adCount: 4, want: 0.1},
		{name: "seven ads enter the middle tier", adCount: 7, want: 0.2},
		{name: "eleven ads enter the top tier", adCount: 11, want: 0.3},
	}

	a := NewPlacementAnalyzer(config.DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := &model.PlacementAnalysis{AdCount: tt.adCount}
			got := a.riskScore(result)
			if !almostEqual(got, tt.want) {
				t.Errorf("riskScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlacementAnalyzerDetectsStackingAndExcess(t *testing.T) {
	t.Parallel()

	a := NewPlacementAnalyzer(config.DefaultThresholds())

	// Two slots overlapping by 60% above the fold, six more far below it.
	ads := []model.AdElement{
		{ID: "a", Rect: geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}, Visible: true},
		{ID: "b", Rect: geometry.Rect{X: 0, Y: 40, Width: 100, Height: 100}, Visible: true},
	}
	for i := 0; i < 6; i++ {
		ads = append(ads, model.AdElement{
			Rect:    geometry.Rect{X: float64(i) * 400, Y: 2000, Width: 300, Height: 250},
			Visible: true,
		})
	}

	signals := &model.PageSignals{
		Site:       "example.com",
		Viewport:   model.Viewport{Width: 1920, Height: 1080},
		Page:       model.PageDimensions{TotalHeight: 5000, Width: 1920},
		Document:   model.DocumentMetrics{TotalElements: 1000, TextLength: 5000},
		AdElements: ads,
	}

	result := a.Analyze(signals)

	if result.AdCount != 8 {
		t.Errorf("AdCount = %d, want 8", result.AdCount)
	}
	if len(result.StackedPairs) != 1 {
		t.Fatalf("StackedPairs = %d, want 1", len(result.StackedPairs))
	}
	if !almostEqual(result.MaxOverlap, 0.6) {
		t.Errorf("MaxOverlap = %v, want 0.6", result.MaxOverlap)
	}
	if result.AboveFoldCount != 2 {
		t.Errorf("AboveFoldCount = %d, want 2", result.AboveFoldCount)
	}

	types := patternTypes(result.Patterns)
	if !types["excessive_ads"] {
		t.Error("expected excessive_ads pattern")
	}
	if !types["ad_stacking"] {
		t.Error("expected ad_stacking pattern")
	}
	if types["above_fold_crowding"] {
		t.Error("unexpected above_fold_crowding pattern with two ads above the fold")
	}
	if result.RiskScore <= 0.3 {
		t.Errorf("RiskScore = %v, want above 0.3", result.RiskScore)
	}
}

func TestPlacementAnalyzerHiddenRequestFarming(t *testing.T) {
	t.Parallel()

	a := NewPlacementAnalyzer(config.DefaultThresholds())
	signals := &model.PageSignals{
		Site:     "example.com",
		Viewport: model.Viewport{Width: 1920, Height: 1080},
		Document: model.DocumentMetrics{TotalElements: 500, TextLength: 3000},
		AdElements: []model.AdElement{
			{Rect: geometry.Rect{X: 0, Y: 0, Width: 300, Height: 250}, Visible: true},
			{Rect: geometry.Rect{X: 400, Y: 0, Width: 300, Height: 250}, Visible: true},
		},
		AdRequestCount: 40,
	}

	result := a.Analyze(signals)

	types := patternTypes(result.Patterns)
	if !types["hidden_ad_requests"] {
		t.Errorf("expected hidden_ad_requests pattern at 20 requests per slot, got %v", result.Patterns)
	}
}

func TestPlacementAnalyzerAggressiveScripts(t *testing.T) {
	t.Parallel()

	a := NewPlacementAnalyzer(config.DefaultThresholds())
	signals := &model.PageSignals{
		Site:     "example.com",
		Viewport: model.Viewport{Width: 1920, Height: 1080},
		Document: model.DocumentMetrics{TotalElements: 500, TextLength: 3000},
		Scripts: []string{
			"https://cdn.example.com/app.js",
			"https://static.PopUnder.example/loader.js",
			"https://a.exoclick.com/tag.js",
		},
	}

	result := a.Analyze(signals)

	var hits int
	for _, p := range result.Patterns {
		if p.Type == "aggressive_ad_script" {
			hits++
		}
	}
	if hits != 2 {
		t.Errorf("aggressive_ad_script patterns = %d, want 2", hits)
	}
}

func TestPlacementAnalyzerLargeAdUnit(t *testing.T) {
	t.Parallel()

	a := NewPlacementAnalyzer(config.DefaultThresholds())
	signals := &model.PageSignals{
		Site:     "example.com",
		Viewport: model.Viewport{Width: 1920, Height: 1080},
		Document: model.DocumentMetrics{TotalElements: 500, TextLength: 3000},
		AdElements: []model.AdElement{
			{Rect: geometry.Rect{X: 0, Y: 100, Width: 970, Height: 400}, Visible: true},
		},
	}

	result := a.Analyze(signals)

	types := patternTypes(result.Patterns)
	if !types["large_ad_unit"] {
		t.Errorf("expected large_ad_unit pattern for a 388000px slot, got %v", result.Patterns)
	}
}

func TestPlacementAnalyzerVideo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		videos       []model.VideoElement
		wantRisk     float64
		wantPatterns []string
	}{
		{
			name:     "no players",
			videos:   nil,
			wantRisk: 0,
		},
		{
			name: "muted autoplay",
			videos: []model.VideoElement{
				{Autoplay: true, Muted: true},
			},
			wantRisk:     0.25,
			wantPatterns: []string{"muted_autoplay"},
		},
		{
			name: "stuffed page",
			videos: []model.VideoElement{
				{}, {}, {}, {}, {}, {},
			},
			wantRisk:     0.3,
			wantPatterns: []string{"video_stuffing"},
		},
		{
			name: "hidden players capped",
			videos: []model.VideoElement{
				{Hidden: true}, {Hidden: true}, {Hidden: true}, {Hidden: true},
			},
			wantRisk:     0.3,
			wantPatterns: []string{"hidden_video"},
		},
		{
			name: "sticky overload",
			videos: []model.VideoElement{
				{Sticky: true}, {Sticky: true}, {Sticky: true},
			},
			wantRisk:     0.2,
			wantPatterns: []string{"sticky_video_overload"},
		},
	}

	a := NewPlacementAnalyzer(config.DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := a.analyzeVideo(tt.videos)
			if !almostEqual(got.RiskScore, tt.wantRisk) {
				t.Errorf("RiskScore = %v, want %v", got.RiskScore, tt.wantRisk)
			}
			if len(got.Patterns) != len(tt.wantPatterns) {
				t.Fatalf("Patterns = %d, want %d", len(got.Patterns), len(tt.wantPatterns))
			}
			for i, want := range tt.wantPatterns {
				if got.Patterns[i].Type != want {
					t.Errorf("Patterns[%d].Type = %q, want %q", i, got.Patterns[i].Type, want)
				}
			}
		})
	}
}

func TestPlacementAnalyzerDensityExcessive(t *testing.T) {
	t.Parallel()

	a := NewPlacementAnalyzer(config.DefaultThresholds())

	// A single slot covering nearly half the viewport trips the area gate
	// even when the element and text ratios stay modest.
	signals := &model.PageSignals{
		Site:     "example.com",
		Viewport: model.Viewport{Width: 1000, Height: 1000},
		Document: model.DocumentMetrics{TotalElements: 2000, TextLength: 20000},
		AdElements: []model.AdElement{
			{Rect: geometry.Rect{X: 0, Y: 0, Width: 900, Height: 500}, Visible: true},
		},
	}

	result := a.Analyze(signals)

	if !almostEqual(result.Density.AreaDensity, 0.45) {
		t.Errorf("AreaDensity = %v, want 0.45", result.Density.AreaDensity)
	}
	if !result.Density.Excessive {
		t.Error("Density.Excessive = false, want true")
	}
}

func patternTypes(patterns []model.SuspiciousPattern) map[string]bool {
	types := make(map[string]bool)
	for _, p := range patterns {
		types[p.Type] = true
	}
	return types
}
