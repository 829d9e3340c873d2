package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// This test ensures that defaults are documented through tests and that changes
// to defaults are intentional (tests will fail if defaults change unexpectedly).
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 60 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 60*time.Second {
			t.Errorf("expected Timeout to be 60s, got %v", cfg.Timeout)
		}
	})

	t.Run("default BatchSize is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 10 {
			t.Errorf("expected BatchSize to be 10, got %d", cfg.BatchSize)
		}
	})

	t.Run("default thresholds are applied", func(t *testing.T) {
		t.Parallel()
		if cfg.Thresholds != DefaultThresholds() {
			t.Error("expected default thresholds")
		}
	})
}

// TestDefaultThresholds verifies the calibrated default threshold values.
func TestDefaultThresholds(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	testCases := []struct {
		name string
		got  float64
		want float64
	}{
		{"ExcessiveAdCount", float64(th.ExcessiveAdCount), 6},
		{"MaxNormalDensity", th.MaxNormalDensity, 0.3},
		{"ExcessiveAreaDensity", th.ExcessiveAreaDensity, 0.4},
		{"StackOverlap", th.StackOverlap, 0.5},
		{"MinVisibilityRatio", th.MinVisibilityRatio, 0.5},
		{"ViewabilityAboveFoldY", th.ViewabilityAboveFoldY, 600},
		{"PlacementAboveFoldY", th.PlacementAboveFoldY, 1000},
		{"MaxScrollBands", float64(th.MaxScrollBands), 10},
		{"ScrollTrapDensity", th.ScrollTrapDensity, 0.25},
		{"RefreshMinIntervalMS", th.RefreshMinIntervalMS, 30000},
		{"RefreshHighIntervalMS", th.RefreshHighIntervalMS, 15000},
		{"RefreshAvgIntervalMS", th.RefreshAvgIntervalMS, 60000},
		{"LargeAdAreaPx", th.LargeAdAreaPx, 300000},
		{"ExcessiveAdRequests", float64(th.ExcessiveAdRequests), 100},
		{"FragmentedNetworkCount", float64(th.FragmentedNetworkCount), 15},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if tc.got != tc.want {
				t.Errorf("%s = %v, expected %v", tc.name, tc.got, tc.want)
			}
		})
	}
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	// Tests can modify specific fields to test validation rules.
	validConfig := func() *Config {
		return &Config{
			BundlePaths: []string{"signals.json"},
			Timeout:     60 * time.Second,
			BatchSize:   10,
			Thresholds:  DefaultThresholds(),
		}
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty bundle list returns ErrNoBundle", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.BundlePaths = nil

		err := cfg.Validate()
		if !errors.Is(err, ErrNoBundle) {
			t.Errorf("expected ErrNoBundle, got %v", err)
		}
	})

	t.Run("zero timeout returns ErrInvalidTimeout", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Timeout = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("zero batch size returns ErrInvalidBatchSize", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.BatchSize = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidBatchSize) {
			t.Errorf("expected ErrInvalidBatchSize, got %v", err)
		}
	})

	t.Run("json and markdown both enabled returns ErrConflictingReportFormats", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.JSONReport = true
		cfg.MarkdownReport = true

		err := cfg.Validate()
		if !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("json only is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.JSONReport = true

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("invalid visibility ratio is rejected", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Thresholds.MinVisibilityRatio = 1.5

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidVisibilityRatio) {
			t.Errorf("expected ErrInvalidVisibilityRatio, got %v", err)
		}
	})
}

// TestThresholdsValidate tests threshold consistency checks.
func TestThresholdsValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := DefaultThresholds().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("stack overlap of 1 is rejected", func(t *testing.T) {
		t.Parallel()
		th := DefaultThresholds()
		th.StackOverlap = 1

		if !errors.Is(th.Validate(), ErrInvalidStackOverlap) {
			t.Error("expected ErrInvalidStackOverlap")
		}
	})

	t.Run("zero scroll bands is rejected", func(t *testing.T) {
		t.Parallel()
		th := DefaultThresholds()
		th.MaxScrollBands = 0

		if !errors.Is(th.Validate(), ErrInvalidScrollBands) {
			t.Error("expected ErrInvalidScrollBands")
		}
	})

	t.Run("inverted refresh intervals are rejected", func(t *testing.T) {
		t.Parallel()
		th := DefaultThresholds()
		th.RefreshHighIntervalMS = 45000

		if !errors.Is(th.Validate(), ErrInvalidRefreshIntervals) {
			t.Error("expected ErrInvalidRefreshIntervals")
		}
	})
}

// TestFileGetSiteConfig tests the GetSiteConfig method.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	intPtr := func(v int) *int { return &v }
	floatPtr := func(v float64) *float64 { return &v }

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				ExcessiveAdCount: intPtr(8),
			},
			Sites: map[string]SiteConfig{},
		}

		cfg := file.GetSiteConfig("unknown.example.com")
		if cfg.ExcessiveAdCount == nil || *cfg.ExcessiveAdCount != 8 {
			t.Errorf("expected default ad count override 8, got %v", cfg.ExcessiveAdCount)
		}
	})

	t.Run("site overrides defaults", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				ExcessiveAdCount: intPtr(8),
			},
			Sites: map[string]SiteConfig{
				"gallery.example.com": {
					ExcessiveAdCount:  intPtr(12),
					ScrollTrapDensity: floatPtr(0.4),
					Notes:             "image gallery, dense by design",
				},
			},
		}

		cfg := file.GetSiteConfig("gallery.example.com")
		if cfg.ExcessiveAdCount == nil || *cfg.ExcessiveAdCount != 12 {
			t.Errorf("expected site override 12, got %v", cfg.ExcessiveAdCount)
		}
		if cfg.ScrollTrapDensity == nil || *cfg.ScrollTrapDensity != 0.4 {
			t.Errorf("expected density override 0.4, got %v", cfg.ScrollTrapDensity)
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{MinVisibilityRatio: floatPtr(0.4)},
		}

		cfg := file.GetSiteConfig("any.example.com")
		if cfg.MinVisibilityRatio == nil || *cfg.MinVisibilityRatio != 0.4 {
			t.Errorf("expected default visibility override, got %v", cfg.MinVisibilityRatio)
		}
	})
}

// TestSiteConfigApplyTo tests threshold override application.
func TestSiteConfigApplyTo(t *testing.T) {
	t.Parallel()

	intPtr := func(v int) *int { return &v }
	floatPtr := func(v float64) *float64 { return &v }

	t.Run("empty override changes nothing", func(t *testing.T) {
		t.Parallel()

		base := DefaultThresholds()
		got := SiteConfig{}.ApplyTo(base)

		if got != base {
			t.Error("expected thresholds unchanged")
		}
	})

	t.Run("overrides are applied without mutating the base", func(t *testing.T) {
		t.Parallel()

		base := DefaultThresholds()
		sc := SiteConfig{
			ExcessiveAdCount:     intPtr(12),
			MinVisibilityRatio:   floatPtr(0.4),
			RefreshMinIntervalMS: floatPtr(20000),
		}

		got := sc.ApplyTo(base)

		if got.ExcessiveAdCount != 12 {
			t.Errorf("expected ExcessiveAdCount 12, got %d", got.ExcessiveAdCount)
		}
		if got.MinVisibilityRatio != 0.4 {
			t.Errorf("expected MinVisibilityRatio 0.4, got %v", got.MinVisibilityRatio)
		}
		if got.RefreshMinIntervalMS != 20000 {
			t.Errorf("expected RefreshMinIntervalMS 20000, got %v", got.RefreshMinIntervalMS)
		}
		if base.ExcessiveAdCount != 6 {
			t.Error("base thresholds were mutated")
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.mfascan")
		if err == nil {
			t.Fatal("expected error for non-existent file")
		}
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".mfascan")

		content := `defaults:
  excessiveAdCount: 8
sites:
  gallery.example.com:
    excessiveAdCount: 12
    scrollTrapDensity: 0.4
    notes: "image gallery, dense by design"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.ExcessiveAdCount == nil || *cfg.Defaults.ExcessiveAdCount != 8 {
			t.Errorf("expected default ad count 8, got %v", cfg.Defaults.ExcessiveAdCount)
		}

		site, ok := cfg.Sites["gallery.example.com"]
		if !ok {
			t.Fatal("expected gallery.example.com in sites")
		}
		if site.ExcessiveAdCount == nil || *site.ExcessiveAdCount != 12 {
			t.Errorf("expected site ad count 12, got %v", site.ExcessiveAdCount)
		}
		if site.ScrollTrapDensity == nil || *site.ScrollTrapDensity != 0.4 {
			t.Errorf("expected site density 0.4, got %v", site.ScrollTrapDensity)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".mfascan")

		content := `invalid: yaml: content: [}`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".mfascan")

		content := `defaults:
  excessiveAdCount: 7
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "custom.yaml")

		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		result := FindConfigFile(configPath)
		if result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		result := FindConfigFile("/nonexistent/path/config.yaml")
		if result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("returns empty when no config found", func(_ *testing.T) {
		result := FindConfigFile("")
		// This may or may not find a config depending on the system
		// Just ensure it doesn't panic
		_ = result
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	t.Run("XDGDataDir returns non-empty path", func(t *testing.T) {
		t.Parallel()

		dir := XDGDataDir()
		if dir == "" {
			t.Error("expected non-empty XDG data dir")
		}
	})

	t.Run("XDGConfigDir returns non-empty path", func(t *testing.T) {
		t.Parallel()

		dir := XDGConfigDir()
		if dir == "" {
			t.Error("expected non-empty XDG config dir")
		}
	})

	t.Run("XDGCacheDir returns non-empty path", func(t *testing.T) {
		t.Parallel()

		dir := XDGCacheDir()
		if dir == "" {
			t.Error("expected non-empty XDG cache dir")
		}
	})
}
