package config

// SiteConfig holds site-specific configuration for a single audited site.
// This allows adjusting analysis thresholds for sites whose layout is
// known to trip a default heuristic (e.g., legitimate galleries with
// high scroll density).
type SiteConfig struct {
	// ExcessiveAdCount overrides Thresholds.ExcessiveAdCount when non-nil.
	ExcessiveAdCount *int `yaml:"excessiveAdCount,omitempty"`

	// MinVisibilityRatio overrides Thresholds.MinVisibilityRatio when non-nil.
	MinVisibilityRatio *float64 `yaml:"minVisibilityRatio,omitempty"`

	// ScrollTrapDensity overrides Thresholds.ScrollTrapDensity when non-nil.
	ScrollTrapDensity *float64 `yaml:"scrollTrapDensity,omitempty"`

	// RefreshMinIntervalMS overrides Thresholds.RefreshMinIntervalMS when non-nil.
	RefreshMinIntervalMS *float64 `yaml:"refreshMinIntervalMs,omitempty"`

	// Notes is free-form operator commentary documenting why an
	// override is in place. It is not used by the analyzers.
	Notes string `yaml:"notes,omitempty"`
}

// File represents the structure of the .mfascan configuration file.
type File struct {
	// Sites maps site names (domains) to their specific configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific site.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(site string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	if siteConfig, ok := cf.Sites[site]; ok {
		if siteConfig.ExcessiveAdCount != nil {
			result.ExcessiveAdCount = siteConfig.ExcessiveAdCount
		}
		if siteConfig.MinVisibilityRatio != nil {
			result.MinVisibilityRatio = siteConfig.MinVisibilityRatio
		}
		if siteConfig.ScrollTrapDensity != nil {
			result.ScrollTrapDensity = siteConfig.ScrollTrapDensity
		}
		if siteConfig.RefreshMinIntervalMS != nil {
			result.RefreshMinIntervalMS = siteConfig.RefreshMinIntervalMS
		}
		if siteConfig.Notes != "" {
			result.Notes = siteConfig.Notes
		}
	}

	return result
}

// ApplyTo copies the non-nil overrides onto a threshold set and returns
// the adjusted copy. The input is not modified.
func (sc SiteConfig) ApplyTo(t Thresholds) Thresholds {
	if sc.ExcessiveAdCount != nil {
		t.ExcessiveAdCount = *sc.ExcessiveAdCount
	}
	if sc.MinVisibilityRatio != nil {
		t.MinVisibilityRatio = *sc.MinVisibilityRatio
	}
	if sc.ScrollTrapDensity != nil {
		t.ScrollTrapDensity = *sc.ScrollTrapDensity
	}
	if sc.RefreshMinIntervalMS != nil {
		t.RefreshMinIntervalMS = *sc.RefreshMinIntervalMS
	}
	return t
}
