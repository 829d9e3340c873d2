package model

// Severity grades an audit finding by how strongly it indicates a
// made-for-advertising operation.
//
// Design decision: iota constants rather than strings so severities
// compare and sort numerically; String() covers display.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct MFA signal.
	// Examples: ordinary ad network presence, standard prebid activity.
	// These provide context but do not by themselves suggest abuse.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: a single oversized ad unit, slightly elevated density.
	// These are common on legitimate sites and need corroboration.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: low viewability, scroll traps, fragmented ad stacks.
	// These are typical of aggressive monetization but not conclusive alone.
	SeverityMedium

	// SeverityHigh indicates serious issues strongly associated with MFA sites.
	// Examples: excessive ad counts, auto-refreshing slots, deceptive text,
	// hidden ads firing requests. These directly harm advertisers.
	SeverityHigh

	// SeverityCritical indicates severe issues that almost certainly
	// constitute ad fraud. Examples: stacked ad slots, fake download buttons.
	// These findings justify immediate exclusion from buying lists.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping is the single source of truth tying each finding
// type to its severity, impact, and recommendation.
//
// Design decision: One central map instead of severity fields scattered
// across the analyzers because:
// 1. Re-grading a finding type touches exactly one place
// 2. Every analyzer emitting the same type gets the same assessment
// 3. The table reads as documentation of the detection catalog
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL - Direct ad fraud indicators
	"ad_stacking": {
		Severity:       SeverityCritical,
		Impact:         "Ad slots are rendered on top of each other, so impressions are billed for ads no user can see.",
		Recommendation: "Exclude the site from buys and report the stacked placements to the supplying exchanges.",
	},
	"fake_download": {
		Severity:       SeverityCritical,
		Impact:         "Fake download buttons trick users into clicking ads, inflating CTR with worthless intent.",
		Recommendation: "Blocklist the site. Clicks from deceptive creatives have no conversion value.",
	},

	// HIGH - Strong MFA signals
	"excessive_ads": {
		Severity:       SeverityHigh,
		Impact:         "The ad count far exceeds content-supporting levels, a hallmark of made-for-advertising pages.",
		Recommendation: "Review the placement-to-content ratio and cap spend until density normalizes.",
	},
	"aggressive_ad_script": {
		Severity:       SeverityHigh,
		Impact:         "Pop-under or forced-click ad scripts degrade user experience and signal low-quality inventory.",
		Recommendation: "Treat inventory carrying pop-under networks as non-brand-safe.",
	},
	"auto_refresh_ads": {
		Severity:       SeverityHigh,
		Impact:         "Ad slots refresh on short timers, multiplying billed impressions without new user attention.",
		Recommendation: "Enforce minimum refresh intervals in deals or exclude refreshing placements.",
	},
	"excessive_ad_calls": {
		Severity:       SeverityHigh,
		Impact:         "The page fires an extreme number of ad requests, indicating impression farming.",
		Recommendation: "Audit request logs and cap the site in supply-path optimization.",
	},
	"hidden_ads": {
		Severity:       SeverityHigh,
		Impact:         "Ads are rendered fully outside the viewport or hidden, billing for zero-visibility impressions.",
		Recommendation: "Demand MRC-viewable billing or remove the site from the schedule.",
	},
	"deceptive_text": {
		Severity:       SeverityHigh,
		Impact:         "Clickbait or scareware text near ad slots manufactures accidental clicks.",
		Recommendation: "Flag the placements for brand safety review and exclude deceptive templates.",
	},
	"infinite_scroll_ads": {
		Severity:       SeverityHigh,
		Impact:         "Ad density holds or grows with every scroll band, indicating an endless ad feed.",
		Recommendation: "Limit buys to above-the-fold placements or exclude the site.",
	},
	"video_stuffing": {
		Severity:       SeverityHigh,
		Impact:         "Many simultaneous video players inflate video impression counts beyond plausible viewing.",
		Recommendation: "Restrict video buys to single-player placements with visible initiation.",
	},
	"arbitrage_traffic": {
		Severity:       SeverityHigh,
		Impact:         "Traffic is bought from multiple paid sources to resell as ad impressions at a margin.",
		Recommendation: "Check sourced-traffic disclosures and exclude undisclosed arbitrage inventory.",
	},
	"suspicious_ctr": {
		Severity:       SeverityHigh,
		Impact:         "Click-through rates far above organic norms suggest accidental or incentivized clicks.",
		Recommendation: "Compare conversion rates against CTR; pause spend if clicks do not convert.",
	},

	// MEDIUM - Aggressive monetization signals
	"hidden_ad_requests": {
		Severity:       SeverityMedium,
		Impact:         "Far more ad requests fire than ad slots exist, hinting at background or hidden auctions.",
		Recommendation: "Reconcile request counts against rendered slots in a follow-up crawl.",
	},
	"high_ad_calls": {
		Severity:       SeverityMedium,
		Impact:         "Ad request volume is elevated beyond what the visible slot count explains.",
		Recommendation: "Monitor the site for escalation before adjusting buys.",
	},
	"multiple_prebid_auctions": {
		Severity:       SeverityMedium,
		Impact:         "Repeated header-bidding auctions within one page view indicate aggressive slot recycling.",
		Recommendation: "Inspect prebid configuration timing in a manual session.",
	},
	"fragmented_ad_stack": {
		Severity:       SeverityMedium,
		Impact:         "An unusually long tail of ad networks suggests fill-at-any-price monetization.",
		Recommendation: "Prefer inventory reachable through direct or curated paths.",
	},
	"excessive_video_ads": {
		Severity:       SeverityMedium,
		Impact:         "Video ad request volume exceeds plausible player capacity.",
		Recommendation: "Verify video placements render in visible, user-initiated players.",
	},
	"low_viewability": {
		Severity:       SeverityMedium,
		Impact:         "A large share of ads render mostly outside the viewport, depressing campaign viewability.",
		Recommendation: "Apply viewability floors in the DSP for this site.",
	},
	"scroll_trap": {
		Severity:       SeverityMedium,
		Impact:         "Sustained high ad density across the scroll depth maximizes exposure over content.",
		Recommendation: "Weight the density signal together with content quality before excluding.",
	},
	"muted_autoplay": {
		Severity:       SeverityMedium,
		Impact:         "Muted autoplay video counts impressions users never chose to watch.",
		Recommendation: "Buy video only on click-to-play or audible-on-start placements.",
	},
	"hidden_video": {
		Severity:       SeverityMedium,
		Impact:         "Video players render hidden or off-screen while still requesting ads.",
		Recommendation: "Require player visibility measurement on video deals.",
	},
	"sticky_video_overload": {
		Severity:       SeverityMedium,
		Impact:         "Multiple sticky video players follow the user, forcing impressions.",
		Recommendation: "Limit video buys to one non-sticky player per page.",
	},
	"elevated_ctr": {
		Severity:       SeverityMedium,
		Impact:         "Click-through rate is above organic norms and worth watching.",
		Recommendation: "Track CTR against conversions over the next reporting window.",
	},
	"very_low_ecpm": {
		Severity:       SeverityMedium,
		Impact:         "Extremely low eCPM indicates buyers already discount this inventory heavily.",
		Recommendation: "Question why impressions clear so cheap before increasing spend.",
	},
	"poor_viewability": {
		Severity:       SeverityMedium,
		Impact:         "Measured viewability sits below the MRC 50% floor.",
		Recommendation: "Apply viewability-based bidding or exclude the site.",
	},
	"above_fold_crowding": {
		Severity:       SeverityMedium,
		Impact:         "Multiple ads compete for the first viewport, pushing content below the fold.",
		Recommendation: "Inspect the landing experience manually before renewing deals.",
	},

	// LOW - Weak signals needing corroboration
	"large_ad_unit": {
		Severity:       SeverityLow,
		Impact:         "An oversized ad unit dominates the layout.",
		Recommendation: "Check whether the unit displaces primary content.",
	},
	"low_ecpm": {
		Severity:       SeverityLow,
		Impact:         "eCPM is below typical open-market rates for the vertical.",
		Recommendation: "Compare against category benchmarks before acting.",
	},

	// INFO - Context only
	"ad_network_presence": {
		Severity:       SeverityInfo,
		Impact:         "Standard ad network activity was observed.",
		Recommendation: "No action needed. Recorded for inventory transparency.",
	},
	"prebid_detected": {
		Severity:       SeverityInfo,
		Impact:         "Header bidding is in use, which is standard for programmatic publishers.",
		Recommendation: "No action needed.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}
