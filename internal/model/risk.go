package model

// RiskLevel is the categorical risk classification derived from a score.
//
// Design decision: Levels are string constants rather than iota values
// because they travel through JSON reports and the history database, where
// a stable, self-describing representation matters more than compactness.
type RiskLevel string

const (
	// RiskLevelLow covers scores at or below 0.3 (30 on percent scales).
	RiskLevelLow RiskLevel = "low"

	// RiskLevelMedium covers scores above 0.3 up to and including 0.6.
	RiskLevelMedium RiskLevel = "medium"

	// RiskLevelHigh covers scores above 0.6.
	RiskLevelHigh RiskLevel = "high"

	// RiskLevelInconclusive means no assessment could be made at all.
	// This is distinct from low risk: it carries zero confidence.
	RiskLevelInconclusive RiskLevel = "inconclusive"
)

// ScoringMode records which aggregation path produced a risk result.
type ScoringMode string

const (
	// ScoringModeFull means all component signals participated.
	ScoringModeFull ScoringMode = "full"

	// ScoringModeGAMOnly means the site blocked collection and only ad
	// server metrics informed the score.
	ScoringModeGAMOnly ScoringMode = "gam_only"

	// ScoringModeNone means no usable signal existed.
	ScoringModeNone ScoringMode = "none"
)

// RiskLevelForScore classifies a score in [0, 1].
// Boundaries are inclusive on the upper side: 0.3 is low, 0.6 is medium.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score <= 0.3:
		return RiskLevelLow
	case score <= 0.6:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

// RiskLevelForPercent classifies a score in [0, 100] with the same
// boundary convention as RiskLevelForScore.
func RiskLevelForPercent(score float64) RiskLevel {
	return RiskLevelForScore(score / 100)
}

// RiskComponent is one weighted signal inside the aggregate assessment.
type RiskComponent struct {
	// Name identifies the component (content, ad, traffic, technical).
	Name string `json:"name"`

	// Score is the component's risk contribution in [0, 1].
	Score float64 `json:"score"`

	// Weight is the component's share of the aggregate.
	Weight float64 `json:"weight"`

	// Confidence reflects how much of the component's input was available.
	Confidence float64 `json:"confidence"`
}

// RiskResult is the final confidence-weighted assessment for a site.
type RiskResult struct {
	// Probability is the MFA probability in [0, 1].
	Probability float64 `json:"probability"`

	// RiskScorePct is Probability expressed on a 0-100 scale.
	RiskScorePct float64 `json:"risk_score_pct"`

	// Confidence is the aggregate confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Level is the categorical classification of Probability.
	Level RiskLevel `json:"level"`

	// Mode records which aggregation path ran.
	Mode ScoringMode `json:"mode"`

	// Components lists the signals that participated, with their
	// scores, weights and confidences.
	Components []RiskComponent `json:"components,omitempty"`

	// Notes carries caveats about the assessment, such as degraded
	// collection or blocked crawls.
	Notes []string `json:"notes,omitempty"`
}
