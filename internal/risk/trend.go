package risk

import (
	"math"

	"github.com/mfascan/mfascan/internal/model"
)

// TrendDirection classifies how a site's risk is moving over time.
type TrendDirection string

const (
	// TrendWorsening means risk grew by more than 10% against the last audit.
	TrendWorsening TrendDirection = "worsening"

	// TrendImproving means risk fell by more than 10% against the last audit.
	TrendImproving TrendDirection = "improving"

	// TrendStable means risk moved within the 10% band.
	TrendStable TrendDirection = "stable"

	// TrendUnknown means there is no history to compare against.
	TrendUnknown TrendDirection = "unknown"
)

// TrendResult describes the movement of a site's risk over its audit history.
type TrendResult struct {
	// Direction is the categorical movement against the latest prior audit.
	Direction TrendDirection `json:"direction"`

	// ChangeRate is the relative change against the latest prior audit.
	ChangeRate float64 `json:"change_rate"`

	// Anomaly marks the current score as more than two standard
	// deviations away from the historical mean.
	Anomaly bool `json:"anomaly"`

	// ZScore is the current score's standard score against the history.
	ZScore float64 `json:"z_score"`

	// HistoryCount is the number of prior scores consulted.
	HistoryCount int `json:"history_count"`
}

// AnalyzeTrend compares the current risk probability against prior
// audit scores, oldest first.
//
// Anomaly detection needs at least three prior scores; with fewer the
// standard deviation is too noisy to mean anything.
func AnalyzeTrend(current float64, history []float64) TrendResult {
	result := TrendResult{
		Direction:    TrendUnknown,
		HistoryCount: len(history),
	}
	if len(history) == 0 {
		return result
	}

	latest := history[len(history)-1]
	if latest != 0 {
		result.ChangeRate = (current - latest) / latest
	} else if current > 0 {
		result.ChangeRate = 1
	}

	switch {
	case result.ChangeRate > 0.1:
		result.Direction = TrendWorsening
	case result.ChangeRate < -0.1:
		result.Direction = TrendImproving
	default:
		result.Direction = TrendStable
	}

	if len(history) >= 3 {
		mean, stddev := meanStddev(history)
		if stddev > 0 {
			result.ZScore = (current - mean) / stddev
			result.Anomaly = math.Abs(result.ZScore) > 2
		}
	}

	return result
}

func meanStddev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// Comparison captures the material differences between two audits of
// the same site.
type Comparison struct {
	// RiskDelta is the probability change from the older to the newer audit.
	RiskDelta float64 `json:"risk_delta"`

	// AdCountDelta is the change in detected ad slots.
	AdCountDelta int `json:"ad_count_delta"`

	// RiskChanged marks a probability move beyond the noise floor.
	RiskChanged bool `json:"risk_changed"`

	// AdCountChanged marks an ad count move of two or more slots.
	AdCountChanged bool `json:"ad_count_changed"`

	// Direction classifies the risk movement.
	Direction TrendDirection `json:"direction"`
}

// CompareAudits diffs two reports of the same site, older first.
// Probability moves of 0.05 or less and ad count moves of a single slot
// are treated as measurement noise.
func CompareAudits(older, newer *model.AuditReport) Comparison {
	c := Comparison{Direction: TrendStable}

	var olderProb, newerProb float64
	if older.Risk != nil {
		olderProb = older.Risk.Probability
	}
	if newer.Risk != nil {
		newerProb = newer.Risk.Probability
	}
	c.RiskDelta = newerProb - olderProb
	c.RiskChanged = math.Abs(c.RiskDelta) > 0.05
	if c.RiskChanged {
		if c.RiskDelta > 0 {
			c.Direction = TrendWorsening
		} else {
			c.Direction = TrendImproving
		}
	}

	var olderAds, newerAds int
	if older.Placement != nil {
		olderAds = older.Placement.AdCount
	}
	if newer.Placement != nil {
		newerAds = newer.Placement.AdCount
	}
	c.AdCountDelta = newerAds - olderAds
	c.AdCountChanged = c.AdCountDelta >= 2 || c.AdCountDelta <= -2

	return c
}
