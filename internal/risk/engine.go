package risk

import (
	"log/slog"

	"github.com/mfascan/mfascan/internal/model"
)

// Component weights for a full-evidence audit. They sum to 1 so the
// weighted probability stays in [0, 1] at full confidence.
const (
	contentWeight   = 0.25
	adWeight        = 0.35
	trafficWeight   = 0.25
	technicalWeight = 0.15
)

// wordCountFullConfidence is the word count at which the content
// component reaches full confidence. Thin pages get proportionally
// less say in the verdict.
const wordCountFullConfidence = 500

// Engine aggregates analyzer outputs into a final risk verdict.
type Engine struct {
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets a custom logger for the engine.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a risk aggregation Engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Aggregate produces the final verdict from the signal bundle and the
// placement analysis. The scoring mode depends on what evidence
// survived the crawl:
//
//   - A blocked crawl with ad server records scores on those records
//     alone, at reduced confidence.
//   - A blocked crawl with nothing else is inconclusive.
//   - Anything else runs the full four-component aggregation.
func (e *Engine) Aggregate(signals *model.PageSignals, placement *model.PlacementAnalysis) *model.RiskResult {
	if signals.CrawlStatus == model.CrawlStatusBlocked {
		if signals.HasGAMData() {
			return e.aggregateGAMOnly(signals)
		}
		return &model.RiskResult{
			Level: model.RiskLevelInconclusive,
			Mode:  model.ScoringModeNone,
			Notes: []string{"site blocked the crawler and no ad server data was supplied"},
		}
	}

	return e.aggregateFull(signals, placement)
}

// aggregateGAMOnly scores a blocked site on its delivery records alone.
// Callers check HasGAMData first, so External is non-nil here.
func (e *Engine) aggregateGAMOnly(signals *model.PageSignals) *model.RiskResult {
	score := gamRisk(signals.External.GAMRecords)
	result := &model.RiskResult{
		Probability:  score,
		RiskScorePct: score * 100,
		Confidence:   0.6,
		Level:        model.RiskLevelForScore(score),
		Mode:         model.ScoringModeGAMOnly,
		Components: []model.RiskComponent{
			{Name: "traffic", Score: score, Weight: 1.0, Confidence: 0.6},
		},
		Notes: []string{"site blocked the crawler; verdict rests on ad server records only"},
	}

	e.logger.Debug("risk aggregation complete",
		"site", signals.Site,
		"mode", result.Mode,
		"probability", result.Probability,
	)
	return result
}

// aggregateFull runs the four-component weighted aggregation.
func (e *Engine) aggregateFull(signals *model.PageSignals, placement *model.PlacementAnalysis) *model.RiskResult {
	components := []model.RiskComponent{
		e.contentComponent(signals),
		e.adComponent(signals, placement),
		e.trafficComponent(signals),
		e.technicalComponent(signals),
	}

	var weightedScore, weightedConfidence float64
	for _, c := range components {
		weightedScore += c.Score * c.Weight * c.Confidence
		weightedConfidence += c.Weight * c.Confidence
	}

	result := &model.RiskResult{
		Mode:       model.ScoringModeFull,
		Components: components,
	}

	if weightedConfidence == 0 {
		result.Level = model.RiskLevelInconclusive
		result.Notes = append(result.Notes, "no evidence component carried any confidence")
		return result
	}

	result.Probability = weightedScore / weightedConfidence
	result.Confidence = weightedConfidence
	if signals.CrawlStatus == model.CrawlStatusFallback {
		// A fallback crawl saw the page without a real browser; the
		// geometry it reports is less trustworthy.
		result.Confidence *= 0.8
		result.Notes = append(result.Notes, "fallback crawl; confidence reduced")
	}
	result.RiskScorePct = result.Probability * 100
	result.Level = model.RiskLevelForScore(result.Probability)

	e.logger.Debug("risk aggregation complete",
		"site", signals.Site,
		"mode", result.Mode,
		"probability", result.Probability,
		"confidence", result.Confidence,
	)
	return result
}

// contentComponent weighs the external content quality score. Its
// confidence scales with how much text there was to judge.
func (e *Engine) contentComponent(signals *model.PageSignals) model.RiskComponent {
	c := model.RiskComponent{
		Name:   "content",
		Weight: contentWeight,
	}
	ext := signals.External
	if ext == nil || ext.ContentFailed {
		c.Confidence = 0.2
		if ext != nil {
			c.Score = ext.ContentScore
		}
		return c
	}
	c.Score = ext.ContentScore
	c.Confidence = float64(ext.WordCount) / wordCountFullConfidence
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	return c
}

// adComponent carries the placement analysis, the strongest signal.
func (e *Engine) adComponent(signals *model.PageSignals, placement *model.PlacementAnalysis) model.RiskComponent {
	c := model.RiskComponent{
		Name:       "ad",
		Weight:     adWeight,
		Confidence: 0.7,
	}
	if placement != nil {
		c.Score = placement.RiskScore
		if placement.AdCount > 0 {
			c.Confidence = 1.0
		}
	}
	return c
}

// trafficComponent scores on ad server records when present, and sits
// at a low-confidence midpoint when they are not.
func (e *Engine) trafficComponent(signals *model.PageSignals) model.RiskComponent {
	c := model.RiskComponent{
		Name:   "traffic",
		Weight: trafficWeight,
	}
	if signals.HasGAMData() {
		c.Score = gamRisk(signals.External.GAMRecords)
		c.Confidence = 1.0
	} else {
		c.Score = 0.5
		c.Confidence = 0.3
	}
	return c
}

// technicalComponent inverts the external site health score. A bundle
// without external scores reads as perfectly healthy, which the low
// component weight keeps from dragging the verdict down.
func (e *Engine) technicalComponent(signals *model.PageSignals) model.RiskComponent {
	health := 100.0
	if signals.External != nil {
		health = signals.External.HealthScore
	}
	return model.RiskComponent{
		Name:       "technical",
		Score:      1 - health/100,
		Weight:     technicalWeight,
		Confidence: 0.8,
	}
}

// gamRisk converts delivery records into a [0, 1] risk figure using a
// coarser tiering than the dedicated analyzer. The aggregation only
// needs the order of magnitude; the per-pattern detail lives in the
// GAM analysis itself.
func gamRisk(records []model.GAMRecord) float64 {
	var impressions, clicks, revenue float64
	for _, r := range records {
		impressions += r.Impressions
		clicks += r.Clicks
		revenue += r.Revenue
	}
	if impressions == 0 {
		return 0.5
	}

	ctr := clicks / impressions * 100
	ecpm := revenue / impressions * 1000

	var risk float64
	switch {
	case ctr > 2.0 && ecpm < 0.5:
		risk += 0.4
	case ctr > 1.0 && ecpm < 1.0:
		risk += 0.25
	}
	switch {
	case ctr > 5:
		risk += 0.3
	case ctr > 3:
		risk += 0.15
	}
	switch {
	case ecpm < 0.1:
		risk += 0.2
	case ecpm < 0.25:
		risk += 0.1
	}
	if risk > 1 {
		risk = 1
	}
	return risk
}
