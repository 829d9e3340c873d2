package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mfascan/mfascan/internal/analyzer"
	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/model"
	"github.com/mfascan/mfascan/internal/risk"
)

// ErrNoSignals is returned by analysis steps when a report carries no
// signal bundle to analyze.
var ErrNoSignals = errors.New("report carries no signal bundle")

// PlacementStep runs the ad placement analysis.
// It fills report.Placement and feeds the later risk aggregation, so it
// runs first among the analyzers.
type PlacementStep struct {
	analyzer *analyzer.PlacementAnalyzer
}

// NewPlacementStep creates the placement analysis step.
func NewPlacementStep(thresholds config.Thresholds, logger *slog.Logger) *PlacementStep {
	return &PlacementStep{
		analyzer: analyzer.NewPlacementAnalyzer(thresholds, analyzer.WithPlacementLogger(logger)),
	}
}

// Name returns the step name.
func (s *PlacementStep) Name() string {
	return "placement_analysis"
}

// Do executes the placement analysis step.
func (s *PlacementStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Signals == nil {
		return ErrNoSignals
	}
	report.Placement = s.analyzer.Analyze(report.Signals)
	return nil
}

// ViewabilityStep runs the viewability classification.
type ViewabilityStep struct {
	classifier *analyzer.ViewabilityClassifier
}

// NewViewabilityStep creates the viewability classification step.
func NewViewabilityStep(thresholds config.Thresholds, logger *slog.Logger) *ViewabilityStep {
	return &ViewabilityStep{
		classifier: analyzer.NewViewabilityClassifier(thresholds, analyzer.WithViewabilityLogger(logger)),
	}
}

// Name returns the step name.
func (s *ViewabilityStep) Name() string {
	return "viewability_classification"
}

// Do executes the viewability classification step.
func (s *ViewabilityStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Signals == nil {
		return ErrNoSignals
	}
	report.Viewability = s.classifier.Classify(report.Signals)
	return nil
}

// HeatmapStep runs the scroll heatmap analysis.
type HeatmapStep struct {
	builder *analyzer.ScrollHeatmapBuilder
}

// NewHeatmapStep creates the scroll heatmap step.
func NewHeatmapStep(thresholds config.Thresholds, logger *slog.Logger) *HeatmapStep {
	return &HeatmapStep{
		builder: analyzer.NewScrollHeatmapBuilder(thresholds, analyzer.WithHeatmapLogger(logger)),
	}
}

// Name returns the step name.
func (s *HeatmapStep) Name() string {
	return "scroll_heatmap"
}

// Do executes the scroll heatmap step.
func (s *HeatmapStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Signals == nil {
		return ErrNoSignals
	}
	report.Heatmap = s.builder.Build(report.Signals)
	return nil
}

// NetworkStep runs the network traffic classification.
type NetworkStep struct {
	classifier *analyzer.NetworkTrafficClassifier
}

// NewNetworkStep creates the network traffic classification step.
func NewNetworkStep(thresholds config.Thresholds, logger *slog.Logger) *NetworkStep {
	return &NetworkStep{
		classifier: analyzer.NewNetworkTrafficClassifier(thresholds, analyzer.WithNetworkLogger(logger)),
	}
}

// Name returns the step name.
func (s *NetworkStep) Name() string {
	return "network_classification"
}

// Do executes the network classification step.
func (s *NetworkStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Signals == nil {
		return ErrNoSignals
	}
	report.Network = s.classifier.Classify(report.Signals)
	return nil
}

// GAMStep runs the ad server metrics analysis when the bundle carries
// delivery records. Bundles without records skip the step silently; the
// risk aggregation handles the absence on its own.
type GAMStep struct {
	analyzer *analyzer.GAMAnalyzer
	logger   *slog.Logger
}

// NewGAMStep creates the ad server metrics step.
func NewGAMStep(logger *slog.Logger) *GAMStep {
	return &GAMStep{
		analyzer: analyzer.NewGAMAnalyzer(analyzer.WithGAMLogger(logger)),
		logger:   logger,
	}
}

// Name returns the step name.
func (s *GAMStep) Name() string {
	return "gam_analysis"
}

// Do executes the ad server metrics step.
func (s *GAMStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Signals == nil {
		return ErrNoSignals
	}
	if !report.Signals.HasGAMData() {
		s.logger.Debug("skipping ad server analysis, no records supplied",
			"site", report.Site,
		)
		return nil
	}
	report.GAM = s.analyzer.Analyze(report.Signals.External.GAMRecords)
	return nil
}

// RiskStep runs the final risk aggregation and builds the simple report.
// It must run last: it consumes the placement analysis and the bundle's
// external scores.
type RiskStep struct {
	engine *risk.Engine
}

// NewRiskStep creates the risk aggregation step.
func NewRiskStep(logger *slog.Logger) *RiskStep {
	return &RiskStep{
		engine: risk.NewEngine(risk.WithEngineLogger(logger)),
	}
}

// Name returns the step name.
func (s *RiskStep) Name() string {
	return "risk_aggregation"
}

// Do executes the risk aggregation step.
func (s *RiskStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Signals == nil {
		return ErrNoSignals
	}
	report.Risk = s.engine.Aggregate(report.Signals, report.Placement)
	report.SimpleReport = model.NewSimpleReport(report)
	return nil
}

// DefaultPipeline creates a pipeline with all analysis steps in their
// canonical order, ending with the risk aggregation.
//
// Design decision: We provide a default pipeline because:
// 1. Most audits want every analyzer
// 2. It reduces boilerplate in the CLI
// 3. It guarantees the risk aggregation runs after its inputs exist
func DefaultPipeline(thresholds config.Thresholds, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger)}, opts...)...)
	p.AddSteps(
		NewPlacementStep(thresholds, logger),
		NewViewabilityStep(thresholds, logger),
		NewHeatmapStep(thresholds, logger),
		NewNetworkStep(thresholds, logger),
		NewGAMStep(logger),
		NewRiskStep(logger),
	)
	return p
}
