// Package analyzer implements the page analyzers that turn a collected
// signal bundle into structured findings: ad placement, viewability,
// scroll heatmap, network traffic classification, and ad server metrics.
//
// Each analyzer is a pure function of its inputs and its configured
// thresholds. Analyzers never return errors for empty or degenerate
// signals; they return a result with zeroed metrics instead, so the
// pipeline can always complete and the risk aggregation can weigh what
// little evidence exists.
package analyzer
