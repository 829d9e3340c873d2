// Package model defines the core data structures used throughout mfascan.
//
// This package contains the following main types:
//   - PageSignals: The pre-collected signal bundle an audit consumes
//   - AuditReport: The main audit result structure
//   - RiskResult: The confidence-weighted aggregate risk assessment
//   - SimpleReport: A summarized, human-readable report
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (analyzer, risk, report) need to use these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
