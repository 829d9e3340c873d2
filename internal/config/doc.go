// Package config provides configuration structures and utilities for mfascan.
// It defines the operational options for running audits, the analysis
// thresholds applied by every analyzer, and report generation preferences.
package config
