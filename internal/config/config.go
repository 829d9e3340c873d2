package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The analysis thresholds live in Thresholds; the values here configure
// the operational shell around the analyzers.
const (
	// DefaultTimeout bounds a single audit. Audits are pure computation,
	// so this mainly guards against pathological signal bundles.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize of 10 concurrent audits balances throughput with
	// memory usage. Each audit holds its full signal bundle in memory,
	// and bundles from ad-heavy pages can run to tens of megabytes.
	DefaultBatchSize = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "mfascan"

	// DefaultViewportWidth and DefaultViewportHeight are assumed when the
	// signal bundle omits the collection viewport. 1920x1080 matches the
	// collector's default desktop profile.
	DefaultViewportWidth  = 1920.0
	DefaultViewportHeight = 1080.0
)

// Config holds all configuration options for mfascan.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit. The analysis thresholds are
// the one exception: they form a coherent unit that analyzers receive as
// a value, so they live in their own struct.
type Config struct {
	// BundlePaths is the list of signal bundle files to audit.
	// Must contain at least one path.
	BundlePaths []string

	// GAMFilePath is an optional JSON file of ad server records applied
	// to every audited bundle that does not already embed records.
	GAMFilePath string

	// Timeout bounds each individual audit.
	Timeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of concurrent audits when processing
	// multiple bundles. Higher values increase throughput but hold more
	// bundles in memory at once.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .mfascan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the
	// config file. This is populated by LoadConfigFile.
	SiteConfigs *File

	// Thresholds are the analysis thresholds, possibly adjusted by the
	// config file or per-site overrides.
	Thresholds Thresholds

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// When set, audit results are saved for historical comparison.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to save audit results to the database.
	SaveToDB bool
}

// NewConfig creates a Config with usable defaults. Callers override
// individual fields afterward, typically from CLI flags.
//
// Design decision: A constructor instead of zero values because several
// defaults are non-zero (timeout, batch size, thresholds), and the
// constructor doubles as the canonical list of them.
func NewConfig() *Config {
	return &Config{
		Timeout:    DefaultTimeout,
		BatchSize:  DefaultBatchSize,
		Thresholds: DefaultThresholds(),
	}
}

// XDGDataDir returns the XDG data directory for mfascan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/mfascan
// On macOS: ~/Library/Application Support/mfascan
// On Windows: %LOCALAPPDATA%\mfascan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for mfascan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for mfascan.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the configuration and returns a specific error for the
// first problem found. It runs once after CLI parsing, before any audit
// starts, so bad invocations fail fast with a clear message.
func (c *Config) Validate() error {
	if len(c.BundlePaths) == 0 {
		return ErrNoBundle
	}

	// A zero timeout would cancel every audit immediately.
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// A report is rendered in exactly one format.
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return c.Thresholds.Validate()
}
