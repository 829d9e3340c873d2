package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Thresholds.Validate()
// and provide specific information about what is wrong.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoBundle is returned when no signal bundle path is specified.
	ErrNoBundle = errors.New("no signal bundle specified: provide at least one bundle file")

	// ErrInvalidTimeout is returned when the audit timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no concurrent audits, effectively
	// stopping processing.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidVisibilityRatio is returned when the viewability threshold
	// is outside (0, 1]. A ratio of 0 would mark every ad viewable.
	ErrInvalidVisibilityRatio = errors.New("invalid visibility ratio: must be in (0, 1]")

	// ErrInvalidStackOverlap is returned when the stacking threshold is
	// outside (0, 1). A threshold of 1 could never be exceeded.
	ErrInvalidStackOverlap = errors.New("invalid stack overlap threshold: must be in (0, 1)")

	// ErrInvalidScrollBands is returned when the scroll band cap is below 1.
	ErrInvalidScrollBands = errors.New("invalid scroll band cap: must be at least 1")

	// ErrInvalidRefreshIntervals is returned when the high-severity refresh
	// interval exceeds the detection interval, which would make the
	// high tier unreachable.
	ErrInvalidRefreshIntervals = errors.New("invalid refresh intervals: high-severity interval must not exceed detection interval")
)
