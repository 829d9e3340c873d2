package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mfascan/mfascan/internal/model"
)

// AuditDB provides SQLite-based storage for audit reports.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all audited sites
// rather than one file per site. This keeps history queries and trend
// comparison across sites in one place and simplifies backup/restore.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AuditDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, "mfascan.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	-- Audit reports store complete audit results as JSON.
	-- The fingerprint column holds the SHA3-256 digest of the input
	-- signal bundle so repeated audits of identical input are detectable.
	CREATE TABLE IF NOT EXISTS audit_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		fingerprint TEXT,
		risk_score REAL,
		risk_level TEXT,
		report_json TEXT NOT NULL,
		risk_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_site ON audit_reports(site);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON audit_reports(timestamp);
	CREATE INDEX IF NOT EXISTS idx_reports_fingerprint ON audit_reports(fingerprint);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport saves a complete audit report as JSON.
func (adb *AuditDB) SaveReport(ctx context.Context, report *model.AuditReport) error {
	// Serialize report to JSON
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	// Create risk summary
	riskSummary := map[string]int{
		"critical": 0,
		"high":     0,
		"medium":   0,
		"low":      0,
		"info":     0,
	}
	if report.SimpleReport != nil {
		riskSummary["critical"] = report.SimpleReport.CriticalCount
		riskSummary["high"] = report.SimpleReport.HighCount
		riskSummary["medium"] = report.SimpleReport.MediumCount
		riskSummary["low"] = report.SimpleReport.LowCount
		riskSummary["info"] = report.SimpleReport.InfoCount
	}
	riskJSON, _ := json.Marshal(riskSummary) //nolint:errcheck,errchkjson // riskSummary is a simple map; Marshal won't fail

	query := `
	INSERT INTO audit_reports (site, fingerprint, risk_score, risk_level, report_json, risk_summary)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = adb.db.ExecContext(ctx, query,
		report.Site,
		report.Fingerprint,
		report.RiskScorePct(),
		report.RiskLevelText(),
		string(reportJSON),
		string(riskJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	return nil
}

// GetLatestReport retrieves the most recent audit report for a site.
// Returns nil without error when the site has no stored audits.
func (adb *AuditDB) GetLatestReport(ctx context.Context, site string) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, site).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListAuditedSites returns a list of all audited sites.
func (adb *AuditDB) ListAuditedSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site FROM audit_reports
	ORDER BY site
	`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// GetAuditHistory retrieves all audit reports for a site, most recent first.
func (adb *AuditDB) GetAuditHistory(ctx context.Context, site string) ([]*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var reports []*model.AuditReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.AuditReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// GetAuditHistorySince retrieves audit reports for a site newer than the
// given time, most recent first. Used by trend analysis over a window.
func (adb *AuditDB) GetAuditHistorySince(ctx context.Context, site string, since time.Time) ([]*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE site = ? AND timestamp >= ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, site, since.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var reports []*model.AuditReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.AuditReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// HasRecentAudit checks if a site was audited within the specified duration.
func (adb *AuditDB) HasRecentAudit(ctx context.Context, site string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM audit_reports
	WHERE site = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := adb.db.QueryRowContext(ctx, query, site, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent audit: %w", err)
	}

	return count > 0, nil
}

// HasFingerprint checks whether a report for the same input bundle is
// already stored for the site. Lets callers skip re-auditing unchanged
// bundles.
func (adb *AuditDB) HasFingerprint(ctx context.Context, site, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}

	query := `
	SELECT COUNT(*) FROM audit_reports
	WHERE site = ? AND fingerprint = ?
	`

	var count int
	err := adb.db.QueryRowContext(ctx, query, site, fingerprint).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}

	return count > 0, nil
}

// AuditReportMetadata contains summary information about a stored audit.
// This is used for displaying audit history without loading the full report.
type AuditReportMetadata struct {
	// ID is the unique identifier of the audit report in the database.
	ID int64

	// Site is the audited site.
	Site string

	// Timestamp is when the audit was performed.
	Timestamp time.Time

	// Fingerprint is the digest of the audited signal bundle.
	Fingerprint string

	// RiskScorePct is the aggregate risk on a 0-100 scale.
	RiskScorePct float64

	// RiskLevel is the aggregate risk level.
	RiskLevel string

	// RiskSummary contains counts of findings by severity level.
	RiskSummary map[string]int
}

// GetAuditHistoryWithMetadata retrieves audit metadata for a site.
// This is more efficient than GetAuditHistory when only metadata is needed.
func (adb *AuditDB) GetAuditHistoryWithMetadata(ctx context.Context, site string) ([]AuditReportMetadata, error) {
	query := `
	SELECT id, site, timestamp, fingerprint, risk_score, risk_level, risk_summary
	FROM audit_reports
	WHERE site = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []AuditReportMetadata
	for rows.Next() {
		var meta AuditReportMetadata
		var timestamp string
		var fingerprint sql.NullString
		var riskScore sql.NullFloat64
		var riskLevel sql.NullString
		var riskJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Site, &timestamp, &fingerprint, &riskScore, &riskLevel, &riskJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		// Parse timestamp
		meta.Timestamp = parseTimestamp(timestamp)

		meta.Fingerprint = fingerprint.String
		meta.RiskScorePct = riskScore.Float64
		meta.RiskLevel = riskLevel.String

		// Parse risk summary
		if riskJSON.Valid && riskJSON.String != "" {
			if err := json.Unmarshal([]byte(riskJSON.String), &meta.RiskSummary); err != nil {
				meta.RiskSummary = make(map[string]int)
			}
		} else {
			meta.RiskSummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetReportByID retrieves an audit report by its database ID.
// Returns nil without error when no report has the given ID.
func (adb *AuditDB) GetReportByID(ctx context.Context, id int64) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE id = ?
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
