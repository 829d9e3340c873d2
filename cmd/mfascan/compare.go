package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/database"
	"github.com/mfascan/mfascan/internal/model"
	"github.com/mfascan/mfascan/internal/risk"
)

// noFindingsMessage is shown when an audit produced no findings.
const noFindingsMessage = "No findings"

// NewCompareCmd creates the compare command.
// This command compares audit results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [site]",
		Short: "Compare audit results with historical data",
		Long: `Compare displays differences between the current and previous audit results.

This command retrieves historical audit data from the database and shows:
- New findings that appeared since the last audit
- Resolved findings that are no longer present
- The change in MFA risk score and its trend across the history

The comparison requires at least two audits in the database for the
specified site. Use 'mfascan audit' to perform audits and save results.

Examples:
  # Compare latest two audits for a site
  mfascan compare example.com

  # List all audit history for a site
  mfascan compare --list example.com

  # Compare with a specific historical audit by ID
  mfascan compare --with-audit-id 5 example.com

  # Compare with the first audit after a specific date
  mfascan compare --since "2026-01-01" example.com

  # Output comparison in JSON format
  mfascan compare --json example.com

  # List all audited sites in the database
  mfascan compare --list-sites`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List audit history for the specified site")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List all audited sites in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-audit-id", "i", 0,
		"Compare with a specific audit by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first audit after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-sites flag first (requires database but no site)
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-sites).
	// This prevents database lock issues when validation fails.
	var site string
	if !listSites {
		// Require a site for other operations
		if len(args) == 0 {
			return errors.New("site is required (use --list-sites to see available sites)")
		}
		site = strings.TrimSpace(args[0])
		if site == "" {
			return errors.New("site must not be empty")
		}
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-sites flag
	if listSites {
		return listAuditedSites(ctx, db)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listAuditHistory(ctx, db, site)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withAuditID, err := cmd.Flags().GetInt64("with-audit-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, site, withAuditID, sinceDate, jsonOutput, markdownOutput)
}

// listAuditedSites lists all sites that have audit records in the database.
func listAuditedSites(ctx context.Context, db *database.AuditDB) error {
	sites, err := db.ListAuditedSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Println("No audited sites found in the database.")
		fmt.Println("\nUse 'mfascan audit <bundle-file>' to audit a page.")
		return nil
	}

	fmt.Printf("Audited sites (%d):\n\n", len(sites))
	for _, s := range sites {
		fmt.Printf("  • %s\n", s)
	}
	fmt.Println("\nUse 'mfascan compare --list <site>' to see audit history for a site.")

	return nil
}

// listAuditHistory lists all audit records for a specific site.
func listAuditHistory(ctx context.Context, db *database.AuditDB, site string) error {
	reports, err := db.GetAuditHistoryWithMetadata(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(reports) == 0 {
		fmt.Printf("No audit history found for %s\n", site)
		fmt.Println("\nUse 'mfascan audit' to audit this site.")
		return nil
	}

	fmt.Printf("Audit history for %s (%d audits):\n\n", site, len(reports))
	fmt.Printf("  %-6s  %-20s  %-10s  %s\n", "ID", "Date", "Risk", "Findings")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range reports {
		fmt.Printf("  %-6d  %-20s  %-10s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.1f %s", meta.RiskScorePct, meta.RiskLevel),
			formatRiskSummary(meta.RiskSummary),
		)
	}

	fmt.Println("\nUse 'mfascan compare <site>' to compare the latest two audits.")
	fmt.Println("Use 'mfascan compare --with-audit-id <id> <site>' to compare with a specific audit.")

	return nil
}

// formatRiskSummary formats the risk summary map into a human-readable string.
func formatRiskSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := summary["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}
	if v := summary["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between audit reports.
func runComparison(ctx context.Context, db *database.AuditDB, site string, withAuditID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	// Get the audit history, most recent first
	reports, err := db.GetAuditHistory(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no audit history found for %s", site)
	}

	if len(reports) < 2 && withAuditID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 audits are required for comparison (found %d)", len(reports))
	}

	// Determine which reports to compare
	var currentReport, previousReport *model.AuditReport

	// Latest report is always the current one
	currentReport = reports[0]

	if withAuditID > 0 {
		// Find the report with the specified ID
		previousReport, err = db.GetReportByID(ctx, withAuditID)
		if err != nil {
			return fmt.Errorf("failed to get audit with ID %d: %w", withAuditID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("audit with ID %d not found", withAuditID)
		}
		// Validate that the audit ID belongs to the same site
		if previousReport.Site != site {
			return fmt.Errorf("audit ID %d belongs to %s, not %s", withAuditID, previousReport.Site, site)
		}
	} else if sinceDate != "" {
		// Parse the date and find the first (oldest) audit at or after it
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		sinceReports, err := db.GetAuditHistorySince(ctx, site, parsedDate)
		if err != nil {
			return fmt.Errorf("failed to get audit history: %w", err)
		}
		if len(sinceReports) == 0 {
			return fmt.Errorf("no audits found since %s", sinceDate)
		}
		if len(sinceReports) == 1 {
			// The only matching audit is the current one
			return fmt.Errorf("only one audit found since %s; at least 2 audits are required for comparison", sinceDate)
		}
		// Reports are sorted newest first; the oldest match is last
		previousReport = sinceReports[len(sinceReports)-1]
	} else {
		// Default: compare with the previous audit
		previousReport = reports[1]
	}

	// Prior risk scores, oldest first, for the trend analysis.
	// The current audit is excluded from its own history.
	history := make([]float64, 0, len(reports)-1)
	for i := len(reports) - 1; i >= 1; i-- {
		if reports[i].Risk != nil {
			history = append(history, reports[i].Risk.Probability)
		}
	}

	// Generate comparison result
	comparison := compareAuditReports(previousReport, currentReport, history)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two audit reports.
type ComparisonResult struct {
	// Site is the audited site.
	Site string `json:"site"`

	// PreviousAudit contains metadata about the previous audit.
	PreviousAudit AuditMetadata `json:"previous_audit"`

	// CurrentAudit contains metadata about the current audit.
	CurrentAudit AuditMetadata `json:"current_audit"`

	// NewFindings contains findings that are new in the current audit.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings that were in the previous audit but not in current.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// Risk describes the movement of the MFA risk score between the two audits.
	Risk risk.Comparison `json:"risk"`

	// Trend describes the risk movement across the full audit history.
	Trend risk.TrendResult `json:"trend"`

	// FindingDeltas holds the per-severity change in finding counts.
	FindingDeltas FindingDeltas `json:"finding_deltas"`
}

// AuditMetadata contains metadata about an audit for comparison display.
type AuditMetadata struct {
	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// RiskScorePct is the MFA risk score on the 0-100 scale.
	RiskScorePct float64 `json:"risk_score_pct"`

	// RiskLevel is the categorical risk level.
	RiskLevel string `json:"risk_level"`

	// TotalFindings is the total number of findings in this audit.
	TotalFindings int `json:"total_findings"`

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`
}

// FindingDeltas holds the per-severity change in finding counts between audits.
type FindingDeltas struct {
	// CriticalDelta is the change in critical findings count.
	CriticalDelta int `json:"critical_delta"`

	// HighDelta is the change in high severity findings count.
	HighDelta int `json:"high_delta"`

	// MediumDelta is the change in medium severity findings count.
	MediumDelta int `json:"medium_delta"`

	// LowDelta is the change in low severity findings count.
	LowDelta int `json:"low_delta"`

	// InfoDelta is the change in informational findings count.
	InfoDelta int `json:"info_delta"`
}

// auditMetadata extracts comparison metadata from an audit report.
func auditMetadata(r *model.AuditReport) AuditMetadata {
	meta := AuditMetadata{
		DateAudited:  r.DateAudited,
		RiskScorePct: r.RiskScorePct(),
		RiskLevel:    r.RiskLevelText(),
	}
	if r.SimpleReport != nil {
		meta.TotalFindings = len(r.SimpleReport.Findings)
		meta.CriticalCount = r.SimpleReport.CriticalCount
		meta.HighCount = r.SimpleReport.HighCount
		meta.MediumCount = r.SimpleReport.MediumCount
		meta.LowCount = r.SimpleReport.LowCount
		meta.InfoCount = r.SimpleReport.InfoCount
	}
	return meta
}

// compareAuditReports compares two audit reports and generates a comparison
// result. The history holds prior risk probabilities, oldest first.
func compareAuditReports(previous, current *model.AuditReport, history []float64) *ComparisonResult {
	result := &ComparisonResult{
		Site:          current.Site,
		PreviousAudit: auditMetadata(previous),
		CurrentAudit:  auditMetadata(current),
	}

	// Build finding maps for comparison
	previousFindings := make(map[string]model.Finding)
	currentFindings := make(map[string]model.Finding)

	if previous.SimpleReport != nil {
		for _, f := range previous.SimpleReport.Findings {
			previousFindings[findingKey(f)] = f
		}
	}
	if current.SimpleReport != nil {
		for _, f := range current.SimpleReport.Findings {
			currentFindings[findingKey(f)] = f
		}
	}

	// Find new findings (in current but not in previous)
	for key, finding := range currentFindings {
		if _, exists := previousFindings[key]; !exists {
			result.NewFindings = append(result.NewFindings, finding)
		}
	}

	// Find resolved findings (in previous but not in current)
	for key, finding := range previousFindings {
		if _, exists := currentFindings[key]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, finding)
		} else {
			result.UnchangedCount++
		}
	}

	result.FindingDeltas = FindingDeltas{
		CriticalDelta: result.CurrentAudit.CriticalCount - result.PreviousAudit.CriticalCount,
		HighDelta:     result.CurrentAudit.HighCount - result.PreviousAudit.HighCount,
		MediumDelta:   result.CurrentAudit.MediumCount - result.PreviousAudit.MediumCount,
		LowDelta:      result.CurrentAudit.LowCount - result.PreviousAudit.LowCount,
		InfoDelta:     result.CurrentAudit.InfoCount - result.PreviousAudit.InfoCount,
	}

	result.Risk = risk.CompareAudits(previous, current)

	var currentProb float64
	if current.Risk != nil {
		currentProb = current.Risk.Probability
	}
	result.Trend = risk.AnalyzeTrend(currentProb, history)

	return result
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value + "|" + f.Location
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Audit Comparison: %s\n\n", result.Site)

	// Risk change summary
	fmt.Println("## Summary")
	fmt.Printf("\n**Risk Status:** %s\n\n", formatRiskDirection(result.Risk.Direction))

	// Audit metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousAudit.DateAudited.Format("2006-01-02 15:04"),
		result.CurrentAudit.DateAudited.Format("2006-01-02 15:04"))
	fmt.Printf("| Risk Score | %.1f | %.1f | %s |\n",
		result.PreviousAudit.RiskScorePct,
		result.CurrentAudit.RiskScorePct,
		formatScoreDelta(result.Risk.RiskDelta*100))
	fmt.Printf("| Critical | %d | %d | %s |\n",
		result.PreviousAudit.CriticalCount,
		result.CurrentAudit.CriticalCount,
		formatDelta(result.FindingDeltas.CriticalDelta))
	fmt.Printf("| High | %d | %d | %s |\n",
		result.PreviousAudit.HighCount,
		result.CurrentAudit.HighCount,
		formatDelta(result.FindingDeltas.HighDelta))
	fmt.Printf("| Medium | %d | %d | %s |\n",
		result.PreviousAudit.MediumCount,
		result.CurrentAudit.MediumCount,
		formatDelta(result.FindingDeltas.MediumDelta))
	fmt.Printf("| Low | %d | %d | %s |\n",
		result.PreviousAudit.LowCount,
		result.CurrentAudit.LowCount,
		formatDelta(result.FindingDeltas.LowDelta))
	fmt.Printf("| Info | %d | %d | %s |\n",
		result.PreviousAudit.InfoCount,
		result.CurrentAudit.InfoCount,
		formatDelta(result.FindingDeltas.InfoDelta))
	fmt.Printf("| **Total** | **%d** | **%d** | **%s** |\n",
		result.PreviousAudit.TotalFindings,
		result.CurrentAudit.TotalFindings,
		formatDelta(result.CurrentAudit.TotalFindings-result.PreviousAudit.TotalFindings))

	// Trend across the full history
	if result.Trend.Direction != risk.TrendUnknown {
		fmt.Printf("\n**Trend:** %s over %d prior audits (change %+.1f%%)\n",
			result.Trend.Direction, result.Trend.HistoryCount, result.Trend.ChangeRate*100)
		if result.Trend.Anomaly {
			fmt.Printf("\n> **Anomaly:** the current score deviates %.1f standard deviations from the historical mean.\n",
				result.Trend.ZScore)
		}
	}

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("- **[%s]** %s: %s\n", f.SeverityText, f.Title, f.Value)
			if f.Location != "" {
				fmt.Printf("  - Location: `%s`\n", f.Location)
			}
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\n## Resolved Findings (%d)\n\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("- ~~**[%s]** %s: %s~~\n", f.SeverityText, f.Title, f.Value)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d findings unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Audit Comparison: %s\n", result.Site)
	fmt.Println(strings.Repeat("=", 60))

	// Risk change summary
	fmt.Printf("\nRisk Status: %s\n", formatRiskDirection(result.Risk.Direction))
	fmt.Printf("Risk Score:  %.1f -> %.1f (%s)\n",
		result.PreviousAudit.RiskScorePct,
		result.CurrentAudit.RiskScorePct,
		formatScoreDelta(result.Risk.RiskDelta*100))

	// Trend across the full history
	if result.Trend.Direction != risk.TrendUnknown {
		fmt.Printf("Trend:       %s over %d prior audits (change %+.1f%%)\n",
			result.Trend.Direction, result.Trend.HistoryCount, result.Trend.ChangeRate*100)
		if result.Trend.Anomaly {
			fmt.Printf("Anomaly:     score deviates %.1f standard deviations from the historical mean\n",
				result.Trend.ZScore)
		}
	}

	// Audit dates
	fmt.Printf("\nPrevious audit: %s\n", result.PreviousAudit.DateAudited.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current audit:  %s\n", result.CurrentAudit.DateAudited.Format("2006-01-02 15:04:05"))

	// Summary table
	fmt.Println("\nFindings Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Critical",
		result.PreviousAudit.CriticalCount, result.CurrentAudit.CriticalCount,
		formatDelta(result.FindingDeltas.CriticalDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "High",
		result.PreviousAudit.HighCount, result.CurrentAudit.HighCount,
		formatDelta(result.FindingDeltas.HighDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Medium",
		result.PreviousAudit.MediumCount, result.CurrentAudit.MediumCount,
		formatDelta(result.FindingDeltas.MediumDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Low",
		result.PreviousAudit.LowCount, result.CurrentAudit.LowCount,
		formatDelta(result.FindingDeltas.LowDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Info",
		result.PreviousAudit.InfoCount, result.CurrentAudit.InfoCount,
		formatDelta(result.FindingDeltas.InfoDelta))
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousAudit.TotalFindings, result.CurrentAudit.TotalFindings,
		formatDelta(result.CurrentAudit.TotalFindings-result.PreviousAudit.TotalFindings))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
			if f.Location != "" {
				fmt.Printf("      Location: %s\n", f.Location)
			}
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("  [-] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction risk.TrendDirection) string {
	switch direction {
	case risk.TrendImproving:
		return "IMPROVED (risk decreased)"
	case risk.TrendWorsening:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}

// formatScoreDelta formats a risk score delta in percentage points.
func formatScoreDelta(delta float64) string {
	if delta == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%+.1f", delta)
}
