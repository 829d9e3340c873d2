package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mfascan/mfascan/internal/model"
)

// SimpleWriter renders a human-readable text report for the terminal.
//
// Design decision: Plain ASCII, no ANSI colors. Audit output is routinely
// piped into files and ticketing systems, and severity indicators carry
// the same information without escape codes.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty makes the writer print severity sections with no findings.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose adds finding descriptions and recommendations to the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter targeting the given destination.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the report, deriving the summary first if the audit
// pipeline has not produced one.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	simple := report.SimpleReport
	if simple == nil {
		simple = model.NewSimpleReport(report)
	}

	return w.WriteSimple(simple)
}

// WriteSimple renders the summary report section by section.
func (w *SimpleWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeRisk(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the banner and audit metadata.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         MFASCAN AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:           %s\n", report.Site))
	sb.WriteString(fmt.Sprintf("Audit Date:     %s\n", report.DateAudited.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Ad Slots:       %d\n", report.AdCount))
	sb.WriteString(fmt.Sprintf("Ad Requests:    %d\n", report.AdRequestCount))

	if report.TimedOut {
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	} else if report.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.Error))
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeRisk writes the aggregate MFA risk section.
func (w *SimpleWriter) writeRisk(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RISK ASSESSMENT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  MFA Risk:   %.1f / 100 (%s)\n", report.RiskScorePct, strings.ToUpper(string(report.RiskLevel))))
	sb.WriteString(fmt.Sprintf("  Confidence: %.0f%%\n", report.Confidence*100))
	sb.WriteString("\n")
}

// writeSummary writes the per-severity finding counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", report.CriticalCount))
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", report.HighCount))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", report.MediumCount))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", report.LowCount))
	sb.WriteString(fmt.Sprintf("  INFO:     %d\n", report.InfoCount))
	sb.WriteString("\n")

	total := report.TotalFindings()
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", total))
	sb.WriteString("\n")
}

// writeFindings writes every finding grouped by severity, worst first.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.SimpleReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes the block for one severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Title))
		if finding.Value != "" {
			sb.WriteString(fmt.Sprintf("    Value: %s\n", finding.Value))
		}
		if finding.Location != "" {
			sb.WriteString(fmt.Sprintf("    Location: %s\n", finding.Location))
		}
		if w.verbose && finding.Description != "" {
			sb.WriteString(fmt.Sprintf("    Description: %s\n", finding.Description))
		}
		if w.verbose && finding.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("    Recommendation: %s\n", finding.Recommendation))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns the marker printed before a severity header.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter closes the report.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, _ *model.SimpleReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by mfascan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
