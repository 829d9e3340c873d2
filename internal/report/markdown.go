package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/mfascan/mfascan/internal/model"
)

// MarkdownWriter renders reports as Markdown suitable for pasting into
// issues, wikis, and audit documentation.
//
// Design decision: nao1215/markdown builds the document instead of raw
// string concatenation because:
// 1. Tables and code blocks come out structurally valid
// 2. GitHub-flavored alerts map the risk tiers onto Caution/Warning/Tip
// 3. Mermaid pie charts are available for the severity breakdown
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
// The full report includes the risk component breakdown, which the
// simple report does not carry.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	simple := report.SimpleReport
	if simple == nil {
		simple = model.NewSimpleReport(report)
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, simple)
	w.writeRisk(md, simple)
	w.writeRiskComponents(md, report.Risk)
	w.writeSummary(md, simple)
	w.writeFindings(md, simple)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSimple outputs the simple report in Markdown format.
func (w *MarkdownWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeRisk(md, report)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader emits the title and the audit metadata table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SimpleReport) {
	md.H1("MFA Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.Site + "`"},
			{"Audit Date", report.DateAudited.Format("2006-01-02 15:04:05 MST")},
			{"Ad Slots", strconv.Itoa(report.AdCount)},
			{"Ad Requests", strconv.Itoa(report.AdRequestCount)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText maps the report's completion state to a status cell.
func (w *MarkdownWriter) getStatusText(report *model.SimpleReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	return "✅ Complete"
}

// writeRisk writes the aggregate risk assessment section.
func (w *MarkdownWriter) writeRisk(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Risk Assessment")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"MFA Risk Score", fmt.Sprintf("%.1f / 100", report.RiskScorePct)},
			{"Risk Level", strings.ToUpper(string(report.RiskLevel))},
			{"Confidence", fmt.Sprintf("%.0f%%", report.Confidence*100)},
		},
	})
	md.PlainText("")

	switch report.RiskLevel {
	case model.RiskLevelHigh:
		md.Cautionf(
			"This page shows strong made-for-advertising characteristics (risk %.1f/100).",
			report.RiskScorePct,
		)
	case model.RiskLevelMedium:
		md.Warningf(
			"This page shows some made-for-advertising characteristics (risk %.1f/100).",
			report.RiskScorePct,
		)
	case model.RiskLevelInconclusive:
		md.Note("The audit could not reach a conclusive risk assessment.")
	default:
		md.Tip("No significant made-for-advertising characteristics detected.")
	}
	md.PlainText("")
}

// writeRiskComponents writes the per-component risk breakdown.
func (w *MarkdownWriter) writeRiskComponents(md *markdown.Markdown, risk *model.RiskResult) {
	if risk == nil || len(risk.Components) == 0 {
		return
	}

	md.H2("Risk Components")
	md.PlainText("")

	rows := make([][]string, len(risk.Components))
	for i, c := range risk.Components {
		rows[i] = []string{
			c.Name,
			fmt.Sprintf("%.2f", c.Score),
			fmt.Sprintf("%.0f%%", c.Weight*100),
			fmt.Sprintf("%.0f%%", c.Confidence*100),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Component", "Score", "Weight", "Confidence"},
		Rows:   rows,
	})
	md.PlainText("")

	// Pie chart of each component's weighted contribution
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Weighted Risk Contribution"),
		piechart.WithShowData(true),
	)
	hasContribution := false
	for _, c := range risk.Components {
		contribution := uint64(c.Score * c.Weight * c.Confidence * 1000)
		if contribution == 0 {
			continue
		}
		chart.LabelAndIntValue(c.Name, contribution)
		hasContribution = true
	}
	if hasContribution {
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	for _, note := range risk.Notes {
		md.Note(note)
		md.PlainText("")
	}
}

// writeSummary emits the per-severity finding counts.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 High", strconv.Itoa(report.HighCount)},
			{"🟡 Medium", strconv.Itoa(report.MediumCount)},
			{"🔵 Low", strconv.Itoa(report.LowCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}
}

// writePieChart emits a mermaid pie chart of the severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.SimpleReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if report.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(report.CriticalCount))
	}
	if report.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(report.HighCount))
	}
	if report.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(report.MediumCount))
	}
	if report.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(report.LowCount))
	}
	if report.InfoCount > 0 {
		chart.LabelAndIntValue("Info", uint64(report.InfoCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFindings emits every finding, grouped by severity tier.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.SimpleReport) {
	if !report.HasFindings() {
		md.H2("Findings")
		md.PlainText("")
		md.PlainText("No suspicious patterns detected.")
		md.PlainText("")
		return
	}

	md.H2("Findings")
	md.PlainText("")

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := report.GetFindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable emits one severity tier's findings as a table, with
// collapsible detail sections underneath.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Title", "Value", "Location", "Recommendation"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		value := f.Value
		if value == "" {
			value = "-"
		}
		location := f.Location
		if location == "" {
			location = "-"
		}
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			f.Title,
			truncateString(value, 50),
			truncateString(location, 40),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeFooter emits the closing rule and attribution line.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by mfascan*")
}

// truncateString shortens s to maxLen bytes, ellipsized. Table cells get
// unreadable past a certain width.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
