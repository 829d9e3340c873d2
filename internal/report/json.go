package report

import (
	"encoding/json"
	"io"

	"github.com/mfascan/mfascan/internal/model"
)

// JSONWriter renders reports as JSON for downstream tooling.
//
// Design decision: encoding/json is enough here. The report structs are
// small, marshaled once per audit, and carry no custom wire format that
// would justify a faster or more featureful JSON library.
type JSONWriter struct {
	baseWriter

	// indent switches between compact and pretty-printed output.
	indent bool

	// indentPrefix and indentString feed json.MarshalIndent when
	// indent is set.
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed output with the given per-line
// prefix and per-level indentation string.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is shorthand for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter targeting the given destination.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the full audit report as JSON.
func (w *JSONWriter) Write(report *model.AuditReport) (int, error) {
	// Ensure SimpleReport is generated
	if report.SimpleReport == nil {
		report.SimpleReport = model.NewSimpleReport(report)
	}

	return w.writeJSON(report)
}

// WriteSimple renders only the summary as JSON.
func (w *JSONWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	return w.writeJSON(report)
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a report with output-level metadata.
//
// Design decision: A wrapper keeps fields like the generating version out
// of AuditReport itself, which is also what gets persisted to the history
// database.
type JSONReport struct {
	// Version is the mfascan version that generated this report.
	Version string `json:"version"`

	// Report is the full audit report.
	Report *model.AuditReport `json:"report"`

	// Summary is the simple report for quick access.
	Summary *model.SimpleReport `json:"summary,omitempty"`
}

// NewJSONReport wraps a report with the generating version.
func NewJSONReport(report *model.AuditReport, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Report:  report,
		Summary: report.SimpleReport,
	}
}

// FullJSONWriter renders reports inside the JSONReport metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the mfascan version string.
	version string
}

// NewFullJSONWriter creates a FullJSONWriter stamping the given version.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write renders the report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.AuditReport) (int, error) {
	// Ensure SimpleReport is generated
	if report.SimpleReport == nil {
		report.SimpleReport = model.NewSimpleReport(report)
	}

	wrapped := NewJSONReport(report, w.version)
	return w.writeJSON(wrapped)
}
