package report

import (
	"io"

	"github.com/mfascan/mfascan/internal/model"
)

// Writer renders an audit result to some destination.
//
// Design decision: An interface lets callers pick the format and the
// destination independently; the same code path can target stdout, a
// file, or anything else with an io.Writer underneath.
type Writer interface {
	// Write renders the full audit report.
	// It returns the number of bytes written and any error.
	Write(report *model.AuditReport) (int, error)

	// WriteSimple renders only the summary portion of a report,
	// for quick output without the per-analysis detail.
	WriteSimple(report *model.SimpleReport) (int, error)
}

// MultiWriter fans a report out to several Writers, e.g. terminal plus
// a file.
//
// Design decision: io.MultiWriter cannot be reused here because the
// Writer interface carries reports, not raw bytes, so this is a small
// separate type.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to every provided Writer.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the report through every configured Writer, stopping at
// the first error. The returned count is the total across writers.
func (m *MultiWriter) Write(report *model.AuditReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSimple renders the summary through every configured Writer.
func (m *MultiWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSimple(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output destination shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
