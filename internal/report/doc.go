// Package report renders audit results in several output formats.
//
// Available writers:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for downstream tooling
//   - MarkdownWriter: markdown for documentation and sharing
//
// Design decision: Rendering lives apart from the report data structures
// (model package) so new formats can be added without touching the types
// they serialize. All writers satisfy the Writer interface and can be
// composed through MultiWriter for multi-format output.
package report
