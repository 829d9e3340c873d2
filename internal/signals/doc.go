// Package signals decodes collector signal bundles at the boundary of
// the engine. Everything downstream assumes a sane bundle, so all
// validation and defaulting happens here: viewport fallbacks, geometry
// clamping, and the fingerprint that identifies a bundle in the audit
// history.
package signals
