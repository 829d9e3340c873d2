// Package main provides the entry point for the mfascan CLI.
//
// mfascan audits web pages for made-for-advertising (MFA) characteristics.
// It analyzes signal bundles captured from rendered pages: ad placement,
// viewability, scroll behavior, network traffic, and ad server metrics.
//
// Usage:
//
//	mfascan audit <bundle.json>
//	mfascan audit --gam records.json <bundle.json>
//
// See --help for all available options.
package main

// main is the entry point for mfascan.
func main() {
	Execute()
}
