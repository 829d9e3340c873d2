// Package geometry provides the rectangle arithmetic shared by the layout
// analyzers: intersection ratios against a viewport, pairwise overlap
// fractions, and stacked-rectangle detection.
//
// All functions are pure and total. Degenerate rectangles (zero or negative
// width or height) never produce errors; they simply contribute zero area,
// so callers can feed raw element geometry without pre-filtering.
package geometry
