// Package risk combines the analyzer outputs into a single weighted
// risk verdict, and compares verdicts over time for trend and anomaly
// detection.
//
// The engine never invents certainty: each evidence component carries a
// confidence, blocked crawls degrade to ad server data alone, and when
// no component has any confidence at all the verdict is inconclusive
// rather than a number pulled from a prior.
package risk
