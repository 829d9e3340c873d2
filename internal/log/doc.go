// Package log wraps slog with automatic masking of credential-shaped
// values so audit logs stay safe to share.
//
// Signal bundles for audited pages can embed captured request headers
// and ad request URLs. Analyzers log slices of that material while
// classifying traffic, so the logging layer scrubs it rather than
// trusting every call site to remember.
//
// SecureHandler masks:
//   - Captured HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Values matching credential patterns (JWTs, bearer tokens, API keys)
//   - Ad server reporting credentials (service accounts, OAuth tokens)
//   - Session identifiers
//   - Sensitive query parameters inside captured ad request URLs
//
// Masking applies at every level, verbose included.
//
// Typical setup:
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request captured",
//	    "cookie", "session=abc123",  // masked
//	    "url", "https://example.com",
//	)
//
//	slog.SetDefault(logger)
package log
