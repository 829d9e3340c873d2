package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that are always masked. Signal
// bundles embed captured request metadata, and analyzers log slices of it;
// anything credential-shaped must not reach the log output.
var sensitiveKeys = map[string]bool{
	// Captured HTTP headers
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,

	// Authentication
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"access_token":  true,
	"refresh_token": true,
	"private_key":   true,
	"privatekey":    true,
	"secret_key":    true,
	"secretkey":     true,

	// Session
	"session":    true,
	"session_id": true,
	"sessionid":  true,
	"sid":        true,
	"jsessionid": true,

	// Credentials
	"credential":  true,
	"credentials": true,
	"auth":        true,

	// Ad server reporting credentials
	"client_secret":       true,
	"service_account":     true,
	"service_account_key": true,
	"gam_credentials":     true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
// Values matching these patterns will be sanitized regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// API keys (common formats)
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`), // Long alphanumeric strings

	// AWS access keys
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),

	// Google OAuth access tokens (ad server reporting APIs)
	regexp.MustCompile(`^ya29\.[A-Za-z0-9_-]+$`),
}

// sensitiveQueryParams lists query parameter names whose values are masked
// when a captured request URL is logged. Ad request URLs routinely carry
// keys and signed tokens in the query string.
var sensitiveQueryParams = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"key":           true,
	"token":         true,
	"access_token":  true,
	"id_token":      true,
	"auth":          true,
	"client_secret": true,
	"sig":           true,
	"signature":     true,
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler and masks credential-shaped
// attribute values before the wrapped handler sees them.
//
// Design decision: A handler wrapper rather than a bespoke logger type
// because:
//  1. Callers keep the plain *slog.Logger API
//  2. Any backend handler works underneath (text, JSON)
//  3. Libraries that accept an slog.Handler compose with it directly
type SecureHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler
}

// NewSecureHandler wraps handler with attribute sanitization. A nil
// handler falls back to slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates the level check to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rebuilds the record with sanitized attributes and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs sanitizes the attributes before attaching them, so values
// bound early get the same treatment as per-record ones.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup opens a group on the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks one attribute, descending into groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if isSensitiveValue(strVal) {
			return slog.String(a.Key, MaskValue)
		}
		if scrubbed, changed := scrubURLValue(strVal); changed {
			return slog.String(a.Key, scrubbed)
		}
	}

	return a
}

// urlMaskValue replaces sensitive query parameter values. It avoids the
// characters in MaskValue that query encoding would percent-escape.
const urlMaskValue = "REDACTED"

// scrubURLValue masks sensitive query parameters in URL-shaped values.
// The rest of the URL is kept so log lines stay useful for debugging
// request classification.
func scrubURLValue(raw string) (string, bool) {
	if !strings.Contains(raw, "://") || !strings.Contains(raw, "=") {
		return raw, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw, false
	}

	q := u.Query()
	changed := false
	for name := range q {
		if sensitiveQueryParams[strings.ToLower(name)] {
			q.Set(name, urlMaskValue)
			changed = true
		}
	}
	if !changed {
		return raw, false
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

// containsSensitiveKeyword reports whether the key embeds a sensitive
// keyword. The bare substring "key" is excluded here because it matches
// too much ("primary_key", "keyboard", "monkey"); the specific forms like
// "api_key" and "private_key" are handled by the sensitiveKeys map.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"password", "passwd", "secret", "token", "auth",
		"credential", "private",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether the value looks like a credential.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger builds a text-format *slog.Logger that masks sensitive
// values. Output goes to w, typically os.Stderr. verbose selects Debug
// level; otherwise only warnings and errors are emitted.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	secureHandler := NewSecureHandler(textHandler)

	return slog.New(secureHandler)
}

// NewSecureJSONLogger is NewSecureLogger with a JSON backend, for setups
// that ship logs to an aggregator.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	secureHandler := NewSecureHandler(jsonHandler)

	return slog.New(secureHandler)
}
