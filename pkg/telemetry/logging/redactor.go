package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Credential pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternKeyParam    = "key_param"
)

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			{
				// OpenAI, Anthropic and DeepSeek style keys
				name:        PatternAPIKey,
				regex:       regexp.MustCompile(`sk-[a-zA-Z0-9_\-]{4,}`),
				replacement: "sk-***",
			},
			{
				name:        PatternBearerToken,
				regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
				replacement: "Bearer ***",
			},
			{
				// api_key=..., apikey: ..., key=... in query strings
				name:        PatternKeyParam,
				regex:       regexp.MustCompile(`(?i)\b(api[-_]?key|key)([=:]\s*)[^\s&"]+`),
				replacement: "$1$2***",
			},
		},
	}
}

// RedactString masks credentials found in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr returns a with credentials masked. Groups are walked.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}

	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, RedactAPIKey(v.String()))
		}
		return slog.String(a.Key, r.RedactString(v.String()))

	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, "***")
		}
		return slog.Attr{Key: a.Key, Value: v}

	default:
		return slog.Attr{Key: a.Key, Value: v}
	}
}

// isSensitiveKey checks if a key name indicates a credential.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"secret", "token", "api_key", "apikey",
		"authorization", "credential", "password",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return "***"
	}

	// Keep first 4 characters for identification
	return apiKey[:4] + "***"
}
