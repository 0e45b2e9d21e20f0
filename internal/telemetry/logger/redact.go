package logger

import (
	"log/slog"
	"strings"
)

// Values with these prefixes are partially masked wherever they appear.
var sensitiveValuePrefixes = []string{
	"ohrg-", // registration token
}

// Keys containing these patterns have their string values fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"bearer",
	"api_key",
	"apikey",
	"authorization",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if prefix, ok := sensitivePrefix(s); ok {
			return slog.String(a.Key, maskValue(s, prefix))
		}
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

func sensitivePrefix(value string) (string, bool) {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// maskValue keeps the prefix, the first 3 and the last 3 characters.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks value if it carries a sensitive prefix.
func RedactString(value string) string {
	if prefix, ok := sensitivePrefix(value); ok {
		return maskValue(value, prefix)
	}
	return value
}

// IsSensitiveKey reports whether a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}
