package logger

import (
	"log/slog"
	"strings"
)

// Redacted replaces the value of every attribute whose key is redacted.
const Redacted = "[REDACTED]"

// DefaultRedactedKeys are attribute keys that never reach log output.
var DefaultRedactedKeys = []string{
	"password",
	"secret",
	"token",
	"access_token",
	"refresh_token",
	"id_token",
	"authorization",
	"api_key",
}

// WithRedactedKeys adds keys to the redaction set. Matching ignores case.
func WithRedactedKeys(keys ...string) Option {
	return func(c *config) {
		for _, k := range keys {
			if k != "" {
				c.redacted[strings.ToLower(k)] = struct{}{}
			}
		}
	}
}

func redactor(keys map[string]struct{}) func([]string, slog.Attr) slog.Attr {
	if len(keys) == 0 {
		return nil
	}
	return func(_ []string, a slog.Attr) slog.Attr {
		if _, ok := keys[strings.ToLower(a.Key)]; ok {
			return slog.String(a.Key, Redacted)
		}
		return a
	}
}
